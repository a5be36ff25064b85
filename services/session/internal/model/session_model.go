package model

import (
	"time"

	"gorm.io/gorm"
)

type SessionModel struct {
	ID           string         `gorm:"type:uuid;primary_key"`
	CreatorID    string         `gorm:"type:uuid;not null;index"`
	Title        string         `gorm:"not null"`
	Caption      string
	PosterURL    string
	VideoURL     string
	Type         string         `gorm:"type:varchar(10);not null"`
	Genre        string         `gorm:"index"`
	Status       string         `gorm:"type:varchar(20);default:'scheduled';index"`
	StartTime    *time.Time
	EndTime      *time.Time
	ViewerCount  int            `gorm:"default:0"`
	LikeCount    int            `gorm:"default:0"`
	CommentCount int            `gorm:"default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (SessionModel) TableName() string {
	return "sessions"
}

type UserModel struct {
	ID       string `gorm:"type:uuid;primary_key"`
	Username string
}

func (UserModel) TableName() string {
	return "users"
}

type LikeModel struct {
	ID        string `gorm:"type:uuid;primary_key"`
	UserID    string `gorm:"type:uuid;not null"`
	SessionID string `gorm:"type:uuid;not null"`
}

func (LikeModel) TableName() string {
	return "likes"
}

type BookingModel struct {
	ID        string `gorm:"type:uuid;primary_key"`
	UserID    string `gorm:"type:uuid;not null"`
	SessionID string `gorm:"type:uuid;not null"`
	Status    string `gorm:"type:varchar(20);default:'confirmed'"`
}

func (BookingModel) TableName() string {
	return "bookings"
}

type FollowModel struct {
	ID          string `gorm:"type:uuid;primary_key"`
	FollowerID  string `gorm:"type:uuid;not null"`
	FollowingID string `gorm:"type:uuid;not null"`
}

func (FollowModel) TableName() string {
	return "follows"
}
