package model

import "time"

type SessionModel struct {
	ID        string `gorm:"type:uuid;primary_key"`
	CreatorID string `gorm:"type:uuid;not null"`
	Title     string
	Status    string `gorm:"type:varchar(20)"`
	StartTime *time.Time
	EndTime   *time.Time
}

func (SessionModel) TableName() string {
	return "sessions"
}

type UserModel struct {
	ID         string `gorm:"type:uuid;primary_key"`
	Username   string
	AvatarURL  string
	IsVerified bool
}

func (UserModel) TableName() string {
	return "users"
}

type LikeModel struct {
	ID        string `gorm:"type:uuid;primary_key"`
	UserID    string `gorm:"type:uuid;not null"`
	SessionID string `gorm:"type:uuid;not null"`
	CreatedAt time.Time
}

func (LikeModel) TableName() string {
	return "likes"
}

type CommentModel struct {
	ID        string `gorm:"type:uuid;primary_key"`
	UserID    string `gorm:"type:uuid;not null"`
	SessionID string `gorm:"type:uuid;not null"`
	Message   string `gorm:"type:varchar(500);not null"`
	CreatedAt time.Time
}

func (CommentModel) TableName() string {
	return "comments"
}

type GiftModel struct {
	ID        string `gorm:"type:uuid;primary_key"`
	UserID    string `gorm:"type:uuid;not null"`
	SessionID string `gorm:"type:uuid;not null"`
	GiftType  string `gorm:"type:varchar(20);not null"`
	GiftValue int    `gorm:"not null"`
	CreatedAt time.Time
}

func (GiftModel) TableName() string {
	return "gifts"
}

type UserSessionModel struct {
	ID            string `gorm:"type:uuid;primary_key"`
	UserID        string `gorm:"type:uuid;not null"`
	SessionID     string `gorm:"type:uuid;not null"`
	JoinedAt      time.Time
	LeftAt        *time.Time
	WatchDuration int `gorm:"default:0"`
}

func (UserSessionModel) TableName() string {
	return "user_sessions"
}

type BookingModel struct {
	ID        string `gorm:"type:uuid;primary_key"`
	UserID    string `gorm:"type:uuid;not null"`
	SessionID string `gorm:"type:uuid;not null"`
	Status    string `gorm:"type:varchar(20)"`
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
