package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	RoleViewer    UserRole = "viewer"
	RoleCreator   UserRole = "creator"
	RoleModerator UserRole = "moderator"
)

type User struct {
	ID         string         `gorm:"type:uuid;primary_key" json:"id"`
	Email      string         `gorm:"uniqueIndex;not null" json:"email"`
	Username   string         `gorm:"uniqueIndex;not null" json:"username"`
	Password   string         `gorm:"not null" json:"-"`
	FullName   string         `json:"full_name"`
	Bio        string         `json:"bio"`
	AvatarURL  string         `json:"avatar_url"`
	Role       UserRole       `gorm:"type:varchar(20);default:'viewer'" json:"role"`
	IsVerified bool           `gorm:"default:false" json:"is_verified"`
	IsActive   bool           `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
