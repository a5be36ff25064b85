package model

import "time"

type NotificationModel struct {
	ID        string  `gorm:"type:uuid;primary_key"`
	UserID    string  `gorm:"type:uuid;not null;index"`
	Type      string  `gorm:"type:varchar(30);not null"`
	Title     string  `gorm:"not null"`
	Message   string
	SessionID *string                `gorm:"type:uuid"`
	Data      map[string]interface{} `gorm:"type:jsonb;serializer:json"`
	IsRead    bool                   `gorm:"default:false"`
	CreatedAt time.Time
}

func (NotificationModel) TableName() string {
	return "notifications"
}

type UserModel struct {
	ID       string `gorm:"type:uuid;primary_key"`
	Username string
}

func (UserModel) TableName() string {
	return "users"
}
