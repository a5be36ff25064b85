package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationBooking         NotificationType = "booking"
	NotificationLike            NotificationType = "like"
	NotificationComment         NotificationType = "comment"
	NotificationGift            NotificationType = "gift"
	NotificationFollow          NotificationType = "follow"
	NotificationSessionStart    NotificationType = "session_start"
	NotificationBookingReminder NotificationType = "booking_reminder"
)

// Notification rows are created only by the system in reaction to domain
// events; user actions can flip is_read but never edit content.
type Notification struct {
	ID        string                 `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string                 `gorm:"type:uuid;not null;index" json:"user_id"`
	Type      NotificationType       `gorm:"type:varchar(30);not null" json:"type"`
	Title     string                 `gorm:"not null" json:"title"`
	Message   string                 `json:"message"`
	SessionID *string                `gorm:"type:uuid;index" json:"session_id,omitempty"`
	Data      map[string]interface{} `gorm:"type:jsonb;serializer:json" json:"data,omitempty"`
	IsRead    bool                   `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time              `json:"created_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	return nil
}
