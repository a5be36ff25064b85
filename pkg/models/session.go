package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionType string

const (
	SessionTypePost  SessionType = "post"
	SessionTypeEvent SessionType = "event"
)

type SessionStatus string

const (
	StatusScheduled SessionStatus = "scheduled"
	StatusLive      SessionStatus = "live"
	StatusEnded     SessionStatus = "ended"
	StatusCancelled SessionStatus = "cancelled"
)

// CanTransitionTo encodes the session lifecycle: scheduled may go live or
// be cancelled, live may end, and both ended and cancelled are sinks.
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	switch s {
	case StatusScheduled:
		return target == StatusLive || target == StatusCancelled
	case StatusLive:
		return target == StatusEnded
	default:
		return false
	}
}

// DefaultEventDuration is applied when an event is created without an
// explicit end time.
const DefaultEventDuration = 2 * time.Hour

type Session struct {
	ID           string         `gorm:"type:uuid;primary_key" json:"id"`
	CreatorID    string         `gorm:"type:uuid;not null;index" json:"creator_id"`
	Title        string         `gorm:"not null" json:"title"`
	Caption      string         `json:"caption"`
	PosterURL    string         `json:"poster_url"`
	VideoURL     string         `json:"video_url"`
	Type         SessionType    `gorm:"type:varchar(10);not null" json:"type"`
	Genre        string         `gorm:"index" json:"genre"`
	Status       SessionStatus  `gorm:"type:varchar(20);default:'scheduled';index" json:"status"`
	StartTime    *time.Time     `json:"start_time"`
	EndTime      *time.Time     `json:"end_time"`
	ViewerCount  int            `gorm:"default:0" json:"viewer_count"`
	LikeCount    int            `gorm:"default:0" json:"like_count"`
	CommentCount int            `gorm:"default:0" json:"comment_count"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
