package entity

import "time"

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

// CanTransitionTo mirrors the lifecycle rules: scheduled -> live|cancelled,
// live -> ended, terminal states reject everything.
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

type Session struct {
	ID              string        `json:"id"`
	CreatorID       string        `json:"creator_id"`
	CreatorUsername string        `json:"creator_username,omitempty"`
	Title           string        `json:"title"`
	Caption         string        `json:"caption"`
	PosterURL       string        `json:"poster_url"`
	VideoURL        string        `json:"video_url"`
	Type            SessionType   `json:"type"`
	Genre           string        `json:"genre,omitempty"`
	Status          SessionStatus `json:"status"`
	StartTime       *time.Time    `json:"start_time,omitempty"`
	EndTime         *time.Time    `json:"end_time,omitempty"`
	ViewerCount     int           `json:"viewer_count"`
	LikeCount       int           `json:"like_count"`
	CommentCount    int           `json:"comment_count"`
	CreatedAt       time.Time     `json:"created_at"`

	// Personalized flags for the querying user; false for anonymous callers.
	IsLiked     bool `json:"is_liked"`
	IsBooked    bool `json:"is_booked"`
	IsFollowing bool `json:"is_following"`
}

// ListFilter narrows session listings.
type ListFilter struct {
	Status    SessionStatus
	Genre     string
	CreatorID string
	Search    string
	Limit     int
	Offset    int
}
