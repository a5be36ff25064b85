package entity

import "time"

// SessionRef is the broadcaster's view of a session: enough to enforce
// lifecycle rules on socket events.
type SessionRef struct {
	ID        string
	CreatorID string
	Title     string
	Status    string
	StartTime *time.Time
}

type Profile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	IsVerified bool   `json:"is_verified"`
}

type Comment struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type Gift struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	GiftType  string    `json:"gift_type"`
	GiftValue int       `json:"gift_value"`
	CreatedAt time.Time `json:"created_at"`
}
