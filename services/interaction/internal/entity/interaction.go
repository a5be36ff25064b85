package entity

import "time"

// Profile is the public slice of a user attached to comments, gifts and
// follow listings.
type Profile struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	FullName   string `json:"full_name,omitempty"`
	AvatarURL  string `json:"avatar_url,omitempty"`
	IsVerified bool   `json:"is_verified"`
}

// SessionRef is the minimal session view the ledger needs to enforce
// state rules and route notifications.
type SessionRef struct {
	ID        string
	CreatorID string
	Title     string
	Status    string
}

type Comment struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	ParentID  *string   `json:"parent_id,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
	Author    *Profile  `json:"author,omitempty"`
}

type Gift struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	GiftType  string    `json:"gift_type"`
	GiftValue int       `json:"gift_value"`
	CreatedAt time.Time `json:"created_at"`
	Sender    *Profile  `json:"sender,omitempty"`
}
