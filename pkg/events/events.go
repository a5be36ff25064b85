package events

import "fmt"

// Server-to-client socket events.
const (
	SessionJoined        = "session-joined"
	UserJoined           = "user-joined"
	UserLeft             = "user-left"
	NewComment           = "new-comment"
	NewGift              = "new-gift"
	SessionLiked         = "session-liked"
	SessionUnliked       = "session-unliked"
	SessionStatusUpdated = "session-status-updated"
	SessionStarted       = "session-started"
	SessionEnded         = "session-ended"
	NewNotification      = "new-notification"
	NotificationRead     = "notification-read"
	Error                = "error"
)

// Client-to-server socket events.
const (
	JoinSession         = "join-session"
	LeaveSession        = "leave-session"
	SendComment         = "send-comment"
	SendGift            = "send-gift"
	LikeSession         = "like-session"
	SessionStatusChange = "session-status-change"
)

// SessionsChannel carries platform-wide session lifecycle events; every
// connected socket receives them regardless of room membership.
const SessionsChannel = "sessions:events"

// RoomChannel is the per-session fan-out channel.
func RoomChannel(sessionID string) string {
	return fmt.Sprintf("room:%s", sessionID)
}

// RoomChannelPattern matches all room channels, for PSUBSCRIBE.
const RoomChannelPattern = "room:*"

// UserChannelPattern matches all per-user notification channels.
const UserChannelPattern = "notifications:*"

// UserChannel carries per-user notification pushes.
func UserChannel(userID string) string {
	return fmt.Sprintf("notifications:%s", userID)
}

// Envelope is the wire format published on redis channels and written to
// sockets. ExcludeUserID, when set, keeps the event away from that user's
// connections (join announcements are not echoed to the joiner).
type Envelope struct {
	Event         string                 `json:"event"`
	SessionID     string                 `json:"session_id,omitempty"`
	Data          map[string]interface{} `json:"data,omitempty"`
	ExcludeUserID string                 `json:"exclude_user_id,omitempty"`
}
