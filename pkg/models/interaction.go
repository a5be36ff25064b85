package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Like struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_likes_user_session" json:"user_id"`
	SessionID string    `gorm:"type:uuid;not null;uniqueIndex:idx_likes_user_session;index" json:"session_id"`
	CreatedAt time.Time `json:"created_at"`

	User    User    `gorm:"foreignKey:UserID" json:"-"`
	Session Session `gorm:"foreignKey:SessionID" json:"-"`
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID        string        `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string        `gorm:"type:uuid;not null;uniqueIndex:idx_bookings_user_session" json:"user_id"`
	SessionID string        `gorm:"type:uuid;not null;uniqueIndex:idx_bookings_user_session;index" json:"session_id"`
	Status    BookingStatus `gorm:"type:varchar(20);default:'confirmed'" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`

	User    User    `gorm:"foreignKey:UserID" json:"-"`
	Session Session `gorm:"foreignKey:SessionID" json:"-"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

type Comment struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	SessionID string    `gorm:"type:uuid;not null;index" json:"session_id"`
	ParentID  *string   `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	Message   string    `gorm:"type:varchar(500);not null" json:"message"`
	CreatedAt time.Time `json:"created_at"`

	User    User    `gorm:"foreignKey:UserID" json:"-"`
	Session Session `gorm:"foreignKey:SessionID" json:"-"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	return nil
}

type Gift struct {
	ID        string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	SessionID string    `gorm:"type:uuid;not null;index" json:"session_id"`
	GiftType  string    `gorm:"type:varchar(20);not null" json:"gift_type"`
	GiftValue int       `gorm:"not null" json:"gift_value"`
	CreatedAt time.Time `json:"created_at"`

	User    User    `gorm:"foreignKey:UserID" json:"-"`
	Session Session `gorm:"foreignKey:SessionID" json:"-"`
}

func (g *Gift) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.New().String()
	}
	return nil
}

// UserSession is a live attendance record; left_at IS NULL means the user
// is currently in the room. A partial unique index keeps at most one open
// record per (user, session).
type UserSession struct {
	ID            string     `gorm:"type:uuid;primary_key" json:"id"`
	UserID        string     `gorm:"type:uuid;not null;index" json:"user_id"`
	SessionID     string     `gorm:"type:uuid;not null;index" json:"session_id"`
	JoinedAt      time.Time  `gorm:"not null" json:"joined_at"`
	LeftAt        *time.Time `json:"left_at"`
	WatchDuration int        `gorm:"default:0" json:"watch_duration"`

	User    User    `gorm:"foreignKey:UserID" json:"-"`
	Session Session `gorm:"foreignKey:SessionID" json:"-"`
}

func (us *UserSession) BeforeCreate(tx *gorm.DB) error {
	if us.ID == "" {
		us.ID = uuid.New().String()
	}
	return nil
}
