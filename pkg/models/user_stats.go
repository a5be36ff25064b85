package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserStats carries the denormalized follower/following counters. The
// counters are a materialized view of the follows table: every follow or
// unfollow write runs ApplyFollowDelta in the same transaction, so they
// always equal COUNT(*) over matching rows.
type UserStats struct {
	ID             string    `gorm:"type:uuid;primary_key" json:"id"`
	UserID         string    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	FollowerCount  int       `gorm:"default:0" json:"follower_count"`
	FollowingCount int       `gorm:"default:0" json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (s *UserStats) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}

// ApplyFollowDelta adjusts both sides of a follow edge by delta (+1 on
// follow, -1 on unfollow). Rows are upserted so the first follow a user
// ever receives creates their stats row. Must run inside the transaction
// that writes the follows row.
func ApplyFollowDelta(tx *gorm.DB, followerID, followingID string, delta int) error {
	for _, step := range []struct {
		userID string
		column string
	}{
		{followingID, "follower_count"},
		{followerID, "following_count"},
	} {
		stats := &UserStats{UserID: step.userID}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				step.column:  gorm.Expr("GREATEST(user_stats."+step.column+" + ?, 0)", delta),
				"updated_at": gorm.Expr("NOW()"),
			}),
		}).Create(applyInitialDelta(stats, step.column, delta)).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func applyInitialDelta(stats *UserStats, column string, delta int) *UserStats {
	if delta < 0 {
		return stats
	}
	if column == "follower_count" {
		stats.FollowerCount = delta
	} else {
		stats.FollowingCount = delta
	}
	return stats
}
