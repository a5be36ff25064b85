package persistent

import (
	"errors"
	"time"

	"starcast/pkg/errs"
	"starcast/pkg/models"
	"starcast/services/interaction/internal/entity"
	"starcast/services/interaction/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InteractionRepository interface {
	GetSessionRef(sessionID string) (*entity.SessionRef, error)
	GetProfile(userID string) (*entity.Profile, error)

	ToggleLike(userID, sessionID string) (bool, error)
	ToggleBooking(userID, sessionID string) (bool, error)

	CreateComment(comment *entity.Comment) error
	GetCommentSessionID(commentID string) (string, error)
	ListComments(sessionID string, limit, offset int) ([]*entity.Comment, int64, error)

	CreateGift(gift *entity.Gift) error
	ListGifts(sessionID string, limit, offset int) ([]*entity.Gift, int64, error)

	JoinSession(userID, sessionID string) (bool, error)
	LeaveSession(userID, sessionID string) (bool, error)

	ToggleFollow(followerID, followingID string) (bool, error)
	ListFollowers(userID string, limit, offset int) ([]*entity.Profile, int64, error)
	ListFollowing(userID string, limit, offset int) ([]*entity.Profile, int64, error)
}

type interactionRepository struct {
	db *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

func (r *interactionRepository) GetSessionRef(sessionID string) (*entity.SessionRef, error) {
	var m model.SessionModel
	if err := r.db.Where("id = ?", sessionID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &entity.SessionRef{
		ID:        m.ID,
		CreatorID: m.CreatorID,
		Title:     m.Title,
		Status:    m.Status,
	}, nil
}

func (r *interactionRepository) GetProfile(userID string) (*entity.Profile, error) {
	var m model.UserModel
	if err := r.db.Where("id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return toProfile(&m), nil
}

// bumpSessionCounter adjusts a sessions counter column inside tx, clamped
// at zero.
func bumpSessionCounter(tx *gorm.DB, sessionID, column string, delta int) error {
	return tx.Table("sessions").
		Where("id = ?", sessionID).
		UpdateColumn(column, gorm.Expr("GREATEST("+column+" + ?, 0)", delta)).Error
}

func (r *interactionRepository) ToggleLike(userID, sessionID string) (bool, error) {
	liked := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND session_id = ?", userID, sessionID).Delete(&model.LikeModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return bumpSessionCounter(tx, sessionID, "like_count", -1)
		}

		like := &model.LikeModel{
			ID:        uuid.New().String(),
			UserID:    userID,
			SessionID: sessionID,
		}
		if err := tx.Create(like).Error; err != nil {
			// A racing insert got there first; same end state.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				liked = true
				return nil
			}
			return err
		}
		liked = true
		return bumpSessionCounter(tx, sessionID, "like_count", 1)
	})
	return liked, err
}

func (r *interactionRepository) ToggleBooking(userID, sessionID string) (bool, error) {
	booked := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND session_id = ?", userID, sessionID).Delete(&model.BookingModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			booked = false
			return nil
		}

		booking := &model.BookingModel{
			ID:        uuid.New().String(),
			UserID:    userID,
			SessionID: sessionID,
			Status:    string(models.BookingConfirmed),
		}
		if err := tx.Create(booking).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				booked = true
				return nil
			}
			return err
		}
		booked = true
		return nil
	})
	return booked, err
}

func (r *interactionRepository) CreateComment(comment *entity.Comment) error {
	m := &model.CommentModel{
		ID:        uuid.New().String(),
		UserID:    comment.UserID,
		SessionID: comment.SessionID,
		ParentID:  comment.ParentID,
		Message:   comment.Message,
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return bumpSessionCounter(tx, comment.SessionID, "comment_count", 1)
	})
	if err != nil {
		return err
	}

	comment.ID = m.ID
	comment.CreatedAt = m.CreatedAt
	if profile, err := r.GetProfile(comment.UserID); err == nil {
		comment.Author = profile
	}
	return nil
}

func (r *interactionRepository) GetCommentSessionID(commentID string) (string, error) {
	var m model.CommentModel
	if err := r.db.Select("session_id").Where("id = ?", commentID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	return m.SessionID, nil
}

type commentRow struct {
	model.CommentModel
	Username   string
	FullName   string
	AvatarURL  string
	IsVerified bool
}

func (r *interactionRepository) ListComments(sessionID string, limit, offset int) ([]*entity.Comment, int64, error) {
	var total int64
	if err := r.db.Model(&model.CommentModel{}).Where("session_id = ?", sessionID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []commentRow
	err := r.db.Table("comments").
		Select("comments.*, users.username, users.full_name, users.avatar_url, users.is_verified").
		Joins("JOIN users ON users.id = comments.user_id").
		Where("comments.session_id = ?", sessionID).
		Order("comments.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	comments := make([]*entity.Comment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, &entity.Comment{
			ID:        row.ID,
			SessionID: row.SessionID,
			UserID:    row.UserID,
			ParentID:  row.ParentID,
			Message:   row.Message,
			CreatedAt: row.CreatedAt,
			Author: &entity.Profile{
				ID:         row.UserID,
				Username:   row.Username,
				FullName:   row.FullName,
				AvatarURL:  row.AvatarURL,
				IsVerified: row.IsVerified,
			},
		})
	}
	return comments, total, nil
}

func (r *interactionRepository) CreateGift(gift *entity.Gift) error {
	m := &model.GiftModel{
		ID:        uuid.New().String(),
		UserID:    gift.UserID,
		SessionID: gift.SessionID,
		GiftType:  gift.GiftType,
		GiftValue: gift.GiftValue,
	}
	if err := r.db.Create(m).Error; err != nil {
		return err
	}

	gift.ID = m.ID
	gift.CreatedAt = m.CreatedAt
	if profile, err := r.GetProfile(gift.UserID); err == nil {
		gift.Sender = profile
	}
	return nil
}

type giftRow struct {
	model.GiftModel
	Username   string
	FullName   string
	AvatarURL  string
	IsVerified bool
}

func (r *interactionRepository) ListGifts(sessionID string, limit, offset int) ([]*entity.Gift, int64, error) {
	var total int64
	if err := r.db.Model(&model.GiftModel{}).Where("session_id = ?", sessionID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []giftRow
	err := r.db.Table("gifts").
		Select("gifts.*, users.username, users.full_name, users.avatar_url, users.is_verified").
		Joins("JOIN users ON users.id = gifts.user_id").
		Where("gifts.session_id = ?", sessionID).
		Order("gifts.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	gifts := make([]*entity.Gift, 0, len(rows))
	for _, row := range rows {
		gifts = append(gifts, &entity.Gift{
			ID:        row.ID,
			SessionID: row.SessionID,
			UserID:    row.UserID,
			GiftType:  row.GiftType,
			GiftValue: row.GiftValue,
			CreatedAt: row.CreatedAt,
			Sender: &entity.Profile{
				ID:         row.UserID,
				Username:   row.Username,
				FullName:   row.FullName,
				AvatarURL:  row.AvatarURL,
				IsVerified: row.IsVerified,
			},
		})
	}
	return gifts, total, nil
}

func (r *interactionRepository) JoinSession(userID, sessionID string) (bool, error) {
	joined := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var open model.UserSessionModel
		err := tx.Where("user_id = ? AND session_id = ? AND left_at IS NULL", userID, sessionID).
			First(&open).Error
		if err == nil {
			// Already in the room.
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		record := &model.UserSessionModel{
			ID:        uuid.New().String(),
			UserID:    userID,
			SessionID: sessionID,
			JoinedAt:  time.Now(),
		}
		if err := tx.Create(record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil
			}
			return err
		}
		joined = true
		return bumpSessionCounter(tx, sessionID, "viewer_count", 1)
	})
	return joined, err
}

func (r *interactionRepository) LeaveSession(userID, sessionID string) (bool, error) {
	left := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var open model.UserSessionModel
		err := tx.Where("user_id = ? AND session_id = ? AND left_at IS NULL", userID, sessionID).
			First(&open).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No open record, nothing to close.
			return nil
		}
		if err != nil {
			return err
		}

		now := time.Now()
		watched := int(now.Sub(open.JoinedAt).Seconds())
		if watched < 0 {
			watched = 0
		}
		err = tx.Model(&model.UserSessionModel{}).
			Where("id = ?", open.ID).
			Updates(map[string]interface{}{
				"left_at":        now,
				"watch_duration": watched,
			}).Error
		if err != nil {
			return err
		}
		left = true
		return bumpSessionCounter(tx, sessionID, "viewer_count", -1)
	})
	return left, err
}

func (r *interactionRepository) ToggleFollow(followerID, followingID string) (bool, error) {
	following := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).
			Delete(&model.FollowModel{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			following = false
			return models.ApplyFollowDelta(tx, followerID, followingID, -1)
		}

		follow := &model.FollowModel{
			ID:          uuid.New().String(),
			FollowerID:  followerID,
			FollowingID: followingID,
		}
		if err := tx.Create(follow).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				following = true
				return nil
			}
			return err
		}
		following = true
		return models.ApplyFollowDelta(tx, followerID, followingID, 1)
	})
	return following, err
}

func (r *interactionRepository) ListFollowers(userID string, limit, offset int) ([]*entity.Profile, int64, error) {
	return r.listFollowEdge(userID, "following_id", "follower_id", limit, offset)
}

func (r *interactionRepository) ListFollowing(userID string, limit, offset int) ([]*entity.Profile, int64, error) {
	return r.listFollowEdge(userID, "follower_id", "following_id", limit, offset)
}

// listFollowEdge walks one direction of the follow graph: rows where
// whereColumn matches userID, returning the users on the joinColumn side.
func (r *interactionRepository) listFollowEdge(userID, whereColumn, joinColumn string, limit, offset int) ([]*entity.Profile, int64, error) {
	var total int64
	err := r.db.Table("follows").Where("follows."+whereColumn+" = ?", userID).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var users []model.UserModel
	err = r.db.Table("users").
		Select("users.*").
		Joins("JOIN follows ON follows."+joinColumn+" = users.id").
		Where("follows."+whereColumn+" = ?", userID).
		Order("follows.created_at DESC").
		Limit(limit).
		Offset(offset).
		Scan(&users).Error
	if err != nil {
		return nil, 0, err
	}

	profiles := make([]*entity.Profile, 0, len(users))
	for i := range users {
		profiles = append(profiles, toProfile(&users[i]))
	}
	return profiles, total, nil
}

func toProfile(m *model.UserModel) *entity.Profile {
	return &entity.Profile{
		ID:         m.ID,
		Username:   m.Username,
		FullName:   m.FullName,
		AvatarURL:  m.AvatarURL,
		IsVerified: m.IsVerified,
	}
}
