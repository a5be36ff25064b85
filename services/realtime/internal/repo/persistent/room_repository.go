package persistent

import (
	"errors"
	"time"

	"starcast/pkg/errs"
	"starcast/services/realtime/internal/entity"
	"starcast/services/realtime/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomRepository interface {
	GetSessionRef(sessionID string) (*entity.SessionRef, error)
	GetProfile(userID string) (*entity.Profile, error)

	OpenJoin(userID, sessionID string) (bool, error)
	CloseJoin(userID, sessionID string) (bool, error)

	CreateComment(userID, sessionID, message string) (*entity.Comment, error)
	CreateGift(userID, sessionID, giftType string, giftValue int) (*entity.Gift, error)
	ToggleLike(userID, sessionID string) (bool, error)

	SetSessionStatus(sessionID, status string, endTime *time.Time) error
	GetConfirmedBookingUserIDs(sessionID string) ([]string, error)
	GetFollowerIDs(userID string) ([]string, error)
}

type roomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) GetSessionRef(sessionID string) (*entity.SessionRef, error) {
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
		StartTime: m.StartTime,
	}, nil
}

func (r *roomRepository) GetProfile(userID string) (*entity.Profile, error) {
	var m model.UserModel
	if err := r.db.Where("id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &entity.Profile{
		ID:         m.ID,
		Username:   m.Username,
		AvatarURL:  m.AvatarURL,
		IsVerified: m.IsVerified,
	}, nil
}

func bumpSessionCounter(tx *gorm.DB, sessionID, column string, delta int) error {
	return tx.Table("sessions").
		Where("id = ?", sessionID).
		UpdateColumn(column, gorm.Expr("GREATEST("+column+" + ?, 0)", delta)).Error
}

func (r *roomRepository) OpenJoin(userID, sessionID string) (bool, error) {
	opened := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var open model.UserSessionModel
		err := tx.Where("user_id = ? AND session_id = ? AND left_at IS NULL", userID, sessionID).
			First(&open).Error
		if err == nil {
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
		opened = true
		return bumpSessionCounter(tx, sessionID, "viewer_count", 1)
	})
	return opened, err
}

func (r *roomRepository) CloseJoin(userID, sessionID string) (bool, error) {
	closed := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var open model.UserSessionModel
		err := tx.Where("user_id = ? AND session_id = ? AND left_at IS NULL", userID, sessionID).
			First(&open).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
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
		closed = true
		return bumpSessionCounter(tx, sessionID, "viewer_count", -1)
	})
	return closed, err
}

func (r *roomRepository) CreateComment(userID, sessionID, message string) (*entity.Comment, error) {
	m := &model.CommentModel{
		ID:        uuid.New().String(),
		UserID:    userID,
		SessionID: sessionID,
		Message:   message,
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return bumpSessionCounter(tx, sessionID, "comment_count", 1)
	})
	if err != nil {
		return nil, err
	}
	return &entity.Comment{
		ID:        m.ID,
		SessionID: m.SessionID,
		UserID:    m.UserID,
		Message:   m.Message,
		CreatedAt: m.CreatedAt,
	}, nil
}

func (r *roomRepository) CreateGift(userID, sessionID, giftType string, giftValue int) (*entity.Gift, error) {
	m := &model.GiftModel{
		ID:        uuid.New().String(),
		UserID:    userID,
		SessionID: sessionID,
		GiftType:  giftType,
		GiftValue: giftValue,
	}
	if err := r.db.Create(m).Error; err != nil {
		return nil, err
	}
	return &entity.Gift{
		ID:        m.ID,
		SessionID: m.SessionID,
		UserID:    m.UserID,
		GiftType:  m.GiftType,
		GiftValue: m.GiftValue,
		CreatedAt: m.CreatedAt,
	}, nil
}

func (r *roomRepository) ToggleLike(userID, sessionID string) (bool, error) {
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

func (r *roomRepository) SetSessionStatus(sessionID, status string, endTime *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if endTime != nil {
		updates["end_time"] = *endTime
	}
	res := r.db.Model(&model.SessionModel{}).Where("id = ?", sessionID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *roomRepository) GetConfirmedBookingUserIDs(sessionID string) ([]string, error) {
	var userIDs []string
	err := r.db.Model(&model.BookingModel{}).
		Where("session_id = ? AND status = ?", sessionID, "confirmed").
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

func (r *roomRepository) GetFollowerIDs(userID string) ([]string, error) {
	var followerIDs []string
	err := r.db.Model(&model.FollowModel{}).
		Where("following_id = ?", userID).
		Pluck("follower_id", &followerIDs).Error
	return followerIDs, err
}
