package persistent

import (
	"errors"
	"time"

	"starcast/pkg/errs"
	"starcast/services/session/internal/entity"
	"starcast/services/session/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository interface {
	Create(session *entity.Session) error
	GetByID(id string) (*entity.Session, error)
	List(filter entity.ListFilter) ([]*entity.Session, int64, error)
	SetStatus(id string, status entity.SessionStatus, endTime *time.Time) error
	Delete(id string) error
	GetConfirmedBookingUserIDs(sessionID string) ([]string, error)
	GetFollowerIDs(userID string) ([]string, error)
	AttachUserFlags(sessions []*entity.Session, userID string) error
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(session *entity.Session) error {
	m := ToSessionModel(session)
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if err := r.db.Create(m).Error; err != nil {
		return err
	}
	*session = *ToSessionEntity(m)
	return nil
}

func (r *sessionRepository) GetByID(id string) (*entity.Session, error) {
	var m model.SessionModel
	if err := r.db.Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}

	session := ToSessionEntity(&m)
	var creator model.UserModel
	if err := r.db.Select("username").Where("id = ?", m.CreatorID).First(&creator).Error; err == nil {
		session.CreatorUsername = creator.Username
	}
	return session, nil
}

func (r *sessionRepository) List(filter entity.ListFilter) ([]*entity.Session, int64, error) {
	query := r.db.Model(&model.SessionModel{}).
		Select("sessions.*, users.username AS creator_username").
		Joins("JOIN users ON users.id = sessions.creator_id")

	if filter.Status != "" {
		query = query.Where("sessions.status = ?", string(filter.Status))
	}
	if filter.Genre != "" {
		query = query.Where("sessions.genre = ?", filter.Genre)
	}
	if filter.CreatorID != "" {
		query = query.Where("sessions.creator_id = ?", filter.CreatorID)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where(
			"sessions.title ILIKE ? OR sessions.caption ILIKE ? OR sessions.genre ILIKE ? OR users.username ILIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("sessions.created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit).Offset(filter.Offset)
	}

	var rows []struct {
		model.SessionModel
		CreatorUsername string
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}

	sessions := make([]*entity.Session, 0, len(rows))
	for i := range rows {
		s := ToSessionEntity(&rows[i].SessionModel)
		s.CreatorUsername = rows[i].CreatorUsername
		sessions = append(sessions, s)
	}
	return sessions, total, nil
}

func (r *sessionRepository) SetStatus(id string, status entity.SessionStatus, endTime *time.Time) error {
	updates := map[string]interface{}{"status": string(status)}
	if endTime != nil {
		updates["end_time"] = *endTime
	}
	result := r.db.Model(&model.SessionModel{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *sessionRepository) Delete(id string) error {
	// Unscoped issues a real DELETE; the schema's ON DELETE CASCADE
	// references then clean up interaction rows. A soft delete would
	// leave the session reachable from the other services.
	result := r.db.Unscoped().Where("id = ?", id).Delete(&model.SessionModel{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *sessionRepository) GetConfirmedBookingUserIDs(sessionID string) ([]string, error) {
	var userIDs []string
	err := r.db.Model(&model.BookingModel{}).
		Where("session_id = ? AND status = ?", sessionID, "confirmed").
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

func (r *sessionRepository) GetFollowerIDs(userID string) ([]string, error) {
	var followerIDs []string
	err := r.db.Table("follows").
		Where("following_id = ?", userID).
		Pluck("follower_id", &followerIDs).Error
	return followerIDs, err
}

// AttachUserFlags fills is_liked / is_booked / is_following for the querying
// user with three existence scans. Anonymous callers keep all-false flags.
func (r *sessionRepository) AttachUserFlags(sessions []*entity.Session, userID string) error {
	if userID == "" || len(sessions) == 0 {
		return nil
	}

	sessionIDs := make([]string, 0, len(sessions))
	creatorIDs := make([]string, 0, len(sessions))
	for _, s := range sessions {
		sessionIDs = append(sessionIDs, s.ID)
		creatorIDs = append(creatorIDs, s.CreatorID)
	}

	var likedIDs []string
	if err := r.db.Model(&model.LikeModel{}).
		Where("user_id = ? AND session_id IN ?", userID, sessionIDs).
		Pluck("session_id", &likedIDs).Error; err != nil {
		return err
	}

	var bookedIDs []string
	if err := r.db.Model(&model.BookingModel{}).
		Where("user_id = ? AND session_id IN ? AND status = ?", userID, sessionIDs, "confirmed").
		Pluck("session_id", &bookedIDs).Error; err != nil {
		return err
	}

	var followedIDs []string
	if err := r.db.Model(&model.FollowModel{}).
		Where("follower_id = ? AND following_id IN ?", userID, creatorIDs).
		Pluck("following_id", &followedIDs).Error; err != nil {
		return err
	}

	liked := toSet(likedIDs)
	booked := toSet(bookedIDs)
	followed := toSet(followedIDs)
	for _, s := range sessions {
		s.IsLiked = liked[s.ID]
		s.IsBooked = booked[s.ID]
		s.IsFollowing = followed[s.CreatorID]
	}
	return nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
