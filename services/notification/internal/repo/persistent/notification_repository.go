package persistent

import (
	"errors"

	"starcast/pkg/errs"
	"starcast/services/notification/internal/entity"
	"starcast/services/notification/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationRepository interface {
	Create(notification *entity.Notification) error
	ListByUser(userID string, limit, offset int) ([]*entity.Notification, int64, error)
	CountUnread(userID string) (int64, error)
	MarkRead(id, userID string) error
	MarkAllRead(userID string) (int64, error)
	Delete(id, userID string) error
	GetUsername(userID string) (string, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(notification *entity.Notification) error {
	m := &model.NotificationModel{
		ID:        uuid.New().String(),
		UserID:    notification.UserID,
		Type:      notification.Type,
		Title:     notification.Title,
		Message:   notification.Message,
		SessionID: notification.SessionID,
		Data:      notification.Data,
	}
	if err := r.db.Create(m).Error; err != nil {
		return err
	}
	notification.ID = m.ID
	notification.CreatedAt = m.CreatedAt
	return nil
}

func (r *notificationRepository) ListByUser(userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	var total int64
	if err := r.db.Model(&model.NotificationModel{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []model.NotificationModel
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	notifications := make([]*entity.Notification, 0, len(rows))
	for i := range rows {
		notifications = append(notifications, toEntity(&rows[i]))
	}
	return notifications, total, nil
}

func (r *notificationRepository) CountUnread(userID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.NotificationModel{}).
		Where("user_id = ? AND is_read = false", userID).
		Count(&count).Error
	return count, err
}

func (r *notificationRepository) MarkRead(id, userID string) error {
	res := r.db.Model(&model.NotificationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(userID string) (int64, error) {
	res := r.db.Model(&model.NotificationModel{}).
		Where("user_id = ? AND is_read = false", userID).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

func (r *notificationRepository) Delete(id, userID string) error {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&model.NotificationModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *notificationRepository) GetUsername(userID string) (string, error) {
	var m model.UserModel
	if err := r.db.Select("username").Where("id = ?", userID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", errs.ErrNotFound
		}
		return "", err
	}
	return m.Username, nil
}

func toEntity(m *model.NotificationModel) *entity.Notification {
	return &entity.Notification{
		ID:        m.ID,
		UserID:    m.UserID,
		Type:      m.Type,
		Title:     m.Title,
		Message:   m.Message,
		SessionID: m.SessionID,
		Data:      m.Data,
		IsRead:    m.IsRead,
		CreatedAt: m.CreatedAt,
	}
}
