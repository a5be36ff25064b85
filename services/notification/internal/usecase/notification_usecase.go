package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"starcast/pkg/events"
	"starcast/pkg/logger"
	"starcast/pkg/queue"
	"starcast/services/notification/internal/entity"
	"starcast/services/notification/internal/repo/persistent"

	"github.com/redis/go-redis/v9"
)

// EventPublisher pushes freshly persisted notifications onto the user's
// redis channel for live delivery.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

type redisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) EventPublisher {
	return &redisPublisher{client: client}
}

func (p *redisPublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	return p.client.Publish(ctx, channel, payload).Err()
}

type NotificationUseCase interface {
	Dispatch(task map[string]interface{}) error
	GetNotifications(userID string, limit, offset int) ([]*entity.Notification, int64, error)
	GetUnreadCount(userID string) (int64, error)
	MarkRead(id, userID string) error
	MarkAllRead(userID string) (int64, error)
	Delete(id, userID string) error
}

type notificationUseCase struct {
	notificationRepo persistent.NotificationRepository
	publisher        EventPublisher
	logger           *logger.Logger
}

func NewNotificationUseCase(
	notificationRepo persistent.NotificationRepository,
	publisher EventPublisher,
	logger *logger.Logger,
) NotificationUseCase {
	return &notificationUseCase{
		notificationRepo: notificationRepo,
		publisher:        publisher,
		logger:           logger,
	}
}

// Dispatch consumes one queued task: builds the notification text, persists
// the row and publishes it for live push. Returned errors requeue the task.
func (uc *notificationUseCase) Dispatch(task map[string]interface{}) error {
	taskType, _ := task["type"].(string)
	userID, _ := task["user_id"].(string)
	if taskType == "" || userID == "" {
		uc.logger.Error("Invalid notification task, missing type or user_id: %+v", task)
		// Malformed for good, do not requeue.
		return nil
	}

	actorID, _ := task["actor_id"].(string)
	if actorID != "" && actorID == userID {
		// Producers suppress self-notifications; re-check here.
		return nil
	}

	notification, err := uc.buildNotification(taskType, userID, actorID, task)
	if err != nil {
		uc.logger.Error("Failed to build %s notification: %v", taskType, err)
		return nil
	}
	if notification == nil {
		return nil
	}

	if err := uc.notificationRepo.Create(notification); err != nil {
		uc.logger.Error("Failed to persist %s notification for user %s: %v", taskType, userID, err)
		return err
	}

	uc.publishToUser(notification)
	uc.logger.Info("Dispatched %s notification to user %s", taskType, userID)
	return nil
}

func (uc *notificationUseCase) buildNotification(taskType, userID, actorID string, task map[string]interface{}) (*entity.Notification, error) {
	actorName := "Someone"
	if actorID != "" {
		if username, err := uc.notificationRepo.GetUsername(actorID); err == nil {
			actorName = username
		}
	}

	sessionTitle, _ := task["session_title"].(string)
	if sessionTitle == "" {
		sessionTitle, _ = task["title"].(string)
	}

	notification := &entity.Notification{
		UserID: userID,
		Type:   taskType,
		Data:   map[string]interface{}{},
	}
	if actorID != "" {
		notification.Data["actor_id"] = actorID
	}
	if sessionID, ok := task["session_id"].(string); ok && sessionID != "" {
		notification.SessionID = &sessionID
		notification.Data["session_id"] = sessionID
	}

	switch taskType {
	case queue.TaskLike:
		notification.Title = "New Like!"
		notification.Message = fmt.Sprintf("%s liked your session %q", actorName, sessionTitle)
	case queue.TaskComment:
		notification.Title = "New Comment!"
		notification.Message = fmt.Sprintf("%s commented on your session %q", actorName, sessionTitle)
		if commentID, ok := task["comment_id"].(string); ok {
			notification.Data["comment_id"] = commentID
		}
	case queue.TaskGift:
		giftType, _ := task["gift_type"].(string)
		notification.Title = "New Gift!"
		notification.Message = fmt.Sprintf("%s sent you a %s", actorName, giftType)
		notification.Data["gift_type"] = giftType
		if giftValue, ok := task["gift_value"].(float64); ok {
			notification.Data["gift_value"] = int(giftValue)
		}
	case queue.TaskBooking:
		notification.Title = "New Booking!"
		notification.Message = fmt.Sprintf("%s booked your session %q", actorName, sessionTitle)
	case queue.TaskFollow:
		notification.Title = "New Follower!"
		notification.Message = fmt.Sprintf("%s started following you", actorName)
	case queue.TaskSessionStart:
		notification.Title = "Live Now!"
		notification.Message = fmt.Sprintf("%s is live: %s", actorName, sessionTitle)
	case queue.TaskBookingReminder:
		notification.Title = "Starting Now!"
		notification.Message = fmt.Sprintf("Your booked session %q has started", sessionTitle)
	default:
		uc.logger.Warn("Unknown notification task type %q, dropping", taskType)
		return nil, nil
	}

	return notification, nil
}

func (uc *notificationUseCase) publishToUser(notification *entity.Notification) {
	if uc.publisher == nil {
		return
	}
	envelope := events.Envelope{
		Event: events.NewNotification,
		Data: map[string]interface{}{
			"notification": notification,
		},
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		uc.logger.Error("Failed to marshal notification push: %v", err)
		return
	}
	channel := events.UserChannel(notification.UserID)
	if err := uc.publisher.Publish(context.Background(), channel, payload); err != nil {
		uc.logger.Warn("Failed to publish notification to %s: %v", channel, err)
	}
}

func (uc *notificationUseCase) GetNotifications(userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	return uc.notificationRepo.ListByUser(userID, limit, offset)
}

func (uc *notificationUseCase) GetUnreadCount(userID string) (int64, error) {
	return uc.notificationRepo.CountUnread(userID)
}

func (uc *notificationUseCase) MarkRead(id, userID string) error {
	if err := uc.notificationRepo.MarkRead(id, userID); err != nil {
		return err
	}

	if uc.publisher != nil {
		envelope := events.Envelope{
			Event: events.NotificationRead,
			Data:  map[string]interface{}{"notification_id": id},
		}
		if payload, err := json.Marshal(envelope); err == nil {
			if err := uc.publisher.Publish(context.Background(), events.UserChannel(userID), payload); err != nil {
				uc.logger.Warn("Failed to publish read receipt: %v", err)
			}
		}
	}
	return nil
}

func (uc *notificationUseCase) MarkAllRead(userID string) (int64, error) {
	return uc.notificationRepo.MarkAllRead(userID)
}

func (uc *notificationUseCase) Delete(id, userID string) error {
	return uc.notificationRepo.Delete(id, userID)
}
