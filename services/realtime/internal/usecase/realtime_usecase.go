package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"starcast/pkg/errs"
	"starcast/pkg/events"
	"starcast/pkg/logger"
	"starcast/pkg/models"
	"starcast/pkg/queue"
	"starcast/services/realtime/internal/entity"
	"starcast/services/realtime/internal/repo/persistent"

	"github.com/redis/go-redis/v9"
)

// EarlyStartWindow mirrors the registry rule: a scheduled session may go
// live this long before its start time, never earlier.
const EarlyStartWindow = 5 * time.Minute

// EventPublisher pushes envelopes onto redis channels; the subscriber on
// every broadcaster instance fans them out to local sockets. Routing all
// room traffic through redis keeps multi-instance delivery consistent and
// avoids double-sends.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// TaskQueue enqueues notification tasks. *queue.Client satisfies it; tests
// substitute a recorder.
type TaskQueue interface {
	PublishNotificationTask(task map[string]interface{}) error
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

type RealtimeUseCase interface {
	GetProfile(userID string) (*entity.Profile, error)
	JoinSession(userID, username, sessionID string) (*entity.SessionRef, error)
	LeaveSession(userID, username, sessionID string) error
	SendComment(userID, username, sessionID, message string) (*entity.Comment, error)
	SendGift(userID, username, sessionID, giftType string) (*entity.Gift, error)
	ToggleLike(userID, sessionID string) (bool, error)
	ChangeStatus(sessionID, actorID, actorRole, target string) error
}

type realtimeUseCase struct {
	roomRepo    persistent.RoomRepository
	publisher   EventPublisher
	queueClient TaskQueue
	logger      *logger.Logger
}

func NewRealtimeUseCase(
	roomRepo persistent.RoomRepository,
	publisher EventPublisher,
	queueClient TaskQueue,
	logger *logger.Logger,
) RealtimeUseCase {
	return &realtimeUseCase{
		roomRepo:    roomRepo,
		publisher:   publisher,
		queueClient: queueClient,
		logger:      logger,
	}
}

func (uc *realtimeUseCase) GetProfile(userID string) (*entity.Profile, error) {
	return uc.roomRepo.GetProfile(userID)
}

func (uc *realtimeUseCase) JoinSession(userID, username, sessionID string) (*entity.SessionRef, error) {
	session, err := uc.roomRepo.GetSessionRef(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != string(models.StatusLive) {
		return nil, fmt.Errorf("%w: can only join live sessions", errs.ErrInvalidState)
	}

	opened, err := uc.roomRepo.OpenJoin(userID, sessionID)
	if err != nil {
		uc.logger.Error("Failed to open join record: %v", err)
		return nil, fmt.Errorf("failed to join session: %w", err)
	}

	if opened {
		uc.publishRoom(sessionID, events.Envelope{
			Event:     events.UserJoined,
			SessionID: sessionID,
			Data: map[string]interface{}{
				"user_id":  userID,
				"username": username,
			},
			ExcludeUserID: userID,
		})
	}
	return session, nil
}

func (uc *realtimeUseCase) LeaveSession(userID, username, sessionID string) error {
	closed, err := uc.roomRepo.CloseJoin(userID, sessionID)
	if err != nil {
		uc.logger.Error("Failed to close join record: %v", err)
		return fmt.Errorf("failed to leave session: %w", err)
	}

	if closed {
		uc.publishRoom(sessionID, events.Envelope{
			Event:     events.UserLeft,
			SessionID: sessionID,
			Data: map[string]interface{}{
				"user_id":  userID,
				"username": username,
			},
			ExcludeUserID: userID,
		})
	}
	return nil
}

func (uc *realtimeUseCase) SendComment(userID, username, sessionID, message string) (*entity.Comment, error) {
	if len(message) == 0 {
		return nil, fmt.Errorf("%w: message is required", errs.ErrValidation)
	}
	if utf8.RuneCountInString(message) > 500 {
		return nil, fmt.Errorf("%w: message exceeds 500 characters", errs.ErrValidation)
	}

	session, err := uc.roomRepo.GetSessionRef(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != string(models.StatusLive) {
		return nil, fmt.Errorf("%w: session is not live", errs.ErrInvalidState)
	}

	comment, err := uc.roomRepo.CreateComment(userID, sessionID, message)
	if err != nil {
		uc.logger.Error("Failed to persist comment: %v", err)
		return nil, fmt.Errorf("failed to send comment: %w", err)
	}

	// Everyone in the room sees it, the sender included.
	uc.publishRoom(sessionID, events.Envelope{
		Event:     events.NewComment,
		SessionID: sessionID,
		Data: map[string]interface{}{
			"id":         comment.ID,
			"user_id":    userID,
			"username":   username,
			"message":    comment.Message,
			"created_at": comment.CreatedAt,
		},
	})
	uc.notifyCreator(session, userID, queue.TaskComment, 3, map[string]interface{}{
		"comment_id": comment.ID,
	})

	return comment, nil
}

func (uc *realtimeUseCase) SendGift(userID, username, sessionID, giftType string) (*entity.Gift, error) {
	if !models.IsValidGiftType(giftType) {
		return nil, fmt.Errorf("%w: unknown gift type %q", errs.ErrValidation, giftType)
	}

	session, err := uc.roomRepo.GetSessionRef(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != string(models.StatusLive) {
		return nil, fmt.Errorf("%w: gifts can only be sent to live sessions", errs.ErrInvalidState)
	}

	gift, err := uc.roomRepo.CreateGift(userID, sessionID, giftType, models.GiftValue(giftType))
	if err != nil {
		uc.logger.Error("Failed to persist gift: %v", err)
		return nil, fmt.Errorf("failed to send gift: %w", err)
	}

	uc.publishRoom(sessionID, events.Envelope{
		Event:     events.NewGift,
		SessionID: sessionID,
		Data: map[string]interface{}{
			"id":         gift.ID,
			"user_id":    userID,
			"username":   username,
			"gift_type":  gift.GiftType,
			"gift_value": gift.GiftValue,
			"created_at": gift.CreatedAt,
		},
	})
	uc.notifyCreator(session, userID, queue.TaskGift, 5, map[string]interface{}{
		"gift_type":  gift.GiftType,
		"gift_value": gift.GiftValue,
	})

	return gift, nil
}

func (uc *realtimeUseCase) ToggleLike(userID, sessionID string) (bool, error) {
	session, err := uc.roomRepo.GetSessionRef(sessionID)
	if err != nil {
		return false, err
	}

	liked, err := uc.roomRepo.ToggleLike(userID, sessionID)
	if err != nil {
		uc.logger.Error("Failed to toggle like: %v", err)
		return false, fmt.Errorf("failed to toggle like: %w", err)
	}

	event := events.SessionUnliked
	if liked {
		event = events.SessionLiked
		uc.notifyCreator(session, userID, queue.TaskLike, 3, nil)
	}
	uc.publishRoom(sessionID, events.Envelope{
		Event:     event,
		SessionID: sessionID,
		Data:      map[string]interface{}{"user_id": userID},
	})

	return liked, nil
}

func (uc *realtimeUseCase) ChangeStatus(sessionID, actorID, actorRole, target string) error {
	session, err := uc.roomRepo.GetSessionRef(sessionID)
	if err != nil {
		return err
	}
	if session.CreatorID != actorID && actorRole != string(models.RoleModerator) {
		return fmt.Errorf("%w: only the creator can manage this session", errs.ErrForbidden)
	}

	current := models.SessionStatus(session.Status)
	desired := models.SessionStatus(target)
	if !current.CanTransitionTo(desired) {
		return fmt.Errorf("%w: cannot transition from %s to %s", errs.ErrInvalidState, current, desired)
	}

	if desired == models.StatusLive && session.StartTime != nil {
		if time.Now().Before(session.StartTime.Add(-EarlyStartWindow)) {
			return fmt.Errorf("%w: session cannot be started yet", errs.ErrInvalidState)
		}
	}

	var endTime *time.Time
	if desired == models.StatusEnded {
		now := time.Now()
		endTime = &now
	}
	if err := uc.roomRepo.SetSessionStatus(sessionID, target, endTime); err != nil {
		uc.logger.Error("Failed to set session status: %v", err)
		return fmt.Errorf("failed to update session status: %w", err)
	}

	eventName := events.SessionStatusUpdated
	switch desired {
	case models.StatusLive:
		eventName = events.SessionStarted
	case models.StatusEnded:
		eventName = events.SessionEnded
	}
	uc.publishGlobal(events.Envelope{
		Event:     eventName,
		SessionID: sessionID,
		Data: map[string]interface{}{
			"session_id": sessionID,
			"title":      session.Title,
			"creator_id": session.CreatorID,
			"status":     target,
		},
	})

	if desired == models.StatusLive {
		go uc.enqueueStartTasks(session)
	}
	return nil
}

// enqueueStartTasks fans out booking reminders and follower alerts when a
// session goes live.
func (uc *realtimeUseCase) enqueueStartTasks(session *entity.SessionRef) {
	if uc.queueClient == nil {
		return
	}

	bookedIDs, err := uc.roomRepo.GetConfirmedBookingUserIDs(session.ID)
	if err != nil {
		uc.logger.Error("Failed to load bookings for session %s: %v", session.ID, err)
	}
	for _, userID := range bookedIDs {
		if userID == session.CreatorID {
			continue
		}
		uc.publishTask(map[string]interface{}{
			"type":       queue.TaskBookingReminder,
			"user_id":    userID,
			"session_id": session.ID,
			"title":      session.Title,
			"priority":   7,
		})
	}

	followerIDs, err := uc.roomRepo.GetFollowerIDs(session.CreatorID)
	if err != nil {
		uc.logger.Error("Failed to load followers for creator %s: %v", session.CreatorID, err)
		return
	}
	booked := make(map[string]bool, len(bookedIDs))
	for _, id := range bookedIDs {
		booked[id] = true
	}
	for _, userID := range followerIDs {
		// Booked followers already get the reminder.
		if userID == session.CreatorID || booked[userID] {
			continue
		}
		uc.publishTask(map[string]interface{}{
			"type":          queue.TaskSessionStart,
			"user_id":       userID,
			"actor_id":      session.CreatorID,
			"session_id":    session.ID,
			"session_title": session.Title,
			"priority":      6,
		})
	}
}

func (uc *realtimeUseCase) publishRoom(sessionID string, envelope events.Envelope) {
	uc.publish(events.RoomChannel(sessionID), envelope)
}

func (uc *realtimeUseCase) publishGlobal(envelope events.Envelope) {
	uc.publish(events.SessionsChannel, envelope)
}

func (uc *realtimeUseCase) publish(channel string, envelope events.Envelope) {
	if uc.publisher == nil {
		return
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		uc.logger.Error("Failed to marshal %s event: %v", envelope.Event, err)
		return
	}
	if err := uc.publisher.Publish(context.Background(), channel, payload); err != nil {
		uc.logger.Warn("Failed to publish %s to %s: %v", envelope.Event, channel, err)
	}
}

func (uc *realtimeUseCase) notifyCreator(session *entity.SessionRef, actorID, taskType string, priority int, extra map[string]interface{}) {
	if session.CreatorID == actorID {
		return
	}
	task := map[string]interface{}{
		"type":          taskType,
		"user_id":       session.CreatorID,
		"actor_id":      actorID,
		"session_id":    session.ID,
		"session_title": session.Title,
		"priority":      priority,
	}
	for k, v := range extra {
		task[k] = v
	}
	uc.publishTask(task)
}

func (uc *realtimeUseCase) publishTask(task map[string]interface{}) {
	if uc.queueClient == nil {
		return
	}
	if err := uc.queueClient.PublishNotificationTask(task); err != nil {
		uc.logger.Error("Failed to publish %s notification task: %v", task["type"], err)
	}
}
