package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"starcast/pkg/errs"
	"starcast/pkg/events"
	"starcast/pkg/logger"
	"starcast/pkg/models"
	"starcast/pkg/queue"
	"starcast/services/interaction/internal/entity"
	"starcast/services/interaction/internal/repo/persistent"

	"github.com/redis/go-redis/v9"
)

// EventPublisher pushes room events onto redis so live viewers see
// HTTP-originated interactions.
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

type InteractionUseCase interface {
	ToggleLike(userID, sessionID string) (bool, error)
	ToggleBooking(userID, sessionID string) (bool, error)
	AddComment(userID, sessionID, message string, parentID *string) (*entity.Comment, error)
	GetComments(sessionID string, limit, offset int) ([]*entity.Comment, int64, error)
	SendGift(userID, sessionID, giftType string) (*entity.Gift, error)
	GetGifts(sessionID string, limit, offset int) ([]*entity.Gift, int64, error)
	JoinSession(userID, sessionID string) error
	LeaveSession(userID, sessionID string) error
	ToggleFollow(followerID, followingID string) (bool, error)
	GetFollowers(userID string, limit, offset int) ([]*entity.Profile, int64, error)
	GetFollowing(userID string, limit, offset int) ([]*entity.Profile, int64, error)
}

type interactionUseCase struct {
	interactionRepo persistent.InteractionRepository
	publisher       EventPublisher
	queueClient     TaskQueue
	logger          *logger.Logger
}

func NewInteractionUseCase(
	interactionRepo persistent.InteractionRepository,
	publisher EventPublisher,
	queueClient TaskQueue,
	logger *logger.Logger,
) InteractionUseCase {
	return &interactionUseCase{
		interactionRepo: interactionRepo,
		publisher:       publisher,
		queueClient:     queueClient,
		logger:          logger,
	}
}

func (uc *interactionUseCase) ToggleLike(userID, sessionID string) (bool, error) {
	session, err := uc.interactionRepo.GetSessionRef(sessionID)
	if err != nil {
		return false, err
	}

	liked, err := uc.interactionRepo.ToggleLike(userID, sessionID)
	if err != nil {
		uc.logger.Error("Failed to toggle like: %v", err)
		return false, fmt.Errorf("failed to toggle like: %w", err)
	}

	event := events.SessionUnliked
	if liked {
		event = events.SessionLiked
		uc.notifyCreator(session, userID, queue.TaskLike, 3, nil)
	}
	uc.publishRoomEvent(sessionID, events.Envelope{
		Event:     event,
		SessionID: sessionID,
		Data:      map[string]interface{}{"user_id": userID},
	})

	return liked, nil
}

func (uc *interactionUseCase) ToggleBooking(userID, sessionID string) (bool, error) {
	session, err := uc.interactionRepo.GetSessionRef(sessionID)
	if err != nil {
		return false, err
	}
	if session.Status != string(models.StatusScheduled) {
		return false, fmt.Errorf("%w: can only book scheduled sessions", errs.ErrInvalidState)
	}

	booked, err := uc.interactionRepo.ToggleBooking(userID, sessionID)
	if err != nil {
		uc.logger.Error("Failed to toggle booking: %v", err)
		return false, fmt.Errorf("failed to toggle booking: %w", err)
	}

	if booked {
		uc.notifyCreator(session, userID, queue.TaskBooking, 4, nil)
	}
	return booked, nil
}

func (uc *interactionUseCase) AddComment(userID, sessionID, message string, parentID *string) (*entity.Comment, error) {
	if len(message) == 0 {
		return nil, fmt.Errorf("%w: message is required", errs.ErrValidation)
	}
	if utf8.RuneCountInString(message) > 500 {
		return nil, fmt.Errorf("%w: message exceeds 500 characters", errs.ErrValidation)
	}

	session, err := uc.interactionRepo.GetSessionRef(sessionID)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		parentSessionID, err := uc.interactionRepo.GetCommentSessionID(*parentID)
		if err != nil {
			return nil, fmt.Errorf("%w: parent comment not found", errs.ErrValidation)
		}
		if parentSessionID != sessionID {
			return nil, fmt.Errorf("%w: parent comment belongs to a different session", errs.ErrValidation)
		}
	}

	comment := &entity.Comment{
		UserID:    userID,
		SessionID: sessionID,
		ParentID:  parentID,
		Message:   message,
	}
	if err := uc.interactionRepo.CreateComment(comment); err != nil {
		uc.logger.Error("Failed to create comment: %v", err)
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	uc.publishRoomEvent(sessionID, events.Envelope{
		Event:     events.NewComment,
		SessionID: sessionID,
		Data:      commentData(comment),
	})
	uc.notifyCreator(session, userID, queue.TaskComment, 3, map[string]interface{}{
		"comment_id": comment.ID,
	})

	return comment, nil
}

func (uc *interactionUseCase) GetComments(sessionID string, limit, offset int) ([]*entity.Comment, int64, error) {
	if _, err := uc.interactionRepo.GetSessionRef(sessionID); err != nil {
		return nil, 0, err
	}
	return uc.interactionRepo.ListComments(sessionID, limit, offset)
}

func (uc *interactionUseCase) SendGift(userID, sessionID, giftType string) (*entity.Gift, error) {
	if !models.IsValidGiftType(giftType) {
		return nil, fmt.Errorf("%w: unknown gift type %q", errs.ErrValidation, giftType)
	}

	session, err := uc.interactionRepo.GetSessionRef(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != string(models.StatusLive) {
		return nil, fmt.Errorf("%w: gifts can only be sent to live sessions", errs.ErrInvalidState)
	}

	gift := &entity.Gift{
		UserID:    userID,
		SessionID: sessionID,
		GiftType:  giftType,
		GiftValue: models.GiftValue(giftType),
	}
	if err := uc.interactionRepo.CreateGift(gift); err != nil {
		uc.logger.Error("Failed to create gift: %v", err)
		return nil, fmt.Errorf("failed to send gift: %w", err)
	}

	uc.publishRoomEvent(sessionID, events.Envelope{
		Event:     events.NewGift,
		SessionID: sessionID,
		Data:      giftData(gift),
	})
	uc.notifyCreator(session, userID, queue.TaskGift, 5, map[string]interface{}{
		"gift_type":  gift.GiftType,
		"gift_value": gift.GiftValue,
	})

	return gift, nil
}

func (uc *interactionUseCase) GetGifts(sessionID string, limit, offset int) ([]*entity.Gift, int64, error) {
	if _, err := uc.interactionRepo.GetSessionRef(sessionID); err != nil {
		return nil, 0, err
	}
	return uc.interactionRepo.ListGifts(sessionID, limit, offset)
}

func (uc *interactionUseCase) JoinSession(userID, sessionID string) error {
	session, err := uc.interactionRepo.GetSessionRef(sessionID)
	if err != nil {
		return err
	}
	if session.Status != string(models.StatusLive) {
		return fmt.Errorf("%w: can only join live sessions", errs.ErrInvalidState)
	}

	joined, err := uc.interactionRepo.JoinSession(userID, sessionID)
	if err != nil {
		uc.logger.Error("Failed to join session: %v", err)
		return fmt.Errorf("failed to join session: %w", err)
	}

	if joined {
		uc.publishRoomEvent(sessionID, events.Envelope{
			Event:         events.UserJoined,
			SessionID:     sessionID,
			Data:          map[string]interface{}{"user_id": userID},
			ExcludeUserID: userID,
		})
	}
	return nil
}

func (uc *interactionUseCase) LeaveSession(userID, sessionID string) error {
	if _, err := uc.interactionRepo.GetSessionRef(sessionID); err != nil {
		return err
	}

	left, err := uc.interactionRepo.LeaveSession(userID, sessionID)
	if err != nil {
		uc.logger.Error("Failed to leave session: %v", err)
		return fmt.Errorf("failed to leave session: %w", err)
	}

	if left {
		uc.publishRoomEvent(sessionID, events.Envelope{
			Event:         events.UserLeft,
			SessionID:     sessionID,
			Data:          map[string]interface{}{"user_id": userID},
			ExcludeUserID: userID,
		})
	}
	return nil
}

func (uc *interactionUseCase) ToggleFollow(followerID, followingID string) (bool, error) {
	if followerID == followingID {
		return false, fmt.Errorf("%w: cannot follow yourself", errs.ErrValidation)
	}
	if _, err := uc.interactionRepo.GetProfile(followingID); err != nil {
		return false, err
	}

	following, err := uc.interactionRepo.ToggleFollow(followerID, followingID)
	if err != nil {
		uc.logger.Error("Failed to toggle follow: %v", err)
		return false, fmt.Errorf("failed to toggle follow: %w", err)
	}

	if following {
		uc.enqueueTask(map[string]interface{}{
			"type":     queue.TaskFollow,
			"user_id":  followingID,
			"actor_id": followerID,
			"priority": 2,
		})
	}
	return following, nil
}

func (uc *interactionUseCase) GetFollowers(userID string, limit, offset int) ([]*entity.Profile, int64, error) {
	if _, err := uc.interactionRepo.GetProfile(userID); err != nil {
		return nil, 0, err
	}
	return uc.interactionRepo.ListFollowers(userID, limit, offset)
}

func (uc *interactionUseCase) GetFollowing(userID string, limit, offset int) ([]*entity.Profile, int64, error) {
	if _, err := uc.interactionRepo.GetProfile(userID); err != nil {
		return nil, 0, err
	}
	return uc.interactionRepo.ListFollowing(userID, limit, offset)
}

func (uc *interactionUseCase) publishRoomEvent(sessionID string, envelope events.Envelope) {
	if uc.publisher == nil {
		return
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		uc.logger.Error("Failed to marshal room event: %v", err)
		return
	}
	if err := uc.publisher.Publish(context.Background(), events.RoomChannel(sessionID), payload); err != nil {
		uc.logger.Warn("Failed to publish %s to room %s: %v", envelope.Event, sessionID, err)
	}
}

// notifyCreator enqueues a notification task for the session creator.
// Self-notifications are suppressed here and re-checked at dispatch.
func (uc *interactionUseCase) notifyCreator(session *entity.SessionRef, actorID, taskType string, priority int, extra map[string]interface{}) {
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
	uc.enqueueTask(task)
}

func (uc *interactionUseCase) enqueueTask(task map[string]interface{}) {
	if uc.queueClient == nil {
		return
	}
	go func() {
		if err := uc.queueClient.PublishNotificationTask(task); err != nil {
			uc.logger.Error("Failed to publish %s notification task: %v", task["type"], err)
		}
	}()
}

func commentData(c *entity.Comment) map[string]interface{} {
	data := map[string]interface{}{
		"id":         c.ID,
		"user_id":    c.UserID,
		"message":    c.Message,
		"created_at": c.CreatedAt,
	}
	if c.ParentID != nil {
		data["parent_id"] = *c.ParentID
	}
	if c.Author != nil {
		data["username"] = c.Author.Username
		data["avatar_url"] = c.Author.AvatarURL
	}
	return data
}

func giftData(g *entity.Gift) map[string]interface{} {
	data := map[string]interface{}{
		"id":         g.ID,
		"user_id":    g.UserID,
		"gift_type":  g.GiftType,
		"gift_value": g.GiftValue,
		"created_at": g.CreatedAt,
	}
	if g.Sender != nil {
		data["username"] = g.Sender.Username
	}
	return data
}
