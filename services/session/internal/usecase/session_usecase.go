package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"starcast/pkg/errs"
	"starcast/pkg/events"
	"starcast/pkg/logger"
	"starcast/pkg/queue"
	"starcast/services/session/internal/entity"
	"starcast/services/session/internal/repo/persistent"

	"github.com/redis/go-redis/v9"
)

// EarlyStartWindow is how far before the scheduled start a creator may go
// live.
const EarlyStartWindow = 5 * time.Minute

// DefaultEventDuration is applied when an event has no explicit end time.
const DefaultEventDuration = 2 * time.Hour

// EventPublisher fans session lifecycle events out to the realtime layer.
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

type CreateSessionInput struct {
	Title     string
	Caption   string
	PosterURL string
	VideoURL  string
	Type      entity.SessionType
	Genre     string
	StartTime *time.Time
	EndTime   *time.Time
}

type SessionUseCase interface {
	CreateSession(creatorID string, in CreateSessionInput) (*entity.Session, error)
	GetSession(id, viewerID string) (*entity.Session, error)
	ListSessions(filter entity.ListFilter, viewerID string) ([]*entity.Session, int64, error)
	TransitionStatus(sessionID, actorID, actorRole string, target entity.SessionStatus) (*entity.Session, error)
	DeleteSession(sessionID, actorID, actorRole string) error
}

type sessionUseCase struct {
	sessionRepo persistent.SessionRepository
	publisher   EventPublisher
	queueClient TaskQueue
	logger      *logger.Logger
}

func NewSessionUseCase(
	sessionRepo persistent.SessionRepository,
	publisher EventPublisher,
	queueClient TaskQueue,
	logger *logger.Logger,
) SessionUseCase {
	return &sessionUseCase{
		sessionRepo: sessionRepo,
		publisher:   publisher,
		queueClient: queueClient,
		logger:      logger,
	}
}

func (uc *sessionUseCase) CreateSession(creatorID string, in CreateSessionInput) (*entity.Session, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", errs.ErrValidation)
	}

	session := &entity.Session{
		CreatorID: creatorID,
		Title:     in.Title,
		Caption:   in.Caption,
		PosterURL: in.PosterURL,
		VideoURL:  in.VideoURL,
		Type:      in.Type,
	}

	switch in.Type {
	case entity.SessionTypePost:
		// Posts are instantly historical.
		session.Status = entity.StatusEnded
		now := time.Now()
		session.EndTime = &now
	case entity.SessionTypeEvent:
		if in.Genre == "" {
			return nil, fmt.Errorf("%w: genre is required for events", errs.ErrValidation)
		}
		if in.StartTime == nil {
			return nil, fmt.Errorf("%w: start_time is required for events", errs.ErrValidation)
		}
		if !in.StartTime.After(time.Now()) {
			return nil, fmt.Errorf("%w: start_time must be in the future", errs.ErrValidation)
		}
		end := in.StartTime.Add(DefaultEventDuration)
		if in.EndTime != nil {
			end = *in.EndTime
		}
		if !end.After(*in.StartTime) {
			return nil, fmt.Errorf("%w: end_time must be after start_time", errs.ErrValidation)
		}
		session.Genre = in.Genre
		session.Status = entity.StatusScheduled
		session.StartTime = in.StartTime
		session.EndTime = &end
	default:
		return nil, fmt.Errorf("%w: type must be post or event", errs.ErrValidation)
	}

	if err := uc.sessionRepo.Create(session); err != nil {
		uc.logger.Error("Failed to create session: %v", err)
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return session, nil
}

func (uc *sessionUseCase) GetSession(id, viewerID string) (*entity.Session, error) {
	session, err := uc.sessionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := uc.sessionRepo.AttachUserFlags([]*entity.Session{session}, viewerID); err != nil {
		uc.logger.Warn("Failed to attach user flags: %v", err)
	}
	return session, nil
}

func (uc *sessionUseCase) ListSessions(filter entity.ListFilter, viewerID string) ([]*entity.Session, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	sessions, total, err := uc.sessionRepo.List(filter)
	if err != nil {
		return nil, 0, err
	}
	if err := uc.sessionRepo.AttachUserFlags(sessions, viewerID); err != nil {
		uc.logger.Warn("Failed to attach user flags: %v", err)
	}
	return sessions, total, nil
}

func (uc *sessionUseCase) TransitionStatus(sessionID, actorID, actorRole string, target entity.SessionStatus) (*entity.Session, error) {
	switch target {
	case entity.StatusLive, entity.StatusEnded, entity.StatusCancelled:
	default:
		return nil, fmt.Errorf("%w: invalid target status %q", errs.ErrValidation, target)
	}

	session, err := uc.sessionRepo.GetByID(sessionID)
	if err != nil {
		return nil, err
	}

	if session.CreatorID != actorID && actorRole != "moderator" {
		return nil, fmt.Errorf("%w: only the creator can change session status", errs.ErrForbidden)
	}

	if !session.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: session is %s and cannot become %s", errs.ErrInvalidState, session.Status, target)
	}

	var endTime *time.Time
	if target == entity.StatusLive && session.StartTime != nil {
		if time.Now().Before(session.StartTime.Add(-EarlyStartWindow)) {
			return nil, fmt.Errorf("%w: session cannot be started yet", errs.ErrInvalidState)
		}
	}
	if target == entity.StatusEnded {
		now := time.Now()
		endTime = &now
	}

	if err := uc.sessionRepo.SetStatus(sessionID, target, endTime); err != nil {
		uc.logger.Error("Failed to update session status: %v", err)
		return nil, err
	}
	session.Status = target
	if endTime != nil {
		session.EndTime = endTime
	}

	uc.broadcastStatus(session, target)
	if target == entity.StatusLive {
		go uc.enqueueStartTasks(session)
	}
	return session, nil
}

func (uc *sessionUseCase) DeleteSession(sessionID, actorID, actorRole string) error {
	session, err := uc.sessionRepo.GetByID(sessionID)
	if err != nil {
		return err
	}
	if session.CreatorID != actorID && actorRole != "moderator" {
		return fmt.Errorf("%w: only the creator can delete a session", errs.ErrForbidden)
	}
	if session.Status != entity.StatusScheduled {
		return fmt.Errorf("%w: only scheduled sessions can be deleted", errs.ErrInvalidState)
	}
	return uc.sessionRepo.Delete(sessionID)
}

// broadcastStatus publishes the lifecycle event on the global sessions
// channel; status changes reach every connected socket, not just room
// members, because discovery views depend on them.
func (uc *sessionUseCase) broadcastStatus(session *entity.Session, target entity.SessionStatus) {
	eventName := events.SessionStatusUpdated
	switch target {
	case entity.StatusLive:
		eventName = events.SessionStarted
	case entity.StatusEnded:
		eventName = events.SessionEnded
	}

	envelope := events.Envelope{
		Event:     eventName,
		SessionID: session.ID,
		Data: map[string]interface{}{
			"session_id": session.ID,
			"title":      session.Title,
			"creator_id": session.CreatorID,
			"status":     string(session.Status),
		},
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		uc.logger.Error("Failed to marshal status event: %v", err)
		return
	}
	if err := uc.publisher.Publish(context.Background(), events.SessionsChannel, payload); err != nil {
		uc.logger.Error("Failed to publish status event: %v", err)
	}
}

// enqueueStartTasks fans booking reminders and follower alerts out when a
// session goes live. The same fan-out runs for the WS status-change path.
func (uc *sessionUseCase) enqueueStartTasks(session *entity.Session) {
	if uc.queueClient == nil {
		return
	}

	bookedIDs, err := uc.sessionRepo.GetConfirmedBookingUserIDs(session.ID)
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

	followerIDs, err := uc.sessionRepo.GetFollowerIDs(session.CreatorID)
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

func (uc *sessionUseCase) publishTask(task map[string]interface{}) {
	if err := uc.queueClient.PublishNotificationTask(task); err != nil {
		uc.logger.Error("Failed to publish %s notification task: %v", task["type"], err)
	}
}
