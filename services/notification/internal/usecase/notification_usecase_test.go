package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"starcast/pkg/errs"
	"starcast/pkg/events"
	"starcast/pkg/logger"
	"starcast/services/notification/internal/entity"
	"starcast/services/notification/internal/repo/persistent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockNotificationRepository is a mock implementation of NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) Create(notification *entity.Notification) error {
	args := m.Called(notification)
	if notification.ID == "" {
		notification.ID = "notification-123"
	}
	return args.Error(0)
}

func (m *MockNotificationRepository) ListByUser(userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entity.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationRepository) CountUnread(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) MarkRead(id, userID string) error {
	args := m.Called(id, userID)
	return args.Error(0)
}

func (m *MockNotificationRepository) MarkAllRead(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationRepository) Delete(id, userID string) error {
	args := m.Called(id, userID)
	return args.Error(0)
}

func (m *MockNotificationRepository) GetUsername(userID string) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}

var _ persistent.NotificationRepository = (*MockNotificationRepository)(nil)

type fakePublisher struct {
	channels []string
	payloads []events.Envelope
}

func (f *fakePublisher) Publish(ctx context.Context, channel string, payload []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return err
	}
	f.channels = append(f.channels, channel)
	f.payloads = append(f.payloads, env)
	return nil
}

func newTestUseCase(repo *MockNotificationRepository, pub *fakePublisher) NotificationUseCase {
	return NewNotificationUseCase(repo, pub, logger.New())
}

func TestDispatch_LikeTask(t *testing.T) {
	repo := new(MockNotificationRepository)
	repo.On("GetUsername", "fan-1").Return("superfan", nil)
	repo.On("Create", mock.Anything).Return(nil)

	pub := &fakePublisher{}
	uc := newTestUseCase(repo, pub)

	err := uc.Dispatch(map[string]interface{}{
		"type":          "like",
		"user_id":       "creator-1",
		"actor_id":      "fan-1",
		"session_id":    "session-1",
		"session_title": "Friday Live",
	})

	assert.NoError(t, err)
	repo.AssertCalled(t, "Create", mock.MatchedBy(func(n *entity.Notification) bool {
		return n.UserID == "creator-1" &&
			n.Type == "like" &&
			n.Title == "New Like!" &&
			n.SessionID != nil && *n.SessionID == "session-1"
	}))
	assert.Len(t, pub.payloads, 1)
	assert.Equal(t, events.UserChannel("creator-1"), pub.channels[0])
	assert.Equal(t, events.NewNotification, pub.payloads[0].Event)
}

func TestDispatch_SelfNotificationSuppressed(t *testing.T) {
	repo := new(MockNotificationRepository)

	pub := &fakePublisher{}
	uc := newTestUseCase(repo, pub)

	err := uc.Dispatch(map[string]interface{}{
		"type":     "like",
		"user_id":  "creator-1",
		"actor_id": "creator-1",
	})

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "Create")
	assert.Empty(t, pub.payloads)
}

func TestDispatch_UnknownActorFallsBack(t *testing.T) {
	repo := new(MockNotificationRepository)
	repo.On("GetUsername", "ghost").Return("", errs.ErrNotFound)
	repo.On("Create", mock.Anything).Return(nil)

	uc := newTestUseCase(repo, &fakePublisher{})
	err := uc.Dispatch(map[string]interface{}{
		"type":     "follow",
		"user_id":  "creator-1",
		"actor_id": "ghost",
	})

	assert.NoError(t, err)
	repo.AssertCalled(t, "Create", mock.MatchedBy(func(n *entity.Notification) bool {
		return n.Message == "Someone started following you"
	}))
}

func TestDispatch_BookingReminder(t *testing.T) {
	repo := new(MockNotificationRepository)
	repo.On("Create", mock.Anything).Return(nil)

	uc := newTestUseCase(repo, &fakePublisher{})
	err := uc.Dispatch(map[string]interface{}{
		"type":       "booking_reminder",
		"user_id":    "fan-1",
		"session_id": "session-1",
		"title":      "Friday Live",
	})

	assert.NoError(t, err)
	repo.AssertCalled(t, "Create", mock.MatchedBy(func(n *entity.Notification) bool {
		return n.Type == "booking_reminder" && n.Title == "Starting Now!"
	}))
}

func TestDispatch_MalformedTaskDropped(t *testing.T) {
	repo := new(MockNotificationRepository)

	uc := newTestUseCase(repo, &fakePublisher{})
	// Missing user_id; returning nil keeps the message off the queue.
	err := uc.Dispatch(map[string]interface{}{"type": "like"})

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "Create")
}

func TestDispatch_UnknownTypeDropped(t *testing.T) {
	repo := new(MockNotificationRepository)

	uc := newTestUseCase(repo, &fakePublisher{})
	err := uc.Dispatch(map[string]interface{}{
		"type":    "carrier_pigeon",
		"user_id": "user-1",
	})

	assert.NoError(t, err)
	repo.AssertNotCalled(t, "Create")
}

func TestDispatch_PersistFailureRequeues(t *testing.T) {
	repo := new(MockNotificationRepository)
	repo.On("GetUsername", "fan-1").Return("superfan", nil)
	repo.On("Create", mock.Anything).Return(errors.New("connection reset"))

	uc := newTestUseCase(repo, &fakePublisher{})
	err := uc.Dispatch(map[string]interface{}{
		"type":     "follow",
		"user_id":  "creator-1",
		"actor_id": "fan-1",
	})

	assert.Error(t, err)
}

func TestMarkRead_PublishesReceipt(t *testing.T) {
	repo := new(MockNotificationRepository)
	repo.On("MarkRead", "notification-1", "user-1").Return(nil)

	pub := &fakePublisher{}
	uc := newTestUseCase(repo, pub)
	err := uc.MarkRead("notification-1", "user-1")

	assert.NoError(t, err)
	assert.Len(t, pub.payloads, 1)
	assert.Equal(t, events.NotificationRead, pub.payloads[0].Event)
}

func TestMarkRead_NotFound(t *testing.T) {
	repo := new(MockNotificationRepository)
	repo.On("MarkRead", "missing", "user-1").Return(errs.ErrNotFound)

	pub := &fakePublisher{}
	uc := newTestUseCase(repo, pub)
	err := uc.MarkRead("missing", "user-1")

	assert.True(t, errors.Is(err, errs.ErrNotFound))
	assert.Empty(t, pub.payloads)
}
