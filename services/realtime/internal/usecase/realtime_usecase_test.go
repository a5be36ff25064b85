package usecase

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"starcast/pkg/errs"
	"starcast/pkg/events"
	"starcast/pkg/logger"
	"starcast/services/realtime/internal/entity"
	"starcast/services/realtime/internal/repo/persistent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRoomRepository struct {
	mock.Mock
}

var _ persistent.RoomRepository = (*MockRoomRepository)(nil)

func (m *MockRoomRepository) GetSessionRef(sessionID string) (*entity.SessionRef, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.SessionRef), args.Error(1)
}

func (m *MockRoomRepository) GetProfile(userID string) (*entity.Profile, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

func (m *MockRoomRepository) OpenJoin(userID, sessionID string) (bool, error) {
	args := m.Called(userID, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) CloseJoin(userID, sessionID string) (bool, error) {
	args := m.Called(userID, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) CreateComment(userID, sessionID, message string) (*entity.Comment, error) {
	args := m.Called(userID, sessionID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Comment), args.Error(1)
}

func (m *MockRoomRepository) CreateGift(userID, sessionID, giftType string, giftValue int) (*entity.Gift, error) {
	args := m.Called(userID, sessionID, giftType, giftValue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Gift), args.Error(1)
}

func (m *MockRoomRepository) ToggleLike(userID, sessionID string) (bool, error) {
	args := m.Called(userID, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockRoomRepository) SetSessionStatus(sessionID, status string, endTime *time.Time) error {
	args := m.Called(sessionID, status, endTime)
	return args.Error(0)
}

func (m *MockRoomRepository) GetConfirmedBookingUserIDs(sessionID string) ([]string, error) {
	args := m.Called(sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockRoomRepository) GetFollowerIDs(userID string) ([]string, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

type published struct {
	channel  string
	envelope events.Envelope
}

type fakePublisher struct {
	messages []published
}

func (f *fakePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	var env events.Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return err
	}
	f.messages = append(f.messages, published{channel: channel, envelope: env})
	return nil
}

// fakeTaskQueue records enqueued notification tasks.
type fakeTaskQueue struct {
	mu    sync.Mutex
	tasks []map[string]interface{}
}

func (f *fakeTaskQueue) PublishNotificationTask(task map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakeTaskQueue) snapshot() []map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]map[string]interface{}(nil), f.tasks...)
}

func newTestUseCase(repo *MockRoomRepository, pub *fakePublisher) RealtimeUseCase {
	return NewRealtimeUseCase(repo, pub, nil, logger.New())
}

func liveSession() *entity.SessionRef {
	return &entity.SessionRef{
		ID:        "session-1",
		CreatorID: "creator-1",
		Title:     "Friday Live",
		Status:    "live",
	}
}

func scheduledSession(start time.Time) *entity.SessionRef {
	return &entity.SessionRef{
		ID:        "session-1",
		CreatorID: "creator-1",
		Title:     "Friday Live",
		Status:    "scheduled",
		StartTime: &start,
	}
}

func TestJoinSession_BroadcastsExcludingJoiner(t *testing.T) {
	repo := new(MockRoomRepository)
	pub := &fakePublisher{}
	uc := newTestUseCase(repo, pub)

	repo.On("GetSessionRef", "session-1").Return(liveSession(), nil)
	repo.On("OpenJoin", "user-1", "session-1").Return(true, nil)

	session, err := uc.JoinSession("user-1", "fan1", "session-1")

	assert.NoError(t, err)
	assert.Equal(t, "Friday Live", session.Title)
	assert.Len(t, pub.messages, 1)
	assert.Equal(t, events.RoomChannel("session-1"), pub.messages[0].channel)
	assert.Equal(t, events.UserJoined, pub.messages[0].envelope.Event)
	assert.Equal(t, "user-1", pub.messages[0].envelope.ExcludeUserID)
	assert.Equal(t, "fan1", pub.messages[0].envelope.Data["username"])
}

func TestJoinSession_RejectsNonLive(t *testing.T) {
	repo := new(MockRoomRepository)
	pub := &fakePublisher{}
	uc := newTestUseCase(repo, pub)

	start := time.Now().Add(time.Hour)
	repo.On("GetSessionRef", "session-1").Return(scheduledSession(start), nil)

	_, err := uc.JoinSession("user-1", "fan1", "session-1")

	assert.ErrorIs(t, err, errs.ErrInvalidState)
	repo.AssertNotCalled(t, "OpenJoin", mock.Anything, mock.Anything)
	assert.Empty(t, pub.messages)
}

func TestJoinSession_AlreadyJoined_NoBroadcast(t *testing.T) {
	repo := new(MockRoomRepository)
	pub := &fakePublisher{}
	uc := newTestUseCase(repo, pub)

	repo.On("GetSessionRef", "session-1").Return(liveSession(), nil)
	repo.On("OpenJoin", "user-1", "session-1").Return(false, nil)

	_, err := uc.JoinSession("user-1", "fan1", "session-1")

	assert.NoError(t, err)
	assert.Empty(t, pub.messages)
}

func TestLeaveSession_PublishesUserLeft(t *testing.T) {
	repo := new(MockRoomRepository)
	pub := &fakePublisher{}
	uc := newTestUseCase(repo, pub)

	repo.On("CloseJoin", "user-1", "session-1").Return(true, nil)

	err := uc.LeaveSession("user-1", "fan1", "session-1")

	assert.NoError(t, err)
	assert.Len(t, pub.messages, 1)
	assert.Equal(t, events.UserLeft, pub.messages[0].envelope.Event)
}

func TestLeaveSession_NoOpenRecord_NoBroadcast(t *testing.T) {
	repo := new(MockRoomRepository)
	pub := &fakePublisher{}
	uc := newTestUseCase(repo, pub)

	repo.On("CloseJoin", "user-1", "session-1").Return(false, nil)

	err := uc.LeaveSession("user-1", "fan1", "session-1")

	assert.NoError(t, err)
	assert.Empty(t, pub.messages)
}

func TestSendComment_BroadcastsToWholeRoom(t *testing.T) {
	repo := new(MockRoomRepository)
	pub := &fakePublisher{}
	uc := newTestUseCase(repo, pub)

	repo.On("GetSessionRef", "session-1").Return(liveSession(), nil)
	repo.On("CreateComment", "user-1", "session-1", "great stream").Return(&entity.Comment{
		ID:        "comment-1",
		SessionID: "session-1",
		UserID:    "user-1",
		Message:   "great stream",
		CreatedAt: time.Now(),
	}, nil)

	comment, err := uc.SendComment("user-1", "fan1", "session-1", "great stream")

	assert.NoError(t, err)
	assert.Equal(t, "comment-1", comment.ID)
	assert.Len(t, pub.messages, 1)
	assert.Equal(t, events.NewComment, pub.messages[0].envelope.Event)
	// The sender sees their own comment too.
	assert.Empty(t, pub.messages[0].envelope.ExcludeUserID)
}

func TestSendComment_EmptyMessage(t *testing.T) {
	repo := new(MockRoomRepository)
	uc := newTestUseCase(repo, &fakePublisher{})

	_, err := uc.SendComment("user-1", "fan1", "session-1", "")

	assert.ErrorIs(t, err, errs.ErrValidation)
	repo.AssertNotCalled(t, "GetSessionRef", mock.Anything)
}

func TestSendComment_TooLong(t *testing.T) {
	repo := new(MockRoomRepository)
	uc := newTestUseCase(repo, &fakePublisher{})

	long := make([]byte, 501)
	for i := range long {
		long[i] = 'x'
	}
	_, err := uc.SendComment("user-1", "fan1", "session-1", string(long))

	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestSendComment_LimitCountsCharactersNotBytes(t *testing.T) {
	repo := new(MockRoomRepository)
	pub := &fakePublisher{}
	uc := newTestUseCase(repo, pub)

	// 500 two-byte runes is 1000 bytes but still within the limit.
	msg := strings.Repeat("é", 500)
	repo.On("GetSessionRef", "session-1").Return(liveSession(), nil)
	repo.On("CreateComment", "user-1", "session-1", msg).Return(&entity.Comment{
		ID:        "comment-1",
		SessionID: "session-1",
		UserID:    "user-1",
		Message:   msg,
		CreatedAt: time.Now(),
	}, nil)

	_, err := uc.SendComment("user-1", "fan1", "session-1", msg)
	assert.NoError(t, err)

	_, err = uc.SendComment("user-1", "fan1", "session-1", strings.Repeat("é", 501))
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestSendComment_SessionNotLive(t *testing.T) {
	repo := new(MockRoomRepository)
	uc := newTestUseCase(repo, &fakePublisher{})

	start := time.Now().Add(time.Hour)
	repo.On("GetSessionRef", "session-1").Return(scheduledSession(start), nil)

	_, err := uc.SendComment("user-1", "fan1", "session-1", "early bird")

	assert.ErrorIs(t, err, errs.ErrInvalidState)
}

func TestSendGift_UnknownType(t *testing.T) {
	repo := new(MockRoomRepository)
	uc := newTestUseCase(repo, &fakePublisher{})

	_, err := uc.SendGift("user-1", "fan1", "session-1", "yacht")

	assert.ErrorIs(t, err, errs.ErrValidation)
	repo.AssertNotCalled(t, "GetSessionRef", mock.Anything)
}

func TestSendGift_AttachesCatalogValue(t *testing.T) {
	repo := new(MockRoomRepository)
	pub := &fakePublisher{}
	uc := newTestUseCase(repo, pub)

	repo.On("GetSessionRef", "session-1").Return(liveSession(), nil)
	repo.On("CreateGift", "user-1", "session-1", "diamond", 200).Return(&entity.Gift{
		ID:        "gift-1",
		SessionID: "session-1",
		UserID:    "user-1",
		GiftType:  "diamond",
		GiftValue: 200,
		CreatedAt: time.Now(),
	}, nil)

	gift, err := uc.SendGift("user-1", "fan1", "session-1", "diamond")

	assert.NoError(t, err)
	assert.Equal(t, 200, gift.GiftValue)
	assert.Len(t, pub.messages, 1)
	assert.Equal(t, events.NewGift, pub.messages[0].envelope.Event)
	assert.Equal(t, float64(200), pub.messages[0].envelope.Data["gift_value"])
}

func TestToggleLike_PublishesLikedAndUnliked(t *testing.T) {
	repo := new(MockRoomRepository)
	pub := &fakePublisher{}
	uc := newTestUseCase(repo, pub)

	repo.On("GetSessionRef", "session-1").Return(liveSession(), nil)
	repo.On("ToggleLike", "user-1", "session-1").Return(true, nil).Once()
	repo.On("ToggleLike", "user-1", "session-1").Return(false, nil).Once()

	liked, err := uc.ToggleLike("user-1", "session-1")
	assert.NoError(t, err)
	assert.True(t, liked)

	liked, err = uc.ToggleLike("user-1", "session-1")
	assert.NoError(t, err)
	assert.False(t, liked)

	assert.Len(t, pub.messages, 2)
	assert.Equal(t, events.SessionLiked, pub.messages[0].envelope.Event)
	assert.Equal(t, events.SessionUnliked, pub.messages[1].envelope.Event)
}

func TestChangeStatus_OnlyCreator(t *testing.T) {
	repo := new(MockRoomRepository)
	uc := newTestUseCase(repo, &fakePublisher{})

	start := time.Now().Add(time.Minute)
	repo.On("GetSessionRef", "session-1").Return(scheduledSession(start), nil)

	err := uc.ChangeStatus("session-1", "user-1", "user", "live")

	assert.ErrorIs(t, err, errs.ErrForbidden)
	repo.AssertNotCalled(t, "SetSessionStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestChangeStatus_ModeratorOverride(t *testing.T) {
	repo := new(MockRoomRepository)
	pub := &fakePublisher{}
	uc := newTestUseCase(repo, pub)

	repo.On("GetSessionRef", "session-1").Return(liveSession(), nil)
	repo.On("SetSessionStatus", "session-1", "ended", mock.AnythingOfType("*time.Time")).Return(nil)

	err := uc.ChangeStatus("session-1", "mod-1", "moderator", "ended")

	assert.NoError(t, err)
	assert.Len(t, pub.messages, 1)
	assert.Equal(t, events.SessionsChannel, pub.messages[0].channel)
	assert.Equal(t, events.SessionEnded, pub.messages[0].envelope.Event)
}

func TestChangeStatus_TooEarlyToStart(t *testing.T) {
	repo := new(MockRoomRepository)
	uc := newTestUseCase(repo, &fakePublisher{})

	start := time.Now().Add(10 * time.Minute)
	repo.On("GetSessionRef", "session-1").Return(scheduledSession(start), nil)

	err := uc.ChangeStatus("session-1", "creator-1", "user", "live")

	assert.ErrorIs(t, err, errs.ErrInvalidState)
	assert.Contains(t, err.Error(), "cannot be started yet")
}

func TestChangeStatus_StartWithinEarlyWindow(t *testing.T) {
	repo := new(MockRoomRepository)
	pub := &fakePublisher{}
	uc := newTestUseCase(repo, pub)

	start := time.Now().Add(3 * time.Minute)
	repo.On("GetSessionRef", "session-1").Return(scheduledSession(start), nil)
	repo.On("SetSessionStatus", "session-1", "live", (*time.Time)(nil)).Return(nil)
	repo.On("GetConfirmedBookingUserIDs", "session-1").Return([]string{}, nil)
	repo.On("GetFollowerIDs", "creator-1").Return([]string{}, nil)

	err := uc.ChangeStatus("session-1", "creator-1", "user", "live")

	assert.NoError(t, err)
	assert.Len(t, pub.messages, 1)
	assert.Equal(t, events.SessionStarted, pub.messages[0].envelope.Event)
}

func TestChangeStatus_GoLiveFansOutReminderAndFollowerTasks(t *testing.T) {
	repo := new(MockRoomRepository)
	start := time.Now().Add(time.Minute)
	repo.On("GetSessionRef", "session-1").Return(scheduledSession(start), nil)
	repo.On("SetSessionStatus", "session-1", "live", (*time.Time)(nil)).Return(nil)
	repo.On("GetConfirmedBookingUserIDs", "session-1").Return([]string{"booker-1"}, nil)
	repo.On("GetFollowerIDs", "creator-1").Return([]string{"fan-1", "booker-1"}, nil)

	tq := &fakeTaskQueue{}
	uc := NewRealtimeUseCase(repo, &fakePublisher{}, tq, logger.New())

	err := uc.ChangeStatus("session-1", "creator-1", "user", "live")
	assert.NoError(t, err)

	assert.Eventually(t, func() bool { return len(tq.snapshot()) == 2 }, time.Second, 10*time.Millisecond)

	// Same fan-out as the HTTP start path: reminders to booked viewers,
	// start alerts to the remaining followers.
	byUser := map[string]string{}
	for _, task := range tq.snapshot() {
		byUser[task["user_id"].(string)] = task["type"].(string)
	}
	assert.Equal(t, map[string]string{
		"booker-1": "booking_reminder",
		"fan-1":    "session_start",
	}, byUser)
}

func TestChangeStatus_InvalidTransition(t *testing.T) {
	repo := new(MockRoomRepository)
	uc := newTestUseCase(repo, &fakePublisher{})

	ended := &entity.SessionRef{ID: "session-1", CreatorID: "creator-1", Title: "Friday Live", Status: "ended"}
	repo.On("GetSessionRef", "session-1").Return(ended, nil)

	err := uc.ChangeStatus("session-1", "creator-1", "user", "live")

	assert.ErrorIs(t, err, errs.ErrInvalidState)
}
