package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"starcast/pkg/errs"
	"starcast/pkg/logger"
	"starcast/services/interaction/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockInteractionUseCase is a mock implementation of InteractionUseCase
type MockInteractionUseCase struct {
	mock.Mock
}

func (m *MockInteractionUseCase) ToggleLike(userID, sessionID string) (bool, error) {
	args := m.Called(userID, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockInteractionUseCase) ToggleBooking(userID, sessionID string) (bool, error) {
	args := m.Called(userID, sessionID)
	return args.Bool(0), args.Error(1)
}

func (m *MockInteractionUseCase) AddComment(userID, sessionID, message string, parentID *string) (*entity.Comment, error) {
	args := m.Called(userID, sessionID, message, parentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Comment), args.Error(1)
}

func (m *MockInteractionUseCase) GetComments(sessionID string, limit, offset int) ([]*entity.Comment, int64, error) {
	args := m.Called(sessionID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entity.Comment), args.Get(1).(int64), args.Error(2)
}

func (m *MockInteractionUseCase) SendGift(userID, sessionID, giftType string) (*entity.Gift, error) {
	args := m.Called(userID, sessionID, giftType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Gift), args.Error(1)
}

func (m *MockInteractionUseCase) GetGifts(sessionID string, limit, offset int) ([]*entity.Gift, int64, error) {
	args := m.Called(sessionID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entity.Gift), args.Get(1).(int64), args.Error(2)
}

func (m *MockInteractionUseCase) JoinSession(userID, sessionID string) error {
	args := m.Called(userID, sessionID)
	return args.Error(0)
}

func (m *MockInteractionUseCase) LeaveSession(userID, sessionID string) error {
	args := m.Called(userID, sessionID)
	return args.Error(0)
}

func (m *MockInteractionUseCase) ToggleFollow(followerID, followingID string) (bool, error) {
	args := m.Called(followerID, followingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockInteractionUseCase) GetFollowers(userID string, limit, offset int) ([]*entity.Profile, int64, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entity.Profile), args.Get(1).(int64), args.Error(2)
}

func (m *MockInteractionUseCase) GetFollowing(userID string, limit, offset int) ([]*entity.Profile, int64, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entity.Profile), args.Get(1).(int64), args.Error(2)
}

func setupRouter(uc *MockInteractionUseCase, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		if userID != "" {
			c.Set("user_id", userID)
		}
		c.Next()
	})

	handler := NewInteractionHandler(uc, logger.New())
	router.POST("/interactions/sessions/:session_id/like", handler.ToggleLike)
	router.POST("/interactions/sessions/:session_id/book", handler.ToggleBooking)
	router.POST("/interactions/sessions/:session_id/comment", handler.AddComment)
	router.GET("/interactions/sessions/:session_id/comments", handler.GetComments)
	router.POST("/interactions/sessions/:session_id/gift", handler.SendGift)
	router.GET("/interactions/sessions/:session_id/gifts", handler.GetGifts)
	router.POST("/interactions/sessions/:session_id/join", handler.JoinSession)
	router.POST("/interactions/sessions/:session_id/leave", handler.LeaveSession)
	router.POST("/interactions/users/:user_id/follow", handler.ToggleFollow)
	router.GET("/interactions/users/:user_id/followers", handler.GetFollowers)
	return router
}

func TestToggleLike_Response(t *testing.T) {
	mockUC := new(MockInteractionUseCase)
	mockUC.On("ToggleLike", "user-1", "session-1").Return(true, nil)

	router := setupRouter(mockUC, "user-1")

	req := httptest.NewRequest(http.MethodPost, "/interactions/sessions/session-1/like", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, true, resp["liked"])
}

func TestToggleLike_SessionNotFound(t *testing.T) {
	mockUC := new(MockInteractionUseCase)
	mockUC.On("ToggleLike", "user-1", "missing").Return(false, errs.ErrNotFound)

	router := setupRouter(mockUC, "user-1")

	req := httptest.NewRequest(http.MethodPost, "/interactions/sessions/missing/like", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleBooking_NotScheduled(t *testing.T) {
	mockUC := new(MockInteractionUseCase)
	mockUC.On("ToggleBooking", "user-1", "session-1").
		Return(false, fmt.Errorf("%w: can only book scheduled sessions", errs.ErrInvalidState))

	router := setupRouter(mockUC, "user-1")

	req := httptest.NewRequest(http.MethodPost, "/interactions/sessions/session-1/book", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "can only book scheduled sessions")
}

func TestAddComment_Success(t *testing.T) {
	mockUC := new(MockInteractionUseCase)
	mockUC.On("AddComment", "user-1", "session-1", "great stream", (*string)(nil)).
		Return(&entity.Comment{
			ID:        "comment-1",
			SessionID: "session-1",
			UserID:    "user-1",
			Message:   "great stream",
			Author:    &entity.Profile{ID: "user-1", Username: "fan1"},
		}, nil)

	router := setupRouter(mockUC, "user-1")

	body, _ := json.Marshal(map[string]string{"message": "great stream"})
	req := httptest.NewRequest(http.MethodPost, "/interactions/sessions/session-1/comment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "fan1")
	mockUC.AssertExpectations(t)
}

func TestAddComment_MissingMessage(t *testing.T) {
	mockUC := new(MockInteractionUseCase)
	router := setupRouter(mockUC, "user-1")

	req := httptest.NewRequest(http.MethodPost, "/interactions/sessions/session-1/comment", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockUC.AssertNotCalled(t, "AddComment")
}

func TestSendGift_NotLive(t *testing.T) {
	mockUC := new(MockInteractionUseCase)
	mockUC.On("SendGift", "user-1", "session-1", "rose").
		Return(nil, fmt.Errorf("%w: gifts can only be sent to live sessions", errs.ErrInvalidState))

	router := setupRouter(mockUC, "user-1")

	body, _ := json.Marshal(map[string]string{"gift_type": "rose"})
	req := httptest.NewRequest(http.MethodPost, "/interactions/sessions/session-1/gift", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetComments_Pagination(t *testing.T) {
	mockUC := new(MockInteractionUseCase)
	mockUC.On("GetComments", "session-1", 5, 10).Return([]*entity.Comment{}, int64(42), nil)

	router := setupRouter(mockUC, "")

	req := httptest.NewRequest(http.MethodGet, "/interactions/sessions/session-1/comments?limit=5&offset=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, float64(42), resp["total"])
	mockUC.AssertExpectations(t)
}

func TestJoinSession_NotLive(t *testing.T) {
	mockUC := new(MockInteractionUseCase)
	mockUC.On("JoinSession", "user-1", "session-1").
		Return(fmt.Errorf("%w: can only join live sessions", errs.ErrInvalidState))

	router := setupRouter(mockUC, "user-1")

	req := httptest.NewRequest(http.MethodPost, "/interactions/sessions/session-1/join", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestToggleFollow_Self(t *testing.T) {
	mockUC := new(MockInteractionUseCase)
	mockUC.On("ToggleFollow", "user-1", "user-1").
		Return(false, fmt.Errorf("%w: cannot follow yourself", errs.ErrValidation))

	router := setupRouter(mockUC, "user-1")

	req := httptest.NewRequest(http.MethodPost, "/interactions/users/user-1/follow", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "cannot follow yourself")
}

func TestGetFollowers(t *testing.T) {
	mockUC := new(MockInteractionUseCase)
	mockUC.On("GetFollowers", "user-2", 20, 0).Return([]*entity.Profile{
		{ID: "user-1", Username: "fan1"},
	}, int64(1), nil)

	router := setupRouter(mockUC, "")

	req := httptest.NewRequest(http.MethodGet, "/interactions/users/user-2/followers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "fan1")
}
