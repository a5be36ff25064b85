package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"starcast/pkg/errs"
	"starcast/pkg/logger"
	"starcast/services/notification/internal/entity"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockNotificationUseCase is a mock implementation of NotificationUseCase
type MockNotificationUseCase struct {
	mock.Mock
}

func (m *MockNotificationUseCase) Dispatch(task map[string]interface{}) error {
	args := m.Called(task)
	return args.Error(0)
}

func (m *MockNotificationUseCase) GetNotifications(userID string, limit, offset int) ([]*entity.Notification, int64, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*entity.Notification), args.Get(1).(int64), args.Error(2)
}

func (m *MockNotificationUseCase) GetUnreadCount(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationUseCase) MarkRead(id, userID string) error {
	args := m.Called(id, userID)
	return args.Error(0)
}

func (m *MockNotificationUseCase) MarkAllRead(userID string) (int64, error) {
	args := m.Called(userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockNotificationUseCase) Delete(id, userID string) error {
	args := m.Called(id, userID)
	return args.Error(0)
}

func setupRouter(uc *MockNotificationUseCase, userID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	})

	handler := NewNotificationHandler(uc, logger.New())
	router.GET("/notifications", handler.GetNotifications)
	router.GET("/notifications/unread-count", handler.GetUnreadCount)
	router.PUT("/notifications/:id/read", handler.MarkRead)
	router.PUT("/notifications/read-all", handler.MarkAllRead)
	router.DELETE("/notifications/:id", handler.DeleteNotification)
	return router
}

func TestGetNotifications(t *testing.T) {
	mockUC := new(MockNotificationUseCase)
	mockUC.On("GetNotifications", "user-1", 20, 0).Return([]*entity.Notification{
		{ID: "notification-1", UserID: "user-1", Type: "like", Title: "New Like!"},
	}, int64(1), nil)

	router := setupRouter(mockUC, "user-1")

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, float64(1), resp["total"])
	mockUC.AssertExpectations(t)
}

func TestGetUnreadCount(t *testing.T) {
	mockUC := new(MockNotificationUseCase)
	mockUC.On("GetUnreadCount", "user-1").Return(int64(7), nil)

	router := setupRouter(mockUC, "user-1")

	req := httptest.NewRequest(http.MethodGet, "/notifications/unread-count", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, float64(7), resp["unread_count"])
}

func TestMarkRead_NotOwned(t *testing.T) {
	// Another user's notification looks like a missing one.
	mockUC := new(MockNotificationUseCase)
	mockUC.On("MarkRead", "notification-1", "user-1").Return(errs.ErrNotFound)

	router := setupRouter(mockUC, "user-1")

	req := httptest.NewRequest(http.MethodPut, "/notifications/notification-1/read", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMarkAllRead(t *testing.T) {
	mockUC := new(MockNotificationUseCase)
	mockUC.On("MarkAllRead", "user-1").Return(int64(3), nil)

	router := setupRouter(mockUC, "user-1")

	req := httptest.NewRequest(http.MethodPut, "/notifications/read-all", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err)
	assert.Equal(t, float64(3), resp["updated"])
}

func TestDeleteNotification(t *testing.T) {
	mockUC := new(MockNotificationUseCase)
	mockUC.On("Delete", "notification-1", "user-1").Return(nil)

	router := setupRouter(mockUC, "user-1")

	req := httptest.NewRequest(http.MethodDelete, "/notifications/notification-1", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockUC.AssertExpectations(t)
}
