package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"starcast/pkg/errs"
	"starcast/pkg/logger"
	"starcast/services/session/internal/entity"
	"starcast/services/session/internal/usecase"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessionUseCase usecase.SessionUseCase
	logger         *logger.Logger
}

func NewSessionHandler(sessionUseCase usecase.SessionUseCase, logger *logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessionUseCase: sessionUseCase,
		logger:         logger,
	}
}

type CreateSessionRequest struct {
	Title     string     `json:"title" binding:"required"`
	Caption   string     `json:"caption"`
	PosterURL string     `json:"poster_url"`
	VideoURL  string     `json:"video_url"`
	Type      string     `json:"type" binding:"required,oneof=post event"`
	Genre     string     `json:"genre"`
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// CreateSession godoc
// @Summary      Create a session
// @Description  Create a scheduled event or an instant post
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateSessionRequest true "Session payload"
// @Success      201  {object}  entity.Session
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.sessionUseCase.CreateSession(userID, usecase.CreateSessionInput{
		Title:     req.Title,
		Caption:   req.Caption,
		PosterURL: req.PosterURL,
		VideoURL:  req.VideoURL,
		Type:      entity.SessionType(req.Type),
		Genre:     req.Genre,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session": session})
}

// ListSessions godoc
// @Summary      List sessions
// @Description  Filterable, paginated session listing; auth is optional and fills is_liked/is_booked/is_following flags
// @Tags         sessions
// @Produce      json
// @Param        status query string false "Filter by status"
// @Param        genre query string false "Filter by genre"
// @Param        creator_id query string false "Filter by creator"
// @Param        search query string false "Free-text search"
// @Param        limit query int false "Page size (max 100)"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /sessions [get]
func (h *SessionHandler) ListSessions(c *gin.Context) {
	filter := entity.ListFilter{
		Status:    entity.SessionStatus(c.Query("status")),
		Genre:     c.Query("genre"),
		CreatorID: c.Query("creator_id"),
		Search:    c.Query("search"),
		Limit:     20,
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			filter.Limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
		}
	}

	sessions, total, err := h.sessionUseCase.ListSessions(filter, c.GetString("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
		"total":    total,
		"offset":   filter.Offset,
	})
}

// GetSession godoc
// @Summary      Get a session
// @Tags         sessions
// @Produce      json
// @Param        id path string true "Session ID"
// @Success      200  {object}  entity.Session
// @Failure      404  {object}  map[string]string
// @Router       /sessions/{id} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.sessionUseCase.GetSession(c.Param("id"), c.GetString("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// GetCreatorSessions godoc
// @Summary      List a creator's sessions
// @Tags         sessions
// @Produce      json
// @Param        creator_id path string true "Creator ID"
// @Success      200  {object}  map[string]interface{}
// @Router       /sessions/creator/{creator_id} [get]
func (h *SessionHandler) GetCreatorSessions(c *gin.Context) {
	filter := entity.ListFilter{
		CreatorID: c.Param("creator_id"),
		Limit:     20,
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			filter.Limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
		}
	}

	sessions, total, err := h.sessionUseCase.ListSessions(filter, c.GetString("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions), "total": total})
}

// StartSession godoc
// @Summary      Start a session
// @Description  Creator-only; allowed up to 5 minutes before the scheduled start
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200  {object}  entity.Session
// @Failure      400  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /sessions/{id}/start [put]
func (h *SessionHandler) StartSession(c *gin.Context) {
	h.transition(c, entity.StatusLive)
}

// EndSession godoc
// @Summary      End a session
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200  {object}  entity.Session
// @Router       /sessions/{id}/end [put]
func (h *SessionHandler) EndSession(c *gin.Context) {
	h.transition(c, entity.StatusEnded)
}

// UpdateStatus godoc
// @Summary      Set session status
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Param        request body StatusRequest true "Target status"
// @Success      200  {object}  entity.Session
// @Router       /sessions/{id}/status [put]
func (h *SessionHandler) UpdateStatus(c *gin.Context) {
	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.transition(c, entity.SessionStatus(req.Status))
}

func (h *SessionHandler) transition(c *gin.Context, target entity.SessionStatus) {
	session, err := h.sessionUseCase.TransitionStatus(
		c.Param("id"),
		c.GetString("user_id"),
		c.GetString("role"),
		target,
	)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

// DeleteSession godoc
// @Summary      Delete a session
// @Description  Creator-only; scheduled sessions only
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Session ID"
// @Success      200  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Router       /sessions/{id} [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	err := h.sessionUseCase.DeleteSession(c.Param("id"), c.GetString("user_id"), c.GetString("role"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

func (h *SessionHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
	case errors.Is(err, errs.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Session handler error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
