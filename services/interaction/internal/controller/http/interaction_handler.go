package http

import (
	"errors"
	"net/http"
	"strconv"

	"starcast/pkg/errs"
	"starcast/pkg/logger"
	"starcast/services/interaction/internal/usecase"

	"github.com/gin-gonic/gin"
)

type InteractionHandler struct {
	interactionUseCase usecase.InteractionUseCase
	logger             *logger.Logger
}

func NewInteractionHandler(interactionUseCase usecase.InteractionUseCase, logger *logger.Logger) *InteractionHandler {
	return &InteractionHandler{
		interactionUseCase: interactionUseCase,
		logger:             logger,
	}
}

type CommentRequest struct {
	Message  string  `json:"message" binding:"required"`
	ParentID *string `json:"parent_id"`
}

type GiftRequest struct {
	GiftType string `json:"gift_type" binding:"required"`
}

// ToggleLike godoc
// @Summary      Like a session
// @Description  Toggle - if already liked, removes the like
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /interactions/sessions/{session_id}/like [post]
func (h *InteractionHandler) ToggleLike(c *gin.Context) {
	liked, err := h.interactionUseCase.ToggleLike(c.GetString("user_id"), c.Param("session_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if liked {
		c.JSON(http.StatusOK, gin.H{"message": "Session liked", "liked": true})
	} else {
		c.JSON(http.StatusOK, gin.H{"message": "Session unliked", "liked": false})
	}
}

// ToggleBooking godoc
// @Summary      Book a session
// @Description  Toggle - if already booked, cancels the booking; scheduled sessions only
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /interactions/sessions/{session_id}/book [post]
func (h *InteractionHandler) ToggleBooking(c *gin.Context) {
	booked, err := h.interactionUseCase.ToggleBooking(c.GetString("user_id"), c.Param("session_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if booked {
		c.JSON(http.StatusOK, gin.H{"message": "Session booked", "booked": true})
	} else {
		c.JSON(http.StatusOK, gin.H{"message": "Booking cancelled", "booked": false})
	}
}

// AddComment godoc
// @Summary      Comment on a session
// @Description  Message up to 500 characters, optional parent_id for a reply
// @Tags         interactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Param        request body CommentRequest true "Comment payload"
// @Success      201  {object}  entity.Comment
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /interactions/sessions/{session_id}/comment [post]
func (h *InteractionHandler) AddComment(c *gin.Context) {
	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.interactionUseCase.AddComment(
		c.GetString("user_id"),
		c.Param("session_id"),
		req.Message,
		req.ParentID,
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"comment": comment})
}

// GetComments godoc
// @Summary      List session comments
// @Tags         interactions
// @Produce      json
// @Param        session_id path string true "Session ID"
// @Param        limit query int false "Page size (max 100)"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  map[string]string
// @Router       /interactions/sessions/{session_id}/comments [get]
func (h *InteractionHandler) GetComments(c *gin.Context) {
	limit, offset := pagination(c)

	comments, total, err := h.interactionUseCase.GetComments(c.Param("session_id"), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": comments,
		"count":    len(comments),
		"total":    total,
		"offset":   offset,
	})
}

// SendGift godoc
// @Summary      Send a gift
// @Description  Gift type must be in the catalog; live sessions only
// @Tags         interactions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Param        request body GiftRequest true "Gift payload"
// @Success      201  {object}  entity.Gift
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /interactions/sessions/{session_id}/gift [post]
func (h *InteractionHandler) SendGift(c *gin.Context) {
	var req GiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	gift, err := h.interactionUseCase.SendGift(c.GetString("user_id"), c.Param("session_id"), req.GiftType)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"gift": gift})
}

// GetGifts godoc
// @Summary      List session gifts
// @Tags         interactions
// @Produce      json
// @Param        session_id path string true "Session ID"
// @Param        limit query int false "Page size (max 100)"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /interactions/sessions/{session_id}/gifts [get]
func (h *InteractionHandler) GetGifts(c *gin.Context) {
	limit, offset := pagination(c)

	gifts, total, err := h.interactionUseCase.GetGifts(c.Param("session_id"), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"gifts":  gifts,
		"count":  len(gifts),
		"total":  total,
		"offset": offset,
	})
}

// JoinSession godoc
// @Summary      Join a live session
// @Description  No-ops when already joined
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Success      200  {object}  map[string]string
// @Failure      400  {object}  map[string]string
// @Router       /interactions/sessions/{session_id}/join [post]
func (h *InteractionHandler) JoinSession(c *gin.Context) {
	err := h.interactionUseCase.JoinSession(c.GetString("user_id"), c.Param("session_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Joined session"})
}

// LeaveSession godoc
// @Summary      Leave a session
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Param        session_id path string true "Session ID"
// @Success      200  {object}  map[string]string
// @Router       /interactions/sessions/{session_id}/leave [post]
func (h *InteractionHandler) LeaveSession(c *gin.Context) {
	err := h.interactionUseCase.LeaveSession(c.GetString("user_id"), c.Param("session_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Left session"})
}

// ToggleFollow godoc
// @Summary      Follow a user
// @Description  Toggle - if already following, unfollows
// @Tags         interactions
// @Produce      json
// @Security     BearerAuth
// @Param        user_id path string true "User ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /interactions/users/{user_id}/follow [post]
func (h *InteractionHandler) ToggleFollow(c *gin.Context) {
	following, err := h.interactionUseCase.ToggleFollow(c.GetString("user_id"), c.Param("user_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	if following {
		c.JSON(http.StatusOK, gin.H{"message": "Following", "following": true})
	} else {
		c.JSON(http.StatusOK, gin.H{"message": "Unfollowed", "following": false})
	}
}

// GetFollowers godoc
// @Summary      List a user's followers
// @Tags         interactions
// @Produce      json
// @Param        user_id path string true "User ID"
// @Param        limit query int false "Page size (max 100)"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /interactions/users/{user_id}/followers [get]
func (h *InteractionHandler) GetFollowers(c *gin.Context) {
	limit, offset := pagination(c)

	followers, total, err := h.interactionUseCase.GetFollowers(c.Param("user_id"), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"followers": followers,
		"count":     len(followers),
		"total":     total,
		"offset":    offset,
	})
}

// GetFollowing godoc
// @Summary      List users a user follows
// @Tags         interactions
// @Produce      json
// @Param        user_id path string true "User ID"
// @Param        limit query int false "Page size (max 100)"
// @Param        offset query int false "Offset"
// @Success      200  {object}  map[string]interface{}
// @Router       /interactions/users/{user_id}/following [get]
func (h *InteractionHandler) GetFollowing(c *gin.Context) {
	limit, offset := pagination(c)

	following, total, err := h.interactionUseCase.GetFollowing(c.Param("user_id"), limit, offset)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"following": following,
		"count":     len(following),
		"total":     total,
		"offset":    offset,
	})
}

func pagination(c *gin.Context) (int, int) {
	limit := 20
	offset := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}

func (h *InteractionHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation), errors.Is(err, errs.ErrInvalidState):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, errs.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, errs.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.logger.Error("Interaction handler error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
