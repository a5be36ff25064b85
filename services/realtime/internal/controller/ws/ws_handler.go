package ws

import (
	"encoding/json"
	"errors"
	"net/http"

	"starcast/pkg/errs"
	"starcast/pkg/events"
	"starcast/pkg/jwt"
	"starcast/pkg/logger"
	"starcast/services/realtime/internal/hub"
	"starcast/services/realtime/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// clientMessage is the inbound socket frame.
type clientMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type Handler struct {
	hub        *hub.Hub
	realtimeUC usecase.RealtimeUseCase
	jwtService *jwt.Service
	logger     *logger.Logger
}

func NewHandler(h *hub.Hub, realtimeUC usecase.RealtimeUseCase, jwtService *jwt.Service, log *logger.Logger) *Handler {
	return &Handler{
		hub:        h,
		realtimeUC: realtimeUC,
		jwtService: jwtService,
		logger:     log,
	}
}

// HandleWebSocket authenticates the handshake and upgrades the connection.
// The token travels as a query parameter because browsers cannot set
// headers on WebSocket upgrades.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Token is required"})
		return
	}

	claims, err := h.jwtService.ValidateToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	username := claims.UserID
	if profile, err := h.realtimeUC.GetProfile(claims.UserID); err == nil {
		username = profile.Username
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade connection: %v", err)
		return
	}

	client := hub.NewClient(h.hub, conn, h, claims.UserID, username, claims.Role)
	h.hub.Register(client)
	client.Start()
}

// OnMessage dispatches one inbound frame. Validation failures never drop
// the connection; the offending socket gets an error event instead.
func (h *Handler) OnMessage(c *hub.Client, raw []byte) {
	var msg clientMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.sendError(c, "", "invalid message format")
		return
	}

	switch msg.Event {
	case events.JoinSession:
		h.handleJoin(c, msg.Data)
	case events.LeaveSession:
		h.handleLeave(c, msg.Data)
	case events.SendComment:
		h.handleComment(c, msg.Data)
	case events.SendGift:
		h.handleGift(c, msg.Data)
	case events.LikeSession:
		h.handleLike(c, msg.Data)
	case events.SessionStatusChange:
		h.handleStatusChange(c, msg.Data)
	default:
		h.sendError(c, "", "unknown event: "+msg.Event)
	}
}

// OnDisconnect closes any join records the socket left open.
func (h *Handler) OnDisconnect(c *hub.Client) {
	rooms := h.hub.Unregister(c)
	for _, sessionID := range rooms {
		if err := h.realtimeUC.LeaveSession(c.UserID, c.Username, sessionID); err != nil {
			h.logger.Warn("Failed to close join record for %s in %s: %v", c.UserID, sessionID, err)
		}
	}
}

func (h *Handler) handleJoin(c *hub.Client, data json.RawMessage) {
	var payload struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.SessionID == "" {
		h.sendError(c, "", "session_id is required")
		return
	}

	session, err := h.realtimeUC.JoinSession(c.UserID, c.Username, payload.SessionID)
	if err != nil {
		h.sendError(c, payload.SessionID, errMessage(err))
		return
	}

	h.hub.Join(payload.SessionID, c)
	h.sendEnvelope(c, events.Envelope{
		Event:     events.SessionJoined,
		SessionID: payload.SessionID,
		Data: map[string]interface{}{
			"session_id": session.ID,
			"title":      session.Title,
			"creator_id": session.CreatorID,
			"status":     session.Status,
		},
	})
}

func (h *Handler) handleLeave(c *hub.Client, data json.RawMessage) {
	var payload struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.SessionID == "" {
		h.sendError(c, "", "session_id is required")
		return
	}

	h.hub.Leave(payload.SessionID, c)
	if err := h.realtimeUC.LeaveSession(c.UserID, c.Username, payload.SessionID); err != nil {
		h.sendError(c, payload.SessionID, errMessage(err))
	}
}

func (h *Handler) handleComment(c *hub.Client, data json.RawMessage) {
	var payload struct {
		SessionID string `json:"session_id"`
		Message   string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.SessionID == "" {
		h.sendError(c, "", "session_id is required")
		return
	}

	if _, err := h.realtimeUC.SendComment(c.UserID, c.Username, payload.SessionID, payload.Message); err != nil {
		h.sendError(c, payload.SessionID, errMessage(err))
	}
}

func (h *Handler) handleGift(c *hub.Client, data json.RawMessage) {
	var payload struct {
		SessionID string `json:"session_id"`
		GiftType  string `json:"gift_type"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.SessionID == "" {
		h.sendError(c, "", "session_id is required")
		return
	}

	if _, err := h.realtimeUC.SendGift(c.UserID, c.Username, payload.SessionID, payload.GiftType); err != nil {
		h.sendError(c, payload.SessionID, errMessage(err))
	}
}

func (h *Handler) handleLike(c *hub.Client, data json.RawMessage) {
	var payload struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.SessionID == "" {
		h.sendError(c, "", "session_id is required")
		return
	}

	if _, err := h.realtimeUC.ToggleLike(c.UserID, payload.SessionID); err != nil {
		h.sendError(c, payload.SessionID, errMessage(err))
	}
}

func (h *Handler) handleStatusChange(c *hub.Client, data json.RawMessage) {
	var payload struct {
		SessionID string `json:"session_id"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(data, &payload); err != nil || payload.SessionID == "" || payload.Status == "" {
		h.sendError(c, "", "session_id and status are required")
		return
	}

	if err := h.realtimeUC.ChangeStatus(payload.SessionID, c.UserID, c.Role, payload.Status); err != nil {
		h.sendError(c, payload.SessionID, errMessage(err))
	}
}

func (h *Handler) sendError(c *hub.Client, sessionID, message string) {
	h.sendEnvelope(c, events.Envelope{
		Event:     events.Error,
		SessionID: sessionID,
		Data:      map[string]interface{}{"message": message},
	})
}

func (h *Handler) sendEnvelope(c *hub.Client, envelope events.Envelope) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		h.logger.Error("Failed to marshal %s event: %v", envelope.Event, err)
		return
	}
	c.Send(payload)
}

// errMessage strips the sentinel prefix wrapping so socket clients see the
// human-readable part only.
func errMessage(err error) string {
	if errors.Is(err, errs.ErrNotFound) {
		return "not found"
	}
	return err.Error()
}