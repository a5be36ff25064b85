package subscriber

import (
	"context"
	"encoding/json"
	"strings"

	"starcast/pkg/events"
	"starcast/pkg/logger"
	"starcast/services/realtime/internal/hub"

	"github.com/redis/go-redis/v9"
)

// Subscriber bridges redis pub/sub into the local hub. Every broadcaster
// instance runs one, so events published by any service reach every
// connected socket regardless of which instance holds it.
type Subscriber struct {
	client *redis.Client
	hub    *hub.Hub
	logger *logger.Logger
}

func New(client *redis.Client, h *hub.Hub, log *logger.Logger) *Subscriber {
	return &Subscriber{client: client, hub: h, logger: log}
}

// Start consumes the global, per-room, and per-user channels until ctx is
// cancelled. Run it in its own goroutine.
func (s *Subscriber) Start(ctx context.Context) {
	pubsub := s.client.PSubscribe(ctx, events.RoomChannelPattern, events.UserChannelPattern)
	if err := pubsub.Subscribe(ctx, events.SessionsChannel); err != nil {
		s.logger.Error("Failed to subscribe to %s: %v", events.SessionsChannel, err)
	}
	defer pubsub.Close()

	s.logger.Info("Redis subscriber started")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.dispatch(msg)
		}
	}
}

func (s *Subscriber) dispatch(msg *redis.Message) {
	payload := []byte(msg.Payload)

	switch {
	case msg.Channel == events.SessionsChannel:
		s.hub.BroadcastAll(payload)
	case strings.HasPrefix(msg.Channel, "room:"):
		var env events.Envelope
		if err := json.Unmarshal(payload, &env); err != nil {
			s.logger.Warn("Dropping malformed envelope on %s: %v", msg.Channel, err)
			return
		}
		roomID := env.SessionID
		if roomID == "" {
			roomID = strings.TrimPrefix(msg.Channel, "room:")
		}
		s.hub.BroadcastRoom(roomID, payload, env.ExcludeUserID)
	case strings.HasPrefix(msg.Channel, "notifications:"):
		userID := strings.TrimPrefix(msg.Channel, "notifications:")
		s.hub.SendToUser(userID, payload)
	default:
		s.logger.Warn("Message on unexpected channel %s", msg.Channel)
	}
}
