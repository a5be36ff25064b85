package hub

import (
	"testing"

	"starcast/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func newTestClient(userID string) *Client {
	return &Client{
		UserID:   userID,
		Username: userID,
		send:     make(chan []byte, 8),
		done:     make(chan struct{}),
		rooms:    make(map[string]bool),
	}
}

func drain(c *Client) [][]byte {
	var out [][]byte
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestHub_RegisterAndCount(t *testing.T) {
	h := NewHub(logger.New())
	a := newTestClient("user-a")
	b := newTestClient("user-b")

	h.Register(a)
	h.Register(b)

	assert.Equal(t, 2, h.ClientCount())
}

func TestHub_JoinLeaveRoom(t *testing.T) {
	h := NewHub(logger.New())
	a := newTestClient("user-a")
	h.Register(a)

	h.Join("room-1", a)
	assert.True(t, h.InRoom("room-1", a))
	assert.Equal(t, 1, h.RoomSize("room-1"))

	h.Leave("room-1", a)
	assert.False(t, h.InRoom("room-1", a))
	assert.Equal(t, 0, h.RoomSize("room-1"))
}

func TestHub_BroadcastRoom_OnlyRoomMembers(t *testing.T) {
	h := NewHub(logger.New())
	inRoom := newTestClient("user-a")
	outside := newTestClient("user-b")
	h.Register(inRoom)
	h.Register(outside)
	h.Join("room-1", inRoom)

	h.BroadcastRoom("room-1", []byte("hello"), "")

	assert.Len(t, drain(inRoom), 1)
	assert.Empty(t, drain(outside))
}

func TestHub_BroadcastRoom_ExcludesUser(t *testing.T) {
	h := NewHub(logger.New())
	joiner := newTestClient("user-a")
	other := newTestClient("user-b")
	h.Register(joiner)
	h.Register(other)
	h.Join("room-1", joiner)
	h.Join("room-1", other)

	h.BroadcastRoom("room-1", []byte("user-joined"), "user-a")

	assert.Empty(t, drain(joiner))
	assert.Len(t, drain(other), 1)
}

func TestHub_BroadcastRoom_ExcludesEveryConnectionOfUser(t *testing.T) {
	h := NewHub(logger.New())
	first := newTestClient("user-a")
	second := newTestClient("user-a")
	h.Register(first)
	h.Register(second)
	h.Join("room-1", first)
	h.Join("room-1", second)

	h.BroadcastRoom("room-1", []byte("payload"), "user-a")

	assert.Empty(t, drain(first))
	assert.Empty(t, drain(second))
}

func TestHub_BroadcastAll(t *testing.T) {
	h := NewHub(logger.New())
	a := newTestClient("user-a")
	b := newTestClient("user-b")
	h.Register(a)
	h.Register(b)
	h.Join("room-1", a)

	h.BroadcastAll([]byte("session-started"))

	assert.Len(t, drain(a), 1)
	assert.Len(t, drain(b), 1)
}

func TestHub_SendToUser(t *testing.T) {
	h := NewHub(logger.New())
	target1 := newTestClient("user-a")
	target2 := newTestClient("user-a")
	other := newTestClient("user-b")
	h.Register(target1)
	h.Register(target2)
	h.Register(other)

	h.SendToUser("user-a", []byte("new-notification"))

	assert.Len(t, drain(target1), 1)
	assert.Len(t, drain(target2), 1)
	assert.Empty(t, drain(other))
}

func TestHub_Unregister_ReturnsRoomsAndCleansUp(t *testing.T) {
	h := NewHub(logger.New())
	a := newTestClient("user-a")
	h.Register(a)
	h.Join("room-1", a)
	h.Join("room-2", a)

	left := h.Unregister(a)

	assert.ElementsMatch(t, []string{"room-1", "room-2"}, left)
	assert.Equal(t, 0, h.ClientCount())
	assert.Equal(t, 0, h.RoomSize("room-1"))
	assert.Equal(t, 0, h.RoomSize("room-2"))

	// A later broadcast must not reach the removed client.
	h.BroadcastRoom("room-1", []byte("gone"), "")
	assert.Empty(t, drain(a))
}

func TestClient_SendAfterClose_Dropped(t *testing.T) {
	c := newTestClient("user-a")
	c.Close()

	assert.NotPanics(t, func() { c.Send([]byte("late broadcast")) })
	assert.Empty(t, drain(c))
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	c := newTestClient("user-a")

	assert.NotPanics(t, func() {
		c.Close()
		c.Close()
	})
}

func TestHub_BroadcastRoom_SurvivesMidBroadcastDisconnect(t *testing.T) {
	h := NewHub(logger.New())
	leaving := newTestClient("user-a")
	staying := newTestClient("user-b")
	h.Register(leaving)
	h.Register(staying)
	h.Join("room-1", leaving)
	h.Join("room-1", staying)

	// A disconnect between the recipient snapshot and the write must not
	// take the broadcast down.
	leaving.Close()
	assert.NotPanics(t, func() { h.BroadcastRoom("room-1", []byte("payload"), "") })

	assert.Empty(t, drain(leaving))
	assert.Len(t, drain(staying), 1)
}

func TestHub_Unregister_KeepsOtherConnectionsOfUser(t *testing.T) {
	h := NewHub(logger.New())
	first := newTestClient("user-a")
	second := newTestClient("user-a")
	h.Register(first)
	h.Register(second)

	h.Unregister(first)

	h.SendToUser("user-a", []byte("still-here"))
	assert.Empty(t, drain(first))
	assert.Len(t, drain(second), 1)
}
