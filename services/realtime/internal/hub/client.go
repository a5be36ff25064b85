package hub

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 * 1024
	sendBufferSize = 256
)

// MessageHandler receives inbound frames and disconnect notifications.
type MessageHandler interface {
	OnMessage(c *Client, raw []byte)
	OnDisconnect(c *Client)
}

type Client struct {
	UserID   string
	Username string
	Role     string

	conn    *websocket.Conn
	hub     *Hub
	handler MessageHandler
	send    chan []byte

	// done signals shutdown to Send and writePump. The send channel is
	// never closed: broadcasts snapshot recipients outside the hub lock
	// and may race a disconnect, so closing it would panic a concurrent
	// Send.
	done chan struct{}

	// rooms is owned by the hub and mutated only under hub.mu.
	rooms map[string]bool

	closeOnce sync.Once
}

func NewClient(h *Hub, conn *websocket.Conn, handler MessageHandler, userID, username, role string) *Client {
	return &Client{
		UserID:   userID,
		Username: username,
		Role:     role,
		conn:     conn,
		hub:      h,
		handler:  handler,
		send:     make(chan []byte, sendBufferSize),
		done:     make(chan struct{}),
		rooms:    make(map[string]bool),
	}
}

// Send queues a payload without blocking. Sends after Close are dropped.
// A full buffer means the reader is not keeping up, so the client gets
// dropped.
func (c *Client) Send(payload []byte) {
	select {
	case <-c.done:
		return
	default:
	}
	select {
	case c.send <- payload:
	case <-c.done:
	default:
		go c.Close()
	}
}

// Start launches the read and write pumps.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer c.Close()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		c.handler.OnMessage(c, raw)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.handler != nil {
			c.handler.OnDisconnect(c)
		}
		if c.conn != nil {
			c.conn.Close()
		}
	})
}
