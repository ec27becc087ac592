package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event types
const (
	EventMessage = "message"
	EventTyping  = "typing"
	EventError   = "error"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
	sendQueueSize  = 256

	maxEventsPerMinute = 60
)

// Client is one websocket connection of an authenticated user
type Client struct {
	ID     uuid.UUID
	Socket *websocket.Conn
	Send   chan []byte
}

// Event is the envelope of everything written to a client
type Event struct {
	Type       string     `json:"type"`
	SenderID   *uuid.UUID `json:"sender_id,omitempty"`
	ReceiverID *uuid.UUID `json:"receiver_id,omitempty"`
	IsTyping   bool       `json:"is_typing,omitempty"`
	Message    any        `json:"message,omitempty"`
	Error      string     `json:"error,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// inbound is what clients may send. Messages themselves are created over
// HTTP; only typing indicators travel client to client.
type inbound struct {
	Type       string    `json:"type"`
	ReceiverID uuid.UUID `json:"receiver_id"`
	IsTyping   bool      `json:"is_typing"`
}

// HandleWebSocket upgrades an authenticated request. The caller's id must
// already be stored under "userID" by the auth middleware.
func (m *Manager) HandleWebSocket(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		log.Warn("No userID in context, rejecting connection from %s", c.Request.RemoteAddr)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication credentials were not provided."})
		return
	}

	userUUID, ok := userID.(uuid.UUID)
	if !ok {
		log.Error("Invalid UUID in context from %s", c.Request.RemoteAddr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid user identification"})
		return
	}

	conn, err := m.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		log.Warn("Failed to upgrade connection for %s: %v", userUUID, err)
		return
	}

	client := &Client{
		ID:     userUUID,
		Socket: conn,
		Send:   make(chan []byte, sendQueueSize),
	}

	select {
	case m.register <- client:
	case <-m.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(m)
}

func (m *Manager) release(c *Client) {
	select {
	case m.unregister <- c:
	case <-m.done:
	}
}

func newEvent(eventType string) Event {
	return Event{Type: eventType, Timestamp: time.Now().UTC()}
}

func (c *Client) sendError(m *Manager, msg string) {
	ev := newEvent(EventError)
	ev.Error = msg
	payload, _ := json.Marshal(ev)
	m.sendToClient(c, payload)
}

// readPump relays typing indicators until the connection fails
func (c *Client) readPump(m *Manager) {
	defer func() {
		m.release(c)
		c.Socket.Close()
	}()

	c.Socket.SetReadLimit(maxMessageSize)
	c.Socket.SetReadDeadline(time.Now().Add(pongWait))
	c.Socket.SetPongHandler(func(string) error {
		return c.Socket.SetReadDeadline(time.Now().Add(pongWait))
	})

	windowStart := time.Now()
	count := 0

	for {
		_, data, err := c.Socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Warn("Error reading from client %s: %v", c.ID, err)
			}
			return
		}

		if time.Since(windowStart) >= time.Minute {
			windowStart = time.Now()
			count = 0
		}
		count++
		if count > maxEventsPerMinute {
			log.Warn("Rate limit exceeded for client %s", c.ID)
			continue
		}

		var in inbound
		if err := json.Unmarshal(data, &in); err != nil {
			c.sendError(m, "Invalid event format")
			continue
		}

		switch in.Type {
		case EventTyping:
			if in.ReceiverID == uuid.Nil {
				c.sendError(m, "receiver_id is required")
				continue
			}
			sender, receiver := c.ID, in.ReceiverID
			ev := newEvent(EventTyping)
			ev.SenderID = &sender
			ev.ReceiverID = &receiver
			ev.IsTyping = in.IsTyping
			payload, _ := json.Marshal(ev)
			m.SendToUser(receiver, payload)
		case EventMessage:
			c.sendError(m, "Messages must be sent through the HTTP API")
		default:
			log.Debug("Unknown event type %q from client %s", in.Type, c.ID)
			c.sendError(m, "Unknown event type")
		}
	}
}

// writePump drains the send queue and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Socket.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Socket.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// One event per frame so clients can decode each frame as JSON.
			if err := c.Socket.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.Socket.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Socket.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
