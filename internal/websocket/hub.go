package websocket

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/ammar1510/inbox/internal/logger"
)

var log = logger.New("websocket")

// Manager tracks the open connections of every user. A user may hold
// several connections (one per device or tab); each receives every event.
type Manager struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mutex      sync.Mutex
	upgrader   websocket.Upgrader
}

// NewManager creates a manager. When allowedOrigins is empty any origin may
// open a connection.
func NewManager(allowedOrigins ...string) *Manager {
	origins := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = struct{}{}
	}

	return &Manager{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(origins) == 0 {
					return true
				}
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := origins[origin]
				if !ok {
					log.Warn("Rejected websocket origin %q", origin)
				}
				return ok
			},
		},
	}
}

// Run processes registrations until ctx is cancelled, then closes every
// connection.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)

	for {
		select {
		case client := <-m.register:
			m.mutex.Lock()
			set, ok := m.clients[client.ID]
			if !ok {
				set = make(map[*Client]struct{})
				m.clients[client.ID] = set
			}
			set[client] = struct{}{}
			log.Info("Client connected: %s (%d open)", client.ID, len(set))
			m.mutex.Unlock()
		case client := <-m.unregister:
			m.mutex.Lock()
			if m.removeLocked(client) {
				log.Info("Client disconnected: %s", client.ID)
			}
			m.mutex.Unlock()
		case <-ctx.Done():
			m.mutex.Lock()
			for _, set := range m.clients {
				for client := range set {
					m.removeLocked(client)
				}
			}
			m.mutex.Unlock()
			log.Info("Websocket manager stopped")
			return
		}
	}
}

// removeLocked drops client and closes its send queue. It reports whether
// the client was still registered.
func (m *Manager) removeLocked(client *Client) bool {
	set, ok := m.clients[client.ID]
	if !ok {
		return false
	}
	if _, ok := set[client]; !ok {
		return false
	}
	delete(set, client)
	if len(set) == 0 {
		delete(m.clients, client.ID)
	}
	close(client.Send)
	return true
}

// SendToUser queues message on every connection of userID and reports
// whether at least one connection took it. Connections whose queue is full
// are dropped.
func (m *Manager) SendToUser(userID uuid.UUID, message []byte) bool {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	set, ok := m.clients[userID]
	if !ok {
		log.Debug("User %s not connected", userID)
		return false
	}

	delivered := false
	for client := range set {
		select {
		case client.Send <- message:
			delivered = true
		default:
			m.removeLocked(client)
			log.Warn("Send queue full for user %s, dropping connection", userID)
		}
	}
	return delivered
}

// sendToClient queues message on a single connection if it is still open
func (m *Manager) sendToClient(client *Client, message []byte) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if _, ok := m.clients[client.ID][client]; !ok {
		return
	}
	select {
	case client.Send <- message:
	default:
		m.removeLocked(client)
	}
}

// Connections returns the number of open connections for userID
func (m *Manager) Connections(userID uuid.UUID) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.clients[userID])
}
