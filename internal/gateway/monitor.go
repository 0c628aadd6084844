package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/simphone/ussdd/internal/logging"
)

// Frame types for the monitor WebSocket feed.
const (
	FrameTypeEvent = "event"
	FrameTypeHello = "hello"
)

// Frame is the envelope for all monitor messages. The feed is broadcast
// only; clients never send anything but control frames.
type Frame struct {
	Type    string         `json:"type"`
	Event   string         `json:"event,omitempty"`
	Seq     int64          `json:"seq,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Client is one connected monitor.
type Client struct {
	ConnID      string
	ConnectedAt time.Time

	mu     sync.Mutex
	socket *websocket.Conn
	closed bool
	log    *logging.Logger
}

// NewClient wraps a freshly upgraded monitor connection.
func NewClient(conn *websocket.Conn, log *logging.Logger) *Client {
	return &Client{
		ConnID:      uuid.New().String(),
		ConnectedAt: time.Now(),
		socket:      conn,
		log:         log,
	}
}

// Send sends a frame to the client. Thread-safe.
func (c *Client) Send(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return websocket.ErrCloseSent
	}
	return c.socket.WriteJSON(frame)
}

// Close closes the WebSocket connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.socket.Close()
}

// ClientRegistry manages connected monitor clients.
type ClientRegistry struct {
	mu      sync.RWMutex
	clients map[string]*Client // connID → Client
	log     *logging.Logger
}

// NewClientRegistry creates an empty client registry.
func NewClientRegistry(log *logging.Logger) *ClientRegistry {
	return &ClientRegistry{
		clients: make(map[string]*Client),
		log:     log,
	}
}

// Add registers a connected client.
func (r *ClientRegistry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ConnID] = c
	r.log.Info().Str("connId", c.ConnID).Msg("monitor client connected")
}

// Remove unregisters a client by connection ID.
func (r *ClientRegistry) Remove(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, connID)
	r.log.Info().Str("connId", connID).Msg("monitor client disconnected")
}

// Count returns the number of connected clients.
func (r *ClientRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Broadcast sends a frame to every connected client. Failed sends are
// logged; the failing client will be reaped by its own read loop.
func (r *ClientRegistry) Broadcast(frame Frame) {
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.RUnlock()

	for _, c := range clients {
		if err := c.Send(frame); err != nil {
			r.log.Debug().Err(err).Str("connId", c.ConnID).Msg("broadcast send failed")
		}
	}
}

// CloseAll closes every connected client.
func (r *ClientRegistry) CloseAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		c.Close()
	}
	r.clients = make(map[string]*Client)
}

// handleWebSocket upgrades HTTP to WebSocket and serves the monitor feed.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(4096)

	client := NewClient(conn, s.log)
	if err := client.Send(Frame{
		Type: FrameTypeHello,
		Payload: map[string]any{
			"connId":  client.ConnID,
			"version": s.version,
		},
	}); err != nil {
		s.log.Warn().Err(err).Msg("monitor hello failed")
		conn.Close()
		return
	}

	s.clients.Add(client)
	defer func() {
		s.clients.Remove(client.ConnID)
		client.Close()
	}()

	// The feed is one-way; drain until the client goes away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Str("connId", client.ConnID).Msg("monitor read ended")
			}
			return
		}
	}
}
