package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"chapel/internal/models"
	"chapel/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per admin
	maxConnsPerUser = 8
	// Max total connections
	maxTotalConns = 1000
)

var (
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrUserConnLimit   = errors.New("user connection limit reached")
	ErrHubClosed       = errors.New("hub is shut down")
)

// Hub fans moderation events out to connected admin websocket clients.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]map[*Client]struct{}
	totalConns int
	closed     bool
	logger     *observability.FeedLogger
}

// NewHub creates an empty moderation hub.
func NewHub() *Hub {
	return &Hub{
		conns:  make(map[string]map[*Client]struct{}),
		logger: observability.NewFeedLogger("moderation hub"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "moderation hub" }

// Register a connection for a given userID. Returns the Client or error if limits exceeded.
func (h *Hub) Register(userID string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.totalConns >= maxTotalConns {
		return nil, ErrServerConnLimit
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserConnLimit
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	h.logger.LogConnect(context.Background(), userID, len(m))
	return client, nil
}

// UnregisterClient removes a client and closes its send channel.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	close(client.Send)
	h.totalConns--
	observability.WebSocketConnectionsTotal.Dec()
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
	h.logger.LogDisconnect(context.Background(), client.UserID, "unregistered")
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// BroadcastAll sends message to every connected websocket client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// Deliver revokes the feeds of a user whose admin role the event removes,
// then broadcasts the payload to the feeds still open.
func (h *Hub) Deliver(message string) {
	if userID, ok := demotedUser(message); ok {
		h.Revoke(userID, "admin role revoked")
	}
	h.BroadcastAll(message)
}

// Revoke closes every feed held by userID.
func (h *Hub) Revoke(userID, reason string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for c := range h.conns[userID] {
		c.Revoke(reason)
		n++
	}
	h.logger.LogRevoked(context.Background(), userID, n)
	return n
}

func demotedUser(message string) (string, bool) {
	var env struct {
		Type    string                 `json:"type"`
		Payload models.ModerationEvent `json:"payload"`
	}
	if err := json.Unmarshal([]byte(message), &env); err != nil || env.Type != EventModeration {
		return "", false
	}
	if env.Payload.Action != models.ActionProfileRoleChanged {
		return "", false
	}
	var change struct {
		To models.Role `json:"to"`
	}
	if err := json.Unmarshal([]byte(env.Payload.Detail), &change); err != nil {
		return "", false
	}
	return env.Payload.TargetID, change.To == models.RoleUser
}

// StartWiring forwards every payload on the moderation channel to connected clients.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartModerationSubscriber(ctx, h.Deliver)
}

// Shutdown gracefully closes all websocket connections
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for userID, userConns := range h.conns {
		for client := range userConns {
			if client.Conn != nil {
				_ = client.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down"))
				_ = client.Conn.Close()
			}
			close(client.Send)
			observability.WebSocketConnectionsTotal.Dec()
		}
		h.logger.LogDisconnect(context.Background(), userID, "shutdown")
	}
	h.conns = make(map[string]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
