// Package notifications holds the live side of the core: the connection
// registry, per-connection pumps, cross-instance fan-out and presence.
package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"pixelgram/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	defaultMaxConnsPerUser = 12
	defaultMaxTotalConns   = 10000
)

var (
	ErrUserConnLimit  = errors.New("user connection limit reached")
	ErrTotalConnLimit = errors.New("server connection limit reached")
	ErrRegistryClosed = errors.New("registry is shut down")
)

// RegistryConfig bounds the number of live channels.
type RegistryConfig struct {
	MaxConnsPerUser int
	MaxTotalConns   int
	// FramesPerSecond limits inbound frames per connection; 0 disables the limit.
	FramesPerSecond int
}

// Registry maps user IDs to their live channels on this instance. It never
// touches persisted state and is not a queue: a push to a user without a
// channel is dropped.
type Registry struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	byID       map[string]*Client
	totalConns int
	closed     bool

	cfg      RegistryConfig
	presence *Presence
	log      *observability.WSLogger
}

// NewRegistry creates a registry. presence may be nil.
func NewRegistry(cfg RegistryConfig, presence *Presence) *Registry {
	if cfg.MaxConnsPerUser <= 0 {
		cfg.MaxConnsPerUser = defaultMaxConnsPerUser
	}
	if cfg.MaxTotalConns <= 0 {
		cfg.MaxTotalConns = defaultMaxTotalConns
	}
	return &Registry{
		conns:    make(map[uint]map[*Client]struct{}),
		byID:     make(map[string]*Client),
		cfg:      cfg,
		presence: presence,
		log:      observability.NewWSLogger("registry"),
	}
}

// Register adds a live channel for userID. conn may be nil in tests.
func (r *Registry) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRegistryClosed
	}
	if r.totalConns >= r.cfg.MaxTotalConns {
		r.mu.Unlock()
		observability.WebSocketRejected.WithLabelValues("total").Inc()
		return nil, ErrTotalConnLimit
	}
	m, ok := r.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		r.conns[userID] = m
	}
	if len(m) >= r.cfg.MaxConnsPerUser {
		r.mu.Unlock()
		observability.WebSocketRejected.WithLabelValues("user").Inc()
		return nil, ErrUserConnLimit
	}

	client := newClient(r, conn, userID, r.cfg.FramesPerSecond)
	if r.presence != nil {
		presence := r.presence
		client.OnActivity = func(uid uint) { presence.Touch(context.Background(), uid) }
	}
	m[client] = struct{}{}
	r.byID[client.ID] = client
	r.totalConns++
	r.mu.Unlock()

	observability.WebSocketConnections.Inc()
	if r.presence != nil {
		r.presence.Connected(context.Background(), userID)
	}
	r.log.LogConnect(context.Background(), userID, client.ID)
	return client, nil
}

// Unregister removes the channel with connection ID connID. It reports whether
// a channel was removed.
func (r *Registry) Unregister(connID string) bool {
	r.mu.RLock()
	client := r.byID[connID]
	r.mu.RUnlock()
	if client == nil {
		return false
	}
	return r.remove(client, "unregister")
}

// UnregisterClient removes c. Safe to call more than once.
func (r *Registry) UnregisterClient(c *Client) {
	r.remove(c, "disconnect")
}

func (r *Registry) remove(c *Client, reason string) bool {
	r.mu.Lock()
	removed := false
	if m, ok := r.conns[c.UserID]; ok {
		if _, exists := m[c]; exists {
			delete(m, c)
			delete(r.byID, c.ID)
			r.totalConns--
			removed = true
		}
		if len(m) == 0 {
			delete(r.conns, c.UserID)
		}
	}
	r.mu.Unlock()

	if !removed {
		return false
	}
	c.close()
	observability.WebSocketConnections.Dec()
	if r.presence != nil {
		r.presence.Disconnected(c.UserID)
	}
	r.log.LogDisconnect(context.Background(), c.UserID, c.ID, reason)
	return true
}

// PushToUser encodes ev and offers it to every channel of userID without
// blocking. It returns true iff at least one channel accepted it.
func (r *Registry) PushToUser(userID uint, ev Event) bool {
	data, err := ev.Encode()
	if err != nil {
		r.log.LogError(context.Background(), userID, err, ev.Type)
		return false
	}
	return r.deliver(userID, data)
}

// deliver offers an already encoded frame to userID's channels.
func (r *Registry) deliver(userID uint, data []byte) bool {
	clients := r.clientsOf(userID)
	delivered := false
	for _, c := range clients {
		if c.TrySend(data) {
			delivered = true
		}
	}
	return delivered
}

func (r *Registry) clientsOf(userID uint) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.conns[userID]
	out := make([]*Client, 0, len(m))
	for c := range m {
		out = append(out, c)
	}
	return out
}

// ConnectionCount returns the number of live channels of userID here.
func (r *Registry) ConnectionCount(userID uint) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}

// TotalConnections returns the number of live channels on this instance.
func (r *Registry) TotalConnections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.totalConns
}

// IsOnline reports whether userID has a live channel, on this instance or,
// with Redis presence, on any instance.
func (r *Registry) IsOnline(ctx context.Context, userID uint) bool {
	if r.presence != nil {
		return r.presence.IsOnline(ctx, userID)
	}
	return r.ConnectionCount(userID) > 0
}

// Shutdown closes every channel and refuses new registrations. Each
// WritePump sends a going-away close frame as its Send channel closes.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	var clients []*Client
	for _, m := range r.conns {
		for c := range m {
			clients = append(clients, c)
		}
	}
	r.conns = make(map[uint]map[*Client]struct{})
	r.byID = make(map[string]*Client)
	r.totalConns = 0
	r.mu.Unlock()

	for _, c := range clients {
		c.close()
		observability.WebSocketConnections.Dec()
	}
	if r.presence != nil {
		r.presence.Stop()
	}
	r.log.LogLifecycle(ctx, "shutdown", slog.Int("closed_connections", len(clients)))
	return nil
}
