package notifications

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"pixelgram/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 16384

	sendBuffer = 256
)

var dropNotice = []byte(`{"type":"messages_dropped","payload":{"reason":"buffer_full"}}`)

// Client is one live channel: a websocket connection owned by a user.
type Client struct {
	// ID is unique per connection and is what Unregister takes.
	ID     string
	UserID uint

	Conn *websocket.Conn

	// Buffered channel of outbound frames. Closed exactly once by close().
	Send chan []byte

	// IncomingHandler receives every inbound frame that passes the rate limit.
	IncomingHandler func(*Client, []byte)

	// OnActivity is called on every inbound frame and pong.
	OnActivity func(userID uint)

	registry *Registry
	limiter  *rate.Limiter
	closed   atomic.Bool
	once     sync.Once
	log      *observability.WSLogger
}

func newClient(r *Registry, conn *websocket.Conn, userID uint, framesPerSecond int) *Client {
	c := &Client{
		ID:       uuid.NewString(),
		UserID:   userID,
		Conn:     conn,
		Send:     make(chan []byte, sendBuffer),
		registry: r,
		log:      r.log,
	}
	if framesPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(framesPerSecond), framesPerSecond*2)
	}
	return c
}

// ReadPump reads inbound frames until the connection fails, then unregisters.
func (c *Client) ReadPump() {
	defer func() {
		c.registry.UnregisterClient(c)
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.touch()
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.LogError(context.Background(), c.UserID, err, "read")
			}
			return
		}
		c.touch()

		if !c.Allow() {
			c.SendEvent(ErrorEvent("RATE_LIMITED", "too many frames"))
			continue
		}
		if c.IncomingHandler != nil {
			c.IncomingHandler(c, message)
		}
	}
}

// WritePump writes queued frames and pings until Send is closed or a write fails.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "connection closed"))
				return
			}

			w, err := c.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Allow reports whether one more inbound frame fits the per-connection rate.
func (c *Client) Allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}

// TrySend queues message without blocking. It returns false when the channel
// is closed or its buffer is full; a full buffer also queues a drop notice so
// the client can re-fetch.
func (c *Client) TrySend(message []byte) (accepted bool) {
	if c.closed.Load() {
		observability.WebSocketBackpressureDrops.WithLabelValues("closed").Inc()
		return false
	}
	defer func() {
		if r := recover(); r != nil {
			observability.WebSocketBackpressureDrops.WithLabelValues("closed").Inc()
			accepted = false
		}
	}()

	select {
	case c.Send <- message:
		return true
	default:
		observability.WebSocketBackpressureDrops.WithLabelValues("full").Inc()
		c.log.LogError(context.Background(), c.UserID, errors.New("send buffer full"), "drop")
		select {
		case c.Send <- dropNotice:
		default:
		}
		return false
	}
}

// SendEvent encodes ev and queues it on this connection only.
func (c *Client) SendEvent(ev Event) bool {
	data, err := ev.Encode()
	if err != nil {
		return false
	}
	return c.TrySend(data)
}

func (c *Client) touch() {
	if c.OnActivity != nil {
		c.OnActivity(c.UserID)
	}
}

// close marks the client closed and closes Send, which makes WritePump send a
// close frame and exit.
func (c *Client) close() {
	c.once.Do(func() {
		c.closed.Store(true)
		close(c.Send)
	})
}
