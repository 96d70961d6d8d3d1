package notifications

import (
	"context"
	"encoding/json"
	"log/slog"
	"runtime/debug"
	"strconv"
	"strings"

	"pixelgram/internal/observability"

	"github.com/redis/go-redis/v9"
)

const userChannelPrefix = "notifications:user:"

// relayEnvelope wraps a frame published to Redis. Origin lets the publishing
// instance skip its own copy, since it has already delivered locally.
type relayEnvelope struct {
	Origin string          `json:"origin"`
	Data   json.RawMessage `json:"data"`
}

// Notifier relays encoded frames between instances over Redis pub/sub. A
// Notifier with a nil client does nothing.
type Notifier struct {
	rdb    *redis.Client
	origin string
}

// NewNotifier creates a Notifier publishing as instance origin.
func NewNotifier(rdb *redis.Client, origin string) *Notifier {
	return &Notifier{rdb: rdb, origin: origin}
}

// Enabled reports whether a Redis client is configured.
func (n *Notifier) Enabled() bool {
	return n != nil && n.rdb != nil
}

// PublishUser publishes an encoded frame on the user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, frame []byte) error {
	if !n.Enabled() {
		return nil
	}
	payload, err := json.Marshal(relayEnvelope{Origin: n.origin, Data: frame})
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// StartUserSubscriber subscribes to every user channel and calls onFrame for
// frames published by other instances. It returns once subscribed; delivery
// runs until ctx is cancelled.
func (n *Notifier) StartUserSubscriber(ctx context.Context, onFrame func(userID uint, frame []byte)) error {
	if !n.Enabled() {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				n.handle(msg, onFrame)
			}
		}
	}()
	return nil
}

func (n *Notifier) handle(msg *redis.Message, onFrame func(uint, []byte)) {
	defer func() {
		if r := recover(); r != nil {
			observability.GlobalLogger.Error("panic in user subscriber",
				slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
		}
	}()

	userID, ok := parseUserChannel(msg.Channel)
	if !ok {
		observability.GlobalLogger.Warn("invalid notification channel", slog.String("channel", msg.Channel))
		return
	}
	var env relayEnvelope
	if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
		observability.GlobalLogger.Warn("invalid relay payload", slog.String("channel", msg.Channel), slog.String("error", err.Error()))
		return
	}
	if env.Origin == n.origin {
		return
	}
	onFrame(userID, env.Data)
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}

func parseUserChannel(channel string) (uint, bool) {
	raw, ok := strings.CutPrefix(channel, userChannelPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
