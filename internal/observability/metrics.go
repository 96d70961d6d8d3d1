package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixelgram_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// WebSocketConnections is the number of live channels held by this instance.
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pixelgram_websocket_connections",
		Help: "Number of live WebSocket connections in the registry",
	})

	// WebSocketRejected counts registrations refused by connection limits.
	WebSocketRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixelgram_websocket_rejected_total",
		Help: "WebSocket registrations rejected by limit",
	}, []string{"reason"})

	// WebSocketBackpressureDrops counts events dropped because a channel buffer was full or closed.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixelgram_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"reason"})

	// PushResults counts live pushes by event type and outcome (delivered, offline).
	PushResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixelgram_push_results_total",
		Help: "Live push attempts by event type and outcome",
	}, []string{"event", "outcome"})

	// NotificationsCreated counts persisted notifications by kind.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pixelgram_notifications_created_total",
		Help: "Persisted notifications by kind",
	}, []string{"kind"})

	// ChatsCreated counts chat threads created (not found) by GetOrCreateChat.
	ChatsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pixelgram_chats_created_total",
		Help: "Chat threads created on first contact",
	})

	// MessagesSent counts persisted chat messages.
	MessagesSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pixelgram_messages_sent_total",
		Help: "Chat messages persisted",
	})
)
