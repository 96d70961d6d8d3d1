package notifications

import (
	"context"

	"pixelgram/internal/observability"
)

// Dispatcher delivers events to a user's channels on this instance and relays
// them to the other instances.
type Dispatcher struct {
	registry *Registry
	notifier *Notifier
	log      *observability.WSLogger
}

// NewDispatcher wires a registry to a notifier. notifier may be nil.
func NewDispatcher(registry *Registry, notifier *Notifier) *Dispatcher {
	return &Dispatcher{registry: registry, notifier: notifier, log: observability.NewWSLogger("dispatcher")}
}

// Push delivers ev to userID. The result reports local delivery only; relay
// failures are logged and never returned.
func (d *Dispatcher) Push(ctx context.Context, userID uint, ev Event) bool {
	data, err := ev.Encode()
	if err != nil {
		d.log.LogError(ctx, userID, err, ev.Type)
		return false
	}

	delivered := d.registry.deliver(userID, data)
	outcome := "offline"
	if delivered {
		outcome = "delivered"
	}
	observability.PushResults.WithLabelValues(ev.Type, outcome).Inc()

	if err := d.notifier.PublishUser(ctx, userID, data); err != nil {
		d.log.LogError(ctx, userID, err, "relay_"+ev.Type)
	}
	return delivered
}

// Start subscribes to frames relayed by other instances.
func (d *Dispatcher) Start(ctx context.Context) error {
	return d.notifier.StartUserSubscriber(ctx, func(userID uint, frame []byte) {
		d.registry.deliver(userID, frame)
	})
}

// Registry returns the local registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}
