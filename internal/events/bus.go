// Package events publishes typed notifications toward the boundary.
// Delivery is at-most-once per occurrence: a subscriber that falls behind
// its buffer loses events, and ordering across kinds is not guaranteed.
// Consumers must be idempotent.
package events

import (
	"log/slog"
	"sync"
	"time"

	"scout/internal/logging"
)

// Kind identifies an event variant.
type Kind string

const (
	// KindDirectoryChanged fires after a config change request mutates the registry.
	KindDirectoryChanged Kind = "directory-changed"
	// KindMonitoringRestarted fires after a full watch-set reconciliation.
	KindMonitoringRestarted Kind = "monitoring-restarted"
	// KindDegradedRoot fires when OS-level registration fails for one root.
	KindDegradedRoot Kind = "degraded-root"
)

// Event is one boundary notification.
type Event struct {
	Kind   Kind      `json:"kind"`
	Path   string    `json:"path,omitempty"`
	Reason string    `json:"reason,omitempty"`
	At     time.Time `json:"at"`
}

// Bus fans events out to subscribers over bounded channels.
type Bus struct {
	logger *slog.Logger
	buffer int

	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewBus builds a bus whose subscriber channels hold up to buffer events.
func NewBus(buffer int, logger *slog.Logger) *Bus {
	if buffer <= 0 {
		buffer = 64
	}
	return &Bus{
		logger: logging.NewComponentLogger(logger, "event-bus"),
		buffer: buffer,
		subs:   make(map[chan Event]struct{}),
	}
}

// Subscribe registers a new consumer. The returned cancel func must be called
// to release the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers evt to every subscriber without blocking. Subscribers with
// full buffers drop the event.
func (b *Bus) Publish(evt Event) {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.logger.Debug("subscriber lagging; event dropped",
				logging.String(logging.FieldEventType, string(evt.Kind)),
			)
		}
	}
}
