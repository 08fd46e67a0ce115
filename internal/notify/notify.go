// Package notify fans storefront events out to interested listeners such
// as the terminal toast printer and the websocket hub.
package notify

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mrz1836/skillmint/internal/metrics"
)

// Kind classifies a notification.
type Kind string

// Notification kinds.
const (
	KindConnected         Kind = "connected"
	KindAccountChanged    Kind = "account_changed"
	KindDisconnected      Kind = "disconnected"
	KindRefreshed         Kind = "refreshed"
	KindReadFailed        Kind = "read_failed"
	KindPurchaseSubmitted Kind = "purchase_submitted"
	KindPurchaseSucceeded Kind = "purchase_succeeded"
	KindPurchaseFailed    Kind = "purchase_failed"
	KindError             Kind = "error"
)

// IsError reports whether the kind should be rendered as a failure.
func (k Kind) IsError() bool {
	switch k {
	case KindReadFailed, KindPurchaseFailed, KindError:
		return true
	default:
		return false
	}
}

// Notification is a single transient message.
type Notification struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	Item    uint64    `json:"item,omitempty"`
	Account string    `json:"account,omitempty"`
	TxHash  string    `json:"tx_hash,omitempty"`
	Time    time.Time `json:"time"`
}

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

// Bus delivers every published notification to every subscriber.
// A subscriber whose queue is full misses the notification rather than
// stalling the publisher.
type Bus struct {
	mu      sync.Mutex
	next    int
	subs    map[int]chan Notification
	closed  bool
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewBus creates a bus. m and logger may be nil.
func NewBus(m *metrics.Metrics, logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		subs:    make(map[int]chan Notification),
		metrics: m,
		logger:  logger,
	}
}

// Subscribe returns a channel of notifications and the func that ends the
// subscription and closes the channel. Unsubscribing twice is harmless.
func (b *Bus) Subscribe(buffer int) (<-chan Notification, func()) {
	if buffer < 1 {
		buffer = DefaultBuffer
	}
	ch := make(chan Notification, buffer)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// Publish stamps n and delivers it without blocking.
func (b *Bus) Publish(n Notification) {
	if n.Time.IsZero() {
		n.Time = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	b.metrics.RecordNotification(string(n.Kind))
	for id, ch := range b.subs {
		select {
		case ch <- n:
		default:
			b.logger.Warn("notification dropped", zap.Int("subscriber", id), zap.String("kind", string(n.Kind)))
		}
	}
}

// Subscribers returns the number of live subscriptions.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription. Later publishes are ignored.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
