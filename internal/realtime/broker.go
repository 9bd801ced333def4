package realtime

import (
	"context"
	"slices"
	"sync"
)

// DefaultQueueSize is the per-subscription queue length used when the
// broker is created with a non-positive size.
const DefaultQueueSize = 64

// Handler receives changes for a subscription, one at a time.
type Handler func(Change)

// Logger is the logging interface used by the broker.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Broker fans changes out to subscriptions inside the process.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Broker struct {
	mu        sync.RWMutex
	subs      map[uint64]*Subscription
	nextID    uint64
	queueSize int
	closed    bool
	logger    Logger
}

// NewBroker creates a broker whose subscriptions buffer up to queueSize
// undelivered changes.
func NewBroker(queueSize int) *Broker {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Broker{
		subs:      make(map[uint64]*Subscription),
		queueSize: queueSize,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for dropped notifications.
func (b *Broker) SetLogger(logger Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if logger == nil {
		logger = noopLogger{}
	}
	b.logger = logger
}

// Subscription is a live registration on the broker.
type Subscription struct {
	id      uint64
	table   string
	filter  Filter
	types   []EventType
	handler Handler
	broker  *Broker

	queue     chan Change
	done      chan struct{}
	closeOnce sync.Once
}

// Subscribe registers handler for changes on table (or AllTables) that
// pass filter and whose type is in types. An empty types slice means all
// types. The handler runs on the subscription's own goroutine.
func (b *Broker) Subscribe(table string, filter Filter, types []EventType, handler Handler) (*Subscription, error) {
	if table == "" || handler == nil {
		return nil, ErrInvalidSubscription
	}
	if len(types) == 0 {
		types = AllEvents
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}

	b.nextID++
	s := &Subscription{
		id:      b.nextID,
		table:   table,
		filter:  filter,
		types:   slices.Clone(types),
		handler: handler,
		broker:  b,
		queue:   make(chan Change, b.queueSize),
		done:    make(chan struct{}),
	}
	b.subs[s.id] = s
	go s.run()

	return s, nil
}

// Publish enqueues change for every matching subscription. It never
// blocks on a subscriber.
func (b *Broker) Publish(_ context.Context, change Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	for _, s := range b.subs {
		if !s.wants(change) {
			continue
		}
		select {
		case s.queue <- change:
		default:
			b.logger.Warn("realtime queue full, dropping change notification",
				"table", change.Table, "type", string(change.Type))
		}
	}
}

// SubscriptionCount returns the number of open subscriptions.
func (b *Broker) SubscriptionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close stops every subscription and rejects new ones.
func (b *Broker) Close() {
	b.mu.Lock()
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subs))
	for _, s := range b.subs {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}

func (s *Subscription) wants(c Change) bool {
	if s.table != AllTables && s.table != c.Table {
		return false
	}
	if !slices.Contains(s.types, c.Type) {
		return false
	}
	return s.filter.Matches(c)
}

func (s *Subscription) run() {
	for {
		select {
		case <-s.done:
			return
		case c := <-s.queue:
			select {
			case <-s.done:
				return
			default:
			}
			s.handler(c)
		}
	}
}

// Close removes the subscription. Changes still queued are discarded; a
// handler call already in progress finishes. Close is idempotent.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.broker.mu.Lock()
		delete(s.broker.subs, s.id)
		s.broker.mu.Unlock()
	})
}
