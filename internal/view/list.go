package view

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/nerrad567/gray-logic-home/internal/events"
	"github.com/nerrad567/gray-logic-home/internal/realtime"
)

// Subscriber opens change feed subscriptions. *realtime.Broker satisfies it.
type Subscriber interface {
	Subscribe(table string, filter realtime.Filter, types []realtime.EventType, handler realtime.Handler) (*realtime.Subscription, error)
}

// Watch names a table and the rows of it a List cares about.
type Watch struct {
	Table  string
	Filter realtime.Filter
}

// Snapshot is the committed state of a List.
type Snapshot[T any] struct {
	Data    []T   `json:"data"`
	Loading bool  `json:"loading"`
	Err     error `json:"-"`
}

// Logger is the logging interface used by List.
type Logger interface {
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any) {}

// Options configures a List.
type Options[T any] struct {
	// Name identifies the list in logs.
	Name string

	// Watch lists the tables whose changes trigger a refetch.
	Watch []Watch

	// Fetch loads the full collection.
	Fetch func(ctx context.Context) ([]T, error)

	// Key identifies a row across fetches. Required with Transition.
	Key func(T) string

	// Transition compares the previous and current version of a row and
	// returns a toast when a watched field changed.
	Transition func(prev, cur T) (events.Toast, bool)

	// OnChange receives every committed snapshot.
	OnChange func(Snapshot[T])

	// OnToast receives transition toasts.
	OnToast func(events.Toast)

	Logger Logger
}

// List is a live collection.
//
// Thread Safety:
//   - Safe for concurrent use. Refetches triggered by different tables may
//     overlap; whichever commits last wins.
type List[T any] struct {
	opts Options[T]
	feed Subscriber

	mu      sync.Mutex
	mounted bool
	ctx     context.Context
	subs    []*realtime.Subscription
	snap    Snapshot[T]
}

// New creates an unmounted List.
func New[T any](feed Subscriber, opts Options[T]) *List[T] {
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	return &List[T]{opts: opts, feed: feed, snap: Snapshot[T]{Loading: true}}
}

// Mount opens the feed subscriptions and performs the initial fetch. The
// fetch error, if any, is reported in the snapshot rather than returned.
// Mounting a mounted list is a no-op.
func (l *List[T]) Mount(ctx context.Context) error {
	if l.opts.Fetch == nil {
		return fmt.Errorf("view %s: fetch function is required", l.opts.Name)
	}

	l.mu.Lock()
	if l.mounted {
		l.mu.Unlock()
		return nil
	}
	l.mounted = true
	l.ctx = context.WithoutCancel(ctx)
	l.snap = Snapshot[T]{Loading: true}
	l.mu.Unlock()

	subs := make([]*realtime.Subscription, 0, len(l.opts.Watch))
	for _, w := range l.opts.Watch {
		sub, err := l.feed.Subscribe(w.Table, w.Filter, realtime.AllEvents, func(realtime.Change) {
			l.Refresh()
		})
		if err != nil {
			for _, s := range subs {
				s.Close()
			}
			l.mu.Lock()
			l.mounted = false
			l.mu.Unlock()
			return fmt.Errorf("view %s: subscribing to %s: %w", l.opts.Name, w.Table, err)
		}
		subs = append(subs, sub)
	}

	l.mu.Lock()
	l.subs = subs
	l.mu.Unlock()

	l.fetch(ctx)
	return nil
}

// Refresh re-runs the full fetch. It does nothing when unmounted.
func (l *List[T]) Refresh() {
	l.mu.Lock()
	if !l.mounted {
		l.mu.Unlock()
		return
	}
	ctx := l.ctx
	l.mu.Unlock()

	l.fetch(ctx)
}

// Unmount closes the feed subscriptions. Fetches still in flight finish
// but their results are discarded.
func (l *List[T]) Unmount() {
	l.mu.Lock()
	subs := l.subs
	l.subs = nil
	l.mounted = false
	l.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
}

// Mounted reports whether the list is mounted.
func (l *List[T]) Mounted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.mounted
}

// Snapshot returns a copy of the committed state.
func (l *List[T]) Snapshot() Snapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.copyLocked()
}

func (l *List[T]) copyLocked() Snapshot[T] {
	s := l.snap
	s.Data = slices.Clone(l.snap.Data)
	return s
}

func (l *List[T]) fetch(ctx context.Context) {
	data, err := l.opts.Fetch(ctx)

	l.mu.Lock()
	if !l.mounted {
		l.mu.Unlock()
		return
	}

	var toasts []events.Toast
	if err != nil {
		l.opts.Logger.Warn("live view fetch failed", "view", l.opts.Name, "error", err)
		l.snap.Err = err
		l.snap.Loading = false
	} else {
		if !l.snap.Loading {
			toasts = l.transitions(l.snap.Data, data)
		}
		l.snap = Snapshot[T]{Data: data}
	}
	snap := l.copyLocked()
	l.mu.Unlock()

	if l.opts.OnChange != nil {
		l.opts.OnChange(snap)
	}
	if l.opts.OnToast != nil {
		for _, t := range toasts {
			l.opts.OnToast(t)
		}
	}
}

func (l *List[T]) transitions(prev, cur []T) []events.Toast {
	if l.opts.Transition == nil || l.opts.Key == nil || len(prev) == 0 {
		return nil
	}
	before := make(map[string]T, len(prev))
	for _, p := range prev {
		before[l.opts.Key(p)] = p
	}

	var toasts []events.Toast
	for _, c := range cur {
		p, ok := before[l.opts.Key(c)]
		if !ok {
			continue
		}
		if t, ok := l.opts.Transition(p, c); ok {
			toasts = append(toasts, t)
		}
	}
	return toasts
}
