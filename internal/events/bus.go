package events

import (
	"reflect"
	"sync"
)

// Handler receives events of the kind it was registered for.
type Handler func(Event)

// Logger is the logging interface used for recovered handler panics.
type Logger interface {
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Error(string, ...any) {}

type registration struct {
	id      uint64
	handler Handler
}

// Bus is a synchronous, typed event bus. The zero value is not usable;
// create one with NewBus.
//
// Thread Safety:
//   - Subscribe, dispose and Publish may be called from any goroutine,
//     including from inside a handler.
type Bus struct {
	mu       sync.Mutex
	handlers map[Kind][]registration
	nextID   uint64
	logger   Logger
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Kind][]registration),
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for recovered handler panics.
func (b *Bus) SetLogger(logger Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if logger == nil {
		logger = noopLogger{}
	}
	b.logger = logger
}

// Subscribe registers handler for kind and returns a function that removes
// exactly this registration. Calling the returned function more than once
// is a no-op.
func (b *Bus) Subscribe(kind Kind, handler Handler) (dispose func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.handlers[kind] = append(b.handlers[kind], registration{id: id, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(kind, id) })
	}
}

func (b *Bus) remove(kind Kind, id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[kind]
	for i, r := range regs {
		if r.id == id {
			// Copy so a snapshot held by an in-progress Publish is untouched.
			next := make([]registration, 0, len(regs)-1)
			next = append(next, regs[:i]...)
			next = append(next, regs[i+1:]...)
			if len(next) == 0 {
				delete(b.handlers, kind)
			} else {
				b.handlers[kind] = next
			}
			return
		}
	}
}

// Publish delivers ev to the handlers registered for ev.Kind() when Publish
// begins, in registration order. Handlers added during delivery do not see
// this event; handlers removed during delivery still do. A panicking
// handler is logged and the remaining handlers still run.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	snapshot := b.handlers[ev.Kind()]
	logger := b.logger
	b.mu.Unlock()

	for _, r := range snapshot {
		b.deliver(r.handler, ev, logger)
	}
}

func (b *Bus) deliver(h Handler, ev Event, logger Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			logger.Error("event handler panic recovered", "kind", string(ev.Kind()), "panic", rec)
		}
	}()
	h(ev)
}

// HandlerCount returns the number of handlers registered for kind.
func (b *Bus) HandlerCount(kind Kind) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[kind])
}

// On subscribes a handler typed on the concrete payload. The kind is taken
// from T's zero value. T may also be a pointer to a payload struct; the
// handler then receives a pointer to a copy of each published value.
//
//	events.On(bus, func(ev events.RoomRefresh) { hub.Broadcast("room.refresh", ev) })
func On[T Event](b *Bus, fn func(T)) (dispose func()) {
	t := reflect.TypeFor[T]()
	return b.Subscribe(kindOf[T](t), func(ev Event) {
		if typed, ok := ev.(T); ok {
			fn(typed)
			return
		}
		if t.Kind() == reflect.Pointer && reflect.TypeOf(ev) == t.Elem() {
			p := reflect.New(t.Elem())
			p.Elem().Set(reflect.ValueOf(ev))
			fn(p.Interface().(T))
		}
	})
}

// kindOf avoids calling Kind on a nil pointer when T is a pointer type.
func kindOf[T Event](t reflect.Type) Kind {
	var zero T
	if t.Kind() == reflect.Pointer {
		zero = reflect.New(t.Elem()).Interface().(T)
	}
	return zero.Kind()
}
