package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// collector gathers delivered changes for assertions.
type collector struct {
	mu      sync.Mutex
	changes []Change
	signal  chan struct{}
}

func newCollector() *collector {
	return &collector{signal: make(chan struct{}, 100)}
}

func (c *collector) handle(ch Change) {
	c.mu.Lock()
	c.changes = append(c.changes, ch)
	c.mu.Unlock()
	c.signal <- struct{}{}
}

func (c *collector) wait(t *testing.T, n int) []Change {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.signal:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for change %d of %d", i+1, n)
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Change(nil), c.changes...)
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.changes)
}

type device struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	DeviceTypeID string `json:"device_type_id"`
	Online       bool   `json:"online"`
}

func TestSubscribe_Validation(t *testing.T) {
	b := NewBroker(4)
	defer b.Close()

	if _, err := b.Subscribe("", Filter{}, nil, func(Change) {}); !errors.Is(err, ErrInvalidSubscription) {
		t.Errorf("empty table error = %v", err)
	}
	if _, err := b.Subscribe("rooms", Filter{}, nil, nil); !errors.Is(err, ErrInvalidSubscription) {
		t.Errorf("nil handler error = %v", err)
	}

	b.Close()
	if _, err := b.Subscribe("rooms", Filter{}, nil, func(Change) {}); !errors.Is(err, ErrClosed) {
		t.Errorf("closed broker error = %v", err)
	}
}

func TestPublish_TableAndTypeRouting(t *testing.T) {
	b := NewBroker(16)
	defer b.Close()
	ctx := context.Background()

	rooms := newCollector()
	updatesOnly := newCollector()
	all := newCollector()

	if _, err := b.Subscribe("rooms", Filter{}, nil, rooms.handle); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Subscribe("child_devices", Filter{}, []EventType{Update}, updatesOnly.handle); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Subscribe(AllTables, Filter{}, nil, all.handle); err != nil {
		t.Fatal(err)
	}

	b.Publish(ctx, Inserted("rooms", map[string]any{"id": "r1"}))
	b.Publish(ctx, Inserted("child_devices", device{ID: "d1"}))
	b.Publish(ctx, Updated("child_devices", device{ID: "d1"}, device{ID: "d1", Online: true}))

	if got := rooms.wait(t, 1); got[0].Table != "rooms" || got[0].Type != Insert {
		t.Errorf("rooms subscription got %+v", got)
	}
	if got := updatesOnly.wait(t, 1); got[0].Type != Update {
		t.Errorf("update subscription got %+v", got)
	}
	all.wait(t, 3)

	time.Sleep(20 * time.Millisecond)
	if rooms.count() != 1 || updatesOnly.count() != 1 {
		t.Errorf("unexpected extra deliveries: rooms=%d updates=%d", rooms.count(), updatesOnly.count())
	}
}

func TestFilter_Matches(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		change Change
		want   bool
	}{
		{"zero filter", Filter{}, Inserted("t", device{ID: "d1"}), true},
		{"match new", Eq("user_id", "u1"), Inserted("t", device{ID: "d1", UserID: "u1"}), true},
		{"mismatch", Eq("user_id", "u2"), Inserted("t", device{ID: "d1", UserID: "u1"}), false},
		{"delete uses old", Eq("user_id", "u1"), Deleted("t", device{ID: "d1", UserID: "u1"}), true},
		{"bool column", Eq("online", "true"), Updated("t", nil, device{Online: true}), true},
		{"missing column", Eq("room_id", "r1"), Inserted("t", device{ID: "d1"}), false},
		{"and both match", Eq("user_id", "u1").And("device_type_id", "plug"), Inserted("t", device{UserID: "u1", DeviceTypeID: "plug"}), true},
		{"and other user", Eq("user_id", "u1").And("device_type_id", "plug"), Inserted("t", device{UserID: "u2", DeviceTypeID: "plug"}), false},
		{"and other type", Eq("user_id", "u1").And("device_type_id", "plug"), Inserted("t", device{UserID: "u1", DeviceTypeID: "relay"}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(tt.change); got != tt.want {
				t.Errorf("Matches() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubscription_CloseStopsDelivery(t *testing.T) {
	b := NewBroker(4)
	defer b.Close()
	c := newCollector()

	sub, err := b.Subscribe("rooms", Filter{}, nil, c.handle)
	if err != nil {
		t.Fatal(err)
	}
	b.Publish(context.Background(), Inserted("rooms", map[string]any{"id": "r1"}))
	c.wait(t, 1)

	sub.Close()
	sub.Close()

	if b.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after Close", b.SubscriptionCount())
	}

	b.Publish(context.Background(), Inserted("rooms", map[string]any{"id": "r2"}))
	time.Sleep(20 * time.Millisecond)
	if c.count() != 1 {
		t.Errorf("delivered %d changes, want 1", c.count())
	}
}

type warnCounter struct {
	mu sync.Mutex
	n  int
}

func (w *warnCounter) Warn(string, ...any) {
	w.mu.Lock()
	w.n++
	w.mu.Unlock()
}

func TestPublish_FullQueueDropsWithoutBlocking(t *testing.T) {
	b := NewBroker(1)
	defer b.Close()
	warns := &warnCounter{}
	b.SetLogger(warns)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	if _, err := b.Subscribe("rooms", Filter{}, nil, func(Change) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	}); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	b.Publish(ctx, Inserted("rooms", nil))
	<-started // handler is now blocked on the first change

	done := make(chan struct{})
	go func() {
		b.Publish(ctx, Inserted("rooms", nil)) // fills the queue
		b.Publish(ctx, Inserted("rooms", nil)) // dropped
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on a slow subscriber")
	}
	close(release)

	warns.mu.Lock()
	defer warns.mu.Unlock()
	if warns.n != 1 {
		t.Errorf("dropped-change warnings = %d, want 1", warns.n)
	}
}

func TestRowOf(t *testing.T) {
	row := RowOf(device{ID: "d1", UserID: "u1", Online: true})
	if row["id"] != "d1" || row["online"] != true {
		t.Errorf("RowOf() = %v", row)
	}
	if RowOf(nil) != nil {
		t.Error("RowOf(nil) should be nil")
	}
	if RowOf(make(chan int)) != nil {
		t.Error("RowOf(unencodable) should be nil")
	}
}

type fakeMQTT struct {
	mu     sync.Mutex
	topics []string
	fail   bool
	sent   chan struct{}
}

func (f *fakeMQTT) PublishJSON(topic string, _ any, _ bool) error {
	f.mu.Lock()
	f.topics = append(f.topics, topic)
	f.mu.Unlock()
	f.sent <- struct{}{}
	if f.fail {
		return errors.New("not connected")
	}
	return nil
}

func TestStartRelay(t *testing.T) {
	b := NewBroker(8)
	defer b.Close()
	pub := &fakeMQTT{sent: make(chan struct{}, 8)}

	sub, err := StartRelay(b, pub, nil)
	if err != nil {
		t.Fatalf("StartRelay() error = %v", err)
	}
	defer sub.Close()

	b.Publish(context.Background(), Inserted("safety_systems", map[string]any{"id": "s1"}))

	select {
	case <-pub.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not publish")
	}

	pub.mu.Lock()
	defer pub.mu.Unlock()
	if len(pub.topics) != 1 || pub.topics[0] != "graylogic/core/changes/safety_systems" {
		t.Errorf("topics = %v", pub.topics)
	}
}
