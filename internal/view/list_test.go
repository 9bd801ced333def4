package view

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-home/internal/childdevice"
	"github.com/nerrad567/gray-logic-home/internal/events"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/database/dbtest"
	"github.com/nerrad567/gray-logic-home/internal/notification"
	"github.com/nerrad567/gray-logic-home/internal/realtime"
	"github.com/nerrad567/gray-logic-home/internal/safety"
)

type recorder[T any] struct {
	snaps  chan Snapshot[T]
	mu     sync.Mutex
	toasts []events.Toast
}

func newRecorder[T any]() *recorder[T] {
	return &recorder[T]{snaps: make(chan Snapshot[T], 32)}
}

func (r *recorder[T]) options() Options[T] {
	return Options[T]{
		OnChange: func(s Snapshot[T]) { r.snaps <- s },
		OnToast: func(t events.Toast) {
			r.mu.Lock()
			r.toasts = append(r.toasts, t)
			r.mu.Unlock()
		},
	}
}

func (r *recorder[T]) next(t *testing.T) Snapshot[T] {
	t.Helper()
	select {
	case s := <-r.snaps:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot[T]{}
}

func (r *recorder[T]) toastList() []events.Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Toast(nil), r.toasts...)
}

func TestChildDevices_UpdateTriggersRefetch(t *testing.T) {
	broker := realtime.NewBroker(16)
	defer broker.Close()
	repo := childdevice.NewSQLiteRepository(dbtest.Open(t), broker)
	ctx := context.Background()

	if err := repo.Create(ctx, &childdevice.Device{ID: "dev-42", UserID: "user-1", Name: "Lamp plug", DeviceTypeID: "smart-plug", Online: true}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rec := newRecorder[childdevice.Device]()
	list := ChildDevices(broker, repo, "user-1", "", rec.options())
	if err := list.Mount(ctx); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	defer list.Unmount()

	initial := rec.next(t)
	if initial.Loading || len(initial.Data) != 1 || !initial.Data[0].Online {
		t.Fatalf("initial snapshot = %+v, want one online device", initial)
	}

	if _, err := repo.UpdateState(ctx, "dev-42", nil, false); err != nil {
		t.Fatalf("UpdateState() error = %v", err)
	}

	after := rec.next(t)
	if len(after.Data) != 1 || after.Data[0].Online {
		t.Fatalf("snapshot after update = %+v, want device offline", after)
	}

	toasts := rec.toastList()
	if len(toasts) != 1 || toasts[0].Title != "Lamp plug is offline" || toasts[0].Variant != events.ToastDestructive {
		t.Errorf("toasts = %+v, want one offline toast", toasts)
	}
}

func TestChildDevices_PowerTransition(t *testing.T) {
	broker := realtime.NewBroker(16)
	defer broker.Close()
	repo := childdevice.NewSQLiteRepository(dbtest.Open(t), broker)
	ctx := context.Background()

	if err := repo.Create(ctx, &childdevice.Device{ID: "dev-7", UserID: "user-1", Name: "Heater relay", DeviceTypeID: "relay", Online: true, State: map[string]any{childdevice.StatePower: childdevice.PowerOn}}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rec := newRecorder[childdevice.Device]()
	list := ChildDevices(broker, repo, "user-1", "relay", rec.options())
	if err := list.Mount(ctx); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	defer list.Unmount()
	rec.next(t)

	if _, err := repo.UpdateState(ctx, "dev-7", map[string]any{childdevice.StatePower: childdevice.PowerOff}, true); err != nil {
		t.Fatalf("UpdateState() error = %v", err)
	}
	rec.next(t)

	toasts := rec.toastList()
	if len(toasts) != 1 || toasts[0].Title != "Heater relay turned off" {
		t.Errorf("toasts = %+v, want power toast", toasts)
	}
}

type countingLister struct {
	ChildDeviceLister
	fetches atomic.Int32
}

func (c *countingLister) ListByType(ctx context.Context, userID, deviceTypeID string) ([]childdevice.Device, error) {
	c.fetches.Add(1)
	return c.ChildDeviceLister.ListByType(ctx, userID, deviceTypeID)
}

func TestChildDevices_TypeFilterKeepsUserScope(t *testing.T) {
	broker := realtime.NewBroker(16)
	defer broker.Close()
	repo := childdevice.NewSQLiteRepository(dbtest.Open(t), broker)
	ctx := context.Background()

	if err := repo.Create(ctx, &childdevice.Device{ID: "dev-7", UserID: "user-1", Name: "Heater relay", DeviceTypeID: "relay"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	lister := &countingLister{ChildDeviceLister: repo}
	rec := newRecorder[childdevice.Device]()
	list := ChildDevices(broker, lister, "user-1", "relay", rec.options())
	if err := list.Mount(ctx); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	defer list.Unmount()
	rec.next(t)

	others := []childdevice.Device{
		{ID: "dev-8", UserID: "user-2", Name: "Neighbour relay", DeviceTypeID: "relay"},
		{ID: "dev-9", UserID: "user-1", Name: "Desk plug", DeviceTypeID: "smart-plug"},
		{ID: "dev-10", UserID: "user-1", Name: "Pump relay", DeviceTypeID: "relay"},
	}
	for i := range others {
		if err := repo.Create(ctx, &others[i]); err != nil {
			t.Fatalf("Create(%s) error = %v", others[i].ID, err)
		}
	}

	after := rec.next(t)
	if len(after.Data) != 2 {
		t.Fatalf("snapshot = %+v, want both of user-1's relays", after)
	}
	if got := lister.fetches.Load(); got != 2 {
		t.Errorf("fetches = %d, want 2 (mount plus the matching insert)", got)
	}
}

func TestNotifications_ReadReceiptRefetches(t *testing.T) {
	broker := realtime.NewBroker(16)
	defer broker.Close()
	repo := notification.NewSQLiteRepository(dbtest.Open(t), broker)
	ctx := context.Background()

	n := &notification.Notification{UserID: "user-1", Type: notification.TypeSafety, Title: "Smoke", Message: "Kitchen"}
	if err := repo.Create(ctx, n); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rec := newRecorder[notification.Notification]()
	list := Notifications(broker, repo, "user-1", 20, rec.options())
	if err := list.Mount(ctx); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	defer list.Unmount()

	if s := rec.next(t); len(s.Data) != 1 || s.Data[0].Read {
		t.Fatalf("initial snapshot = %+v, want one unread", s)
	}

	if err := repo.MarkRead(ctx, "user-1", n.ID); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if s := rec.next(t); len(s.Data) != 1 || !s.Data[0].Read {
		t.Errorf("snapshot after read = %+v, want read", s)
	}

	// Another user's insert is filtered out.
	if err := repo.Create(ctx, &notification.Notification{UserID: "user-2", Type: notification.TypeSystem, Title: "x", Message: "y"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	select {
	case s := <-rec.snaps:
		t.Errorf("unexpected snapshot for other user's insert: %+v", s)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSafetySystems_StatusToast(t *testing.T) {
	broker := realtime.NewBroker(16)
	defer broker.Close()
	repo := safety.NewSQLiteRepository(dbtest.Open(t), broker)
	ctx := context.Background()

	sys := &safety.System{ID: "saf-1", UserID: "user-1", RoomName: "Kitchen", SystemType: safety.TypeSmokeDetector, Status: safety.StatusSafe}
	if err := repo.Create(ctx, sys); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	rec := newRecorder[safety.System]()
	list := SafetySystems(broker, repo, "user-1", rec.options())
	if err := list.Mount(ctx); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	defer list.Unmount()
	rec.next(t)

	sys.Status = safety.StatusAlert
	if err := repo.Update(ctx, sys); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	s := rec.next(t)
	if len(s.Data) != 1 || s.Data[0].Status != safety.StatusAlert {
		t.Fatalf("snapshot = %+v, want alert", s)
	}

	toasts := rec.toastList()
	if len(toasts) != 1 || toasts[0].Title != "Kitchen: alert" || toasts[0].Variant != events.ToastDestructive {
		t.Errorf("toasts = %+v, want destructive alert toast", toasts)
	}
}

func TestList_FetchErrorKeepsData(t *testing.T) {
	broker := realtime.NewBroker(16)
	defer broker.Close()

	var fail atomic.Bool
	rec := newRecorder[string]()
	opts := rec.options()
	opts.Name = "strings"
	opts.Watch = []Watch{{Table: "things"}}
	opts.Fetch = func(context.Context) ([]string, error) {
		if fail.Load() {
			return nil, errors.New("boom")
		}
		return []string{"a"}, nil
	}

	list := New(broker, opts)
	if err := list.Mount(context.Background()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	defer list.Unmount()
	rec.next(t)

	fail.Store(true)
	list.Refresh()
	s := rec.next(t)
	if s.Err == nil || len(s.Data) != 1 || s.Loading {
		t.Errorf("snapshot = %+v, want error with previous data kept", s)
	}
}

func TestList_UnmountStopsUpdates(t *testing.T) {
	broker := realtime.NewBroker(16)
	defer broker.Close()

	var calls atomic.Int32
	opts := Options[string]{
		Watch: []Watch{{Table: "things"}},
		Fetch: func(context.Context) ([]string, error) {
			calls.Add(1)
			return nil, nil
		},
	}
	list := New(broker, opts)
	if err := list.Mount(context.Background()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if broker.SubscriptionCount() != 1 {
		t.Fatalf("SubscriptionCount() = %d, want 1", broker.SubscriptionCount())
	}

	list.Unmount()
	if list.Mounted() || broker.SubscriptionCount() != 0 {
		t.Fatalf("after Unmount: mounted=%v subs=%d", list.Mounted(), broker.SubscriptionCount())
	}

	list.Refresh()
	broker.Publish(context.Background(), realtime.Inserted("things", map[string]any{"id": "1"}))
	time.Sleep(50 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}
}

func TestList_StaleResultDropped(t *testing.T) {
	broker := realtime.NewBroker(16)
	defer broker.Close()

	release := make(chan struct{})
	var changes atomic.Int32
	opts := Options[string]{
		Fetch: func(context.Context) ([]string, error) {
			<-release
			return []string{"late"}, nil
		},
		OnChange: func(Snapshot[string]) { changes.Add(1) },
	}
	list := New(broker, opts)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = list.Mount(context.Background()) //nolint:errcheck // fetch errors land in the snapshot
	}()

	for !list.Mounted() {
		time.Sleep(time.Millisecond)
	}
	list.Unmount()
	close(release)
	<-done

	if changes.Load() != 0 {
		t.Errorf("OnChange called %d times after Unmount, want 0", changes.Load())
	}
	if s := list.Snapshot(); len(s.Data) != 0 {
		t.Errorf("Snapshot() = %+v, want stale result dropped", s)
	}
}

func TestList_RequiresFetch(t *testing.T) {
	list := New(realtime.NewBroker(1), Options[string]{Name: "empty"})
	if err := list.Mount(context.Background()); err == nil {
		t.Error("Mount() without Fetch should fail")
	}
}
