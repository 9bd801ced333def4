package safety

import (
	"context"
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-home/internal/infrastructure/database/dbtest"
	"github.com/nerrad567/gray-logic-home/internal/realtime"
)

type countingPublisher struct {
	types []realtime.EventType
}

func (p *countingPublisher) Publish(_ context.Context, c realtime.Change) {
	p.types = append(p.types, c.Type)
}

func strPtr(s string) *string { return &s }

func seed(t *testing.T) (*SQLiteRepository, *countingPublisher) {
	t.Helper()
	pub := &countingPublisher{}
	repo := NewSQLiteRepository(dbtest.Open(t), pub)

	systems := []*System{
		{ID: "sys-window", UserID: "user-1", RoomName: "Living Room", SystemType: TypeWindowRain,
			Status: StatusSafe, SensorReadings: map[string]any{ReadingWindowStatus: WindowClosed}},
		{ID: "sys-smoke", UserID: "user-1", RoomName: "Kitchen", SystemType: TypeSmokeDetector,
			ChildDeviceID: strPtr("dev-smoke")},
		{ID: "sys-other", UserID: "user-2", RoomName: "Living Room", SystemType: TypeWindowRain},
	}
	for _, s := range systems {
		if err := repo.Create(context.Background(), s); err != nil {
			t.Fatalf("Create(%s) error = %v", s.ID, err)
		}
	}
	pub.types = nil
	return repo, pub
}

func TestCreate_DefaultsStatus(t *testing.T) {
	repo, _ := seed(t)

	got, err := repo.Get(context.Background(), "user-1", "sys-smoke")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Status != StatusUnknown {
		t.Errorf("Status = %q, want %q", got.Status, StatusUnknown)
	}
	if got.ChildDeviceID == nil || *got.ChildDeviceID != "dev-smoke" {
		t.Errorf("ChildDeviceID = %v, want dev-smoke", got.ChildDeviceID)
	}
	if got.SensorReadings == nil {
		t.Error("SensorReadings should be an empty map")
	}
}

func TestCreate_Validation(t *testing.T) {
	repo, _ := seed(t)
	ctx := context.Background()

	bad := &System{ID: "sys-bad", UserID: "user-1", RoomName: "Hall", SystemType: "laser"}
	if err := repo.Create(ctx, bad); !errors.Is(err, ErrInvalidSystem) {
		t.Errorf("Create() error = %v, want ErrInvalidSystem", err)
	}

	dup := &System{ID: "sys-window", UserID: "user-1", RoomName: "Hall", SystemType: TypeTemperature}
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrSystemExists) {
		t.Errorf("Create() duplicate error = %v, want ErrSystemExists", err)
	}
}

func TestListing(t *testing.T) {
	repo, _ := seed(t)
	ctx := context.Background()

	all, err := repo.List(ctx, "user-1")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("len(List) = %d, want 2", len(all))
	}

	windows, err := repo.ListByType(ctx, "user-1", TypeWindowRain)
	if err != nil {
		t.Fatalf("ListByType() error = %v", err)
	}
	if len(windows) != 1 || windows[0].ID != "sys-window" {
		t.Errorf("ListByType = %+v, want sys-window only", windows)
	}
	if windows[0].WindowStatus() != WindowClosed {
		t.Errorf("WindowStatus() = %q, want closed", windows[0].WindowStatus())
	}

	byDevice, err := repo.ListByChildDevice(ctx, "dev-smoke")
	if err != nil {
		t.Fatalf("ListByChildDevice() error = %v", err)
	}
	if len(byDevice) != 1 || byDevice[0].ID != "sys-smoke" {
		t.Errorf("ListByChildDevice = %+v, want sys-smoke", byDevice)
	}
}

func TestUpdate(t *testing.T) {
	repo, pub := seed(t)
	ctx := context.Background()

	s, _ := repo.Get(ctx, "user-1", "sys-window")
	s.SensorReadings[ReadingWindowStatus] = WindowOpen
	if err := repo.Update(ctx, s); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, _ := repo.Get(ctx, "user-1", "sys-window")
	if got.WindowStatus() != WindowOpen {
		t.Errorf("WindowStatus() = %q, want open", got.WindowStatus())
	}
	if len(pub.types) != 1 || pub.types[0] != realtime.Update {
		t.Errorf("changes = %v, want [UPDATE]", pub.types)
	}

	ghost := &System{ID: "sys-ghost", UserID: "user-1", RoomName: "Hall", SystemType: TypeTemperature, Status: StatusSafe}
	if err := repo.Update(ctx, ghost); !errors.Is(err, ErrSystemNotFound) {
		t.Errorf("Update() missing error = %v, want ErrSystemNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	repo, pub := seed(t)
	ctx := context.Background()

	if err := repo.Delete(ctx, "user-1", "sys-smoke"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.Get(ctx, "user-1", "sys-smoke"); !errors.Is(err, ErrSystemNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrSystemNotFound", err)
	}
	if len(pub.types) != 1 || pub.types[0] != realtime.Delete {
		t.Errorf("changes = %v, want [DELETE]", pub.types)
	}
}
