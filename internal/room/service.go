package room

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-home/internal/events"
	"github.com/nerrad567/gray-logic-home/internal/infrastructure/influxdb"
)

// DeviceMirror pushes appliance power changes to the physical child device.
type DeviceMirror interface {
	SetPower(ctx context.Context, userID, deviceID string, on bool) error
}

// Telemetry records appliance state samples.
type Telemetry interface {
	WriteApplianceState(s influxdb.ApplianceSample)
}

// EventPublisher is the subset of the event bus the service needs.
type EventPublisher interface {
	Publish(ev events.Event)
}

// Logger is the logging interface used by the service.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// ApplianceUpdate is a partial appliance change. Nil fields are left as is.
type ApplianceUpdate struct {
	Status    *bool
	Intensity *int
	ColorTint *string
}

// ServiceDeps holds the optional collaborators of a Service.
type ServiceDeps struct {
	Mirror    DeviceMirror
	Telemetry Telemetry
	Events    EventPublisher
	Logger    Logger
}

// Service implements appliance control on top of a Repository.
type Service struct {
	repo      Repository
	mirror    DeviceMirror
	telemetry Telemetry
	events    EventPublisher
	logger    Logger
}

// NewService creates a room service. Nil dependencies are skipped.
func NewService(repo Repository, deps ServiceDeps) *Service {
	s := &Service{
		repo:      repo,
		mirror:    deps.Mirror,
		telemetry: deps.Telemetry,
		events:    deps.Events,
		logger:    deps.Logger,
	}
	if s.logger == nil {
		s.logger = noopLogger{}
	}
	return s
}

// Repository returns the underlying repository.
func (s *Service) Repository() Repository {
	return s.repo
}

// CreateRoom assigns IDs to the room and its appliances and persists it.
func (s *Service) CreateRoom(ctx context.Context, rm *Room) error {
	if rm.ID == "" {
		rm.ID = "room-" + uuid.NewString()[:8]
	}
	for i := range rm.Appliances {
		if rm.Appliances[i].ID == "" {
			rm.Appliances[i].ID = "app-" + uuid.NewString()[:8]
		}
	}
	if err := s.repo.Create(ctx, rm); err != nil {
		return err
	}
	s.publish(events.SystemStateChanged{UserID: rm.UserID, Source: "room"})
	return nil
}

// DeleteRoom removes a room.
func (s *Service) DeleteRoom(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}
	s.publish(events.SystemStateChanged{UserID: userID, Source: "room"})
	return nil
}

// UpdateAppliance applies a partial change to one appliance and persists
// the room. A status change is mirrored to the linked child device; mirror
// failures are logged and do not fail the update.
func (s *Service) UpdateAppliance(ctx context.Context, userID, roomID, applianceID string, upd ApplianceUpdate) (*Room, error) {
	rm, err := s.repo.Get(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	app, ok := rm.Appliance(applianceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrApplianceNotFound, applianceID)
	}

	statusChanged := false
	if upd.Status != nil && *upd.Status != app.Status {
		app.Status = *upd.Status
		statusChanged = true
	}
	if upd.Intensity != nil {
		v := *upd.Intensity
		app.Intensity = &v
	}
	if upd.ColorTint != nil {
		v := *upd.ColorTint
		app.ColorTint = &v
	}
	changed := *app

	if err := s.repo.Update(ctx, rm); err != nil {
		return nil, fmt.Errorf("saving room %s: %w", roomID, err)
	}

	if statusChanged && changed.ChildDeviceID != nil && s.mirror != nil {
		if err := s.mirror.SetPower(ctx, userID, *changed.ChildDeviceID, changed.Status); err != nil {
			s.logger.Warn("child device mirror failed",
				"device_id", *changed.ChildDeviceID, "appliance_id", changed.ID, "error", err)
		}
	}

	if s.telemetry != nil {
		s.telemetry.WriteApplianceState(influxdb.ApplianceSample{
			UserID:        userID,
			RoomID:        roomID,
			ApplianceID:   changed.ID,
			ApplianceType: string(changed.Type),
			On:            changed.Status,
			PowerWatts:    changed.PowerUsage,
			Intensity:     changed.Intensity,
		})
	}

	s.publish(events.ApplianceChanged{UserID: userID, RoomID: roomID, ApplianceID: changed.ID, Status: changed.Status})
	s.publish(events.SystemStateChanged{UserID: userID, Source: "room"})
	return rm, nil
}

// SetOccupied updates the room's occupancy flag.
func (s *Service) SetOccupied(ctx context.Context, userID, roomID string, occupied bool) (*Room, error) {
	rm, err := s.repo.Get(ctx, userID, roomID)
	if err != nil {
		return nil, err
	}
	if rm.Occupied == occupied {
		return rm, nil
	}
	rm.Occupied = occupied
	if err := s.repo.Update(ctx, rm); err != nil {
		return nil, fmt.Errorf("saving room %s: %w", roomID, err)
	}
	return rm, nil
}

func (s *Service) publish(ev events.Event) {
	if s.events != nil {
		s.events.Publish(ev)
	}
}
