package security

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-home/internal/audit"
	"github.com/nerrad567/gray-logic-home/internal/events"
)

// EventPublisher is the subset of the event bus the service needs.
type EventPublisher interface {
	Publish(ev events.Event)
}

// Service applies lock and mode changes and records them.
type Service struct {
	repo   Repository
	events EventPublisher
	audit  *audit.Recorder
}

// NewService creates a security service. events and recorder may be nil.
func NewService(repo Repository, bus EventPublisher, recorder *audit.Recorder) *Service {
	return &Service{repo: repo, events: bus, audit: recorder}
}

// Repository returns the underlying repository.
func (s *Service) Repository() Repository {
	return s.repo
}

// SetMode switches a system between home and away. SecurityModeChanged is
// published only when the mode actually changes.
func (s *Service) SetMode(ctx context.Context, userID, id string, mode Mode) (*System, error) {
	if !ValidMode(mode) {
		return nil, fmt.Errorf("%w: unknown security_mode %q", ErrInvalidSystem, mode)
	}
	sys, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if sys.SecurityMode == mode {
		return sys, nil
	}

	previous := sys.SecurityMode
	sys.SecurityMode = mode
	if err := s.repo.Update(ctx, sys); err != nil {
		return nil, fmt.Errorf("saving security system %s: %w", id, err)
	}

	s.audit.Record(ctx, audit.Entry{
		Action:     audit.ActionModeChange,
		EntityType: Table,
		EntityID:   id,
		UserID:     userID,
		Source:     audit.SourceAPI,
		Details:    map[string]any{"from": string(previous), "to": string(mode)},
	})
	if s.events != nil {
		s.events.Publish(events.SecurityModeChanged{UserID: userID, SystemID: id, Mode: string(mode)})
		s.events.Publish(events.SystemStateChanged{UserID: userID, Source: "security"})
	}
	return sys, nil
}

// SetLock locks or unlocks a system.
func (s *Service) SetLock(ctx context.Context, userID, id string, status LockStatus) (*System, error) {
	if !ValidLockStatus(status) {
		return nil, fmt.Errorf("%w: unknown lock_status %q", ErrInvalidSystem, status)
	}
	sys, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if sys.LockStatus == status {
		return sys, nil
	}

	sys.LockStatus = status
	if err := s.repo.Update(ctx, sys); err != nil {
		return nil, fmt.Errorf("saving security system %s: %w", id, err)
	}

	action := audit.ActionUnlock
	if status == Locked {
		action = audit.ActionLock
	}
	s.audit.Record(ctx, audit.Entry{
		Action:     action,
		EntityType: Table,
		EntityID:   id,
		UserID:     userID,
		Source:     audit.SourceAPI,
	})
	if s.events != nil {
		s.events.Publish(events.SystemStateChanged{UserID: userID, Source: "security"})
	}
	return sys, nil
}
