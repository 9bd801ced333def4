package safety

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-home/internal/realtime"
)

// Table is the safety systems table name on the realtime feed.
const Table = "safety_systems"

// Repository defines the interface for safety system persistence.
type Repository interface {
	List(ctx context.Context, userID string) ([]System, error)
	ListByType(ctx context.Context, userID string, t SystemType) ([]System, error)
	ListByChildDevice(ctx context.Context, deviceID string) ([]System, error)
	Get(ctx context.Context, userID, id string) (*System, error)
	Create(ctx context.Context, s *System) error
	Update(ctx context.Context, s *System) error
	Delete(ctx context.Context, userID, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db      *sql.DB
	changes realtime.Publisher
}

// NewSQLiteRepository creates a new SQLite-backed safety repository.
func NewSQLiteRepository(db *sql.DB, changes realtime.Publisher) *SQLiteRepository {
	if changes == nil {
		changes = realtime.NopPublisher{}
	}
	return &SQLiteRepository{db: db, changes: changes}
}

const selectColumns = `SELECT id, user_id, room_name, system_type, status, sensor_readings,
	child_device_id, created_at, updated_at FROM safety_systems`

// List returns all of the user's safety systems.
func (r *SQLiteRepository) List(ctx context.Context, userID string) ([]System, error) {
	return r.query(ctx, selectColumns+` WHERE user_id = ? ORDER BY room_name, id`, userID)
}

// ListByType returns the user's safety systems of one type.
func (r *SQLiteRepository) ListByType(ctx context.Context, userID string, t SystemType) ([]System, error) {
	return r.query(ctx, selectColumns+` WHERE user_id = ? AND system_type = ? ORDER BY room_name, id`, userID, string(t))
}

// ListByChildDevice returns every safety system fed by a child device,
// across users. Device IDs are globally unique.
func (r *SQLiteRepository) ListByChildDevice(ctx context.Context, deviceID string) ([]System, error) {
	return r.query(ctx, selectColumns+` WHERE child_device_id = ? ORDER BY id`, deviceID)
}

// Get returns one safety system owned by the user.
func (r *SQLiteRepository) Get(ctx context.Context, userID, id string) (*System, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE user_id = ? AND id = ?`, userID, id)
	s, err := scanSystem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSystemNotFound
		}
		return nil, fmt.Errorf("scanning safety system: %w", err)
	}
	return s, nil
}

// Create inserts a new safety system.
func (r *SQLiteRepository) Create(ctx context.Context, s *System) error {
	if s.Status == "" {
		s.Status = StatusUnknown
	}
	if err := Validate(s); err != nil {
		return err
	}
	readings, err := marshalReadings(s.SensorReadings)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	const query = `INSERT INTO safety_systems (id, user_id, room_name, system_type, status,
		sensor_readings, child_device_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.RoomName, string(s.SystemType), string(s.Status), readings,
		nullableString(s.ChildDeviceID), now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrSystemExists
		}
		return fmt.Errorf("inserting safety system %s: %w", s.ID, err)
	}
	s.CreatedAt = now
	s.UpdatedAt = now

	r.changes.Publish(ctx, realtime.Inserted(Table, s))
	return nil
}

// Update replaces the system's mutable fields.
func (r *SQLiteRepository) Update(ctx context.Context, s *System) error {
	if err := Validate(s); err != nil {
		return err
	}
	old, err := r.Get(ctx, s.UserID, s.ID)
	if err != nil {
		return err
	}
	readings, err := marshalReadings(s.SensorReadings)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	const query = `UPDATE safety_systems SET room_name = ?, system_type = ?, status = ?,
		sensor_readings = ?, child_device_id = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`
	result, err := r.db.ExecContext(ctx, query,
		s.RoomName, string(s.SystemType), string(s.Status), readings,
		nullableString(s.ChildDeviceID), now.Format(time.RFC3339), s.UserID, s.ID)
	if err != nil {
		return fmt.Errorf("updating safety system %s: %w", s.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrSystemNotFound
	}
	s.CreatedAt = old.CreatedAt
	s.UpdatedAt = now

	r.changes.Publish(ctx, realtime.Updated(Table, old, s))
	return nil
}

// Delete removes a safety system.
func (r *SQLiteRepository) Delete(ctx context.Context, userID, id string) error {
	old, err := r.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM safety_systems WHERE user_id = ? AND id = ?", userID, id); err != nil {
		return fmt.Errorf("deleting safety system %s: %w", id, err)
	}
	r.changes.Publish(ctx, realtime.Deleted(Table, old))
	return nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]System, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying safety systems: %w", err)
	}
	defer rows.Close()

	systems := []System{}
	for rows.Next() {
		s, err := scanSystem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning safety system row: %w", err)
		}
		systems = append(systems, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating safety system rows: %w", err)
	}
	return systems, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSystem(sc scanner) (*System, error) {
	var s System
	var systemType, status, readingsJSON string
	var childDeviceID sql.NullString
	var createdAt, updatedAt string

	if err := sc.Scan(&s.ID, &s.UserID, &s.RoomName, &systemType, &status, &readingsJSON,
		&childDeviceID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s.SystemType = SystemType(systemType)
	s.Status = Status(status)
	s.SensorReadings = make(map[string]any)
	if readingsJSON != "" {
		if err := json.Unmarshal([]byte(readingsJSON), &s.SensorReadings); err != nil {
			return nil, fmt.Errorf("decoding sensor readings for %s: %w", s.ID, err)
		}
	}
	if childDeviceID.Valid {
		s.ChildDeviceID = &childDeviceID.String
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}

func marshalReadings(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding sensor readings: %w", err)
	}
	return string(b), nil
}

// nullableString converts a *string to sql.NullString for nullable columns.
func nullableString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// parseTime parses an ISO 8601 timestamp string from SQLite.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
