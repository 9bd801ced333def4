package room

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

// Table is the rooms table name as reported on the realtime feed.
const Table = "rooms"

// Repository defines the interface for room persistence operations.
type Repository interface {
	List(ctx context.Context, userID string) ([]Room, error)
	Get(ctx context.Context, userID, id string) (*Room, error)
	Create(ctx context.Context, room *Room) error
	Update(ctx context.Context, room *Room) error
	Delete(ctx context.Context, userID, id string) error
}

// SQLiteRepository implements Repository using SQLite. Every successful
// write is reported to the change publisher.
type SQLiteRepository struct {
	db      *sql.DB
	changes realtime.Publisher
}

// NewSQLiteRepository creates a new SQLite-backed room repository.
// A nil publisher discards change notifications.
func NewSQLiteRepository(db *sql.DB, changes realtime.Publisher) *SQLiteRepository {
	if changes == nil {
		changes = realtime.NopPublisher{}
	}
	return &SQLiteRepository{db: db, changes: changes}
}

const selectColumns = `SELECT id, user_id, name, appliances, occupied, created_at, updated_at FROM rooms`

// List returns the user's rooms ordered by name.
func (r *SQLiteRepository) List(ctx context.Context, userID string) ([]Room, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE user_id = ? ORDER BY name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	rooms := []Room{}
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		rooms = append(rooms, *rm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating room rows: %w", err)
	}
	return rooms, nil
}

// Get returns a single room owned by the user.
func (r *SQLiteRepository) Get(ctx context.Context, userID, id string) (*Room, error) {
	row := r.db.QueryRowContext(ctx, selectColumns+` WHERE user_id = ? AND id = ?`, userID, id)
	rm, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("scanning room: %w", err)
	}
	return rm, nil
}

// Create inserts a new room. Timestamps are set on the passed room.
func (r *SQLiteRepository) Create(ctx context.Context, room *Room) error {
	if err := ValidateRoom(room); err != nil {
		return err
	}
	appliances, err := marshalAppliances(room.Appliances)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	const query = `INSERT INTO rooms (id, user_id, name, appliances, occupied, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		room.ID, room.UserID, room.Name, appliances, boolToInt(room.Occupied),
		now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrRoomExists
		}
		return fmt.Errorf("inserting room %s: %w", room.ID, err)
	}
	room.CreatedAt = now
	room.UpdatedAt = now

	r.changes.Publish(ctx, realtime.Inserted(Table, room))
	return nil
}

// Update replaces the room's name, appliances and occupancy.
func (r *SQLiteRepository) Update(ctx context.Context, room *Room) error {
	if err := ValidateRoom(room); err != nil {
		return err
	}
	old, err := r.Get(ctx, room.UserID, room.ID)
	if err != nil {
		return err
	}
	appliances, err := marshalAppliances(room.Appliances)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	const query = `UPDATE rooms SET name = ?, appliances = ?, occupied = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`
	result, err := r.db.ExecContext(ctx, query,
		room.Name, appliances, boolToInt(room.Occupied), now.Format(time.RFC3339),
		room.UserID, room.ID)
	if err != nil {
		return fmt.Errorf("updating room %s: %w", room.ID, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrRoomNotFound
	}
	room.CreatedAt = old.CreatedAt
	room.UpdatedAt = now

	r.changes.Publish(ctx, realtime.Updated(Table, old, room))
	return nil
}

// Delete removes a room and its appliances.
func (r *SQLiteRepository) Delete(ctx context.Context, userID, id string) error {
	old, err := r.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx, "DELETE FROM rooms WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return fmt.Errorf("deleting room %s: %w", id, err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n == 0 {
		return ErrRoomNotFound
	}

	r.changes.Publish(ctx, realtime.Deleted(Table, old))
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRoom(s scanner) (*Room, error) {
	var rm Room
	var appliancesJSON string
	var occupied int
	var createdAt, updatedAt string

	if err := s.Scan(&rm.ID, &rm.UserID, &rm.Name, &appliancesJSON, &occupied, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	rm.Appliances = []Appliance{}
	if appliancesJSON != "" {
		if err := json.Unmarshal([]byte(appliancesJSON), &rm.Appliances); err != nil {
			return nil, fmt.Errorf("decoding appliances for room %s: %w", rm.ID, err)
		}
	}
	rm.Occupied = occupied != 0
	rm.CreatedAt = parseTime(createdAt)
	rm.UpdatedAt = parseTime(updatedAt)
	return &rm, nil
}

func marshalAppliances(apps []Appliance) (string, error) {
	if apps == nil {
		return "[]", nil
	}
	b, err := json.Marshal(apps)
	if err != nil {
		return "", fmt.Errorf("encoding appliances: %w", err)
	}
	return string(b), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// parseTime parses an ISO 8601 timestamp string from SQLite.
// Returns zero time on failure.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05Z", s)
		if err != nil {
			return time.Time{}
		}
	}
	return t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
