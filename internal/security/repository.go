package security

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

// Table is the security systems table name on the realtime feed.
const Table = "security_systems"

// Repository defines the interface for security system persistence.
type Repository interface {
	List(ctx context.Context, userID string) ([]System, error)
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

// NewSQLiteRepository creates a new SQLite-backed security repository.
func NewSQLiteRepository(db *sql.DB, changes realtime.Publisher) *SQLiteRepository {
	if changes == nil {
		changes = realtime.NopPublisher{}
	}
	return &SQLiteRepository{db: db, changes: changes}
}

const selectColumns = `SELECT id, user_id, name, lock_status, security_mode, shutdown_exceptions,
	created_at, updated_at FROM security_systems`

// List returns the user's security systems.
func (r *SQLiteRepository) List(ctx context.Context, userID string) ([]System, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+` WHERE user_id = ? ORDER BY name, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying security systems: %w", err)
	}
	defer rows.Close()

	systems := []System{}
	for rows.Next() {
		s, err := scanSystem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning security system row: %w", err)
		}
		systems = append(systems, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating security system rows: %w", err)
	}
	return systems, nil
}

// Get returns one security system owned by the user.
func (r *SQLiteRepository) Get(ctx context.Context, userID, id string) (*System, error) {
	s, err := scanSystem(r.db.QueryRowContext(ctx, selectColumns+` WHERE user_id = ? AND id = ?`, userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSystemNotFound
		}
		return nil, fmt.Errorf("scanning security system: %w", err)
	}
	return s, nil
}

// Create inserts a security system, defaulting to unlocked/home.
func (r *SQLiteRepository) Create(ctx context.Context, s *System) error {
	if s.LockStatus == "" {
		s.LockStatus = Unlocked
	}
	if s.SecurityMode == "" {
		s.SecurityMode = ModeHome
	}
	if err := Validate(s); err != nil {
		return err
	}
	exceptions, err := marshalExceptions(s.ShutdownExceptions)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	const query = `INSERT INTO security_systems (id, user_id, name, lock_status, security_mode,
		shutdown_exceptions, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query, s.ID, s.UserID, s.Name, string(s.LockStatus),
		string(s.SecurityMode), exceptions, now.Format(time.RFC3339), now.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrSystemExists
		}
		return fmt.Errorf("inserting security system %s: %w", s.ID, err)
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
	exceptions, err := marshalExceptions(s.ShutdownExceptions)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	const query = `UPDATE security_systems SET name = ?, lock_status = ?, security_mode = ?,
		shutdown_exceptions = ?, updated_at = ? WHERE user_id = ? AND id = ?`
	if _, err := r.db.ExecContext(ctx, query, s.Name, string(s.LockStatus), string(s.SecurityMode),
		exceptions, now.Format(time.RFC3339), s.UserID, s.ID); err != nil {
		return fmt.Errorf("updating security system %s: %w", s.ID, err)
	}
	s.CreatedAt = old.CreatedAt
	s.UpdatedAt = now

	r.changes.Publish(ctx, realtime.Updated(Table, old, s))
	return nil
}

// Delete removes a security system.
func (r *SQLiteRepository) Delete(ctx context.Context, userID, id string) error {
	old, err := r.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM security_systems WHERE user_id = ? AND id = ?", userID, id); err != nil {
		return fmt.Errorf("deleting security system %s: %w", id, err)
	}
	r.changes.Publish(ctx, realtime.Deleted(Table, old))
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSystem(sc scanner) (*System, error) {
	var s System
	var lock, mode, exceptionsJSON, createdAt, updatedAt string

	if err := sc.Scan(&s.ID, &s.UserID, &s.Name, &lock, &mode, &exceptionsJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	s.LockStatus = LockStatus(lock)
	s.SecurityMode = Mode(mode)
	s.ShutdownExceptions = []string{}
	if exceptionsJSON != "" {
		if err := json.Unmarshal([]byte(exceptionsJSON), &s.ShutdownExceptions); err != nil {
			return nil, fmt.Errorf("decoding shutdown exceptions for %s: %w", s.ID, err)
		}
	}
	s.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // zero time on malformed value
	s.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // zero time on malformed value
	return &s, nil
}

func marshalExceptions(ids []string) (string, error) {
	if ids == nil {
		return "[]", nil
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return "", fmt.Errorf("encoding shutdown exceptions: %w", err)
	}
	return string(b), nil
}
