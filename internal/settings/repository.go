package settings

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

// Table is the user settings table name on the realtime feed.
const Table = "user_settings"

// Repository defines the interface for settings persistence.
type Repository interface {
	Get(ctx context.Context, userID string) (*UserSettings, error)
	GetOrCreate(ctx context.Context, userID string) (*UserSettings, error)
	Update(ctx context.Context, s *UserSettings) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db      *sql.DB
	changes realtime.Publisher
}

// NewSQLiteRepository creates a new SQLite-backed settings repository.
func NewSQLiteRepository(db *sql.DB, changes realtime.Publisher) *SQLiteRepository {
	if changes == nil {
		changes = realtime.NopPublisher{}
	}
	return &SQLiteRepository{db: db, changes: changes}
}

// Get returns the user's settings or ErrSettingsNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, userID string) (*UserSettings, error) {
	const query = `SELECT user_id, subscription_plan, security_settings, power_sources, voice_settings,
		created_at, updated_at FROM user_settings WHERE user_id = ?`

	var s UserSettings
	var plan, security, power, voice, createdAt, updatedAt string
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&s.UserID, &plan, &security, &power, &voice, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("querying settings for %s: %w", userID, err)
	}

	// Start from defaults so keys missing from older rows keep sane values.
	d := Defaults(userID)
	s.Security, s.PowerSources, s.Voice = d.Security, d.PowerSources, d.Voice
	s.SubscriptionPlan = Plan(plan)
	for _, col := range []struct {
		name string
		raw  string
		dst  any
	}{
		{"security_settings", security, &s.Security},
		{"power_sources", power, &s.PowerSources},
		{"voice_settings", voice, &s.Voice},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
			return nil, fmt.Errorf("decoding %s for %s: %w", col.name, userID, err)
		}
	}
	if s.Security.ShutdownExceptions == nil {
		s.Security.ShutdownExceptions = []string{}
	}
	s.CreatedAt = parseTime(createdAt)
	s.UpdatedAt = parseTime(updatedAt)
	return &s, nil
}

// GetOrCreate returns the user's settings, inserting defaults when none
// exist yet.
func (r *SQLiteRepository) GetOrCreate(ctx context.Context, userID string) (*UserSettings, error) {
	s, err := r.Get(ctx, userID)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, ErrSettingsNotFound) {
		return nil, err
	}

	s = Defaults(userID)
	if err := r.insert(ctx, s); err != nil {
		// A concurrent request may have created the row first.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return r.Get(ctx, userID)
		}
		return nil, err
	}
	return s, nil
}

func (r *SQLiteRepository) insert(ctx context.Context, s *UserSettings) error {
	security, power, voice, err := encode(s)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Second)
	const query = `INSERT INTO user_settings (user_id, subscription_plan, security_settings,
		power_sources, voice_settings, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, s.UserID, string(s.SubscriptionPlan), security, power, voice,
		now.Format(time.RFC3339), now.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("inserting settings for %s: %w", s.UserID, err)
	}
	s.CreatedAt = now
	s.UpdatedAt = now

	r.changes.Publish(ctx, realtime.Inserted(Table, s))
	return nil
}

// Update replaces the user's settings.
func (r *SQLiteRepository) Update(ctx context.Context, s *UserSettings) error {
	if err := Validate(s); err != nil {
		return err
	}
	old, err := r.Get(ctx, s.UserID)
	if err != nil {
		return err
	}
	security, power, voice, err := encode(s)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	const query = `UPDATE user_settings SET subscription_plan = ?, security_settings = ?,
		power_sources = ?, voice_settings = ?, updated_at = ? WHERE user_id = ?`
	if _, err := r.db.ExecContext(ctx, query, string(s.SubscriptionPlan), security, power, voice,
		now.Format(time.RFC3339), s.UserID); err != nil {
		return fmt.Errorf("updating settings for %s: %w", s.UserID, err)
	}
	s.CreatedAt = old.CreatedAt
	s.UpdatedAt = now

	r.changes.Publish(ctx, realtime.Updated(Table, old, s))
	return nil
}

func encode(s *UserSettings) (security, power, voice string, err error) {
	sec := s.Security
	if sec.ShutdownExceptions == nil {
		sec.ShutdownExceptions = []string{}
	}
	parts := make([]string, 3)
	for i, v := range []any{sec, s.PowerSources, s.Voice} {
		b, err := json.Marshal(v)
		if err != nil {
			return "", "", "", fmt.Errorf("encoding settings: %w", err)
		}
		parts[i] = string(b)
	}
	return parts[0], parts[1], parts[2], nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
