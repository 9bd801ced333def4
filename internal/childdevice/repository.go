package childdevice

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

// Table is the child devices table name on the realtime feed.
const Table = "child_devices"

// Repository defines the interface for child device persistence.
type Repository interface {
	List(ctx context.Context, userID string) ([]Device, error)
	ListByType(ctx context.Context, userID, deviceTypeID string) ([]Device, error)
	Get(ctx context.Context, userID, id string) (*Device, error)
	GetByID(ctx context.Context, id string) (*Device, error)
	Create(ctx context.Context, d *Device) error
	Update(ctx context.Context, d *Device) error
	UpdateState(ctx context.Context, id string, patch map[string]any, online bool) (*Device, error)
	Delete(ctx context.Context, userID, id string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db      *sql.DB
	changes realtime.Publisher
}

// NewSQLiteRepository creates a new SQLite-backed child device repository.
func NewSQLiteRepository(db *sql.DB, changes realtime.Publisher) *SQLiteRepository {
	if changes == nil {
		changes = realtime.NopPublisher{}
	}
	return &SQLiteRepository{db: db, changes: changes}
}

const selectColumns = `SELECT id, user_id, name, device_type_id, protocol, state, online,
	created_at, updated_at FROM child_devices`

// List returns the user's devices ordered by name.
func (r *SQLiteRepository) List(ctx context.Context, userID string) ([]Device, error) {
	return r.query(ctx, selectColumns+` WHERE user_id = ? ORDER BY name, id`, userID)
}

// ListByType returns the user's devices of one device type.
func (r *SQLiteRepository) ListByType(ctx context.Context, userID, deviceTypeID string) ([]Device, error) {
	return r.query(ctx, selectColumns+` WHERE user_id = ? AND device_type_id = ? ORDER BY name, id`, userID, deviceTypeID)
}

// Get returns one device owned by the user.
func (r *SQLiteRepository) Get(ctx context.Context, userID, id string) (*Device, error) {
	return r.get(ctx, selectColumns+` WHERE user_id = ? AND id = ?`, userID, id)
}

// GetByID returns a device regardless of owner. Used by state ingest,
// where only the device ID is known.
func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	return r.get(ctx, selectColumns+` WHERE id = ?`, id)
}

func (r *SQLiteRepository) get(ctx context.Context, query string, args ...any) (*Device, error) {
	d, err := scanDevice(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("scanning child device: %w", err)
	}
	return d, nil
}

// Create inserts a new device.
func (r *SQLiteRepository) Create(ctx context.Context, d *Device) error {
	if d.ID == "" || d.UserID == "" || strings.TrimSpace(d.Name) == "" || d.DeviceTypeID == "" {
		return fmt.Errorf("%w: id, user_id, name and device_type_id are required", ErrInvalidDevice)
	}
	if d.Protocol == "" {
		d.Protocol = "mqtt"
	}
	state, err := marshalState(d.State)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Truncate(time.Second)
	const query = `INSERT INTO child_devices (id, user_id, name, device_type_id, protocol, state, online,
		created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, d.ID, d.UserID, d.Name, d.DeviceTypeID, d.Protocol, state,
		boolToInt(d.Online), now.Format(time.RFC3339), now.Format(time.RFC3339)); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDeviceExists
		}
		return fmt.Errorf("inserting child device %s: %w", d.ID, err)
	}
	d.CreatedAt = now
	d.UpdatedAt = now

	r.changes.Publish(ctx, realtime.Inserted(Table, d))
	return nil
}

// Update replaces the device's mutable fields.
func (r *SQLiteRepository) Update(ctx context.Context, d *Device) error {
	old, err := r.Get(ctx, d.UserID, d.ID)
	if err != nil {
		return err
	}
	return r.write(ctx, old, d)
}

// UpdateState merges patch into the device state and sets the online flag.
func (r *SQLiteRepository) UpdateState(ctx context.Context, id string, patch map[string]any, online bool) (*Device, error) {
	old, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d := *old
	d.State = mergeState(old.State, patch)
	d.Online = online
	if err := r.write(ctx, old, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *SQLiteRepository) write(ctx context.Context, old, d *Device) error {
	state, err := marshalState(d.State)
	if err != nil {
		return err
	}
	now := time.Now().UTC().Truncate(time.Second)
	const query = `UPDATE child_devices SET name = ?, device_type_id = ?, protocol = ?, state = ?,
		online = ?, updated_at = ? WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, d.Name, d.DeviceTypeID, d.Protocol, state,
		boolToInt(d.Online), now.Format(time.RFC3339), d.ID); err != nil {
		return fmt.Errorf("updating child device %s: %w", d.ID, err)
	}
	d.CreatedAt = old.CreatedAt
	d.UpdatedAt = now

	r.changes.Publish(ctx, realtime.Updated(Table, old, d))
	return nil
}

// Delete removes a device.
func (r *SQLiteRepository) Delete(ctx context.Context, userID, id string) error {
	old, err := r.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "DELETE FROM child_devices WHERE user_id = ? AND id = ?", userID, id); err != nil {
		return fmt.Errorf("deleting child device %s: %w", id, err)
	}
	r.changes.Publish(ctx, realtime.Deleted(Table, old))
	return nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying child devices: %w", err)
	}
	defer rows.Close()

	devices := []Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning child device row: %w", err)
		}
		devices = append(devices, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating child device rows: %w", err)
	}
	return devices, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDevice(sc scanner) (*Device, error) {
	var d Device
	var stateJSON, createdAt, updatedAt string
	var online int

	if err := sc.Scan(&d.ID, &d.UserID, &d.Name, &d.DeviceTypeID, &d.Protocol, &stateJSON, &online,
		&createdAt, &updatedAt); err != nil {
		return nil, err
	}
	d.State = make(map[string]any)
	if stateJSON != "" {
		if err := json.Unmarshal([]byte(stateJSON), &d.State); err != nil {
			return nil, fmt.Errorf("decoding state for %s: %w", d.ID, err)
		}
	}
	d.Online = online != 0
	d.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // zero time on malformed value
	d.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // zero time on malformed value
	return &d, nil
}

func marshalState(m map[string]any) (string, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encoding device state: %w", err)
	}
	return string(b), nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
