package notification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-home/internal/realtime"
)

// Table is the notifications table name on the realtime feed.
const Table = "notifications"

// ReadsTable is the read receipts table name on the realtime feed.
const ReadsTable = "notification_reads"

const defaultListLimit = 50

// Repository defines the interface for notification persistence.
type Repository interface {
	List(ctx context.Context, userID string, limit int) ([]Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	Create(ctx context.Context, n *Notification) error
	MarkRead(ctx context.Context, userID, id string) error
	MarkAllRead(ctx context.Context, userID string) (int, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db      *sql.DB
	changes realtime.Publisher
}

// NewSQLiteRepository creates a new SQLite-backed notification repository.
func NewSQLiteRepository(db *sql.DB, changes realtime.Publisher) *SQLiteRepository {
	if changes == nil {
		changes = realtime.NopPublisher{}
	}
	return &SQLiteRepository{db: db, changes: changes}
}

// List returns the user's most recent notifications, newest first, with
// Read computed from the user's read receipts.
func (r *SQLiteRepository) List(ctx context.Context, userID string, limit int) ([]Notification, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	const query = `SELECT n.id, n.user_id, n.type, n.title, n.message, n.created_at,
			nr.notification_id IS NOT NULL AS is_read
		FROM notifications n
		LEFT JOIN notification_reads nr ON nr.notification_id = n.id AND nr.user_id = ?
		WHERE n.user_id = ?
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, userID, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	list := []Notification{}
	for rows.Next() {
		var n Notification
		var typ, createdAt string
		var read int
		if err := rows.Scan(&n.ID, &n.UserID, &typ, &n.Title, &n.Message, &createdAt, &read); err != nil {
			return nil, fmt.Errorf("scanning notification row: %w", err)
		}
		n.Type = Type(typ)
		n.Read = read != 0
		n.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // zero time on malformed value
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notification rows: %w", err)
	}
	return list, nil
}

// UnreadCount returns how many of the user's notifications have no read
// receipt.
func (r *SQLiteRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications n
		LEFT JOIN notification_reads nr ON nr.notification_id = n.id AND nr.user_id = ?
		WHERE n.user_id = ? AND nr.notification_id IS NULL`
	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting unread notifications: %w", err)
	}
	return count, nil
}

// Create inserts a notification. ID and CreatedAt are generated when empty.
func (r *SQLiteRepository) Create(ctx context.Context, n *Notification) error {
	if n.UserID == "" || strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: user_id and title are required", ErrInvalidNotification)
	}
	switch n.Type {
	case TypeSystem, TypeEnergy, TypeSafety:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidNotification, n.Type)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC().Truncate(time.Second)
	}

	const query = `INSERT INTO notifications (id, user_id, type, title, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, n.ID, n.UserID, string(n.Type), n.Title, n.Message,
		n.CreatedAt.Format(time.RFC3339)); err != nil {
		return fmt.Errorf("inserting notification: %w", err)
	}

	r.changes.Publish(ctx, realtime.Inserted(Table, n))
	return nil
}

type readReceipt struct {
	UserID         string `json:"user_id"`
	NotificationID string `json:"notification_id"`
}

// MarkRead records a read receipt. Marking an already read notification
// is a no-op.
func (r *SQLiteRepository) MarkRead(ctx context.Context, userID, id string) error {
	var exists int
	err := r.db.QueryRowContext(ctx, "SELECT 1 FROM notifications WHERE id = ? AND user_id = ?", id, userID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotificationNotFound
	}
	if err != nil {
		return fmt.Errorf("looking up notification %s: %w", id, err)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO notification_reads (user_id, notification_id) VALUES (?, ?)`, userID, id)
	if err != nil {
		return fmt.Errorf("marking notification %s read: %w", id, err)
	}
	if n, _ := result.RowsAffected(); n > 0 { //nolint:errcheck // SQLite always supports RowsAffected
		r.changes.Publish(ctx, realtime.Inserted(ReadsTable, readReceipt{UserID: userID, NotificationID: id}))
	}
	return nil
}

// MarkAllRead records read receipts for every unread notification of the
// user and returns how many were marked.
func (r *SQLiteRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	const query = `INSERT OR IGNORE INTO notification_reads (user_id, notification_id)
		SELECT ?, id FROM notifications WHERE user_id = ?`
	result, err := r.db.ExecContext(ctx, query, userID, userID)
	if err != nil {
		return 0, fmt.Errorf("marking all notifications read: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // SQLite always supports RowsAffected
	if n > 0 {
		r.changes.Publish(ctx, realtime.Inserted(ReadsTable, readReceipt{UserID: userID}))
	}
	return int(n), nil
}
