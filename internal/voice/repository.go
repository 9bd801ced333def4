package voice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Repository defines the interface for voice command persistence.
type Repository interface {
	List(ctx context.Context) ([]Command, error)
	ListByCategory(ctx context.Context, category string) ([]Command, error)
	Create(ctx context.Context, c *Command) error
	Seed(ctx context.Context, commands []Command) (int, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed voice command repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// List returns every command ordered by category and keyword.
func (r *SQLiteRepository) List(ctx context.Context) ([]Command, error) {
	return r.query(ctx, `SELECT id, keyword, category, action, response FROM voice_commands ORDER BY category, keyword`)
}

// ListByCategory returns the commands of one category.
func (r *SQLiteRepository) ListByCategory(ctx context.Context, category string) ([]Command, error) {
	return r.query(ctx, `SELECT id, keyword, category, action, response FROM voice_commands
		WHERE category = ? ORDER BY keyword`, category)
}

// Create inserts a command. Keywords are stored lower-cased.
func (r *SQLiteRepository) Create(ctx context.Context, c *Command) error {
	c.Keyword = strings.ToLower(strings.TrimSpace(c.Keyword))
	if c.Keyword == "" || c.Category == "" {
		return fmt.Errorf("%w: keyword and category are required", ErrInvalidCommand)
	}
	if c.ID == "" {
		c.ID = "vc-" + uuid.NewString()[:8]
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO voice_commands (id, keyword, category, action, response) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Keyword, c.Category, c.Action, c.Response)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrCommandExists
		}
		return fmt.Errorf("inserting voice command %q: %w", c.Keyword, err)
	}
	return nil
}

// Seed inserts commands whose keyword is not yet registered and returns
// how many were added.
func (r *SQLiteRepository) Seed(ctx context.Context, commands []Command) (int, error) {
	added := 0
	for _, c := range commands {
		err := r.Create(ctx, &c)
		switch {
		case err == nil:
			added++
		case errors.Is(err, ErrCommandExists):
		default:
			return added, err
		}
	}
	return added, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]Command, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying voice commands: %w", err)
	}
	defer rows.Close()

	cmds := []Command{}
	for rows.Next() {
		var c Command
		if err := rows.Scan(&c.ID, &c.Keyword, &c.Category, &c.Action, &c.Response); err != nil {
			return nil, fmt.Errorf("scanning voice command: %w", err)
		}
		cmds = append(cmds, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating voice commands: %w", err)
	}
	return cmds, nil
}
