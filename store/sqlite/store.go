// Package sqlite implements store.Store on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"ai_creation_broker/creation"
	"ai_creation_broker/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path and migrates it.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &Store{db: db}, nil
}

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS creations (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			prompt TEXT NOT NULL,
			content TEXT NOT NULL,
			type TEXT NOT NULL,
			publish INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_creations_user ON creations(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_creations_publish ON creations(publish, created_at)`,
		`CREATE TABLE IF NOT EXISTS user_usage (
			user_id TEXT PRIMARY KEY,
			free_usage INTEGER NOT NULL DEFAULT 0,
			updated_at INTEGER NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Insert(ctx context.Context, c *creation.Creation) error {
	if err := c.Validate(); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO creations (id, user_id, prompt, content, type, publish, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Prompt, c.Content, string(c.Type), c.Publish, c.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert creation: %w", err)
	}
	return nil
}

const selectCreation = `SELECT id, user_id, prompt, content, type, publish, created_at FROM creations`

func (s *Store) ListByUser(ctx context.Context, userID string, opts creation.ListOpts) ([]*creation.Creation, error) {
	opts = opts.Normalize()
	return s.query(ctx,
		selectCreation+` WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		userID, opts.Limit, opts.Offset,
	)
}

func (s *Store) ListPublished(ctx context.Context, opts creation.ListOpts) ([]*creation.Creation, error) {
	opts = opts.Normalize()
	return s.query(ctx,
		selectCreation+` WHERE publish = 1 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		opts.Limit, opts.Offset,
	)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]*creation.Creation, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list creations: %w", err)
	}
	defer rows.Close()

	var out []*creation.Creation
	for rows.Next() {
		var (
			c       creation.Creation
			typ     string
			created int64
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Prompt, &c.Content, &typ, &c.Publish, &created); err != nil {
			return nil, err
		}
		c.Type = creation.Type(typ)
		c.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, &c)
	}
	return out, rows.Err()
}

func (s *Store) FreeUsage(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT free_usage FROM user_usage WHERE user_id = ?`, userID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("sqlite: free usage: %w", err)
	}
	return n, nil
}

func (s *Store) UpdateFreeUsage(ctx context.Context, userID string, value int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_usage (user_id, free_usage, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET free_usage = excluded.free_usage, updated_at = excluded.updated_at`,
		userID, value, time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: update free usage: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
