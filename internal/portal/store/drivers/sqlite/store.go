package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/store"
	_ "modernc.org/sqlite"
)

type Store struct {
	db  *sql.DB
	dsn string
}

var _ store.KV = (*Store)(nil)

// NewStore opens the database at dsn. Call ApplyMigrations before use.
func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// One writer at a time; the session is single-user.
	db.SetMaxOpenConns(1)

	return &Store{db: db, dsn: dsn}, nil
}

// DSNForFile builds the DSN for a database file with WAL and a busy timeout,
// so a CLI invocation and a running portal can share it.
func DSNForFile(path string) string {
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if err != nil {
		return "", mapNotFound(err)
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value,
	)
	return err
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key)
	return err
}

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}
