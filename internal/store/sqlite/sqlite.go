// Package sqlite implements the store contracts on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/example/meeting-matcher/internal/store"
)

// Store backs the matching engine's collaborator contracts with a SQLite
// database. It implements store.Users, store.AvailabilityStore,
// store.FriendDirectory, and store.CredentialStore.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if necessary) the database at the given DSN.
func Open(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: dsn is required")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: failed to open database: %w", err)
	}
	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent request handling.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping verifies the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Migrate applies the schema.
func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			display_name TEXT NOT NULL,
			availability_json TEXT,
			availability_updated_at TEXT,
			google_tokens_json TEXT,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS friends (
			owner_id TEXT NOT NULL,
			friend_id TEXT NOT NULL,
			display_name TEXT NOT NULL,
			friend_type TEXT NOT NULL,
			linked_user_id TEXT,
			created_at TEXT NOT NULL,
			PRIMARY KEY (owner_id, friend_id),
			FOREIGN KEY (owner_id) REFERENCES users(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_friends_owner ON friends(owner_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite: migration failed: %w", err)
		}
	}
	return nil
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return store.ErrNotFound
	case strings.Contains(err.Error(), "UNIQUE constraint failed"):
		return store.ErrDuplicate
	default:
		return err
	}
}
