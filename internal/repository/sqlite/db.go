// Package sqlite persists chat sessions and messages. Each user owns an
// isolated database file inside their asset directory; connections are opened
// lazily and cached per user.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// PathFunc resolves the database file path for a user.
type PathFunc func(username string) (string, error)

// Store hands out per-user database handles.
type Store struct {
	pathFor PathFunc

	mu  sync.Mutex
	dbs map[string]*sql.DB
}

// NewStore creates a store that locates each user's database via pathFor.
func NewStore(pathFor PathFunc) *Store {
	return &Store{
		pathFor: pathFor,
		dbs:     make(map[string]*sql.DB),
	}
}

// db returns the user's database handle, opening and migrating it on first
// use. The handle is capped at one connection: sqlite allows one writer and
// every call site both reads and writes.
func (s *Store) db(ctx context.Context, username string) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if db, ok := s.dbs[username]; ok {
		return db, nil
	}

	path, err := s.pathFor(username)
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open chat database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to chat database: %w", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate chat database: %w", err)
	}

	s.dbs[username] = db
	return db, nil
}

// Close closes every cached database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var firstErr error
	for username, db := range s.dbs {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.dbs, username)
	}
	return firstErr
}
