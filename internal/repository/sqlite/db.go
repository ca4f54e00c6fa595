// Package sqlite implements the local attendance store. It is always
// available, authoritative while the terminal is offline, and the only
// place the per-event synchronized flag lives.
package sqlite

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "2006-01-02T15:04:05.999999999Z07:00" // RFC 3339 with nanos
)

// Store wraps the local database handle. SQLite allows one writer at a
// time; mu serializes writes from the reader loops, the sweep job and
// the sync coordinator so they never collide mid-transaction.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the local database, switches it to
// WAL so readers do not block the writer, and applies pending
// migrations.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open local db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping local db: %w", err)
	}

	s := &Store{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Name() string { return "local" }

func (s *Store) Close() error { return s.db.Close() }

// withWriteTx runs fn inside a transaction under the write lock.
func (s *Store) withWriteTx(fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin local tx: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback error: %v (original error: %w)", rbErr, err)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit local tx: %w", err)
	}
	return nil
}
