// Package postgresql implements the remote attendance store against
// the central server's database. The schema is owned and migrated by
// the central server; this package only reads and writes it.
package postgresql

import (
	"context"
	"sync"

	"github.com/pointrec/attendance-terminal/internal/pkg/database"
)

type Store struct {
	db *database.DB

	// name -> id cache for the locations table; site names are stable.
	locMu     sync.Mutex
	locations map[string]int64
}

func NewStore(db *database.DB) *Store {
	return &Store{db: db, locations: make(map[string]int64)}
}

func (s *Store) Name() string { return "remote" }

// Ping is the sync coordinator's reachability probe.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func (s *Store) Close() {
	s.db.Pool.Close()
}
