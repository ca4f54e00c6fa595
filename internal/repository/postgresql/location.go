package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
)

// LocationIDByName resolves a terminal site name to the central
// locations table. Misses are not cached so a location added centrally
// becomes visible on the next lookup.
func (s *Store) LocationIDByName(ctx context.Context, name string) (int64, error) {
	s.locMu.Lock()
	id, ok := s.locations[name]
	s.locMu.Unlock()
	if ok {
		return id, nil
	}

	q := GetQuerier(ctx, s.db)
	err := q.QueryRow(ctx, `SELECT id FROM locations WHERE name = $1`, name).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: %q", attendance.ErrUnknownSite, name)
		}
		return 0, fmt.Errorf("location by name: %w", err)
	}

	s.locMu.Lock()
	s.locations[name] = id
	s.locMu.Unlock()
	return id, nil
}

// PushEvents uploads locally recorded events in a single transaction
// and returns the local ids that are now safely on the remote. The
// event uid makes the insert idempotent, so an event that was uploaded
// on a previous cycle but never marked locally counts as pushed, not
// as a conflict. Events whose site has no central location are skipped
// and reported, never dropped locally.
func (s *Store) PushEvents(ctx context.Context, events []attendance.Event) (pushed, skipped []int64, err error) {
	err = WithTransaction(ctx, s.db, func(ctx context.Context) error {
		q := GetQuerier(ctx, s.db)
		for _, ev := range events {
			locationID, err := s.LocationIDByName(ctx, ev.Site)
			if err != nil {
				if errors.Is(err, attendance.ErrUnknownSite) {
					skipped = append(skipped, ev.ID)
					continue
				}
				return err
			}
			_, err = q.Exec(ctx, `
				INSERT INTO attendance_events
					(event_uid, employee_id, location_id, date, recorded_at, movement, status)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
				ON CONFLICT (event_uid) DO NOTHING`,
				ev.UID, ev.EmployeeID, locationID, ev.Date, ev.RecordedAt,
				string(ev.Movement), string(ev.Status),
			)
			if err != nil {
				return fmt.Errorf("push event %s: %w", ev.UID, err)
			}
			pushed = append(pushed, ev.ID)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return pushed, skipped, nil
}
