package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
)

const eventColumns = `
	id, event_uid, employee_id, site, date, recorded_at, movement, status, synchronized`

// InsertEvent writes the event with synchronized = false; the sync
// coordinator flips the flag once the event has been pushed upstream.
func (s *Store) InsertEvent(ctx context.Context, ev attendance.Event) (attendance.Event, error) {
	ev.Synchronized = false
	err := s.withWriteTx(func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO attendance_events
				(event_uid, employee_id, site, date, recorded_at, movement, status, synchronized)
			VALUES (?, ?, ?, ?, ?, ?, ?, 0)`,
			ev.UID, ev.EmployeeID, ev.Site,
			ev.Date.Format(dateLayout), ev.RecordedAt.Format(timeLayout),
			string(ev.Movement), string(ev.Status),
		)
		if err != nil {
			return err
		}
		ev.ID, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return attendance.Event{}, fmt.Errorf("insert event: %w", err)
	}
	return ev, nil
}

func (s *Store) LastEventOn(ctx context.Context, employeeID int64, date time.Time) (*attendance.Event, error) {
	query := `SELECT` + eventColumns + `
		FROM attendance_events
		WHERE employee_id = ? AND date = ?
		ORDER BY recorded_at DESC
		LIMIT 1`
	ev, err := scanEvent(s.db.QueryRowContext(ctx, query, employeeID, date.Format(dateLayout)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last event: %w", err)
	}
	return &ev, nil
}

func (s *Store) HasMovementOn(ctx context.Context, employeeID int64, date time.Time, m attendance.Movement) (bool, error) {
	return s.exists(ctx, `
		SELECT COUNT(1) FROM attendance_events
		WHERE employee_id = ? AND date = ? AND movement = ?`,
		employeeID, date.Format(dateLayout), string(m))
}

func (s *Store) HasStatusOn(ctx context.Context, employeeID int64, date time.Time, st attendance.Status) (bool, error) {
	return s.exists(ctx, `
		SELECT COUNT(1) FROM attendance_events
		WHERE employee_id = ? AND date = ? AND status = ?`,
		employeeID, date.Format(dateLayout), string(st))
}

func (s *Store) exists(ctx context.Context, query string, args ...any) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("exists query: %w", err)
	}
	return count > 0, nil
}

func (s *Store) DayRecords(ctx context.Context, date time.Time) ([]attendance.DayRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.event_uid, e.employee_id, e.site, e.date, e.recorded_at,
		       e.movement, e.status, e.synchronized,
		       emp.full_name, emp.photo_path
		FROM attendance_events e
		JOIN employees emp ON emp.id = e.employee_id
		WHERE e.date = ?
		ORDER BY e.recorded_at DESC`,
		date.Format(dateLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("day records: %w", err)
	}
	defer rows.Close()

	var recs []attendance.DayRecord
	for rows.Next() {
		var (
			rec   attendance.DayRecord
			photo sql.NullString
		)
		var dateRaw, recordedRaw, movement, status string
		var synced int
		if err := rows.Scan(
			&rec.Event.ID, &rec.Event.UID, &rec.Event.EmployeeID, &rec.Event.Site,
			&dateRaw, &recordedRaw, &movement, &status, &synced,
			&rec.EmployeeName, &photo,
		); err != nil {
			return nil, fmt.Errorf("day records: %w", err)
		}
		if err := fillEventTimes(&rec.Event, dateRaw, recordedRaw, movement, status, synced); err != nil {
			return nil, err
		}
		if photo.Valid {
			rec.PhotoPath = &photo.String
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *Store) EventsBetween(ctx context.Context, from, to time.Time) ([]attendance.Event, error) {
	query := `SELECT` + eventColumns + `
		FROM attendance_events
		WHERE date >= ? AND date <= ?
		ORDER BY date, recorded_at`
	rows, err := s.db.QueryContext(ctx, query, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("events between: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func (s *Store) DeleteEvents(ctx context.Context, employeeID int64, scope attendance.DeleteScope) (int64, error) {
	var (
		where string
		args  []any
	)
	switch scope.Kind {
	case attendance.ScopeDay:
		where = `employee_id = ? AND date = ?`
		args = []any{employeeID, scope.Date.Format(dateLayout)}
	case attendance.ScopeMonth:
		where = `employee_id = ? AND substr(date, 1, 7) = ?`
		args = []any{employeeID, fmt.Sprintf("%04d-%02d", scope.Year, scope.Month)}
	case attendance.ScopeAll:
		where = `employee_id = ?`
		args = []any{employeeID}
	default:
		return 0, fmt.Errorf("unknown delete scope %d", scope.Kind)
	}

	var deleted int64
	err := s.withWriteTx(func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM attendance_events WHERE `+where, args...)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}
	return deleted, nil
}

func (s *Store) MonthlySummary(ctx context.Context, employeeID int64, year int, month time.Month) ([]attendance.DaySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date,
		       MIN(CASE WHEN movement = 'ENTRY' THEN recorded_at END),
		       MAX(CASE WHEN movement = 'EXIT'  THEN recorded_at END),
		       MIN(CASE WHEN movement = 'ENTRY' THEN status END),
		       MAX(CASE WHEN movement = 'EXIT'  THEN status END)
		FROM attendance_events
		WHERE employee_id = ? AND substr(date, 1, 7) = ?
		GROUP BY date
		ORDER BY date`,
		employeeID, fmt.Sprintf("%04d-%02d", year, month),
	)
	if err != nil {
		return nil, fmt.Errorf("monthly summary: %w", err)
	}
	defer rows.Close()

	var out []attendance.DaySummary
	for rows.Next() {
		var dateRaw string
		var firstIn, lastOut, entryStat, exitStat sql.NullString
		if err := rows.Scan(&dateRaw, &firstIn, &lastOut, &entryStat, &exitStat); err != nil {
			return nil, fmt.Errorf("monthly summary: %w", err)
		}
		var row attendance.DaySummary
		if row.Date, err = time.ParseInLocation(dateLayout, dateRaw, time.Local); err != nil {
			return nil, fmt.Errorf("monthly summary: %w", err)
		}
		if row.FirstEntry, err = parseOptionalTime(firstIn); err != nil {
			return nil, err
		}
		if row.LastExit, err = parseOptionalTime(lastOut); err != nil {
			return nil, err
		}
		if entryStat.Valid {
			st := attendance.Status(entryStat.String)
			row.EntryStatus = &st
		}
		if exitStat.Valid {
			st := attendance.Status(exitStat.String)
			row.ExitStatus = &st
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// UnsyncedEvents returns local events not yet pushed upstream, oldest
// first so the remote receives them in recorded order.
func (s *Store) UnsyncedEvents(ctx context.Context) ([]attendance.Event, error) {
	query := `SELECT` + eventColumns + `
		FROM attendance_events
		WHERE synchronized = 0
		ORDER BY recorded_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("unsynced events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

// MarkSynchronized flips the flag for the given event ids, all or
// nothing. Called only after the remote batch has committed.
func (s *Store) MarkSynchronized(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return s.withWriteTx(func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`UPDATE attendance_events SET synchronized = 1 WHERE id IN (`+placeholders+`)`,
			args...,
		)
		if err != nil {
			return fmt.Errorf("mark synchronized: %w", err)
		}
		return nil
	})
}

func collectEvents(rows *sql.Rows) ([]attendance.Event, error) {
	var evs []attendance.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		evs = append(evs, ev)
	}
	return evs, rows.Err()
}

func scanEvent(row rowScanner) (attendance.Event, error) {
	var ev attendance.Event
	var dateRaw, recordedRaw, movement, status string
	var synced int
	if err := row.Scan(
		&ev.ID, &ev.UID, &ev.EmployeeID, &ev.Site,
		&dateRaw, &recordedRaw, &movement, &status, &synced,
	); err != nil {
		return attendance.Event{}, err
	}
	if err := fillEventTimes(&ev, dateRaw, recordedRaw, movement, status, synced); err != nil {
		return attendance.Event{}, err
	}
	return ev, nil
}

func fillEventTimes(ev *attendance.Event, dateRaw, recordedRaw, movement, status string, synced int) error {
	var err error
	if ev.Date, err = time.ParseInLocation(dateLayout, dateRaw, time.Local); err != nil {
		return fmt.Errorf("parse event date %q: %w", dateRaw, err)
	}
	if ev.RecordedAt, err = time.Parse(timeLayout, recordedRaw); err != nil {
		return fmt.Errorf("parse event time %q: %w", recordedRaw, err)
	}
	ev.Movement = attendance.Movement(movement)
	ev.Status = attendance.Status(status)
	ev.Synchronized = synced != 0
	return nil
}

func parseOptionalTime(v sql.NullString) (*time.Time, error) {
	if !v.Valid {
		return nil, nil
	}
	t, err := time.Parse(timeLayout, v.String)
	if err != nil {
		return nil, fmt.Errorf("parse time %q: %w", v.String, err)
	}
	return &t, nil
}
