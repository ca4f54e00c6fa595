package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
)

const eventColumns = `
	e.id, e.event_uid, e.employee_id, l.name, e.date, e.recorded_at, e.movement, e.status`

const eventJoin = `
	FROM attendance_events e
	JOIN locations l ON l.id = e.location_id`

func (s *Store) InsertEvent(ctx context.Context, ev attendance.Event) (attendance.Event, error) {
	locationID, err := s.LocationIDByName(ctx, ev.Site)
	if err != nil {
		return attendance.Event{}, err
	}
	q := GetQuerier(ctx, s.db)
	err = q.QueryRow(ctx, `
		INSERT INTO attendance_events
			(event_uid, employee_id, location_id, date, recorded_at, movement, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		ev.UID, ev.EmployeeID, locationID, ev.Date, ev.RecordedAt,
		string(ev.Movement), string(ev.Status),
	).Scan(&ev.ID)
	if err != nil {
		return attendance.Event{}, fmt.Errorf("insert event: %w", err)
	}
	// An event written straight to the remote never waits for sync.
	ev.Synchronized = true
	return ev, nil
}

func (s *Store) LastEventOn(ctx context.Context, employeeID int64, date time.Time) (*attendance.Event, error) {
	q := GetQuerier(ctx, s.db)
	query := `SELECT` + eventColumns + eventJoin + `
		WHERE e.employee_id = $1 AND e.date = $2
		ORDER BY e.recorded_at DESC
		LIMIT 1`
	ev, err := scanEvent(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("last event: %w", err)
	}
	return &ev, nil
}

func (s *Store) HasMovementOn(ctx context.Context, employeeID int64, date time.Time, m attendance.Movement) (bool, error) {
	return s.exists(ctx, `
		SELECT COUNT(1) FROM attendance_events
		WHERE employee_id = $1 AND date = $2 AND movement = $3`,
		employeeID, date, string(m))
}

func (s *Store) HasStatusOn(ctx context.Context, employeeID int64, date time.Time, st attendance.Status) (bool, error) {
	return s.exists(ctx, `
		SELECT COUNT(1) FROM attendance_events
		WHERE employee_id = $1 AND date = $2 AND status = $3`,
		employeeID, date, string(st))
}

func (s *Store) exists(ctx context.Context, query string, args ...any) (bool, error) {
	q := GetQuerier(ctx, s.db)
	var count int
	if err := q.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("exists query: %w", err)
	}
	return count > 0, nil
}

func (s *Store) DayRecords(ctx context.Context, date time.Time) ([]attendance.DayRecord, error) {
	q := GetQuerier(ctx, s.db)
	rows, err := q.Query(ctx, `
		SELECT`+eventColumns+`, emp.full_name, emp.photo_path`+eventJoin+`
		JOIN employees emp ON emp.id = e.employee_id
		WHERE e.date = $1
		ORDER BY e.recorded_at DESC`,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("day records: %w", err)
	}
	defer rows.Close()

	var recs []attendance.DayRecord
	for rows.Next() {
		var rec attendance.DayRecord
		var movement, status string
		if err := rows.Scan(
			&rec.Event.ID, &rec.Event.UID, &rec.Event.EmployeeID, &rec.Event.Site,
			&rec.Event.Date, &rec.Event.RecordedAt, &movement, &status,
			&rec.EmployeeName, &rec.PhotoPath,
		); err != nil {
			return nil, fmt.Errorf("day records: %w", err)
		}
		rec.Event.Movement = attendance.Movement(movement)
		rec.Event.Status = attendance.Status(status)
		rec.Event.Synchronized = true
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (s *Store) EventsBetween(ctx context.Context, from, to time.Time) ([]attendance.Event, error) {
	q := GetQuerier(ctx, s.db)
	query := `SELECT` + eventColumns + eventJoin + `
		WHERE e.date >= $1 AND e.date <= $2
		ORDER BY e.date, e.recorded_at`
	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("events between: %w", err)
	}
	defer rows.Close()

	var evs []attendance.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("events between: %w", err)
		}
		evs = append(evs, ev)
	}
	return evs, rows.Err()
}

func (s *Store) DeleteEvents(ctx context.Context, employeeID int64, scope attendance.DeleteScope) (int64, error) {
	var (
		where string
		args  []any
	)
	switch scope.Kind {
	case attendance.ScopeDay:
		where = `employee_id = $1 AND date = $2`
		args = []any{employeeID, scope.Date}
	case attendance.ScopeMonth:
		from := time.Date(scope.Year, scope.Month, 1, 0, 0, 0, 0, time.Local)
		where = `employee_id = $1 AND date >= $2 AND date < $3`
		args = []any{employeeID, from, from.AddDate(0, 1, 0)}
	case attendance.ScopeAll:
		where = `employee_id = $1`
		args = []any{employeeID}
	default:
		return 0, fmt.Errorf("unknown delete scope %d", scope.Kind)
	}

	q := GetQuerier(ctx, s.db)
	tag, err := q.Exec(ctx, `DELETE FROM attendance_events WHERE `+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete events: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (s *Store) MonthlySummary(ctx context.Context, employeeID int64, year int, month time.Month) ([]attendance.DaySummary, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.Local)
	q := GetQuerier(ctx, s.db)
	rows, err := q.Query(ctx, `
		SELECT date,
		       MIN(recorded_at) FILTER (WHERE movement = 'ENTRY'),
		       MAX(recorded_at) FILTER (WHERE movement = 'EXIT'),
		       MIN(status) FILTER (WHERE movement = 'ENTRY'),
		       MAX(status) FILTER (WHERE movement = 'EXIT')
		FROM attendance_events
		WHERE employee_id = $1 AND date >= $2 AND date < $3
		GROUP BY date
		ORDER BY date`,
		employeeID, from, from.AddDate(0, 1, 0),
	)
	if err != nil {
		return nil, fmt.Errorf("monthly summary: %w", err)
	}
	defer rows.Close()

	var out []attendance.DaySummary
	for rows.Next() {
		var row attendance.DaySummary
		var entryStat, exitStat *string
		if err := rows.Scan(&row.Date, &row.FirstEntry, &row.LastExit, &entryStat, &exitStat); err != nil {
			return nil, fmt.Errorf("monthly summary: %w", err)
		}
		if entryStat != nil {
			st := attendance.Status(*entryStat)
			row.EntryStatus = &st
		}
		if exitStat != nil {
			st := attendance.Status(*exitStat)
			row.ExitStatus = &st
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func scanEvent(row rowScanner) (attendance.Event, error) {
	var ev attendance.Event
	var movement, status string
	if err := row.Scan(
		&ev.ID, &ev.UID, &ev.EmployeeID, &ev.Site,
		&ev.Date, &ev.RecordedAt, &movement, &status,
	); err != nil {
		return attendance.Event{}, err
	}
	ev.Movement = attendance.Movement(movement)
	ev.Status = attendance.Status(status)
	ev.Synchronized = true
	return ev, nil
}
