package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
	"github.com/pointrec/attendance-terminal/internal/domain/employee"
	"github.com/pointrec/attendance-terminal/internal/domain/schedule"
)

// Store routes every operation to the currently selected backend. The
// sync coordinator flips the selection after each reachability probe;
// a failed remote operation flips it back to local immediately so the
// next tap does not wait on a dead connection.
type Store struct {
	local  Backend
	remote Backend // nil in offline-only deployments
	online atomic.Bool
}

func New(local, remote Backend) *Store {
	return &Store{local: local, remote: remote}
}

// Backend returns the backend currently serving reads and writes.
func (s *Store) Backend() Backend {
	if s.remote != nil && s.online.Load() {
		return s.remote
	}
	return s.local
}

func (s *Store) Local() Backend  { return s.local }
func (s *Store) Remote() Backend { return s.remote }

func (s *Store) Online() bool { return s.remote != nil && s.online.Load() }

// SetOnline swaps the current backend. Only the sync coordinator calls
// this with true; anything observing a remote failure may call it with
// false.
func (s *Store) SetOnline(online bool) {
	s.online.Store(online)
}

// noteFailure demotes to the local backend after a non-domain error
// from the remote one.
func (s *Store) noteFailure(b Backend, err error) error {
	if err == nil || b != s.remote {
		return err
	}
	if errors.Is(err, employee.ErrEmployeeNotFound) ||
		errors.Is(err, employee.ErrDuplicateCard) ||
		errors.Is(err, attendance.ErrEventNotFound) {
		return err
	}
	s.SetOnline(false)
	return fmt.Errorf("%w: %v", attendance.ErrBackendUnavailable, err)
}

// ResolveEmployeeByCard normalizes the raw card uid and looks it up on
// the current backend.
func (s *Store) ResolveEmployeeByCard(ctx context.Context, rawUID string) (employee.Employee, error) {
	uid := employee.NormalizeCardUID(rawUID)
	if uid == "" {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	b := s.Backend()
	emp, err := b.EmployeeByCard(ctx, uid)
	if err != nil {
		return employee.Employee{}, s.noteFailure(b, err)
	}
	return emp, nil
}

// ResolveSchedule loads the employee and computes the effective
// (entry, exit) pair for date. Exemption is read from the base pair.
func (s *Store) ResolveSchedule(ctx context.Context, employeeID int64, date time.Time) (entry, exit schedule.TimeOfDay, exempt bool, err error) {
	b := s.Backend()
	emp, err := b.EmployeeByID(ctx, employeeID)
	if err != nil {
		return 0, 0, false, s.noteFailure(b, err)
	}
	entry, exit = schedule.Resolve(emp.Schedule, date)
	return entry, exit, emp.Schedule.Exempt(), nil
}

// InsertEvent builds and persists an event on the current backend. The
// uuid doubles as the remote idempotency key, so an event written
// locally keeps the same identity when it is pushed upstream later.
func (s *Store) InsertEvent(ctx context.Context, employeeID int64, site string, movement attendance.Movement, status attendance.Status, at time.Time) (attendance.Event, error) {
	ev := attendance.Event{
		UID:        uuid.NewString(),
		EmployeeID: employeeID,
		Site:       site,
		Date:       civilDate(at),
		RecordedAt: at,
		Movement:   movement,
		Status:     status,
	}
	b := s.Backend()
	created, err := b.InsertEvent(ctx, ev)
	if err != nil {
		return attendance.Event{}, s.noteFailure(b, err)
	}
	return created, nil
}

// LastEventOn is the classifier's consistent "most recent event today"
// read; it always goes to the same backend a following insert will use.
func (s *Store) LastEventOn(ctx context.Context, employeeID int64, date time.Time) (*attendance.Event, error) {
	b := s.Backend()
	ev, err := b.LastEventOn(ctx, employeeID, civilDate(date))
	if err != nil {
		return nil, s.noteFailure(b, err)
	}
	return ev, nil
}

// CreateEmployee validates the schedule profile and the card uniqueness
// invariant before touching the backend write path.
func (s *Store) CreateEmployee(ctx context.Context, emp employee.Employee) (employee.Employee, error) {
	if emp.FullName == "" {
		return employee.Employee{}, employee.ErrNameRequired
	}
	if err := emp.Schedule.Validate(); err != nil {
		return employee.Employee{}, err
	}
	if err := s.normalizeCard(&emp); err != nil {
		return employee.Employee{}, err
	}
	b := s.Backend()
	if err := s.checkCard(ctx, b, emp.CardUID, 0); err != nil {
		return employee.Employee{}, err
	}
	created, err := b.CreateEmployee(ctx, emp)
	if err != nil {
		return employee.Employee{}, s.noteFailure(b, err)
	}
	return created, nil
}

func (s *Store) UpdateEmployee(ctx context.Context, emp employee.Employee) error {
	if emp.FullName == "" {
		return employee.ErrNameRequired
	}
	if err := emp.Schedule.Validate(); err != nil {
		return err
	}
	if err := s.normalizeCard(&emp); err != nil {
		return err
	}
	b := s.Backend()
	if err := s.checkCard(ctx, b, emp.CardUID, emp.ID); err != nil {
		return err
	}
	return s.noteFailure(b, b.UpdateEmployee(ctx, emp))
}

func (s *Store) DeactivateEmployee(ctx context.Context, id int64) error {
	b := s.Backend()
	return s.noteFailure(b, b.DeactivateEmployee(ctx, id))
}

func (s *Store) ActiveEmployees(ctx context.Context) ([]employee.Employee, error) {
	b := s.Backend()
	emps, err := b.ActiveEmployees(ctx)
	if err != nil {
		return nil, s.noteFailure(b, err)
	}
	return emps, nil
}

func (s *Store) EmployeeByID(ctx context.Context, id int64) (employee.Employee, error) {
	b := s.Backend()
	emp, err := b.EmployeeByID(ctx, id)
	if err != nil {
		return employee.Employee{}, s.noteFailure(b, err)
	}
	return emp, nil
}

func (s *Store) DeleteEvents(ctx context.Context, employeeID int64, scope attendance.DeleteScope) (int64, error) {
	b := s.Backend()
	n, err := b.DeleteEvents(ctx, employeeID, scope)
	if err != nil {
		return 0, s.noteFailure(b, err)
	}
	return n, nil
}

func (s *Store) DayRecords(ctx context.Context, date time.Time) ([]attendance.DayRecord, error) {
	b := s.Backend()
	recs, err := b.DayRecords(ctx, civilDate(date))
	if err != nil {
		return nil, s.noteFailure(b, err)
	}
	return recs, nil
}

func (s *Store) EventsBetween(ctx context.Context, from, to time.Time) ([]attendance.Event, error) {
	b := s.Backend()
	evs, err := b.EventsBetween(ctx, civilDate(from), civilDate(to))
	if err != nil {
		return nil, s.noteFailure(b, err)
	}
	return evs, nil
}

func (s *Store) MonthlySummary(ctx context.Context, employeeID int64, year int, month time.Month) ([]attendance.DaySummary, error) {
	b := s.Backend()
	rows, err := b.MonthlySummary(ctx, employeeID, year, month)
	if err != nil {
		return nil, s.noteFailure(b, err)
	}
	return rows, nil
}

func (s *Store) HasMovementOn(ctx context.Context, employeeID int64, date time.Time, m attendance.Movement) (bool, error) {
	b := s.Backend()
	ok, err := b.HasMovementOn(ctx, employeeID, civilDate(date), m)
	if err != nil {
		return false, s.noteFailure(b, err)
	}
	return ok, nil
}

func (s *Store) HasStatusOn(ctx context.Context, employeeID int64, date time.Time, st attendance.Status) (bool, error) {
	b := s.Backend()
	ok, err := b.HasStatusOn(ctx, employeeID, civilDate(date), st)
	if err != nil {
		return false, s.noteFailure(b, err)
	}
	return ok, nil
}

func (s *Store) CreateJustification(ctx context.Context, j attendance.Justification) (attendance.Justification, error) {
	b := s.Backend()
	created, err := b.CreateJustification(ctx, j)
	if err != nil {
		return attendance.Justification{}, s.noteFailure(b, err)
	}
	return created, nil
}

func (s *Store) JustificationsOn(ctx context.Context, date time.Time) ([]attendance.Justification, error) {
	b := s.Backend()
	js, err := b.JustificationsOn(ctx, civilDate(date))
	if err != nil {
		return nil, s.noteFailure(b, err)
	}
	return js, nil
}

func (s *Store) normalizeCard(emp *employee.Employee) error {
	if emp.CardUID == nil {
		return nil
	}
	uid := employee.NormalizeCardUID(*emp.CardUID)
	if uid == "" {
		emp.CardUID = nil
		return nil
	}
	emp.CardUID = &uid
	return nil
}

func (s *Store) checkCard(ctx context.Context, b Backend, cardUID *string, excludeID int64) error {
	if cardUID == nil {
		return nil
	}
	inUse, err := b.CardInUse(ctx, *cardUID, excludeID)
	if err != nil {
		return s.noteFailure(b, err)
	}
	if inUse {
		return employee.ErrDuplicateCard
	}
	return nil
}

// civilDate truncates t to its calendar day in t's location.
func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
