package absence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
	"github.com/pointrec/attendance-terminal/internal/domain/employee"
	"github.com/pointrec/attendance-terminal/internal/domain/schedule"
)

type sweepStore struct {
	employees []employee.Employee
	entries   map[int64]bool // employees with an entry today
	absent    map[int64]bool // employees already marked absent
	inserted  []attendance.Event
}

func (s *sweepStore) ActiveEmployees(context.Context) ([]employee.Employee, error) {
	return s.employees, nil
}

func (s *sweepStore) HasMovementOn(_ context.Context, id int64, _ time.Time, m attendance.Movement) (bool, error) {
	return m == attendance.MovementEntry && s.entries[id], nil
}

func (s *sweepStore) HasStatusOn(_ context.Context, id int64, _ time.Time, st attendance.Status) (bool, error) {
	return st == attendance.StatusAbsent && s.absent[id], nil
}

func (s *sweepStore) InsertEvent(_ context.Context, id int64, site string, m attendance.Movement, st attendance.Status, at time.Time) (attendance.Event, error) {
	ev := attendance.Event{EmployeeID: id, Site: site, Movement: m, Status: st, RecordedAt: at}
	s.inserted = append(s.inserted, ev)
	return ev, nil
}

func scheduled(id int64) employee.Employee {
	return employee.Employee{
		ID: id, FullName: "Someone", Active: true,
		Schedule: schedule.Profile{Entry: schedule.At(9, 0), Exit: schedule.At(18, 0)},
	}
}

func exempt(id int64) employee.Employee {
	return employee.Employee{ID: id, FullName: "Owner", Active: true}
}

func sweeperAt(store *sweepStore, hour int) *Sweeper {
	sw := NewSweeper(store, "workshop", 12)
	sw.now = func() time.Time {
		return time.Date(2026, time.March, 4, hour, 30, 0, 0, time.Local)
	}
	return sw
}

func TestSweepMarksMissingEmployees(t *testing.T) {
	store := &sweepStore{
		employees: []employee.Employee{scheduled(1), scheduled(2)},
		entries:   map[int64]bool{1: true},
		absent:    map[int64]bool{},
	}
	sw := sweeperAt(store, 13)

	require.NoError(t, sw.Sweep(context.Background()))

	require.Len(t, store.inserted, 1)
	ev := store.inserted[0]
	assert.EqualValues(t, 2, ev.EmployeeID)
	assert.Equal(t, attendance.MovementEntry, ev.Movement)
	assert.Equal(t, attendance.StatusAbsent, ev.Status)
	assert.Equal(t, "workshop", ev.Site)
}

func TestSweepDoesNothingBeforeCutoff(t *testing.T) {
	store := &sweepStore{
		employees: []employee.Employee{scheduled(1)},
		entries:   map[int64]bool{},
		absent:    map[int64]bool{},
	}
	sw := sweeperAt(store, 11)

	require.NoError(t, sw.Sweep(context.Background()))
	assert.Empty(t, store.inserted)
}

func TestSweepIsIdempotent(t *testing.T) {
	store := &sweepStore{
		employees: []employee.Employee{scheduled(1)},
		entries:   map[int64]bool{},
		absent:    map[int64]bool{1: true},
	}
	sw := sweeperAt(store, 13)

	require.NoError(t, sw.Sweep(context.Background()))
	assert.Empty(t, store.inserted)
}

func TestSweepSkipsExemptEmployees(t *testing.T) {
	store := &sweepStore{
		employees: []employee.Employee{exempt(1)},
		entries:   map[int64]bool{},
		absent:    map[int64]bool{},
	}
	sw := sweeperAt(store, 13)

	require.NoError(t, sw.Sweep(context.Background()))
	assert.Empty(t, store.inserted)
}
