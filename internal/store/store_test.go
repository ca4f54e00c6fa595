package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
	"github.com/pointrec/attendance-terminal/internal/domain/employee"
	"github.com/pointrec/attendance-terminal/internal/domain/schedule"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory Backend. When err is set every call
// returns it, standing in for a dead connection.
type fakeBackend struct {
	name      string
	err       error
	emps      map[int64]employee.Employee
	events    []attendance.Event
	cardInUse bool
	creates   []employee.Employee
	nextID    int64
}

func newFakeBackend(name string) *fakeBackend {
	return &fakeBackend{name: name, emps: map[int64]employee.Employee{}}
}

func (f *fakeBackend) Name() string { return f.name }

func (f *fakeBackend) EmployeeByCard(_ context.Context, cardUID string) (employee.Employee, error) {
	if f.err != nil {
		return employee.Employee{}, f.err
	}
	for _, e := range f.emps {
		if e.CardUID != nil && *e.CardUID == cardUID {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

func (f *fakeBackend) EmployeeByID(_ context.Context, id int64) (employee.Employee, error) {
	if f.err != nil {
		return employee.Employee{}, f.err
	}
	e, ok := f.emps[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (f *fakeBackend) ActiveEmployees(_ context.Context) ([]employee.Employee, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []employee.Employee
	for _, e := range f.emps {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeBackend) CreateEmployee(_ context.Context, e employee.Employee) (employee.Employee, error) {
	if f.err != nil {
		return employee.Employee{}, f.err
	}
	f.nextID++
	e.ID = f.nextID
	f.emps[e.ID] = e
	f.creates = append(f.creates, e)
	return e, nil
}

func (f *fakeBackend) UpdateEmployee(_ context.Context, e employee.Employee) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.emps[e.ID]; !ok {
		return employee.ErrEmployeeNotFound
	}
	f.emps[e.ID] = e
	return nil
}

func (f *fakeBackend) DeactivateEmployee(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	delete(f.emps, id)
	return nil
}

func (f *fakeBackend) CardInUse(_ context.Context, _ string, _ int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.cardInUse, nil
}

func (f *fakeBackend) InsertEvent(_ context.Context, ev attendance.Event) (attendance.Event, error) {
	if f.err != nil {
		return attendance.Event{}, f.err
	}
	f.nextID++
	ev.ID = f.nextID
	f.events = append(f.events, ev)
	return ev, nil
}

func (f *fakeBackend) LastEventOn(_ context.Context, employeeID int64, date time.Time) (*attendance.Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	var last *attendance.Event
	for i := range f.events {
		ev := &f.events[i]
		if ev.EmployeeID == employeeID && ev.Date.Equal(date) {
			last = ev
		}
	}
	return last, nil
}

func (f *fakeBackend) HasMovementOn(_ context.Context, _ int64, _ time.Time, _ attendance.Movement) (bool, error) {
	return false, f.err
}

func (f *fakeBackend) HasStatusOn(_ context.Context, _ int64, _ time.Time, _ attendance.Status) (bool, error) {
	return false, f.err
}

func (f *fakeBackend) DayRecords(_ context.Context, _ time.Time) ([]attendance.DayRecord, error) {
	return nil, f.err
}

func (f *fakeBackend) EventsBetween(_ context.Context, _, _ time.Time) ([]attendance.Event, error) {
	return nil, f.err
}

func (f *fakeBackend) DeleteEvents(_ context.Context, _ int64, _ attendance.DeleteScope) (int64, error) {
	return 0, f.err
}

func (f *fakeBackend) MonthlySummary(_ context.Context, _ int64, _ int, _ time.Month) ([]attendance.DaySummary, error) {
	return nil, f.err
}

func (f *fakeBackend) CreateJustification(_ context.Context, j attendance.Justification) (attendance.Justification, error) {
	return j, f.err
}

func (f *fakeBackend) JustificationsOn(_ context.Context, _ time.Time) ([]attendance.Justification, error) {
	return nil, f.err
}

func seedEmployee(b *fakeBackend, id int64, cardUID string) {
	b.emps[id] = employee.Employee{
		ID:       id,
		FullName: "Dana",
		CardUID:  &cardUID,
		Active:   true,
		Schedule: schedule.Profile{Entry: schedule.At(9, 0), Exit: schedule.At(18, 0)},
	}
}

func TestOfflineOnlyStoreServesLocal(t *testing.T) {
	local := newFakeBackend("local")
	s := New(local, nil)

	// SetOnline(true) with no remote configured must not select a nil
	// backend.
	s.SetOnline(true)
	assert.False(t, s.Online())
	assert.Equal(t, "local", s.Backend().Name())
}

func TestRemoteFailureFallsBackToLocal(t *testing.T) {
	local := newFakeBackend("local")
	remote := newFakeBackend("remote")
	seedEmployee(local, 7, "04A1B2C3")
	remote.err = errors.New("dial tcp: connection refused")

	s := New(local, remote)
	s.SetOnline(true)
	ctx := context.Background()

	_, err := s.ResolveEmployeeByCard(ctx, "04A1B2C3")
	assert.ErrorIs(t, err, attendance.ErrBackendUnavailable)
	assert.False(t, s.Online(), "infrastructure failure demotes to local")

	// The next lookup is served by the local mirror.
	emp, err := s.ResolveEmployeeByCard(ctx, "04A1B2C3")
	require.NoError(t, err)
	assert.Equal(t, int64(7), emp.ID)
}

func TestRemoteWriteFailureDemotesThenLocalWriteLands(t *testing.T) {
	local := newFakeBackend("local")
	remote := newFakeBackend("remote")
	remote.err = errors.New("write: broken pipe")

	s := New(local, remote)
	s.SetOnline(true)
	ctx := context.Background()

	_, err := s.InsertEvent(ctx, 7, "HQ", attendance.MovementEntry, attendance.StatusOnTime, time.Now())
	assert.ErrorIs(t, err, attendance.ErrBackendUnavailable)
	assert.Empty(t, remote.events)

	ev, err := s.InsertEvent(ctx, 7, "HQ", attendance.MovementEntry, attendance.StatusOnTime, time.Now())
	require.NoError(t, err)
	assert.NotEmpty(t, ev.UID)
	assert.Len(t, local.events, 1)
}

func TestDomainErrorsPassThroughWithoutDemotion(t *testing.T) {
	local := newFakeBackend("local")
	remote := newFakeBackend("remote")

	s := New(local, remote)
	s.SetOnline(true)

	_, err := s.ResolveEmployeeByCard(context.Background(), "FFFF0000")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
	assert.NotErrorIs(t, err, attendance.ErrBackendUnavailable)
	assert.True(t, s.Online(), "a not-found is not a connectivity problem")
}

func TestLocalFailureDoesNotTouchOnlineFlag(t *testing.T) {
	local := newFakeBackend("local")
	local.err = errors.New("database is locked")

	s := New(local, newFakeBackend("remote"))

	_, err := s.ResolveEmployeeByCard(context.Background(), "04A1B2C3")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, attendance.ErrBackendUnavailable)
	assert.False(t, s.Online())
}

func TestCreateEmployeeRejectsDuplicateCardBeforeWrite(t *testing.T) {
	local := newFakeBackend("local")
	local.cardInUse = true
	s := New(local, nil)

	uid := "04A1B2C3"
	_, err := s.CreateEmployee(context.Background(), employee.Employee{
		FullName: "Iván",
		CardUID:  &uid,
		Schedule: schedule.Profile{Entry: schedule.At(9, 0), Exit: schedule.At(18, 0)},
	})
	assert.ErrorIs(t, err, employee.ErrDuplicateCard)
	assert.Empty(t, local.creates, "uniqueness is checked before the write")
}

func TestCreateEmployeeNormalizesCardUID(t *testing.T) {
	local := newFakeBackend("local")
	s := New(local, nil)

	uid := "04 a1 b2 c3"
	created, err := s.CreateEmployee(context.Background(), employee.Employee{
		FullName: "Dana",
		CardUID:  &uid,
		Schedule: schedule.Profile{Entry: schedule.At(9, 0), Exit: schedule.At(18, 0)},
	})
	require.NoError(t, err)
	require.NotNil(t, created.CardUID)
	assert.Equal(t, "04A1B2C3", *created.CardUID)
}

func TestResolveEmployeeByCardNormalizesLookup(t *testing.T) {
	local := newFakeBackend("local")
	seedEmployee(local, 7, "04A1B2C3")
	s := New(local, nil)
	ctx := context.Background()

	for _, form := range []string{"04 a1 b2 c3", "04A1B2C3", "04-a1-b2-c3"} {
		emp, err := s.ResolveEmployeeByCard(ctx, form)
		require.NoError(t, err, "form %q", form)
		assert.Equal(t, int64(7), emp.ID)
	}

	_, err := s.ResolveEmployeeByCard(ctx, " -- ")
	assert.ErrorIs(t, err, employee.ErrEmployeeNotFound)
}

func TestCreateEmployeeValidatesBeforeBackend(t *testing.T) {
	local := newFakeBackend("local")
	s := New(local, nil)
	ctx := context.Background()

	_, err := s.CreateEmployee(ctx, employee.Employee{})
	assert.ErrorIs(t, err, employee.ErrNameRequired)

	_, err = s.CreateEmployee(ctx, employee.Employee{
		FullName: "Dana",
		Schedule: schedule.Profile{
			Entry:           schedule.At(9, 0),
			Exit:            schedule.At(18, 0),
			RotationEnabled: true,
		},
	})
	assert.ErrorIs(t, err, schedule.ErrScheduleConfig)
	assert.Empty(t, local.creates)
}

func TestLastEventOnUsesCivilDate(t *testing.T) {
	local := newFakeBackend("local")
	s := New(local, nil)
	ctx := context.Background()

	morning := time.Date(2026, 3, 4, 9, 5, 0, 0, time.UTC)
	_, err := s.InsertEvent(ctx, 7, "HQ", attendance.MovementEntry, attendance.StatusOnTime, morning)
	require.NoError(t, err)

	// A mid-afternoon tap timestamp must still find the morning event:
	// the lookup is keyed by the calendar day, not the raw instant.
	ev, err := s.LastEventOn(ctx, 7, time.Date(2026, 3, 4, 17, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, attendance.MovementEntry, ev.Movement)
}

func TestReadsFollowTheOnlineFlag(t *testing.T) {
	local := newFakeBackend("local")
	remote := newFakeBackend("remote")
	seedEmployee(local, 1, "AAAA1111")
	seedEmployee(remote, 1, "AAAA1111")
	seedEmployee(remote, 2, "BBBB2222")

	s := New(local, remote)
	ctx := context.Background()

	emps, err := s.ActiveEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, emps, 1)

	s.SetOnline(true)
	emps, err = s.ActiveEmployees(ctx)
	require.NoError(t, err)
	assert.Len(t, emps, 2)
}
