package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
	"github.com/pointrec/attendance-terminal/internal/domain/employee"
)

type fakeLocal struct {
	pending    []attendance.Event
	marked     []int64
	roster     []employee.Employee
	markErr    error
	pendingErr error
}

func (f *fakeLocal) UnsyncedEvents(context.Context) ([]attendance.Event, error) {
	return f.pending, f.pendingErr
}

func (f *fakeLocal) MarkSynchronized(_ context.Context, ids []int64) error {
	if f.markErr != nil {
		return f.markErr
	}
	f.marked = append(f.marked, ids...)
	return nil
}

func (f *fakeLocal) ReplaceRoster(_ context.Context, emps []employee.Employee) error {
	f.roster = emps
	return nil
}

type fakeRemote struct {
	pingErrs  []error // consumed per call, nil afterwards
	pings     int
	pushed    [][]attendance.Event
	skip      []int64
	pushErr   error
	roster    []employee.Employee
	rosterErr error
	block     chan struct{} // if set, PushEvents waits until closed
}

func (f *fakeRemote) Ping(context.Context) error {
	f.pings++
	if len(f.pingErrs) > 0 {
		err := f.pingErrs[0]
		f.pingErrs = f.pingErrs[1:]
		return err
	}
	return nil
}

func (f *fakeRemote) PushEvents(_ context.Context, events []attendance.Event) ([]int64, []int64, error) {
	if f.block != nil {
		<-f.block
	}
	if f.pushErr != nil {
		return nil, nil, f.pushErr
	}
	f.pushed = append(f.pushed, events)
	skipSet := make(map[int64]bool, len(f.skip))
	for _, id := range f.skip {
		skipSet[id] = true
	}
	var accepted []int64
	for _, ev := range events {
		if !skipSet[ev.ID] {
			accepted = append(accepted, ev.ID)
		}
	}
	return accepted, f.skip, nil
}

func (f *fakeRemote) ActiveEmployees(context.Context) ([]employee.Employee, error) {
	return f.roster, f.rosterErr
}

type fakeSwitch struct {
	online bool
	calls  []bool
}

func (f *fakeSwitch) SetOnline(online bool) {
	f.online = online
	f.calls = append(f.calls, online)
}

func event(id int64) attendance.Event {
	return attendance.Event{ID: id, UID: "uid-" + string(rune('0'+id)), Site: "workshop"}
}

func newTestCoordinator(local *fakeLocal, remote *fakeRemote, sw *fakeSwitch) *Coordinator {
	c := NewCoordinator(local, remote, sw)
	c.retryDelay = time.Millisecond
	return c
}

func TestCycleHappyPath(t *testing.T) {
	local := &fakeLocal{pending: []attendance.Event{event(1), event(2)}}
	remote := &fakeRemote{roster: []employee.Employee{{ID: 7, FullName: "Jon Ale"}}}
	sw := &fakeSwitch{}
	c := newTestCoordinator(local, remote, sw)

	require.NoError(t, c.RunCycle(context.Background()))

	assert.True(t, sw.online)
	assert.Equal(t, []int64{1, 2}, local.marked)
	require.Len(t, local.roster, 1)
	assert.EqualValues(t, 7, local.roster[0].ID)
	assert.Equal(t, StateIdle, c.State())

	report := c.LastReport()
	assert.True(t, report.Online)
	assert.Equal(t, 2, report.Pushed)
	assert.Equal(t, 1, report.Pulled)
	assert.NoError(t, report.Err)
}

func TestUnreachableRemoteIsNotAnError(t *testing.T) {
	down := errors.New("connection refused")
	local := &fakeLocal{pending: []attendance.Event{event(1)}}
	remote := &fakeRemote{pingErrs: []error{down, down}}
	sw := &fakeSwitch{online: true}
	c := newTestCoordinator(local, remote, sw)

	require.NoError(t, c.RunCycle(context.Background()))

	assert.False(t, sw.online)
	assert.Empty(t, remote.pushed)
	assert.Empty(t, local.marked)
	assert.False(t, c.LastReport().Online)
}

func TestProbeRetriesOnce(t *testing.T) {
	local := &fakeLocal{}
	remote := &fakeRemote{pingErrs: []error{errors.New("dropped packet")}}
	sw := &fakeSwitch{}
	c := newTestCoordinator(local, remote, sw)

	require.NoError(t, c.RunCycle(context.Background()))

	assert.Equal(t, 2, remote.pings)
	assert.True(t, sw.online)
}

func TestPushFailureGoesBackOffline(t *testing.T) {
	local := &fakeLocal{pending: []attendance.Event{event(1)}}
	remote := &fakeRemote{pushErr: errors.New("broken pipe")}
	sw := &fakeSwitch{}
	c := newTestCoordinator(local, remote, sw)

	err := c.RunCycle(context.Background())
	require.Error(t, err)
	assert.False(t, sw.online)
	assert.Empty(t, local.marked)
	assert.Error(t, c.LastReport().Err)
}

func TestRosterFailureKeepsPushedEventsMarked(t *testing.T) {
	local := &fakeLocal{pending: []attendance.Event{event(1)}}
	remote := &fakeRemote{rosterErr: errors.New("timeout")}
	sw := &fakeSwitch{}
	c := newTestCoordinator(local, remote, sw)

	err := c.RunCycle(context.Background())
	require.Error(t, err)
	assert.Equal(t, []int64{1}, local.marked)
	assert.False(t, sw.online)
}

func TestSkippedEventsStayUnsynced(t *testing.T) {
	local := &fakeLocal{pending: []attendance.Event{event(1), event(2)}}
	remote := &fakeRemote{skip: []int64{2}}
	sw := &fakeSwitch{}
	c := newTestCoordinator(local, remote, sw)

	require.NoError(t, c.RunCycle(context.Background()))

	assert.Equal(t, []int64{1}, local.marked)
	report := c.LastReport()
	assert.Equal(t, 1, report.Pushed)
	assert.Equal(t, 1, report.Skipped)
}

func TestOverlappingCycleIsRejected(t *testing.T) {
	block := make(chan struct{})
	local := &fakeLocal{pending: []attendance.Event{event(1)}}
	remote := &fakeRemote{block: block}
	sw := &fakeSwitch{}
	c := newTestCoordinator(local, remote, sw)

	done := make(chan error, 1)
	go func() { done <- c.RunCycle(context.Background()) }()

	// Wait for the first cycle to reach the blocked push.
	require.Eventually(t, func() bool {
		return c.State() == StateSyncingUp
	}, time.Second, time.Millisecond)

	assert.ErrorIs(t, c.RunCycle(context.Background()), ErrCycleRunning)

	close(block)
	require.NoError(t, <-done)
	assert.Equal(t, StateIdle, c.State())
}
