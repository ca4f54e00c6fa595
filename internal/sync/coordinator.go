// Package sync moves locally recorded attendance upstream and mirrors
// the central employee roster down, flipping the store between its
// local and remote backends as reachability changes.
package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
	"github.com/pointrec/attendance-terminal/internal/domain/employee"
)

// State is the coordinator's externally visible phase. It exists for
// the status endpoint and the operator display; no code branches on it.
type State int32

const (
	StateIdle State = iota
	StateChecking
	StateSyncingUp
	StateSyncingDown
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateChecking:
		return "checking"
	case StateSyncingUp:
		return "syncing_up"
	case StateSyncingDown:
		return "syncing_down"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// ErrCycleRunning is returned when a cycle is requested while another
// one is still in flight. The caller just waits for the next tick.
var ErrCycleRunning = errors.New("sync cycle already running")

// LocalStore is the slice of the local backend the coordinator needs.
type LocalStore interface {
	UnsyncedEvents(ctx context.Context) ([]attendance.Event, error)
	MarkSynchronized(ctx context.Context, ids []int64) error
	ReplaceRoster(ctx context.Context, emps []employee.Employee) error
}

// RemoteStore is the slice of the remote backend the coordinator needs.
type RemoteStore interface {
	Ping(ctx context.Context) error
	PushEvents(ctx context.Context, events []attendance.Event) (pushed, skipped []int64, err error)
	ActiveEmployees(ctx context.Context) ([]employee.Employee, error)
}

// BackendSwitch is how the coordinator reports reachability to the
// routing store.
type BackendSwitch interface {
	SetOnline(online bool)
}

// Report is a snapshot of the most recent completed cycle.
type Report struct {
	At      time.Time
	Online  bool
	Pushed  int
	Skipped int
	Pulled  int
	Err     error
}

type Coordinator struct {
	local  LocalStore
	remote RemoteStore
	store  BackendSwitch

	retryDelay time.Duration

	state   atomic.Int32
	running atomic.Bool

	mu   sync.Mutex
	last Report
}

func NewCoordinator(local LocalStore, remote RemoteStore, store BackendSwitch) *Coordinator {
	return &Coordinator{
		local:      local,
		remote:     remote,
		store:      store,
		retryDelay: 2 * time.Second,
	}
}

func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// LastReport returns the outcome of the most recent completed cycle.
func (c *Coordinator) LastReport() Report {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

func (c *Coordinator) setState(s State) {
	c.state.Store(int32(s))
}

// RunCycle performs one probe / push / pull pass. It never blocks on a
// cycle already in flight: taps must not queue behind sync, so an
// overlapping request returns ErrCycleRunning immediately.
//
// An unreachable remote is a normal outcome, not an error: the cycle
// flips the store offline and reports success.
func (c *Coordinator) RunCycle(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrCycleRunning
	}
	defer c.running.Store(false)
	defer c.setState(StateIdle)

	report := Report{At: time.Now()}
	defer func() {
		c.mu.Lock()
		c.last = report
		c.mu.Unlock()
	}()

	c.setState(StateChecking)
	if err := c.probe(ctx); err != nil {
		c.store.SetOnline(false)
		slog.Info("Remote unreachable, staying on local store", "error", err)
		return nil
	}
	c.store.SetOnline(true)
	report.Online = true

	c.setState(StateSyncingUp)
	if err := c.pushPending(ctx, &report); err != nil {
		c.store.SetOnline(false)
		report.Err = err
		return err
	}

	c.setState(StateSyncingDown)
	if err := c.pullRoster(ctx, &report); err != nil {
		// The roster mirror is stale but the remote already accepted
		// our events; only the routing decision is rolled back.
		c.store.SetOnline(false)
		report.Err = err
		return err
	}

	return nil
}

// probe pings the remote, retrying once after a short delay so a
// single dropped packet does not flip the terminal offline.
func (c *Coordinator) probe(ctx context.Context) error {
	err := c.remote.Ping(ctx)
	if err == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.retryDelay):
	}
	return c.remote.Ping(ctx)
}

func (c *Coordinator) pushPending(ctx context.Context, report *Report) error {
	pending, err := c.local.UnsyncedEvents(ctx)
	if err != nil {
		return fmt.Errorf("load unsynced events: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	pushed, skipped, err := c.remote.PushEvents(ctx, pending)
	if err != nil {
		return fmt.Errorf("push events: %w", err)
	}
	// Marked only after the remote transaction committed; a crash
	// between the two re-pushes the batch, which the event uid absorbs.
	if err := c.local.MarkSynchronized(ctx, pushed); err != nil {
		return fmt.Errorf("mark synchronized: %w", err)
	}

	report.Pushed = len(pushed)
	report.Skipped = len(skipped)
	if len(skipped) > 0 {
		slog.Warn("Events skipped during sync, site unknown to central server",
			"count", len(skipped))
	}
	slog.Info("Pushed attendance events", "count", len(pushed))
	return nil
}

func (c *Coordinator) pullRoster(ctx context.Context, report *Report) error {
	emps, err := c.remote.ActiveEmployees(ctx)
	if err != nil {
		return fmt.Errorf("pull roster: %w", err)
	}
	if err := c.local.ReplaceRoster(ctx, emps); err != nil {
		return fmt.Errorf("replace roster: %w", err)
	}
	report.Pulled = len(emps)
	slog.Info("Mirrored employee roster", "count", len(emps))
	return nil
}
