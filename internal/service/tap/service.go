package tap

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
	"github.com/pointrec/attendance-terminal/internal/domain/employee"
	"github.com/pointrec/attendance-terminal/internal/domain/schedule"
)

// DefaultDebounce is the defensive duplicate-suppression window. The
// reader driver is supposed to require a card-present transition
// between reads; this guards the store when that contract is violated.
const DefaultDebounce = 5 * time.Second

// Store is the slice of the attendance store the tap path needs.
type Store interface {
	ResolveEmployeeByCard(ctx context.Context, rawUID string) (employee.Employee, error)
	ResolveSchedule(ctx context.Context, employeeID int64, date time.Time) (entry, exit schedule.TimeOfDay, exempt bool, err error)
	LastEventOn(ctx context.Context, employeeID int64, date time.Time) (*attendance.Event, error)
	InsertEvent(ctx context.Context, employeeID int64, site string, movement attendance.Movement, status attendance.Status, at time.Time) (attendance.Event, error)
}

// Service turns a raw card read into a stored attendance event. The
// classify-then-insert pair runs under one lock so two near-
// simultaneous taps cannot both observe "no event today".
type Service struct {
	store     Store
	tolerance time.Duration
	debounce  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	lastSeen map[string]time.Time
}

func NewService(store Store, tolerance, debounce time.Duration) *Service {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Service{
		store:     store,
		tolerance: tolerance,
		debounce:  debounce,
		now:       time.Now,
		lastSeen:  make(map[string]time.Time),
	}
}

// ProcessTap resolves the card, classifies the movement and persists
// the event. An unknown card or any resolver error aborts the tap
// without writing anything.
func (s *Service) ProcessTap(ctx context.Context, rawUID, site string) (attendance.Event, error) {
	now := s.now()

	emp, err := s.store.ResolveEmployeeByCard(ctx, rawUID)
	if err != nil {
		return attendance.Event{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	uid := employee.NormalizeCardUID(rawUID)
	if seen, ok := s.lastSeen[uid]; ok && now.Sub(seen) < s.debounce {
		return attendance.Event{}, attendance.ErrDuplicateTap
	}

	decision, err := s.classify(ctx, emp.ID, now)
	if err != nil {
		return attendance.Event{}, err
	}

	ev, err := s.store.InsertEvent(ctx, emp.ID, site, decision.Movement, decision.Status, now)
	if err != nil {
		return attendance.Event{}, err
	}

	s.lastSeen[uid] = now
	s.pruneSeen(now)

	slog.Info("tap recorded",
		"employee_id", emp.ID,
		"site", site,
		"movement", decision.Movement,
		"status", decision.Status,
	)
	return ev, nil
}

// Classify computes the decision for an employee at a given instant
// without writing anything.
func (s *Service) Classify(ctx context.Context, employeeID int64, now time.Time) (Decision, error) {
	return s.classify(ctx, employeeID, now)
}

func (s *Service) classify(ctx context.Context, employeeID int64, now time.Time) (Decision, error) {
	entry, exit, exempt, err := s.store.ResolveSchedule(ctx, employeeID, now)
	if err != nil {
		return Decision{}, err
	}

	last, err := s.store.LastEventOn(ctx, employeeID, now)
	if err != nil {
		return Decision{}, err
	}

	var lastMovement *attendance.Movement
	if last != nil {
		lastMovement = &last.Movement
	}
	return Classify(entry, exit, exempt, lastMovement, now, s.tolerance), nil
}

func (s *Service) pruneSeen(now time.Time) {
	for uid, seen := range s.lastSeen {
		if now.Sub(seen) >= s.debounce {
			delete(s.lastSeen, uid)
		}
	}
}
