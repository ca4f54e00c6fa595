// Package absence marks employees who never clocked in as absent.
package absence

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
	"github.com/pointrec/attendance-terminal/internal/domain/employee"
)

// DefaultCutoffHour is the hour after which a missing entry counts as
// an absence for the day.
const DefaultCutoffHour = 12

// Store is the slice of the attendance store the sweep needs.
type Store interface {
	ActiveEmployees(ctx context.Context) ([]employee.Employee, error)
	HasMovementOn(ctx context.Context, employeeID int64, date time.Time, m attendance.Movement) (bool, error)
	HasStatusOn(ctx context.Context, employeeID int64, date time.Time, s attendance.Status) (bool, error)
	InsertEvent(ctx context.Context, employeeID int64, site string, movement attendance.Movement, status attendance.Status, at time.Time) (attendance.Event, error)
}

type Sweeper struct {
	store      Store
	site       string
	cutoffHour int
	now        func() time.Time
}

func NewSweeper(store Store, site string, cutoffHour int) *Sweeper {
	if cutoffHour <= 0 {
		cutoffHour = DefaultCutoffHour
	}
	return &Sweeper{store: store, site: site, cutoffHour: cutoffHour, now: time.Now}
}

// Sweep writes an absence marker for every active employee on a fixed
// schedule who has no entry today and is not already marked. Before
// the cutoff hour it does nothing, so the job can run as often as the
// scheduler likes.
func (s *Sweeper) Sweep(ctx context.Context) error {
	now := s.now()
	if now.Hour() < s.cutoffHour {
		return nil
	}

	emps, err := s.store.ActiveEmployees(ctx)
	if err != nil {
		return fmt.Errorf("absence sweep: %w", err)
	}

	marked := 0
	for _, emp := range emps {
		// No schedule means nothing to be absent from.
		if emp.Schedule.Exempt() {
			continue
		}
		hasEntry, err := s.store.HasMovementOn(ctx, emp.ID, now, attendance.MovementEntry)
		if err != nil {
			return fmt.Errorf("absence sweep: %w", err)
		}
		if hasEntry {
			continue
		}
		alreadyMarked, err := s.store.HasStatusOn(ctx, emp.ID, now, attendance.StatusAbsent)
		if err != nil {
			return fmt.Errorf("absence sweep: %w", err)
		}
		if alreadyMarked {
			continue
		}
		if _, err := s.store.InsertEvent(ctx, emp.ID, s.site, attendance.MovementEntry, attendance.StatusAbsent, now); err != nil {
			return fmt.Errorf("absence sweep: mark employee %d: %w", emp.ID, err)
		}
		marked++
	}

	if marked > 0 {
		slog.Info("Absence sweep marked employees", "count", marked, "date", now.Format("2006-01-02"))
	}
	return nil
}
