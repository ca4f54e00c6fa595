package store

import (
	"context"
	"time"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
	"github.com/pointrec/attendance-terminal/internal/domain/employee"
)

// Backend is the strategy interface over the two attendance stores.
// The local (SQLite) backend is always present; the remote (PostgreSQL)
// backend is used only while the sync coordinator reports it reachable.
type Backend interface {
	Name() string

	EmployeeByCard(ctx context.Context, cardUID string) (employee.Employee, error)
	EmployeeByID(ctx context.Context, id int64) (employee.Employee, error)
	ActiveEmployees(ctx context.Context) ([]employee.Employee, error)
	CreateEmployee(ctx context.Context, e employee.Employee) (employee.Employee, error)
	UpdateEmployee(ctx context.Context, e employee.Employee) error
	DeactivateEmployee(ctx context.Context, id int64) error

	// CardInUse reports whether cardUID belongs to an active employee
	// other than excludeID. Checked before every employee write.
	CardInUse(ctx context.Context, cardUID string, excludeID int64) (bool, error)

	InsertEvent(ctx context.Context, ev attendance.Event) (attendance.Event, error)
	LastEventOn(ctx context.Context, employeeID int64, date time.Time) (*attendance.Event, error)
	HasMovementOn(ctx context.Context, employeeID int64, date time.Time, m attendance.Movement) (bool, error)
	HasStatusOn(ctx context.Context, employeeID int64, date time.Time, s attendance.Status) (bool, error)
	DayRecords(ctx context.Context, date time.Time) ([]attendance.DayRecord, error)
	EventsBetween(ctx context.Context, from, to time.Time) ([]attendance.Event, error)
	DeleteEvents(ctx context.Context, employeeID int64, scope attendance.DeleteScope) (int64, error)
	MonthlySummary(ctx context.Context, employeeID int64, year int, month time.Month) ([]attendance.DaySummary, error)

	CreateJustification(ctx context.Context, j attendance.Justification) (attendance.Justification, error)
	JustificationsOn(ctx context.Context, date time.Time) ([]attendance.Justification, error)
}
