package attendance

import "time"

type Movement string

const (
	MovementEntry Movement = "ENTRY"
	MovementExit  Movement = "EXIT"
)

type Status string

const (
	StatusOnTime Status = "ON_TIME"
	StatusLate   Status = "LATE"
	StatusEarly  Status = "EARLY"
	StatusAbsent Status = "ABSENT"
)

// Event is a single recorded tap (or an absence marker written by the
// sweep job). Immutable once created except for the Synchronized flag,
// which only the sync coordinator writes, and administrative deletion.
type Event struct {
	ID         int64
	UID        string // uuid; remote-side idempotency key
	EmployeeID int64
	Site       string
	Date       time.Time // civil date of RecordedAt
	RecordedAt time.Time
	Movement   Movement
	Status     Status

	// Local store only; true once the event has been pushed upstream.
	Synchronized bool
}

type JustificationType string

const (
	JustifyLate   JustificationType = "LATE"
	JustifyAbsent JustificationType = "ABSENT"
	JustifyEarly  JustificationType = "EARLY"
)

// Justification recolors a LATE/ABSENT/EARLY status at presentation
// time. It never changes the stored status of the event it refers to.
type Justification struct {
	ID         int64
	EmployeeID int64
	Date       time.Time
	Type       JustificationType
	Reason     string
	CreatedAt  time.Time
}

// DayRecord is an event joined with its employee for the day view.
type DayRecord struct {
	Event        Event
	EmployeeName string
	PhotoPath    *string

	// Set from justifications at read time; the stored status is not touched.
	Justified bool
}

// DisplayStatus renders the status with the justified marker appended.
func (r DayRecord) DisplayStatus() string {
	if r.Justified {
		return string(r.Event.Status) + "*"
	}
	return string(r.Event.Status)
}

// DaySummary is one line of an employee's monthly summary.
type DaySummary struct {
	Date        time.Time
	FirstEntry  *time.Time
	LastExit    *time.Time
	EntryStatus *Status
	ExitStatus  *Status
}

// ExportRow is the exact shape handed to the reporting collaborator:
// one row per recorded tap.
type ExportRow struct {
	Date     string // 2006-01-02
	Time     string // 15:04:05
	Movement Movement
	Status   Status
	Site     string
}
