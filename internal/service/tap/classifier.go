package tap

import (
	"time"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
	"github.com/pointrec/attendance-terminal/internal/domain/schedule"
)

// DefaultTolerance is the grace period after the scheduled entry time
// during which a tap still counts as on time.
const DefaultTolerance = 10 * time.Minute

type Decision struct {
	Movement attendance.Movement
	Status   attendance.Status
}

// Classify decides what a tap means given the effective schedule and
// the employee's most recent movement today (nil when there is none).
//
// Only the day's first entry is scored for lateness: once an exit is
// recorded, any further entry is on time unconditionally. Exempt
// employees are on time for every movement.
func Classify(entry, exit schedule.TimeOfDay, exempt bool, last *attendance.Movement, now time.Time, tolerance time.Duration) Decision {
	switch {
	case last == nil:
		if exempt {
			return Decision{attendance.MovementEntry, attendance.StatusOnTime}
		}
		return Decision{attendance.MovementEntry, entryStatus(now, entry, tolerance)}

	case *last == attendance.MovementEntry:
		if exempt {
			return Decision{attendance.MovementExit, attendance.StatusOnTime}
		}
		return Decision{attendance.MovementExit, exitStatus(now, exit)}

	default: // last movement was an exit
		return Decision{attendance.MovementEntry, attendance.StatusOnTime}
	}
}

func entryStatus(now time.Time, scheduled schedule.TimeOfDay, tolerance time.Duration) attendance.Status {
	if sinceMidnight(now) <= scheduled.Duration()+tolerance {
		return attendance.StatusOnTime
	}
	return attendance.StatusLate
}

// exitStatus never yields LATE: leaving after the scheduled exit is on
// time by definition.
func exitStatus(now time.Time, scheduled schedule.TimeOfDay) attendance.Status {
	if sinceMidnight(now) < scheduled.Duration() {
		return attendance.StatusEarly
	}
	return attendance.StatusOnTime
}

func sinceMidnight(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second +
		time.Duration(t.Nanosecond())
}
