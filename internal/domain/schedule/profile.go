package schedule

import (
	"fmt"
	"time"
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
// The zero value is midnight (00:00), which doubles as the "no schedule"
// sentinel when both entry and exit are midnight.
type TimeOfDay int

// At builds a TimeOfDay from hour and minute.
func At(hour, minute int) TimeOfDay {
	return TimeOfDay(hour*60 + minute)
}

// ParseTimeOfDay parses "15:04" or "15:04:05" (seconds are discarded).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	var hour, minute, second int
	if _, err := fmt.Sscanf(s, "%d:%d:%d", &hour, &minute, &second); err != nil {
		if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
			return 0, fmt.Errorf("invalid time of day %q", s)
		}
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time of day %q out of range", s)
	}
	return At(hour, minute), nil
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

// Duration returns the offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t) * time.Minute
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Profile is the per-employee weekly schedule configuration. Entry and
// Exit are the base times; the optional layers (bi-weekly rotation,
// per-weekday overrides) are applied by Resolve.
type Profile struct {
	Entry TimeOfDay
	Exit  TimeOfDay

	// Bi-weekly rotation between the base and alternate pair, keyed by
	// ISO week parity. RotationBase shifts the parity (0 or 1).
	AltEntry        *TimeOfDay
	AltExit         *TimeOfDay
	RotationEnabled bool
	RotationBase    int

	// Per-weekday overrides, Monday through Friday. Entry and exit
	// override independently; a missing weekday keeps the value from
	// the previous layer.
	OverridesEnabled bool
	EntryOverrides   map[time.Weekday]TimeOfDay
	ExitOverrides    map[time.Weekday]TimeOfDay
}

// Exempt reports whether the base pair is the 00:00/00:00 sentinel:
// no fixed schedule, always on time, no Saturday rule.
func (p Profile) Exempt() bool {
	return p.Entry == 0 && p.Exit == 0
}
