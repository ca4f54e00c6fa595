package schedule

import "time"

// Saturday working hours for every non-exempt employee, regardless of
// base schedule, rotation or overrides.
var (
	SaturdayEntry = At(8, 0)
	SaturdayExit  = At(14, 0)
)

// Resolve computes the effective (entry, exit) pair for a date.
// Layers apply in order: base, rotation, per-weekday overrides,
// Saturday rule. Exemption is decided from the base pair alone, so an
// override cannot turn an exempt employee into a scheduled one on
// Saturdays or vice versa.
//
// Resolve is pure: same profile and date always yield the same pair.
func Resolve(p Profile, date time.Time) (entry, exit TimeOfDay) {
	entry, exit = p.Entry, p.Exit

	if p.RotationEnabled {
		_, isoWeek := date.ISOWeek()
		if (isoWeek+p.RotationBase)%2 == 1 {
			// A missing alternate value keeps the base for that side.
			if p.AltEntry != nil {
				entry = *p.AltEntry
			}
			if p.AltExit != nil {
				exit = *p.AltExit
			}
		}
	}

	if p.OverridesEnabled {
		wd := date.Weekday()
		if wd >= time.Monday && wd <= time.Friday {
			if v, ok := p.EntryOverrides[wd]; ok {
				entry = v
			}
			if v, ok := p.ExitOverrides[wd]; ok {
				exit = v
			}
		}
	}

	if date.Weekday() == time.Saturday && !p.Exempt() {
		entry, exit = SaturdayEntry, SaturdayExit
	}

	return entry, exit
}
