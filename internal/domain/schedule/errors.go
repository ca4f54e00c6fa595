package schedule

import (
	"errors"
	"fmt"
	"time"
)

// ErrScheduleConfig marks a self-inconsistent schedule profile. It is
// surfaced at write time so bad configurations never reach the
// resolver; the resolver itself degrades silently.
var ErrScheduleConfig = errors.New("invalid schedule configuration")

// Validate rejects profiles whose optional layers are enabled but
// carry no data, and overrides outside Monday-Friday. Errors wrap
// ErrScheduleConfig.
func (p Profile) Validate() error {
	if p.RotationEnabled && p.AltEntry == nil && p.AltExit == nil {
		return fmt.Errorf("%w: rotation enabled without alternate times", ErrScheduleConfig)
	}
	if p.RotationBase != 0 && p.RotationBase != 1 {
		return fmt.Errorf("%w: rotation base must be 0 or 1, got %d", ErrScheduleConfig, p.RotationBase)
	}
	if p.OverridesEnabled && len(p.EntryOverrides) == 0 && len(p.ExitOverrides) == 0 {
		return fmt.Errorf("%w: overrides enabled without any weekday populated", ErrScheduleConfig)
	}
	for wd := range p.EntryOverrides {
		if wd < time.Monday || wd > time.Friday {
			return fmt.Errorf("%w: entry override on %s, only Monday-Friday allowed", ErrScheduleConfig, wd)
		}
	}
	for wd := range p.ExitOverrides {
		if wd < time.Monday || wd > time.Friday {
			return fmt.Errorf("%w: exit override on %s, only Monday-Friday allowed", ErrScheduleConfig, wd)
		}
	}
	return nil
}
