package employee

import (
	"strings"

	"github.com/pointrec/attendance-terminal/internal/domain/schedule"
)

// Employee is the roster record a card tap resolves to. Employees are
// never hard-deleted while history exists; Active=false retires them.
type Employee struct {
	ID        int64
	FullName  string
	Role      string
	CardUID   *string // normalized uppercase hex, unique among active employees
	PhotoPath *string // opaque, owned by the UI layer
	Active    bool

	Schedule schedule.Profile
}

// NormalizeCardUID strips everything that is not a hex digit and
// uppercases the rest, so "04 a1 b2 c3" and "04A1B2C3" compare equal.
// Returns "" when no hex digits remain.
func NormalizeCardUID(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'a' && r <= 'f':
			b.WriteRune(r - ('a' - 'A'))
		case r >= 'A' && r <= 'F':
			b.WriteRune(r)
		}
	}
	return b.String()
}
