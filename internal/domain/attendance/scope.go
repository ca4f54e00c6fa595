package attendance

import "time"

type ScopeKind int

const (
	ScopeDay ScopeKind = iota
	ScopeMonth
	ScopeAll
)

// DeleteScope selects which of an employee's events an administrative
// delete removes: a single day, a whole month, or everything.
type DeleteScope struct {
	Kind  ScopeKind
	Date  time.Time  // ScopeDay
	Year  int        // ScopeMonth
	Month time.Month // ScopeMonth
}

func DayScope(date time.Time) DeleteScope {
	return DeleteScope{Kind: ScopeDay, Date: date}
}

func MonthScope(year int, month time.Month) DeleteScope {
	return DeleteScope{Kind: ScopeMonth, Year: year, Month: month}
}

func AllScope() DeleteScope {
	return DeleteScope{Kind: ScopeAll}
}
