package tap

import (
	"testing"
	"time"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
	"github.com/pointrec/attendance-terminal/internal/domain/schedule"
	"github.com/stretchr/testify/assert"
)

var (
	nineToSixEntry = schedule.At(9, 0)
	nineToSixExit  = schedule.At(18, 0)
)

func at(h, m, s int) time.Time {
	return time.Date(2026, time.March, 4, h, m, s, 0, time.Local) // a Wednesday
}

func movement(m attendance.Movement) *attendance.Movement { return &m }

func TestClassify_FirstTapIsEntry(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want attendance.Status
	}{
		{"before schedule", at(8, 30, 0), attendance.StatusOnTime},
		{"on the minute", at(9, 0, 0), attendance.StatusOnTime},
		{"inside tolerance", at(9, 5, 0), attendance.StatusOnTime},
		{"exactly at tolerance edge", at(9, 10, 0), attendance.StatusOnTime},
		{"one second past tolerance", at(9, 10, 1), attendance.StatusLate},
		{"well past tolerance", at(11, 0, 0), attendance.StatusLate},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			d := Classify(nineToSixEntry, nineToSixExit, false, nil, c.now, DefaultTolerance)
			assert.Equal(t, attendance.MovementEntry, d.Movement)
			assert.Equal(t, c.want, d.Status)
		})
	}
}

func TestClassify_SecondTapIsExit(t *testing.T) {
	last := movement(attendance.MovementEntry)

	// Scenario: first tap at 09:05 was an on-time entry; a second tap
	// at 09:12 is an exit scored against 18:00, hence EARLY.
	d := Classify(nineToSixEntry, nineToSixExit, false, last, at(9, 12, 0), DefaultTolerance)
	assert.Equal(t, attendance.MovementExit, d.Movement)
	assert.Equal(t, attendance.StatusEarly, d.Status)

	d = Classify(nineToSixEntry, nineToSixExit, false, last, at(18, 0, 0), DefaultTolerance)
	assert.Equal(t, attendance.MovementExit, d.Movement)
	assert.Equal(t, attendance.StatusOnTime, d.Status)

	// Leaving late is never penalized.
	d = Classify(nineToSixEntry, nineToSixExit, false, last, at(21, 30, 0), DefaultTolerance)
	assert.Equal(t, attendance.MovementExit, d.Movement)
	assert.Equal(t, attendance.StatusOnTime, d.Status)
}

func TestClassify_ExitNeverLate(t *testing.T) {
	last := movement(attendance.MovementEntry)
	for hour := 0; hour < 24; hour++ {
		d := Classify(nineToSixEntry, nineToSixExit, false, last, at(hour, 0, 0), DefaultTolerance)
		assert.Contains(t, []attendance.Status{attendance.StatusEarly, attendance.StatusOnTime}, d.Status,
			"exit at %02d:00", hour)
	}
}

func TestClassify_ReentryAfterExitIsNeutral(t *testing.T) {
	// Entry 08:58, exit 17:00, then a new entry at 09:30 the same day:
	// the re-entry is on time even though 09:30 is past tolerance.
	last := movement(attendance.MovementExit)
	d := Classify(nineToSixEntry, nineToSixExit, false, last, at(9, 30, 0), DefaultTolerance)
	assert.Equal(t, attendance.MovementEntry, d.Movement)
	assert.Equal(t, attendance.StatusOnTime, d.Status)

	// Even hours later.
	d = Classify(nineToSixEntry, nineToSixExit, false, last, at(16, 45, 0), DefaultTolerance)
	assert.Equal(t, attendance.MovementEntry, d.Movement)
	assert.Equal(t, attendance.StatusOnTime, d.Status)
}

func TestClassify_ExemptAlwaysOnTime(t *testing.T) {
	midnight := schedule.At(0, 0)
	moments := []time.Time{at(0, 1, 0), at(9, 30, 0), at(14, 0, 0), at(23, 59, 59)}
	histories := []*attendance.Movement{nil, movement(attendance.MovementEntry), movement(attendance.MovementExit)}

	for _, now := range moments {
		for _, last := range histories {
			d := Classify(midnight, midnight, true, last, now, DefaultTolerance)
			assert.Equal(t, attendance.StatusOnTime, d.Status, "at %s", now.Format("15:04:05"))
		}
	}
}

func TestClassify_ScenarioA(t *testing.T) {
	// Base 09:00-18:00, plain weekday.
	first := Classify(nineToSixEntry, nineToSixExit, false, nil, at(9, 5, 0), DefaultTolerance)
	assert.Equal(t, Decision{attendance.MovementEntry, attendance.StatusOnTime}, first)

	second := Classify(nineToSixEntry, nineToSixExit, false, movement(first.Movement), at(9, 12, 0), DefaultTolerance)
	assert.Equal(t, Decision{attendance.MovementExit, attendance.StatusEarly}, second)
}
