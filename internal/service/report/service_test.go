package report

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
)

type reportStore struct {
	records []attendance.DayRecord
	justs   []attendance.Justification
	events  []attendance.Event
	summary []attendance.DaySummary
	created []attendance.Justification
}

func (s *reportStore) DayRecords(context.Context, time.Time) ([]attendance.DayRecord, error) {
	return s.records, nil
}

func (s *reportStore) JustificationsOn(context.Context, time.Time) ([]attendance.Justification, error) {
	return s.justs, nil
}

func (s *reportStore) EventsBetween(context.Context, time.Time, time.Time) ([]attendance.Event, error) {
	return s.events, nil
}

func (s *reportStore) MonthlySummary(context.Context, int64, int, time.Month) ([]attendance.DaySummary, error) {
	return s.summary, nil
}

func (s *reportStore) CreateJustification(_ context.Context, j attendance.Justification) (attendance.Justification, error) {
	j.ID = int64(len(s.created) + 1)
	s.created = append(s.created, j)
	return j, nil
}

func record(employeeID int64, st attendance.Status) attendance.DayRecord {
	return attendance.DayRecord{
		Event: attendance.Event{
			EmployeeID: employeeID,
			Movement:   attendance.MovementEntry,
			Status:     st,
		},
		EmployeeName: "Someone",
	}
}

func TestDayViewMarksJustifiedStatuses(t *testing.T) {
	store := &reportStore{
		records: []attendance.DayRecord{
			record(1, attendance.StatusLate),
			record(2, attendance.StatusLate),
			record(1, attendance.StatusOnTime),
		},
		justs: []attendance.Justification{
			{EmployeeID: 1, Type: attendance.JustifyLate},
		},
	}
	svc := NewService(store)

	recs, err := svc.DayView(context.Background(), time.Now())
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.True(t, recs[0].Justified)
	assert.Equal(t, "LATE*", recs[0].DisplayStatus())
	assert.False(t, recs[1].Justified)
	assert.Equal(t, "LATE", recs[1].DisplayStatus())
	// ON_TIME never carries a marker, even for a justified employee.
	assert.False(t, recs[2].Justified)
}

func TestJustifyRejectsOnTime(t *testing.T) {
	store := &reportStore{}
	svc := NewService(store)

	_, err := svc.Justify(context.Background(), 1, time.Now(), attendance.JustificationType("ON_TIME"), "")
	assert.Error(t, err)
	assert.Empty(t, store.created)

	j, err := svc.Justify(context.Background(), 1, time.Now(), attendance.JustifyAbsent, "sick leave")
	require.NoError(t, err)
	assert.Equal(t, "sick leave", j.Reason)
	assert.Len(t, store.created, 1)
}

func TestExportCSV(t *testing.T) {
	day := time.Date(2026, time.March, 4, 0, 0, 0, 0, time.Local)
	store := &reportStore{
		events: []attendance.Event{
			{
				Date:       day,
				RecordedAt: day.Add(9*time.Hour + 5*time.Minute),
				Movement:   attendance.MovementEntry,
				Status:     attendance.StatusOnTime,
				Site:       "workshop",
			},
			{
				Date:       day,
				RecordedAt: day.Add(18 * time.Hour),
				Movement:   attendance.MovementExit,
				Status:     attendance.StatusOnTime,
				Site:       "workshop",
			},
		},
	}
	svc := NewService(store)

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf, day, day))

	want := "date,time,movement,status,site\n" +
		"2026-03-04,09:05:00,ENTRY,ON_TIME,workshop\n" +
		"2026-03-04,18:00:00,EXIT,ON_TIME,workshop\n"
	assert.Equal(t, want, buf.String())
}

func TestExportCSVEmptyRangeStillWritesHeader(t *testing.T) {
	svc := NewService(&reportStore{})

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf, time.Now(), time.Now()))
	assert.Equal(t, "date,time,movement,status,site\n", buf.String())
}
