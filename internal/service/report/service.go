// Package report builds the day view, the monthly summary and the CSV
// export handed to the payroll collaborator.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
)

// Store is the slice of the attendance store the reports need.
type Store interface {
	DayRecords(ctx context.Context, date time.Time) ([]attendance.DayRecord, error)
	JustificationsOn(ctx context.Context, date time.Time) ([]attendance.Justification, error)
	EventsBetween(ctx context.Context, from, to time.Time) ([]attendance.Event, error)
	MonthlySummary(ctx context.Context, employeeID int64, year int, month time.Month) ([]attendance.DaySummary, error)
	CreateJustification(ctx context.Context, j attendance.Justification) (attendance.Justification, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// DayView returns the day's events, newest first, with the justified
// flag resolved against the day's justifications. A justification
// recolors the matching status for that employee and day only at
// display time.
func (s *Service) DayView(ctx context.Context, date time.Time) ([]attendance.DayRecord, error) {
	recs, err := s.store.DayRecords(ctx, date)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return recs, nil
	}

	justs, err := s.store.JustificationsOn(ctx, date)
	if err != nil {
		return nil, err
	}
	justified := make(map[justKey]bool, len(justs))
	for _, j := range justs {
		justified[justKey{j.EmployeeID, j.Type}] = true
	}

	for i := range recs {
		typ, ok := justifiableType(recs[i].Event.Status)
		if !ok {
			continue
		}
		recs[i].Justified = justified[justKey{recs[i].Event.EmployeeID, typ}]
	}
	return recs, nil
}

type justKey struct {
	employeeID int64
	typ        attendance.JustificationType
}

func justifiableType(st attendance.Status) (attendance.JustificationType, bool) {
	switch st {
	case attendance.StatusLate:
		return attendance.JustifyLate, true
	case attendance.StatusEarly:
		return attendance.JustifyEarly, true
	case attendance.StatusAbsent:
		return attendance.JustifyAbsent, true
	default:
		return "", false
	}
}

// Justify records a justification after checking the type is one that
// can be justified.
func (s *Service) Justify(ctx context.Context, employeeID int64, date time.Time, typ attendance.JustificationType, reason string) (attendance.Justification, error) {
	switch typ {
	case attendance.JustifyLate, attendance.JustifyEarly, attendance.JustifyAbsent:
	default:
		return attendance.Justification{}, fmt.Errorf("justification type %q not allowed", typ)
	}
	return s.store.CreateJustification(ctx, attendance.Justification{
		EmployeeID: employeeID,
		Date:       date,
		Type:       typ,
		Reason:     reason,
	})
}

func (s *Service) MonthlySummary(ctx context.Context, employeeID int64, year int, month time.Month) ([]attendance.DaySummary, error) {
	return s.store.MonthlySummary(ctx, employeeID, year, month)
}

var csvHeader = []string{"date", "time", "movement", "status", "site"}

// ExportCSV streams one row per recorded event in [from, to] to w.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer, from, to time.Time) error {
	events, err := s.store.EventsBetween(ctx, from, to)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, ev := range events {
		row := exportRow(ev)
		if err := cw.Write([]string{row.Date, row.Time, string(row.Movement), string(row.Status), row.Site}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportRow(ev attendance.Event) attendance.ExportRow {
	return attendance.ExportRow{
		Date:     ev.Date.Format("2006-01-02"),
		Time:     ev.RecordedAt.Format("15:04:05"),
		Movement: ev.Movement,
		Status:   ev.Status,
		Site:     ev.Site,
	}
}
