package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
	"github.com/pointrec/attendance-terminal/internal/handler/http/response"
	"github.com/pointrec/attendance-terminal/internal/pkg/validator"
)

type ReportService interface {
	DayView(ctx context.Context, date time.Time) ([]attendance.DayRecord, error)
	Justify(ctx context.Context, employeeID int64, date time.Time, typ attendance.JustificationType, reason string) (attendance.Justification, error)
	MonthlySummary(ctx context.Context, employeeID int64, year int, month time.Month) ([]attendance.DaySummary, error)
	ExportCSV(ctx context.Context, w io.Writer, from, to time.Time) error
}

type AttendanceStore interface {
	DeleteEvents(ctx context.Context, employeeID int64, scope attendance.DeleteScope) (int64, error)
}

type TapService interface {
	ProcessTap(ctx context.Context, rawUID, site string) (attendance.Event, error)
}

type AttendanceHandler interface {
	Day(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Summary(w http.ResponseWriter, r *http.Request)
	Export(w http.ResponseWriter, r *http.Request)
	Justify(w http.ResponseWriter, r *http.Request)
	ManualTap(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	reports ReportService
	store   AttendanceStore
	taps    TapService
}

func NewAttendanceHandler(reports ReportService, store AttendanceStore, taps TapService) AttendanceHandler {
	return &attendanceHandlerImpl{reports: reports, store: store, taps: taps}
}

type dayRecordResponse struct {
	ID           int64   `json:"id"`
	EmployeeID   int64   `json:"employee_id"`
	EmployeeName string  `json:"employee_name"`
	PhotoPath    *string `json:"photo_path,omitempty"`
	Site         string  `json:"site"`
	Date         string  `json:"date"`
	Time         string  `json:"time"`
	Movement     string  `json:"movement"`
	Status       string  `json:"status"`
	Justified    bool    `json:"justified"`
	Synchronized bool    `json:"synchronized"`
}

// Day implements AttendanceHandler. Without a date parameter it
// returns today.
func (h *attendanceHandlerImpl) Day(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, ok := validator.IsValidDate(raw)
		if !ok {
			response.BadRequest(w, "date must be YYYY-MM-DD", nil)
			return
		}
		date = parsed
	}

	recs, err := h.reports.DayView(r.Context(), date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]dayRecordResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, dayRecordResponse{
			ID:           rec.Event.ID,
			EmployeeID:   rec.Event.EmployeeID,
			EmployeeName: rec.EmployeeName,
			PhotoPath:    rec.PhotoPath,
			Site:         rec.Event.Site,
			Date:         rec.Event.Date.Format("2006-01-02"),
			Time:         rec.Event.RecordedAt.Format("15:04:05"),
			Movement:     string(rec.Event.Movement),
			Status:       rec.DisplayStatus(),
			Justified:    rec.Justified,
			Synchronized: rec.Event.Synchronized,
		})
	}
	response.Success(w, out)
}

// Delete implements AttendanceHandler. Scope is day, month or all.
func (h *attendanceHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	var scope attendance.DeleteScope
	switch query.Get("scope") {
	case "day":
		date, ok := validator.IsValidDate(query.Get("date"))
		if !ok {
			response.BadRequest(w, "date must be YYYY-MM-DD", nil)
			return
		}
		scope = attendance.DayScope(date)
	case "month":
		year, month, ok := yearMonthParams(w, query.Get("year"), query.Get("month"))
		if !ok {
			return
		}
		scope = attendance.MonthScope(year, month)
	case "all":
		scope = attendance.AllScope()
	default:
		response.BadRequest(w, "scope must be day, month or all", nil)
		return
	}

	deleted, err := h.store.DeleteEvents(r.Context(), id, scope)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, fmt.Sprintf("%d events deleted", deleted), map[string]int64{"deleted": deleted})
}

type daySummaryResponse struct {
	Date        string  `json:"date"`
	FirstEntry  *string `json:"first_entry,omitempty"`
	LastExit    *string `json:"last_exit,omitempty"`
	EntryStatus *string `json:"entry_status,omitempty"`
	ExitStatus  *string `json:"exit_status,omitempty"`
}

// Summary implements AttendanceHandler.
func (h *attendanceHandlerImpl) Summary(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	query := r.URL.Query()
	year, month, ok := yearMonthParams(w, query.Get("year"), query.Get("month"))
	if !ok {
		return
	}

	rows, err := h.reports.MonthlySummary(r.Context(), id, year, month)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	out := make([]daySummaryResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, daySummaryResponse{
			Date:        row.Date.Format("2006-01-02"),
			FirstEntry:  clockString(row.FirstEntry),
			LastExit:    clockString(row.LastExit),
			EntryStatus: statusString(row.EntryStatus),
			ExitStatus:  statusString(row.ExitStatus),
		})
	}
	response.Success(w, out)
}

// Export implements AttendanceHandler, streaming CSV.
func (h *attendanceHandlerImpl) Export(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, ok := validator.IsValidDate(query.Get("from"))
	if !ok {
		response.BadRequest(w, "from must be YYYY-MM-DD", nil)
		return
	}
	to, ok := validator.IsValidDate(query.Get("to"))
	if !ok {
		response.BadRequest(w, "to must be YYYY-MM-DD", nil)
		return
	}
	if to.Before(from) {
		response.BadRequest(w, "to must not precede from", nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=attendance_%s_%s.csv",
			from.Format("2006-01-02"), to.Format("2006-01-02")))
	if err := h.reports.ExportCSV(r.Context(), w, from, to); err != nil {
		// Headers are already out; the truncated body is all we can do.
		return
	}
}

type justifyRequest struct {
	EmployeeID int64  `json:"employee_id"`
	Date       string `json:"date"`
	Type       string `json:"type"`
	Reason     string `json:"reason"`
}

func (req justifyRequest) Validate() error {
	var errs validator.ValidationErrors
	if req.EmployeeID <= 0 {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "required"})
	}
	if _, ok := validator.IsValidDate(req.Date); !ok {
		errs = append(errs, validator.ValidationError{Field: "date", Message: "must be YYYY-MM-DD"})
	}
	if !validator.IsInSlice(req.Type, []string{"LATE", "EARLY", "ABSENT"}) {
		errs = append(errs, validator.ValidationError{Field: "type", Message: "must be LATE, EARLY or ABSENT"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Justify implements AttendanceHandler.
func (h *attendanceHandlerImpl) Justify(w http.ResponseWriter, r *http.Request) {
	var req justifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}
	date, _ := validator.IsValidDate(req.Date)

	j, err := h.reports.Justify(r.Context(), req.EmployeeID, date, attendance.JustificationType(req.Type), req.Reason)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Justification recorded", map[string]any{
		"id":          j.ID,
		"employee_id": j.EmployeeID,
		"date":        j.Date.Format("2006-01-02"),
		"type":        string(j.Type),
		"reason":      j.Reason,
	})
}

type tapRequest struct {
	CardUID string `json:"card_uid"`
	Site    string `json:"site"`
}

func (req tapRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(req.CardUID) {
		errs = append(errs, validator.ValidationError{Field: "card_uid", Message: "required"})
	}
	if validator.IsEmpty(req.Site) {
		errs = append(errs, validator.ValidationError{Field: "site", Message: "required"})
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ManualTap implements AttendanceHandler. It feeds the same pipeline a
// card reader does, used when an employee forgot their card.
func (h *attendanceHandlerImpl) ManualTap(w http.ResponseWriter, r *http.Request) {
	var req tapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	ev, err := h.taps.ProcessTap(r.Context(), req.CardUID, req.Site)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Tap recorded", map[string]any{
		"id":          ev.ID,
		"employee_id": ev.EmployeeID,
		"site":        ev.Site,
		"date":        ev.Date.Format("2006-01-02"),
		"time":        ev.RecordedAt.Format("15:04:05"),
		"movement":    string(ev.Movement),
		"status":      string(ev.Status),
	})
}

func yearMonthParams(w http.ResponseWriter, yearRaw, monthRaw string) (int, time.Month, bool) {
	year, err := strconv.Atoi(yearRaw)
	if err != nil || year < 2000 || year > 2200 {
		response.BadRequest(w, "year must be a four digit year", nil)
		return 0, 0, false
	}
	month, err := strconv.Atoi(monthRaw)
	if err != nil || month < 1 || month > 12 {
		response.BadRequest(w, "month must be 1-12", nil)
		return 0, 0, false
	}
	return year, time.Month(month), true
}

func clockString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("15:04:05")
	return &s
}

func statusString(st *attendance.Status) *string {
	if st == nil {
		return nil
	}
	s := string(*st)
	return &s
}
