package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pointrec/attendance-terminal/internal/domain/employee"
	"github.com/pointrec/attendance-terminal/internal/domain/schedule"
	"github.com/pointrec/attendance-terminal/internal/handler/http/response"
	"github.com/pointrec/attendance-terminal/internal/pkg/validator"
)

type EmployeeStore interface {
	ActiveEmployees(ctx context.Context) ([]employee.Employee, error)
	EmployeeByID(ctx context.Context, id int64) (employee.Employee, error)
	CreateEmployee(ctx context.Context, emp employee.Employee) (employee.Employee, error)
	UpdateEmployee(ctx context.Context, emp employee.Employee) error
	DeactivateEmployee(ctx context.Context, id int64) error
}

type EmployeeHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Deactivate(w http.ResponseWriter, r *http.Request)
}

type employeeHandlerImpl struct {
	store EmployeeStore
}

func NewEmployeeHandler(store EmployeeStore) EmployeeHandler {
	return &employeeHandlerImpl{store: store}
}

var weekdayKeys = map[string]time.Weekday{
	"mon": time.Monday,
	"tue": time.Tuesday,
	"wed": time.Wednesday,
	"thu": time.Thursday,
	"fri": time.Friday,
}

type employeeRequest struct {
	FullName         string            `json:"full_name"`
	Role             string            `json:"role"`
	CardUID          *string           `json:"card_uid"`
	PhotoPath        *string           `json:"photo_path"`
	EntryTime        string            `json:"entry_time"`
	ExitTime         string            `json:"exit_time"`
	AltEntryTime     *string           `json:"alt_entry_time"`
	AltExitTime      *string           `json:"alt_exit_time"`
	RotationEnabled  bool              `json:"rotation_enabled"`
	RotationBase     int               `json:"rotation_base"`
	OverridesEnabled bool              `json:"overrides_enabled"`
	EntryOverrides   map[string]string `json:"entry_overrides"`
	ExitOverrides    map[string]string `json:"exit_overrides"`
}

func (req employeeRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(req.FullName) {
		errs = append(errs, validator.ValidationError{Field: "full_name", Message: "required"})
	}
	errs = append(errs, validateTime("entry_time", req.EntryTime)...)
	errs = append(errs, validateTime("exit_time", req.ExitTime)...)
	if req.AltEntryTime != nil {
		errs = append(errs, validateTime("alt_entry_time", *req.AltEntryTime)...)
	}
	if req.AltExitTime != nil {
		errs = append(errs, validateTime("alt_exit_time", *req.AltExitTime)...)
	}
	if req.RotationBase != 0 && req.RotationBase != 1 {
		errs = append(errs, validator.ValidationError{Field: "rotation_base", Message: "must be 0 or 1"})
	}
	errs = append(errs, validateOverrides("entry_overrides", req.EntryOverrides)...)
	errs = append(errs, validateOverrides("exit_overrides", req.ExitOverrides)...)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validateTime(field, value string) validator.ValidationErrors {
	if !validator.IsValidTimeOfDay(value) {
		return validator.ValidationErrors{{Field: field, Message: "must be HH:MM"}}
	}
	return nil
}

func validateOverrides(field string, m map[string]string) validator.ValidationErrors {
	var errs validator.ValidationErrors
	for key, value := range m {
		if _, ok := weekdayKeys[key]; !ok {
			errs = append(errs, validator.ValidationError{Field: field + "." + key, Message: "day must be mon..fri"})
			continue
		}
		errs = append(errs, validateTime(field+"."+key, value)...)
	}
	return errs
}

// toDomain assumes Validate has already passed.
func (req employeeRequest) toDomain() (employee.Employee, error) {
	emp := employee.Employee{
		FullName:  req.FullName,
		Role:      req.Role,
		CardUID:   req.CardUID,
		PhotoPath: req.PhotoPath,
		Active:    true,
	}
	var err error
	if emp.Schedule.Entry, err = schedule.ParseTimeOfDay(req.EntryTime); err != nil {
		return employee.Employee{}, err
	}
	if emp.Schedule.Exit, err = schedule.ParseTimeOfDay(req.ExitTime); err != nil {
		return employee.Employee{}, err
	}
	if req.AltEntryTime != nil {
		t, err := schedule.ParseTimeOfDay(*req.AltEntryTime)
		if err != nil {
			return employee.Employee{}, err
		}
		emp.Schedule.AltEntry = &t
	}
	if req.AltExitTime != nil {
		t, err := schedule.ParseTimeOfDay(*req.AltExitTime)
		if err != nil {
			return employee.Employee{}, err
		}
		emp.Schedule.AltExit = &t
	}
	emp.Schedule.RotationEnabled = req.RotationEnabled
	emp.Schedule.RotationBase = req.RotationBase
	emp.Schedule.OverridesEnabled = req.OverridesEnabled
	if emp.Schedule.EntryOverrides, err = parseOverrides(req.EntryOverrides); err != nil {
		return employee.Employee{}, err
	}
	if emp.Schedule.ExitOverrides, err = parseOverrides(req.ExitOverrides); err != nil {
		return employee.Employee{}, err
	}
	return emp, nil
}

func parseOverrides(m map[string]string) (map[time.Weekday]schedule.TimeOfDay, error) {
	if len(m) == 0 {
		return nil, nil
	}
	out := make(map[time.Weekday]schedule.TimeOfDay, len(m))
	for key, value := range m {
		t, err := schedule.ParseTimeOfDay(value)
		if err != nil {
			return nil, err
		}
		out[weekdayKeys[key]] = t
	}
	return out, nil
}

type employeeResponse struct {
	ID               int64             `json:"id"`
	FullName         string            `json:"full_name"`
	Role             string            `json:"role"`
	CardUID          *string           `json:"card_uid,omitempty"`
	PhotoPath        *string           `json:"photo_path,omitempty"`
	Active           bool              `json:"active"`
	Exempt           bool              `json:"exempt"`
	EntryTime        string            `json:"entry_time"`
	ExitTime         string            `json:"exit_time"`
	AltEntryTime     *string           `json:"alt_entry_time,omitempty"`
	AltExitTime      *string           `json:"alt_exit_time,omitempty"`
	RotationEnabled  bool              `json:"rotation_enabled"`
	RotationBase     int               `json:"rotation_base"`
	OverridesEnabled bool              `json:"overrides_enabled"`
	EntryOverrides   map[string]string `json:"entry_overrides,omitempty"`
	ExitOverrides    map[string]string `json:"exit_overrides,omitempty"`
}

func toEmployeeResponse(emp employee.Employee) employeeResponse {
	resp := employeeResponse{
		ID:               emp.ID,
		FullName:         emp.FullName,
		Role:             emp.Role,
		CardUID:          emp.CardUID,
		PhotoPath:        emp.PhotoPath,
		Active:           emp.Active,
		Exempt:           emp.Schedule.Exempt(),
		EntryTime:        emp.Schedule.Entry.String(),
		ExitTime:         emp.Schedule.Exit.String(),
		RotationEnabled:  emp.Schedule.RotationEnabled,
		RotationBase:     emp.Schedule.RotationBase,
		OverridesEnabled: emp.Schedule.OverridesEnabled,
		EntryOverrides:   formatOverrides(emp.Schedule.EntryOverrides),
		ExitOverrides:    formatOverrides(emp.Schedule.ExitOverrides),
	}
	if emp.Schedule.AltEntry != nil {
		s := emp.Schedule.AltEntry.String()
		resp.AltEntryTime = &s
	}
	if emp.Schedule.AltExit != nil {
		s := emp.Schedule.AltExit.String()
		resp.AltExitTime = &s
	}
	return resp
}

func formatOverrides(m map[time.Weekday]schedule.TimeOfDay) map[string]string {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]string, len(m))
	for key, day := range weekdayKeys {
		if t, ok := m[day]; ok {
			out[key] = t.String()
		}
	}
	return out
}

// List implements EmployeeHandler.
func (h *employeeHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	emps, err := h.store.ActiveEmployees(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	out := make([]employeeResponse, 0, len(emps))
	for _, emp := range emps {
		out = append(out, toEmployeeResponse(emp))
	}
	response.Success(w, out)
}

// Get implements EmployeeHandler.
func (h *employeeHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	emp, err := h.store.EmployeeByID(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, toEmployeeResponse(emp))
}

// Create implements EmployeeHandler.
func (h *employeeHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeEmployeeRequest(w, r)
	if !ok {
		return
	}
	emp, err := req.toDomain()
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}
	created, err := h.store.CreateEmployee(r.Context(), emp)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Created(w, "Employee created", toEmployeeResponse(created))
}

// Update implements EmployeeHandler.
func (h *employeeHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	req, ok := decodeEmployeeRequest(w, r)
	if !ok {
		return
	}
	emp, err := req.toDomain()
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}
	emp.ID = id
	if err := h.store.UpdateEmployee(r.Context(), emp); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Employee updated", toEmployeeResponse(emp))
}

// Deactivate implements EmployeeHandler.
func (h *employeeHandlerImpl) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.store.DeactivateEmployee(r.Context(), id); err != nil {
		response.HandleError(w, err)
		return
	}
	response.SuccessWithMessage(w, "Employee deactivated", nil)
}

func decodeEmployeeRequest(w http.ResponseWriter, r *http.Request) (employeeRequest, bool) {
	var req employeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request format", nil)
		return employeeRequest{}, false
	}
	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return employeeRequest{}, false
	}
	return req, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid employee id", nil)
		return 0, false
	}
	return id, true
}
