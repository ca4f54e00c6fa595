package response

import (
	"errors"
	"net/http"

	"github.com/pointrec/attendance-terminal/internal/domain/attendance"
	"github.com/pointrec/attendance-terminal/internal/domain/employee"
	"github.com/pointrec/attendance-terminal/internal/domain/schedule"
	"github.com/pointrec/attendance-terminal/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Employee domain errors
	case errors.Is(err, employee.ErrEmployeeNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, employee.ErrDuplicateCard):
		Conflict(w, "Card already assigned to an active employee")
	case errors.Is(err, employee.ErrNameRequired):
		BadRequest(w, "Employee name is required", nil)
	case errors.Is(err, schedule.ErrScheduleConfig):
		BadRequest(w, err.Error(), nil)

	// Attendance domain errors
	case errors.Is(err, attendance.ErrEventNotFound):
		NotFound(w, "Attendance event not found")
	case errors.Is(err, attendance.ErrDuplicateTap):
		Conflict(w, "Tap ignored, card was just presented")
	case errors.Is(err, attendance.ErrUnknownSite):
		BadRequest(w, "Unknown site", nil)
	case errors.Is(err, attendance.ErrBackendUnavailable):
		ServiceUnavailable(w, "Attendance store temporarily unavailable")

	// Default
	default:
		InternalServerError(w, "An unexpected error occurred")
	}
}
