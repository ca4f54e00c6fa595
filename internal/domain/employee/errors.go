package employee

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrDuplicateCard is returned before any backend write when a card
	// uid is already assigned to another active employee.
	ErrDuplicateCard = errors.New("card already assigned to an active employee")

	ErrNameRequired = errors.New("employee name is required")
)
