package attendance

import "errors"

var (
	ErrEventNotFound = errors.New("attendance event not found")

	// ErrBackendUnavailable wraps a failed operation against the remote
	// store; the next tap falls back to the local store.
	ErrBackendUnavailable = errors.New("attendance backend unavailable")

	// ErrSyncConflict is reserved for two-way roster conflicts. The
	// current full-overwrite pull cannot detect them, so nothing
	// returns it yet.
	ErrSyncConflict = errors.New("sync conflict")

	// ErrDuplicateTap flags a tap suppressed by the defensive debounce
	// window when the reader driver violates its card-present contract.
	ErrDuplicateTap = errors.New("duplicate tap suppressed")

	ErrUnknownSite = errors.New("site not known to remote store")
)
