package device

import "errors"

// Domain-specific errors for device operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrMissingID is returned when a roster payload has no device ID.
	ErrMissingID = errors.New("device: payload has no id")

	// ErrNotFound is returned when a device ID is not in the registry.
	ErrNotFound = errors.New("device: not found")

	// ErrNotSupported is returned when an operation does not apply to
	// the device's kind (e.g. feeding a litter box).
	ErrNotSupported = errors.New("device: operation not supported")

	// ErrControlFailed is returned when the vendor rejects a control
	// request. Local state is left untouched.
	ErrControlFailed = errors.New("device: control failed")

	// ErrUnknownAction is returned for an action name outside the
	// litter box action table.
	ErrUnknownAction = errors.New("device: unknown action")
)
