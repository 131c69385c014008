package petkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for session operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrLoginFailed is returned when the vendor rejects a login attempt
	// or the response carries no session.
	ErrLoginFailed = errors.New("petkit: login failed")

	// ErrSessionNotFound is returned by a SessionStore when no persisted
	// session exists for the username.
	ErrSessionNotFound = errors.New("petkit: session not found")
)

// Session-expiry codes returned by the vendor when X-Session is stale.
const (
	codeSessionInvalid = 5
	codeSessionExpired = 8
)

// APIError is a vendor-level error carried inside a response envelope.
type APIError struct {
	Code int
	Msg  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("petkit: api error %d: %s", e.Code, e.Msg)
}

// AuthExpired reports whether the error indicates a stale session that
// a fresh login would cure.
func (e *APIError) AuthExpired() bool {
	return e.Code == codeSessionInvalid || e.Code == codeSessionExpired
}

// EnvelopeError extracts the vendor error from a response envelope.
// Returns nil when the envelope carries no error (code 0 or absent).
func EnvelopeError(rsp map[string]any) *APIError {
	errObj, ok := rsp["error"].(map[string]any)
	if !ok {
		return nil
	}
	code := envelopeInt(errObj["code"])
	if code == 0 {
		return nil
	}
	msg, _ := errObj["msg"].(string)
	return &APIError{Code: code, Msg: msg}
}

// envelopeInt coerces the numeric types encoding/json produces.
func envelopeInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	}
	return 0
}
