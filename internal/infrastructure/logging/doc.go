// Package logging provides structured logging for petkit-bridge.
//
// It wraps log/slog with level parsing, output format selection and
// default service fields so every component logs in a consistent shape.
package logging
