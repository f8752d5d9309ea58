package services

import "errors"

// Validation failures surface to the immediate caller of the engine's
// public operations; scan and dispatch failures never do.
var (
	ErrUnknownAlertType   = errors.New("unknown alert type")
	ErrInvalidSeverity    = errors.New("invalid alert severity")
	ErrMissingTitle       = errors.New("alert title is required")
	ErrAlertNotFound      = errors.New("alert not found")
	ErrInvalidTransition  = errors.New("invalid alert status transition")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
