package mail

import "errors"

var (
	// ErrValidation is the sentinel all validation failures wrap,
	// so callers can errors.Is without inspecting individual violations.
	ErrValidation = errors.New("mail: validation failed")
)
