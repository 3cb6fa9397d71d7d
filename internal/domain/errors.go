package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced to callers. Everything user-facing wraps one of
// these; infrastructure failures are wrapped in ErrUnavailable so callers
// can distinguish "retry later" from "fix your request".
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("vehicle is already booked for the selected dates")
	ErrForbidden          = errors.New("actor is not allowed to perform this operation")
	ErrAlreadyTerminal    = errors.New("booking is already in a terminal state")
	ErrNotFound           = errors.New("not found")
	ErrTransitionRejected = errors.New("illegal status transition")
	ErrUnavailable        = errors.New("storage unavailable, retry later")
)

// Validationf wraps ErrValidation with a caller-facing reason.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
