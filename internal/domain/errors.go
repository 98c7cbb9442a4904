package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNameTaken           = errors.New("participant name already taken")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrMessageNotFound     = errors.New("message not found")
	ErrNotOwner            = errors.New("requester is not the message owner")
)

// ValidationError carries per-field problems and matches ErrInvalidInput.
type ValidationError struct {
	Details []string
}

func (e *ValidationError) Error() string {
	if len(e.Details) == 0 {
		return ErrInvalidInput.Error()
	}
	msg := ErrInvalidInput.Error() + ":"
	for i, d := range e.Details {
		if i > 0 {
			msg += ";"
		}
		msg += " " + d
	}
	return msg
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

func NewValidationError(details ...string) *ValidationError {
	return &ValidationError{Details: details}
}
