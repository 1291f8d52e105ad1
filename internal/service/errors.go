package service

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrInternalError  = errors.New("internal error")
)

// ValidationError carries the user-facing reason a request was rejected.
// It matches ErrInvalidRequest with errors.Is.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return ErrInvalidRequest.Error() + ": " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}
