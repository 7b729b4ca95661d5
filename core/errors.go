package core

import "github.com/pkg/errors"

// FieldError ties a validation failure to the request field that caused it.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is a rejected payload: an overall error plus the per-field
// failures the API renders as a field map.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{Err: err, Fields: flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown marks a fault the API cannot recover from; the error handler
// reacts by signalling a graceful shutdown.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
