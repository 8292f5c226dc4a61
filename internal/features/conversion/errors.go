package conversion

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError reports unusable caller input. It is raised before any
// write happens.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string { return "invalid conversion input: " + e.Err.Error() }
func (e *ValidationError) Unwrap() error { return e.Err }

// PreconditionError reports a source record in the wrong state for the
// conversion: already converted, missing, or changed underneath us.
type PreconditionError struct {
	Reason string
	Err    error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// PersistenceError wraps a store failure. The transaction has been rolled
// back when it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

func precondition(format string, args ...any) *PreconditionError {
	return &PreconditionError{Reason: fmt.Sprintf(format, args...)}
}

// UserMessage is the only text about a failed conversion that reaches end
// users. Store internals never leak through it.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return "Invalid conversion request: " + describe(verr.Err)
	}
	var perr *PreconditionError
	if errors.As(err, &perr) {
		return perr.Reason
	}
	return "Conversion failed. No changes were made."
}

func describe(err error) string {
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err.Error()
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", f.Field(), f.Tag(), f.Param()))
		} else {
			parts = append(parts, fmt.Sprintf("%s failed %s", f.Field(), f.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}
