package variables

import (
	"errors"
	"fmt"
)

// LoadErrorCode categorizes storage configuration failures.
type LoadErrorCode string

const (
	// ErrCodeDisabled marks a section skipped because enabled is false.
	ErrCodeDisabled LoadErrorCode = "E_DISABLED"
	// ErrCodeMissingType marks a section without a type.
	ErrCodeMissingType LoadErrorCode = "E_MISSING_TYPE"
	// ErrCodeUnknownType marks a type that names no registered backend.
	ErrCodeUnknownType LoadErrorCode = "E_UNKNOWN_TYPE"
	// ErrCodeConfig marks a backend that rejected its configuration.
	ErrCodeConfig LoadErrorCode = "E_CONFIG"
	// ErrCodeLoad marks a backend that failed to read persisted variables.
	ErrCodeLoad LoadErrorCode = "E_LOAD"
)

// LoadError reports one database section that could not be loaded. Other
// sections are unaffected.
type LoadError struct {
	Database string
	Code     LoadErrorCode
	Message  string
	Err      error
}

func (e *LoadError) Error() string {
	msg := fmt.Sprintf("%s: database %q: %s", e.Code, e.Database, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LoadError) Unwrap() error { return e.Err }

// ErrDuplicateAlias is returned when a backend alias is registered twice.
var ErrDuplicateAlias = errors.New("storage alias already registered")

// LoadErrors extracts every LoadError from an error returned by Store.Load.
func LoadErrors(err error) []*LoadError {
	if err == nil {
		return nil
	}
	var out []*LoadError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, LoadErrors(e)...)
		}
		return out
	}
	var le *LoadError
	if errors.As(err, &le) {
		out = append(out, le)
	}
	return out
}

// IsLoadError reports whether err carries a LoadError with the given code.
func IsLoadError(err error, code LoadErrorCode) bool {
	for _, le := range LoadErrors(err) {
		if le.Code == code {
			return true
		}
	}
	return false
}

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("storage closed")
