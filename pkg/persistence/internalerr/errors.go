package internalerr

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	ErrNotFound           = errors.New("not found")
	ErrMalformedInput     = errors.New("malformed input")
	ErrDegenerateTerm     = errors.New("degenerate term")
	ErrDegenerateDocument = errors.New("degenerate document")
	ErrDuplicate          = errors.New("duplicate entry")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// InputError ties a failure to the file and record it came from.
// Index is -1 when the failure is not tied to a single record.
type InputError struct {
	Path  string
	Index int
	Err   error
}

func (e *InputError) Error() string {
	switch {
	case e.Path != "" && e.Index >= 0:
		return fmt.Sprintf("%s: record %d: %v", e.Path, e.Index, e.Err)
	case e.Path != "":
		return fmt.Sprintf("%s: %v", e.Path, e.Err)
	case e.Index >= 0:
		return fmt.Sprintf("record %d: %v", e.Index, e.Err)
	default:
		return e.Err.Error()
	}
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Malformed builds an InputError wrapping ErrMalformedInput.
func Malformed(path string, index int, format string, args ...any) error {
	return &InputError{
		Path:  path,
		Index: index,
		Err:   fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...)),
	}
}

// WithPath fills in the path of an InputError that was built without one.
// Other errors are wrapped as-is.
func WithPath(err error, path string) error {
	var ie *InputError
	if errors.As(err, &ie) && ie.Path == "" {
		return &InputError{Path: path, Index: ie.Index, Err: ie.Err}
	}
	return fmt.Errorf("%s: %w", path, err)
}

// Config builds an ErrInvalidConfig error.
func Config(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, fmt.Sprintf(format, args...))
}
