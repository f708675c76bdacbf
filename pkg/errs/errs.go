// Package errs defines the error kinds reported by the meshing engine.
// Every failure returned by krado wraps exactly one of the sentinel kinds
// below, so callers can branch with errors.Is.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a tag or name lookup misses.
	ErrNotFound = errors.New("not found")

	// ErrUnknownScheme is returned when a scheme name is not registered for
	// the entity's dimension.
	ErrUnknownScheme = errors.New("unknown scheme")

	// ErrMissingParameter is returned when a required scheme parameter was
	// never set and has no default.
	ErrMissingParameter = errors.New("missing parameter")

	// ErrInvalidParameter is returned for unknown parameter names, wrong
	// value types and out-of-range values.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrUnmeshedDependency is returned when a surface or volume is meshed
	// before its boundary.
	ErrUnmeshedDependency = errors.New("unmeshed dependency")

	// ErrDegenerateGeometry is returned for zero-length curves, zero-norm
	// vectors and singular transforms.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
)

// EntityError attaches the failing operation and entity to an error kind.
//
// Both the kind and the underlying cause (if any) are reachable through
// errors.Is / errors.As.
type EntityError struct {
	Op     string // operation, e.g. "mesh surface"
	Entity string // "vertex", "curve", "surface", "volume" or "" for none
	Tag    int
	Kind   error
	Msg    string
	cause  error
}

func (e *EntityError) Error() string {
	s := e.Op
	if e.Entity != "" {
		s += fmt.Sprintf(": %s %d", e.Entity, e.Tag)
	}
	// A cause that already carries the kind prints it itself.
	if e.Kind != nil && (e.cause == nil || !errors.Is(e.cause, e.Kind)) {
		s += ": " + e.Kind.Error()
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

// Unwrap exposes the kind and the cause.
func (e *EntityError) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.cause != nil {
		out = append(out, e.cause)
	}
	return out
}

// New builds an EntityError with a formatted message.
func New(op, entity string, tag int, kind error, format string, args ...any) *EntityError {
	return &EntityError{
		Op:     op,
		Entity: entity,
		Tag:    tag,
		Kind:   kind,
		Msg:    fmt.Sprintf(format, args...),
	}
}

// Wrap builds an EntityError around a cause. If cause already carries one of
// the sentinel kinds and kind is nil, that kind is kept.
func Wrap(op, entity string, tag int, kind error, cause error) *EntityError {
	if kind == nil {
		kind = KindOf(cause)
	}
	return &EntityError{
		Op:     op,
		Entity: entity,
		Tag:    tag,
		Kind:   kind,
		cause:  cause,
	}
}

// Errorf returns a plain error of the given kind.
func Errorf(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

var kinds = []error{
	ErrNotFound,
	ErrUnknownScheme,
	ErrMissingParameter,
	ErrInvalidParameter,
	ErrUnmeshedDependency,
	ErrDegenerateGeometry,
}

// KindOf returns the sentinel kind carried by err, or nil.
func KindOf(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
