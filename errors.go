package watchkit

import (
	"errors"
	"fmt"
	"strings"
)

// Common watcher errors
var (
	ErrClosed        = errors.New("watcher already closed")
	ErrNotExist      = errors.New("path does not exist")
	ErrUnknownMethod = errors.New("unknown watch method")
	ErrNotActive     = errors.New("watcher is not active")
	ErrChildFailure  = errors.New("failed to watch child path")
)

// PathError records an error and the operation and file path that caused it
type PathError struct {
	Op   string
	Path string
	Err  error
}

// Error implements the error interface
func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error
func (e *PathError) Unwrap() error {
	return e.Err
}

// BindAttempt records one failed attempt to bind a watch method.
type BindAttempt struct {
	Method Method
	Err    error
}

// BindError aggregates the bind failures of every preferred method after
// the fallback chain is exhausted.
type BindError struct {
	Path     string
	Attempts []BindAttempt
}

// Error implements the error interface
func (e *BindError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "no watch method succeeded for %s:", e.Path)
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, " %s (%v);", a.Method, a.Err)
	}
	return strings.TrimSuffix(b.String(), ";")
}

// Unwrap exposes the underlying attempt errors for errors.Is/As.
func (e *BindError) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// IsNotExist reports whether an error indicates that a watched path
// does not exist
func IsNotExist(err error) bool {
	return errors.Is(err, ErrNotExist)
}

// IsClosed reports whether an error indicates the watcher was already closed
func IsClosed(err error) bool {
	return errors.Is(err, ErrClosed)
}
