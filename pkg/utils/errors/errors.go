package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an engine error
type Kind uint8

const (
	// KindUnknown represents an unclassified error
	KindUnknown Kind = iota
	// KindInvalidParameter represents an input the domain forbids
	KindInvalidParameter
	// KindNoConvergence represents a bounded root-finder that exhausted its
	// iterations or found no sign change in its bracket
	KindNoConvergence
	// KindNumericallyDegenerate represents inputs that would make the general
	// formula divide by zero or otherwise lose meaning
	KindNumericallyDegenerate
	// KindNotFound represents a missing resource
	KindNotFound
	// KindTimeout represents a canceled or expired computation
	KindTimeout
	// KindInternal represents an internal failure
	KindInternal
)

// Sentinel errors for outcome matching with errors.Is
var (
	ErrNoConvergence = errors.New("no convergence")
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
)

// Error is the application error carried across the engine boundary
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error returns the error message
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindUnknown if it carries none
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// New creates an unclassified error
func New(message string) error {
	return &Error{Kind: KindUnknown, Message: message}
}

// Wrap wraps an error with a message, preserving its kind
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindOf(err), Message: message, Err: err}
}

// Wrapf wraps an error with a formatted message
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// InvalidParameter creates an InvalidParameter error
func InvalidParameter(message string) error {
	return &Error{Kind: KindInvalidParameter, Message: message, Err: ErrInvalidInput}
}

// InvalidParameterf creates a formatted InvalidParameter error
func InvalidParameterf(format string, args ...interface{}) error {
	return InvalidParameter(fmt.Sprintf(format, args...))
}

// NoConvergence creates a NoConvergence error; callers match it with
// errors.Is(err, ErrNoConvergence)
func NoConvergence(message string) error {
	return &Error{Kind: KindNoConvergence, Message: message, Err: ErrNoConvergence}
}

// NumericallyDegenerate creates a NumericallyDegenerate error
func NumericallyDegenerate(message string) error {
	return &Error{Kind: KindNumericallyDegenerate, Message: message}
}

// NotFound creates a NotFound error
func NotFound(message string) error {
	return &Error{Kind: KindNotFound, Message: message, Err: ErrNotFound}
}

// Timeout creates a Timeout error
func Timeout(message string) error {
	return &Error{Kind: KindTimeout, Message: message}
}

// Internal creates an Internal error
func Internal(message string) error {
	return &Error{Kind: KindInternal, Message: message}
}

// Is reports whether err or any error in its chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain matching target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
