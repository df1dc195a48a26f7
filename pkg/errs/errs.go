// Package errs defines the typed error kinds shared across the map core, per
// the error-handling design: construction fails hard only on InvalidInput and
// NumericalFailure; everything else degrades to an empty/absent result or a
// logged, skipped record.
package errs

import "github.com/pkg/errors"

// Kind classifies a map-core error so callers can branch with Is(err, kind)
// against the Kind values below, or read Kind from an *Error found with
// errors.As.
type Kind int

const (
	// InvalidInput marks an empty or degenerate polyline, mismatched
	// bounding-box coordinates, or an empty cache key.
	InvalidInput Kind = iota
	// NumericalFailure marks a spline solve that produced non-finite values.
	NumericalFailure
	// NotFound marks an absent nearest point, an unreachable path, or a
	// cache miss surfaced as an error (most such cases instead return a
	// zero value/empty result; this kind is for APIs that must return an
	// error, e.g. border.ReparameterizeBasedOnReference when the reference
	// projects to a single point).
	NotFound
	// CacheIOError marks a persistent-store read/write failure.
	CacheIOError
	// FeedFormatError marks a feed record missing required fields.
	FeedFormatError
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case NumericalFailure:
		return "numerical_failure"
	case NotFound:
		return "not_found"
	case CacheIOError:
		return "cache_io_error"
	case FeedFormatError:
		return "feed_format_error"
	default:
		return "unknown"
	}
}

// Error is a typed map-core error. It wraps an optional cause with
// github.com/pkg/errors so stack traces survive across package boundaries.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.cause }

// New creates an Error of the given kind with no wrapped cause.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap creates an Error of the given kind, wrapping cause with a stack trace.
func Wrap(kind Kind, cause error, message string) *Error {
	if cause == nil {
		return New(kind, message)
	}
	return &Error{Kind: kind, Message: message, cause: errors.WithStack(cause)}
}

// Is reports whether err is a map-core Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}
