// Package errs classifies verification failures into the harness error
// taxonomy: environment failures (reset/apply/test spawn), input failures
// (unreadable patches), report failures (missing or malformed test reports),
// and IO failures (persisting the verdict).
package errs

import "errors"

type Category string

const (
	CategoryEnvironment Category = "environment"
	CategoryInput       Category = "input"
	CategoryReport      Category = "report"
	CategoryIO          Category = "io"
)

type classifiedError struct {
	category Category
	code     string
	cause    error
}

func (e *classifiedError) Error() string {
	if e.cause == nil {
		return "unknown error"
	}
	return e.cause.Error()
}

func (e *classifiedError) Unwrap() error {
	return e.cause
}

// Wrap attaches a category and stable reason code to cause. A nil cause
// stays nil so call sites can wrap unconditionally.
func Wrap(cause error, category Category, code string) error {
	if cause == nil {
		return nil
	}
	return &classifiedError{
		category: category,
		code:     code,
		cause:    cause,
	}
}

func CategoryOf(err error) Category {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.category
	}
	return ""
}

func CodeOf(err error) string {
	var classified *classifiedError
	if errors.As(err, &classified) {
		return classified.code
	}
	return ""
}
