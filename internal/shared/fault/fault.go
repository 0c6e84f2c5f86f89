// Package fault classifies the recoverable errors returned by the walk engine
// so callers can map them to user messages or status codes without string matching.
package fault

import "errors"

type Category string

const (
	CategorySequencing    Category = "sequencing"
	CategoryCapacity      Category = "capacity"
	CategoryAuthorization Category = "authorization"
	CategoryValidation    Category = "validation"
	CategoryState         Category = "state"
	// CategoryNotFound is used by the service layer for unknown walks and walkers.
	CategoryNotFound Category = "not_found"
)

// Error is a classified error. Values are compared by identity, so package
// level sentinels built with New work with errors.Is.
type Error struct {
	category Category
	code     string
	msg      string
	cause    error
}

func New(category Category, code, msg string) *Error {
	return &Error{category: category, code: code, msg: msg}
}

// Wrap classifies cause. A nil cause yields nil.
func Wrap(cause error, category Category, code string) error {
	if cause == nil {
		return nil
	}
	return &Error{category: category, code: code, msg: cause.Error(), cause: cause}
}

func (e *Error) Error() string {
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Category() Category {
	return e.category
}

func (e *Error) Code() string {
	return e.code
}

func CategoryOf(err error) Category {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.category
	}
	return ""
}

func CodeOf(err error) string {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.code
	}
	return ""
}
