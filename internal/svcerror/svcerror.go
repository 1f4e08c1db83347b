// Package svcerror carries coded service failures shared by the domain services.
package svcerror

import (
	"errors"
	"fmt"
)

// Error wraps an infrastructure failure with a dotted code of the form
// "<operation>.<reason>", e.g. "feedback.label.tag_upsert_failed".
type Error struct {
	code string
	err  error
}

// New builds an Error for the operation and reason.
func New(operation, reason string, cause error) error {
	return &Error{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

func (e *Error) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *Error) Unwrap() error {
	return e.err
}

// Code returns the dotted failure code.
func (e *Error) Code() string {
	return e.code
}

// CodeOf extracts the code from err, or returns an empty string.
func CodeOf(err error) string {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Code()
	}
	return ""
}
