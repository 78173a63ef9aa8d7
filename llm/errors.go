package llm

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrNoSSEReader  = errors.New("expected an event stream but got none")
	ErrNoStreamBody = errors.New("expected a stream body but got nil")
	ErrEmptyStream  = errors.New("stream ended without content")
)

// FieldError reports a response that lacks a required field. Field uses
// JSON path notation such as "choices[0].message.content".
type FieldError struct {
	Field string
}

func (e *FieldError) Error() string {
	return "missing field " + e.Field
}

// MissingField returns a *FieldError for field.
func MissingField(field string) error {
	return &FieldError{Field: field}
}

// InvalidError reports a response that is present but malformed in a way
// other than a missing field, such as non-JSON chunk data.
type InvalidError struct {
	Reason string
	Err    error
}

func (e *InvalidError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *InvalidError) Unwrap() error { return e.Err }

// APIError is an error payload the provider sent in place of a result.
type APIError struct {
	Message string
	Type    string
	Code    string
}

func (e *APIError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return e.Message
}

// AsFieldError reports whether err is a *FieldError.
func AsFieldError(err error) (*FieldError, bool) {
	var fe *FieldError
	ok := errors.As(err, &fe)
	return fe, ok
}

// AsAPIError reports whether err is an *APIError.
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	ok := errors.As(err, &ae)
	return ae, ok
}
