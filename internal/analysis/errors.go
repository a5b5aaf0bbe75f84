package analysis

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure of normalization or analysis
type Kind string

const (
	KindInvalidFileType        Kind = "InvalidFileType"
	KindFileReadError          Kind = "FileReadError"
	KindInvalidURL             Kind = "InvalidUrl"
	KindFetchFailed            Kind = "FetchFailed"
	KindWebpageNotMedia        Kind = "WebpageNotMedia"
	KindUnsupportedContentType Kind = "UnsupportedContentType"
	KindMediaTooLarge          Kind = "MediaTooLarge"
	KindInvalidRequest         Kind = "InvalidRequest"
	KindBackendUnavailable     Kind = "BackendUnavailable"
	KindMalformedResponse      Kind = "MalformedResponse"
)

// Kinds lists every failure kind
var Kinds = []Kind{
	KindInvalidFileType,
	KindFileReadError,
	KindInvalidURL,
	KindFetchFailed,
	KindWebpageNotMedia,
	KindUnsupportedContentType,
	KindMediaTooLarge,
	KindInvalidRequest,
	KindBackendUnavailable,
	KindMalformedResponse,
}

// Error implements error so that a bare Kind can be used as an errors.Is target
func (k Kind) Error() string {
	return string(k)
}

// HTTPStatus maps the kind to the status code returned by the API
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidFileType, KindUnsupportedContentType, KindWebpageNotMedia:
		return http.StatusUnsupportedMediaType
	case KindMediaTooLarge:
		return http.StatusRequestEntityTooLarge
	case KindInvalidURL, KindInvalidRequest:
		return http.StatusBadRequest
	case KindFileReadError:
		return http.StatusUnprocessableEntity
	case KindFetchFailed, KindMalformedResponse:
		return http.StatusBadGateway
	case KindBackendUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// Error is a terminal, user-displayable failure.
// Message is safe to show to an end user; Err carries the underlying cause for logs.
type Error struct {
	Kind       Kind
	Message    string
	StatusCode int // upstream HTTP status, when one was received
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a bare Kind or another *Error of the same kind
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Kind:
		return e.Kind == t
	case *Error:
		return e.Kind == t.Kind
	}
	return false
}

// NewError creates an Error with a formatted message
func NewError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapError creates an Error that keeps err as its cause
func WrapError(kind Kind, err error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the kind of err, or "" if err is not an *Error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Message returns the user-facing message of err
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "An unexpected error occurred during analysis."
}
