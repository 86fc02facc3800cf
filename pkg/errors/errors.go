package errors

import (
	"errors"
	"fmt"
)

// Kind classifies failures surfaced by the Weibo client and the traversal
type Kind string

const (
	// KindRequestFailed covers network failures, HTTP error statuses and bodies that are not JSON
	KindRequestFailed Kind = "request_failed"
	// KindUnexpectedShape means the JSON decoded but a required field is missing or mistyped
	KindUnexpectedShape Kind = "unexpected_shape"
)

// Error is the single error type returned by the API layer.
// Nothing in this module retries on it; callers decide what to abort.
type Error struct {
	Kind    Kind
	Message string
	URL     string
	Code    int
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Code != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Code)
	}
	if e.URL != "" {
		msg = fmt.Sprintf("%s [%s]", msg, e.URL)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// RequestFailed builds a KindRequestFailed error
func RequestFailed(url string, code int, err error, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindRequestFailed,
		Message: fmt.Sprintf(format, args...),
		URL:     url,
		Code:    code,
		Err:     err,
	}
}

// UnexpectedShape builds a KindUnexpectedShape error
func UnexpectedShape(format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindUnexpectedShape,
		Message: fmt.Sprintf(format, args...),
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsRequestFailed reports whether err carries a KindRequestFailed error
func IsRequestFailed(err error) bool {
	return KindOf(err) == KindRequestFailed
}

// IsUnexpectedShape reports whether err carries a KindUnexpectedShape error
func IsUnexpectedShape(err error) bool {
	return KindOf(err) == KindUnexpectedShape
}
