package publisher

import (
	"errors"
	"fmt"

	"my-publisher/domain/model"
)

// Error is the classified failure an adapter surfaces to the
// coordinator.
type Error struct {
	Kind    model.ErrorKind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func AuthError(msg string, cause error) *Error {
	return &Error{Kind: model.ErrKindAuthentication, Message: msg, Cause: cause}
}

func RateError(msg string, cause error) *Error {
	return &Error{Kind: model.ErrKindRateLimited, Message: msg, Cause: cause}
}

func ContentError(msg string, cause error) *Error {
	return &Error{Kind: model.ErrKindContentRejected, Message: msg, Cause: cause}
}

func TransientError(msg string, cause error) *Error {
	return &Error{Kind: model.ErrKindTransient, Message: msg, Cause: cause}
}

func UnsupportedError(msg string) *Error {
	return &Error{Kind: model.ErrKindUnsupported, Message: msg}
}

// ErrAnalyticsUnsupported is returned by adapters that have no analytics
// surface; callers must treat it as a capability gap, not a crash.
var ErrAnalyticsUnsupported = UnsupportedError("analytics not supported on this platform")

// Classify extracts the error kind, coercing anything unclassified into
// the transient bucket so the coordinator's fan-out never aborts on an
// unexpected error shape.
func Classify(err error) (model.ErrorKind, string) {
	if err == nil {
		return "", ""
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind, pe.Message
	}
	return model.ErrKindTransient, err.Error()
}

// ClassifyHTTPStatus maps a platform HTTP status code to an error kind.
// 401/403 are credential problems, 429 is quota, 4xx is a content or
// request rejection, everything else is transient.
func ClassifyHTTPStatus(status int, body string) *Error {
	switch {
	case status == 401 || status == 403:
		return AuthError(fmt.Sprintf("platform rejected credential (status %d): %s", status, body), nil)
	case status == 429:
		return RateError(fmt.Sprintf("platform quota exceeded: %s", body), nil)
	case status >= 400 && status < 500:
		return ContentError(fmt.Sprintf("platform rejected request (status %d): %s", status, body), nil)
	default:
		return TransientError(fmt.Sprintf("platform error (status %d): %s", status, body), nil)
	}
}
