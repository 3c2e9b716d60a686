package weather

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a fetch failed.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindBadRequest
	KindUnauthorized
	KindNotFound
	KindRateLimited
	KindServerError
	KindTransportFailure
)

var kindNames = map[ErrorKind]string{
	KindUnknown:          "unknown",
	KindBadRequest:       "bad_request",
	KindUnauthorized:     "unauthorized",
	KindNotFound:         "not_found",
	KindRateLimited:      "rate_limited",
	KindServerError:      "server_error",
	KindTransportFailure: "transport_failure",
}

func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinels for errors.Is matching against a *FetchError of the same kind.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrRateLimited      = errors.New("rate limited")
	ErrServerError      = errors.New("server error")
	ErrTransportFailure = errors.New("transport failure")
)

var kindSentinels = map[ErrorKind]error{
	KindBadRequest:       ErrBadRequest,
	KindUnauthorized:     ErrUnauthorized,
	KindNotFound:         ErrNotFound,
	KindRateLimited:      ErrRateLimited,
	KindServerError:      ErrServerError,
	KindTransportFailure: ErrTransportFailure,
}

// FetchError is returned by a Fetcher when the provider rejects a request or
// cannot be reached. The cache layer passes it to callers unchanged.
type FetchError struct {
	Kind       ErrorKind
	StatusCode int // 0 when no response was received
	Message    string
	Err        error // underlying cause, if any
}

func (e *FetchError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e's kind.
func (e *FetchError) Is(target error) bool {
	s, ok := kindSentinels[e.Kind]
	return ok && s == target
}

// NewFetchError builds a FetchError for an HTTP status and provider message.
func NewFetchError(status int, message string) *FetchError {
	return &FetchError{
		Kind:       KindFromStatus(status),
		StatusCode: status,
		Message:    message,
	}
}

// NewTransportError wraps a network or decoding failure.
func NewTransportError(err error) *FetchError {
	return &FetchError{Kind: KindTransportFailure, Err: err}
}

// KindFromStatus maps a non-2xx provider status to an ErrorKind. Statuses
// without a dedicated kind are treated as server errors.
func KindFromStatus(status int) ErrorKind {
	switch status {
	case 400:
		return KindBadRequest
	case 401:
		return KindUnauthorized
	case 404:
		return KindNotFound
	case 429:
		return KindRateLimited
	default:
		return KindServerError
	}
}

// KindOf extracts the ErrorKind from err, or KindUnknown.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}
