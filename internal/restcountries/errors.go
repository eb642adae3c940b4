package restcountries

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestFailed matches any non-2xx response.
	ErrRequestFailed = errors.New("request failed")
	// ErrTransport matches network, DNS, timeout and cancellation failures.
	ErrTransport = errors.New("transport error")
	// ErrMalformedResponse matches 2xx bodies that are not a country list.
	ErrMalformedResponse = errors.New("malformed response")
)

// RequestError is returned for a non-success HTTP status. Its message is the
// status text, e.g. "Not Found".
type RequestError struct {
	StatusCode int
	Status     string
}

func (e *RequestError) Error() string {
	if e.Status != "" {
		return e.Status
	}
	return fmt.Sprintf("HTTP error: %d", e.StatusCode)
}

func (e *RequestError) Is(target error) bool { return target == ErrRequestFailed }

// TransportError wraps the error returned by the HTTP client.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return e.Err.Error() }

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// MalformedResponseError reports a body that could not be trusted as a
// country list.
type MalformedResponseError struct {
	Reason string
	Err    error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed response: %s: %v", e.Reason, e.Err)
	}
	return "malformed response: " + e.Reason
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func (e *MalformedResponseError) Is(target error) bool { return target == ErrMalformedResponse }
