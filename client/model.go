package client

import (
	"errors"
	"fmt"
	"net/http"
)

// maxErrBodySize caps the amount of response body read when
// building an error for an unexpected status code. The service puts
// its failure message in the body, so the cap is generous but still
// bounded.
const maxErrBodySize = 1 << 20 // 1MB

// execFn represents a func to operate on a response.
type execFn func(response *http.Response) error

var (
	// ErrUnexpectedStatusCode is the sentinel error wrapped by [ServiceError].
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	// ErrAuthFailure is joined with [ErrUnexpectedStatusCode] when the server
	// responds with 401 Unauthorized or 403 Forbidden.
	ErrAuthFailure = errors.New("auth failure")
	// ErrTransport is the sentinel error wrapped by [TransportError].
	ErrTransport = errors.New("transport failure")
)

// ServiceError is returned when the service answers with a status code
// other than the expected one. Body holds the raw response text, read up
// to the first 1 MiB; a longer body is truncated there.
type ServiceError struct {
	StatusCode int
	Body       string
	Err        error
}

func newServiceError(code int, body string) *ServiceError {
	err := ErrUnexpectedStatusCode
	if code == http.StatusUnauthorized || code == http.StatusForbidden {
		err = errors.Join(ErrUnexpectedStatusCode, ErrAuthFailure)
	}

	return &ServiceError{
		StatusCode: code,
		Body:       body,
		Err:        err,
	}
}

// Error returns the raw response body, the service's own message, even
// when it is empty. StatusCode tells empty answers apart.
func (e *ServiceError) Error() string {
	return e.Body
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// TransportError is returned when the request never produced a response,
// e.g. DNS, connection or TLS failures, timeouts and cancellations.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%v: %s %s: %v", ErrTransport, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}
