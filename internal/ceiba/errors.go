package ceiba

import (
	"errors"
	"fmt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// BackendError covers every failure of the CEIBA boundary: network errors,
// timeouts, non-JSON bodies and non-success error codes. It is retryable by
// the caller and never stands in for "no data".
type BackendError struct {
	Endpoint  string
	ErrorCode int
	Err       error
}

func (e *BackendError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ceiba %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("ceiba %s: errorcode %d", e.Endpoint, e.ErrorCode)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func backendErr(endpoint string, err error) *BackendError {
	return &BackendError{Endpoint: endpoint, Err: err}
}

func backendCodeErr(endpoint string, code int) *BackendError {
	return &BackendError{Endpoint: endpoint, ErrorCode: code}
}
