// Package v1 represents types used by the web application for v1.
package v1

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorResponse is the form used for API responses from failures in the API.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// RequestError is used to pass an error during the request through the
// application with web specific context.
type RequestError struct {
	Err    error
	Status int
}

// NewRequestError wraps a provided error with an HTTP status code. This
// function should be used when handlers encounter expected errors.
func NewRequestError(err error, status int) error {
	return &RequestError{err, status}
}

// Error implements the error interface. It uses the default message of the
// wrapped error. This is what will be shown in the services' logs.
func (re *RequestError) Error() string {
	return re.Err.Error()
}

// IsRequestError checks if an error of type RequestError exists.
func IsRequestError(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}

// GetRequestError returns a copy of the RequestError pointer.
func GetRequestError(err error) *RequestError {
	var re *RequestError
	if !errors.As(err, &re) {
		return nil
	}
	return re
}

// NewDecodeError wraps a failure to decode a request body. A body over the
// size limit is reported as too large, anything else as a bad request.
func NewDecodeError(err error) error {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return NewRequestError(fmt.Errorf("payload exceeds %d bytes", mbe.Limit), http.StatusRequestEntityTooLarge)
	}
	return NewRequestError(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
}
