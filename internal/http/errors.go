// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package http

import (
	"errors"
	"fmt"
)

// StatusZeroResults is the API status the places API reports when a query was valid but did
// not match anything.
const StatusZeroResults = "ZERO_RESULTS"

var (
	ErrNonPointerTarget = errors.New("target must be a non-nil pointer")
	ErrNoResponse       = errors.New("no response from API")

	// ErrTransport matches every *TransportError
	ErrTransport = errors.New("transport error")
	// ErrHTTPStatus matches every *HTTPStatusError
	ErrHTTPStatus = errors.New("invalid HTTP status code")
	// ErrSerialization matches every *SerializationError
	ErrSerialization = errors.New("failed to decode JSON")
	// ErrAPIStatus matches every *APIStatusError
	ErrAPIStatus = errors.New("API error status")
)

// TransportError reports that no usable HTTP response was received, e.g. because of a DNS,
// TLS or connection failure, a timeout or a cancelled context.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("failed to perform HTTP request: %s", e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// HTTPStatusError reports a response with a status code other than 200.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("invalid status code %d from API", e.Code)
}

func (e *HTTPStatusError) Unwrap() error {
	return ErrHTTPStatus
}

// SerializationError reports a response body that is not a JSON object.
type SerializationError struct {
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("failed to decode JSON: %s", e.Err)
}

func (e *SerializationError) Unwrap() []error {
	return []error{ErrSerialization, e.Err}
}

// APIStatusError reports a JSON response whose status field is not "OK". Status carries the
// provider's own error vocabulary (ZERO_RESULTS, OVER_QUERY_LIMIT, REQUEST_DENIED, ...).
type APIStatusError struct {
	Status  string
	Message string
}

func (e *APIStatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("API error status %s: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("API error status %s", e.Status)
}

func (e *APIStatusError) Unwrap() error {
	return ErrAPIStatus
}

// ZeroResults reports whether the API signaled an empty, but otherwise successful, result.
func (e *APIStatusError) ZeroResults() bool {
	return e.Status == StatusZeroResults
}
