package store

import (
	"fmt"
)

// NetworkError means the request could not be sent or no response was
// received. A failed Create may or may not have taken effect server-side.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("store %s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-2xx response from the remote store.
type ServerError struct {
	Op         string
	StatusCode int
	Status     string
	// Body holds at most maxErrorBody bytes of the response body.
	Body string
}

func (e *ServerError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("store %s: server returned %s", e.Op, e.Status)
	}
	return fmt.Sprintf("store %s: server returned %s: %s", e.Op, e.Status, e.Body)
}

// ParseError means a success response body could not be decoded.
type ParseError struct {
	Op  string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("store %s: invalid response body: %v", e.Op, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
