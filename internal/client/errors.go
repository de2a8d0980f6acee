package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for endpoint calls.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnauthorized indicates the endpoint answered 401. The body is ignored.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransport indicates the request did not complete or the response
	// body could not be decoded.
	ErrTransport = errors.New("transport error")

	// ErrOffline indicates the health probe did not get a 2xx answer.
	ErrOffline = errors.New("api offline")
)

// transportError wraps err as a transport failure while keeping the
// underlying message readable.
func transportError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrTransport, op, err)
}
