package orchestrator

import (
	"errors"
	"fmt"

	"github.com/raphaelgruber/humanizer-go/internal/client"
)

// Sentinel errors for submission outcomes.
// Use errors.Is() to classify the error on an Outcome.
var (
	// ErrEmptyInput indicates the trimmed text was empty. No request was made.
	ErrEmptyInput = errors.New("empty input")

	// ErrAuthRequired indicates the session is not authenticated.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthExpired indicates the token refresh failed before dispatch.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrTransport indicates a network failure or an unparseable response.
	ErrTransport = client.ErrTransport

	// ErrAuthRejected indicates the endpoint answered 401. It also matches
	// ErrAuthRequired.
	ErrAuthRejected = fmt.Errorf("%w: rejected by server", ErrAuthRequired)

	// ErrDeclaredFailure indicates the endpoint answered success=false.
	ErrDeclaredFailure = errors.New("humanization failed")
)
