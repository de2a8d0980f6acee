// Package auth models the session state the orchestrator consults before
// dispatching a request, and the providers that issue session tokens.
package auth

import (
	"context"
	"errors"
	"io"
	"time"
)

// Sentinel errors returned by providers.
var (
	// ErrNotSignedIn indicates there is no user to issue a token for.
	ErrNotSignedIn = errors.New("not signed in")

	// ErrTokenExpired indicates the stored token is past its expiry and a new
	// sign-in is needed.
	ErrTokenExpired = errors.New("session token expired")

	// ErrSignInUnsupported is returned by providers that cannot run an
	// interactive sign-in.
	ErrSignInUnsupported = errors.New("interactive sign-in not supported")
)

// User identifies the signed-in account.
type User struct {
	Name  string `yaml:"name" json:"name"`
	Email string `yaml:"email,omitempty" json:"email,omitempty"`
}

// Session is the orchestrator's view of authentication. It is a value: the
// orchestrator receives one per submission and returns the updated copy.
type Session struct {
	Authenticated bool
	Token         string
}

// Valid reports whether the session may be used for a dispatch. An
// authenticated session must carry a token.
func (s Session) Valid() bool {
	return !s.Authenticated || s.Token != ""
}

// Signed returns a session authenticated with token.
func Signed(token string) Session {
	return Session{Authenticated: token != "", Token: token}
}

// Provider is the authentication collaborator. The orchestrator only needs
// to know whether there is a user, to get a fresh token, and to show the
// sign-in surface.
type Provider interface {
	// CurrentUser returns the signed-in user, or nil when nobody is.
	CurrentUser(ctx context.Context) (*User, error)

	// Token returns a fresh session token or fails.
	Token(ctx context.Context) (string, error)

	// OpenSignIn runs the sign-in flow on the given terminal streams.
	OpenSignIn(ctx context.Context, in io.Reader, out io.Writer) error

	// OpenUserProfile returns the profile of the signed-in user.
	OpenUserProfile(ctx context.Context) (*User, error)

	// Subscribe registers for auth-state changes. The returned func
	// unsubscribes and closes the channel.
	Subscribe() (<-chan Event, func())
}

// EventType names an auth-state change.
type EventType string

// Auth-state changes published by providers.
const (
	EventSignedIn  EventType = "signed_in"
	EventSignedOut EventType = "signed_out"
	EventExpired   EventType = "expired"
)

// Event is a single auth-state change.
type Event struct {
	Type EventType
	User *User
	At   time.Time
}

// SessionFor snapshots the provider's state into a session. A nil provider
// yields an unauthenticated session. Token failures yield an authenticated
// session without a token; the orchestrator refreshes before dispatch anyway.
func SessionFor(ctx context.Context, p Provider) Session {
	if p == nil {
		return Session{}
	}
	user, err := p.CurrentUser(ctx)
	if err != nil || user == nil {
		return Session{}
	}
	token, err := p.Token(ctx)
	if err != nil {
		return Session{Authenticated: true}
	}
	return Signed(token)
}
