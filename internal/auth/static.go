package auth

import (
	"context"
	"io"
)

// StaticProvider serves a fixed, preconfigured token. It never expires and
// cannot sign in interactively.
type StaticProvider struct {
	user   User
	token  string
	events Broker
}

// NewStaticProvider returns a provider for token on behalf of user.
func NewStaticProvider(user User, token string) *StaticProvider {
	return &StaticProvider{user: user, token: token}
}

func (p *StaticProvider) CurrentUser(ctx context.Context) (*User, error) {
	if p.token == "" {
		return nil, nil
	}
	user := p.user
	return &user, nil
}

func (p *StaticProvider) Token(ctx context.Context) (string, error) {
	if p.token == "" {
		return "", ErrNotSignedIn
	}
	return p.token, nil
}

func (p *StaticProvider) OpenSignIn(ctx context.Context, in io.Reader, out io.Writer) error {
	return ErrSignInUnsupported
}

func (p *StaticProvider) OpenUserProfile(ctx context.Context) (*User, error) {
	if p.token == "" {
		return nil, ErrNotSignedIn
	}
	user := p.user
	return &user, nil
}

func (p *StaticProvider) Subscribe() (<-chan Event, func()) {
	return p.events.Subscribe()
}
