package auth

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// SignInFunc collects credentials interactively on the given streams.
type SignInFunc func(ctx context.Context, in io.Reader, out io.Writer) (*Credentials, error)

// FileProvider issues tokens from credentials stored on disk and runs a
// pluggable sign-in flow to obtain new ones.
type FileProvider struct {
	store  *Store
	signIn SignInFunc
	logger *slog.Logger
	now    func() time.Time
	events Broker

	mu sync.Mutex

	// announced is the expired token EventExpired was last published for.
	announced string
}

// FileOption configures a FileProvider.
type FileOption func(*FileProvider)

// WithSignIn sets the sign-in flow. The default prompts on the terminal.
func WithSignIn(fn SignInFunc) FileOption {
	return func(p *FileProvider) { p.signIn = fn }
}

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) FileOption {
	return func(p *FileProvider) { p.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) FileOption {
	return func(p *FileProvider) { p.logger = logger }
}

// NewFileProvider returns a provider backed by store.
func NewFileProvider(store *Store, opts ...FileOption) *FileProvider {
	p := &FileProvider{
		store:  store,
		signIn: PromptSignIn,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CurrentUser returns the stored user, or nil when nobody is signed in.
// An expired token still has a user; Token reports the expiry.
func (p *FileProvider) CurrentUser(ctx context.Context) (*User, error) {
	creds, err := p.store.Load()
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, nil
	}
	user := creds.User
	return &user, nil
}

// Token returns the stored token if it has not expired.
func (p *FileProvider) Token(ctx context.Context) (string, error) {
	creds, err := p.store.Load()
	if err != nil {
		return "", err
	}
	if creds == nil {
		return "", ErrNotSignedIn
	}
	if creds.Expired(p.now()) {
		p.logger.Debug("stored token expired", "user", creds.User.Name, "expires_at", creds.ExpiresAt)
		p.announceExpired(creds)
		return "", fmt.Errorf("%w (at %s)", ErrTokenExpired, creds.ExpiresAt.Format(time.RFC3339))
	}
	return creds.Token, nil
}

// announceExpired publishes EventExpired once per expired token. Token is a
// read; subscribers that re-read on events must not wake themselves again.
func (p *FileProvider) announceExpired(creds *Credentials) {
	p.mu.Lock()
	if p.announced == creds.Token {
		p.mu.Unlock()
		return
	}
	p.announced = creds.Token
	p.mu.Unlock()

	user := creds.User
	p.events.Publish(Event{Type: EventExpired, User: &user, At: p.now()})
}

func (p *FileProvider) resetAnnounced() {
	p.mu.Lock()
	p.announced = ""
	p.mu.Unlock()
}

// OpenSignIn runs the sign-in flow and stores the resulting credentials.
func (p *FileProvider) OpenSignIn(ctx context.Context, in io.Reader, out io.Writer) error {
	creds, err := p.signIn(ctx, in, out)
	if err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	return p.SignIn(creds)
}

// SignIn stores credentials obtained elsewhere.
func (p *FileProvider) SignIn(creds *Credentials) error {
	if creds == nil || creds.Token == "" {
		return fmt.Errorf("sign in: empty token")
	}
	if err := p.store.Save(creds); err != nil {
		return err
	}
	p.resetAnnounced()
	user := creds.User
	p.logger.Info("signed in", "user", user.Name)
	p.events.Publish(Event{Type: EventSignedIn, User: &user, At: p.now()})
	return nil
}

// SignOut forgets the stored credentials.
func (p *FileProvider) SignOut() error {
	if err := p.store.Delete(); err != nil {
		return err
	}
	p.resetAnnounced()
	p.logger.Info("signed out")
	p.events.Publish(Event{Type: EventSignedOut, At: p.now()})
	return nil
}

// OpenUserProfile returns the signed-in user or ErrNotSignedIn.
func (p *FileProvider) OpenUserProfile(ctx context.Context) (*User, error) {
	user, err := p.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotSignedIn
	}
	return user, nil
}

// Subscribe registers for auth-state changes.
func (p *FileProvider) Subscribe() (<-chan Event, func()) {
	return p.events.Subscribe()
}
