package auth

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// credentialsFile is the file name inside the profile directory.
const credentialsFile = "credentials.yaml"

// Credentials is what a sign-in produces and what the store persists.
type Credentials struct {
	User      User      `yaml:"user"`
	Token     string    `yaml:"token"`
	ExpiresAt time.Time `yaml:"expires_at,omitempty"`
}

// Expired reports whether the token is past its expiry. A zero expiry never
// expires.
func (c *Credentials) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Store persists credentials as YAML in a profile directory.
type Store struct {
	path string
}

// NewStore returns a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{path: filepath.Join(dir, credentialsFile)}
}

// Path returns the credentials file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads stored credentials. It returns nil, nil when none are stored.
func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", s.path, err)
	}
	if creds.Token == "" {
		return nil, nil
	}
	return &creds, nil
}

// Save writes credentials with owner-only permissions.
func (s *Store) Save(creds *Credentials) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}
	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Delete removes stored credentials. Deleting nothing is not an error.
func (s *Store) Delete() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}
