package auth

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"
)

// PromptSignIn asks for a user name and token on the terminal. The token is
// read without echo when in is a terminal.
func PromptSignIn(ctx context.Context, in io.Reader, out io.Writer) (*Credentials, error) {
	reader := bufio.NewReader(in)

	fmt.Fprint(out, "Name: ")
	name, err := reader.ReadString('\n')
	if err != nil && name == "" {
		return nil, fmt.Errorf("read name: %w", err)
	}

	fmt.Fprint(out, "Token: ")
	token, err := readSecret(in, reader)
	fmt.Fprintln(out)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("no token entered")
	}

	return &Credentials{
		User:  User{Name: strings.TrimSpace(name)},
		Token: token,
	}, nil
}

// PromptSignInFor is PromptSignIn with a token lifetime applied.
func PromptSignInFor(ttl time.Duration) SignInFunc {
	return func(ctx context.Context, in io.Reader, out io.Writer) (*Credentials, error) {
		creds, err := PromptSignIn(ctx, in, out)
		if err != nil {
			return nil, err
		}
		if ttl > 0 {
			creds.ExpiresAt = time.Now().Add(ttl)
		}
		return creds, nil
	}
}

// readSecret reads one line, hiding input when in is a terminal.
func readSecret(in io.Reader, buffered *bufio.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) && buffered.Buffered() == 0 {
		b, err := term.ReadPassword(int(f.Fd()))
		return string(b), err
	}
	line, err := buffered.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return line, nil
}
