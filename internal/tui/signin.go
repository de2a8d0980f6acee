package tui

import (
	"context"
	"fmt"
	"io"

	"github.com/raphaelgruber/humanizer-go/internal/auth"
)

// signInCommand runs the provider's sign-in flow on the real terminal while
// the program has released it.
type signInCommand struct {
	ctx      context.Context
	provider auth.Provider
	in       io.Reader
	out      io.Writer
}

func (c *signInCommand) SetStdin(r io.Reader)  { c.in = r }
func (c *signInCommand) SetStdout(w io.Writer) { c.out = w }
func (c *signInCommand) SetStderr(io.Writer)   {}

func (c *signInCommand) Run() error {
	fmt.Fprintln(c.out, "Sign in to Text Humanizer")
	return c.provider.OpenSignIn(c.ctx, c.in, c.out)
}
