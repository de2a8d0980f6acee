package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/raphaelgruber/humanizer-go/internal/auth"
	"github.com/spf13/cobra"
)

var loginTTL time.Duration

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store a session token",
	Long: `Sign in by entering your name and an API token. The token is read
without echo and stored in the profile directory (auth.profile_dir).

Examples:
  humanizer login
  humanizer login --ttl 24h`,
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := fileProvider.SignOut(); err != nil {
			return fmt.Errorf("sign out: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().DurationVar(&loginTTL, "ttl", 0, "token lifetime (0 = no expiry)")
}

func runLogin(cmd *cobra.Command, args []string) error {
	p := fileProvider
	if loginTTL > 0 {
		p = auth.NewFileProvider(auth.NewStore(cfg.Auth.ProfileDir),
			auth.WithSignIn(auth.PromptSignInFor(loginTTL)),
			auth.WithLogger(logger))
	}

	ctx := cmd.Context()
	if err := p.OpenSignIn(ctx, cmd.InOrStdin(), cmd.ErrOrStderr()); err != nil {
		return err
	}

	user, err := p.OpenUserProfile(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", user.Name)
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	var p auth.Provider = fileProvider
	if cfg.Auth.Token != "" {
		p = auth.NewStaticProvider(auth.User{Name: "token"}, cfg.Auth.Token)
	}

	user, err := p.OpenUserProfile(cmd.Context())
	if errors.Is(err, auth.ErrNotSignedIn) {
		return errors.New("not signed in")
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, user.Name)
	if user.Email != "" {
		fmt.Fprintln(out, user.Email)
	}
	if _, err := p.Token(cmd.Context()); errors.Is(err, auth.ErrTokenExpired) {
		fmt.Fprintln(out, defaultTheme.hintStyle().Render("Session expired; run 'humanizer login'."))
	}
	return nil
}
