package cli

import (
	"fmt"

	"github.com/raphaelgruber/humanizer-go/internal/orchestrator"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the humanize API is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		view := newTextView(cmd.ErrOrStderr())
		status := newOrchestrator(view).CheckHealth(cmd.Context())

		theme := defaultTheme
		if status != orchestrator.StatusReady {
			return fmt.Errorf("%s is %s", apiClient.BaseURL(), status)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", theme.successStyle().Render("● "+string(status)), apiClient.BaseURL())
		return nil
	},
}
