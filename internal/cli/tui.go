package cli

import (
	"github.com/raphaelgruber/humanizer-go/internal/tui"
	"github.com/spf13/cobra"
)

var tuiSettings settingsFlags

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive editor",
	Long: `Open a full-screen editor to paste text, tune the options and humanize it.

Keys:
  ctrl+s       humanize the text
  tab          switch between the editor and the options
  m / M        next / previous mode (options focused)
  1 2 3        light, medium, heavy intensity (options focused)
  s c v i r p  toggle synonyms, contractions, vary length, informal,
               casual starters, AI polish (options focused)
  ctrl+v       paste from the clipboard
  ctrl+y       copy the result
  ctrl+x       clear the editor
  esc          cancel the running request
  ctrl+o       sign in
  ctrl+c       quit

Logs go to the configured log file while the editor is open.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := tuiSettings.settings()
		if err != nil {
			return err
		}
		return tui.Run(cmd.Context(), tui.Config{
			API:      apiClient,
			Provider: provider(),
			Settings: settings,
			Metrics:  collector,
			Logger:   logger,
		})
	},
}

func init() {
	tuiSettings.register(tuiCmd)
}
