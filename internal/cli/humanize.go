package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/raphaelgruber/humanizer-go/internal/humanize"
	"github.com/raphaelgruber/humanizer-go/internal/orchestrator"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// maxInputBytes bounds text read from files and stdin.
const maxInputBytes = 1 << 20

var (
	humanizeFile   string
	humanizeFormat string
	humanizeCopy   bool
	settingFlags   settingsFlags
)

var humanizeCmd = &cobra.Command{
	Use:   "humanize [text]",
	Short: "Humanize a piece of text",
	Long: `Humanize text given as arguments, read from a file, or piped on stdin.

The rewritten text is printed to stdout. Use --format json or yaml to get
the processing steps and word/character counts as well.

Examples:
  humanizer humanize "It is imperative that we utilize the new system."
  humanizer humanize --file draft.txt --mode ai_only --intensity heavy
  pbpaste | humanizer humanize --contractions=false --copy
  humanizer humanize --file draft.txt --format json`,
	RunE: runHumanize,
}

func init() {
	humanizeCmd.Flags().StringVarP(&humanizeFile, "file", "f", "", "read text from file")
	humanizeCmd.Flags().StringVarP(&humanizeFormat, "format", "o", formatText, "output format (text, json, yaml)")
	humanizeCmd.Flags().BoolVar(&humanizeCopy, "copy", false, "copy the result to the clipboard")
	settingFlags.register(humanizeCmd)
}

// settingsFlags are the request settings shared by humanize and batch.
type settingsFlags struct {
	mode      string
	intensity string
	options   humanize.Options
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	d := humanize.DefaultOptions()
	cmd.Flags().StringVarP(&f.mode, "mode", "m", "", "mode: balanced, nlp_only, ai_only (default from config)")
	cmd.Flags().StringVarP(&f.intensity, "intensity", "i", "", "intensity: light, medium, heavy (default from config)")
	cmd.Flags().BoolVar(&f.options.Synonyms, "synonyms", d.Synonyms, "replace words with synonyms")
	cmd.Flags().BoolVar(&f.options.Contractions, "contractions", d.Contractions, "use contractions")
	cmd.Flags().BoolVar(&f.options.VaryLength, "vary-length", d.VaryLength, "vary sentence length")
	cmd.Flags().BoolVar(&f.options.Informal, "informal", d.Informal, "use informal wording")
	cmd.Flags().BoolVar(&f.options.CasualStarters, "casual-starters", d.CasualStarters, "add casual sentence starters")
	cmd.Flags().BoolVar(&f.options.AIPolish, "ai-polish", d.AIPolish, "run an extra AI polish pass")
}

// settings merges the flags over the configured defaults.
func (f *settingsFlags) settings() (humanize.Settings, error) {
	s := cfg.DefaultSettings()
	if f.mode != "" {
		s.Mode = humanize.Mode(f.mode)
	}
	if f.intensity != "" {
		intensity, err := humanize.ParseIntensity(f.intensity)
		if err != nil {
			return s, err
		}
		s.Intensity = intensity
	}
	s.Options = f.options
	return s, nil
}

func runHumanize(cmd *cobra.Command, args []string) error {
	if err := validFormat(humanizeFormat); err != nil {
		return err
	}
	settings, err := settingFlags.settings()
	if err != nil {
		return err
	}

	text, err := readInput(cmd.InOrStdin(), humanizeFile, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	view := newTextView(cmd.ErrOrStderr())
	out := newOrchestrator(view).Submit(ctx, text, settings, session(ctx))
	if out.Err != nil {
		return submitError(out)
	}

	doc := view.document(settings)
	doc.Source = humanizeFile
	if err := writeDocument(cmd.OutOrStdout(), cmd.ErrOrStderr(), humanizeFormat, doc); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	if humanizeCopy {
		copyToClipboard(cmd.ErrOrStderr(), doc.Humanized)
	}
	if verbose {
		printStats(cmd.ErrOrStderr(), collector.Snapshot())
	}
	return nil
}

// readInput returns the text from args, then file, then piped stdin.
func readInput(stdin io.Reader, file string, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return "", fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		return readAll(f)
	}
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return "", errors.New("no text given: pass it as an argument, with --file, or on stdin")
	}
	return readAll(stdin)
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes+1))
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	if len(data) > maxInputBytes {
		return "", fmt.Errorf("input exceeds %d bytes", maxInputBytes)
	}
	return string(data), nil
}

// submitError turns a failed outcome into the command's error.
func submitError(out orchestrator.Outcome) error {
	if out.Kind == orchestrator.KindEmptyInput {
		return fmt.Errorf("%w: %s", out.Err, out.Message)
	}
	return out.Err
}

// copyToClipboard writes text to the system clipboard, warning on failure.
func copyToClipboard(w io.Writer, text string) {
	theme := defaultTheme
	if strings.TrimSpace(text) == "" {
		fmt.Fprintln(w, theme.errorStyle().Render("No text to copy"))
		return
	}
	if err := clipboard.WriteAll(text); err != nil {
		logger.Warn("clipboard write failed", "error", err)
		fmt.Fprintln(w, theme.errorStyle().Render("Failed to copy to clipboard"))
		return
	}
	fmt.Fprintln(w, theme.successStyle().Render("Copied to clipboard!"))
}
