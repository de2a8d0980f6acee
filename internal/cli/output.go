package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/humanizer-go/internal/humanize"
	"github.com/raphaelgruber/humanizer-go/internal/orchestrator"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validFormat(f string) error {
	switch f {
	case formatText, formatJSON, formatYAML:
		return nil
	default:
		return fmt.Errorf("invalid format %q (want text, json or yaml)", f)
	}
}

// Theme holds the color scheme for terminal output.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// textView is the command-line View. It keeps the rendered state so the
// command can print it in the requested format, and reports progress on
// the diagnostic stream.
type textView struct {
	mu      sync.Mutex
	diag    io.Writer
	theme   Theme
	verbose bool

	output string
	counts humanize.Counts
	steps  []string
	status orchestrator.Status
}

func newTextView(diag io.Writer) *textView {
	return &textView{diag: diag, theme: defaultTheme, verbose: verbose}
}

func (v *textView) SetLoading(loading bool) {
	if loading && v.verbose {
		fmt.Fprintln(v.diag, v.theme.statusStyle().Render("Humanizing..."))
	}
}

func (v *textView) SetStatus(status orchestrator.Status) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.status = status
}

func (v *textView) Status() orchestrator.Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.status
}

func (v *textView) ClearSteps() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.steps = nil
}

func (v *textView) ShowOutput(text string, counts humanize.Counts) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.output = text
	v.counts = counts
}

func (v *textView) ShowSteps(steps []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.steps = steps
}

// Toast prints success notes in verbose mode. Failures are returned as
// errors by the command and not printed here.
func (v *textView) Toast(message string, kind orchestrator.ToastKind) {
	if kind == orchestrator.ToastSuccess && v.verbose {
		fmt.Fprintln(v.diag, v.theme.successStyle().Render("✓ "+message))
	}
}

func (v *textView) RequestSignIn() {
	fmt.Fprintln(v.diag, v.theme.hintStyle().Render("Sign in with 'humanizer login' and try again."))
}

// document is the structured form of a humanized text.
type document struct {
	Source    string             `json:"source,omitempty" yaml:"source,omitempty"`
	Humanized string             `json:"humanized" yaml:"humanized"`
	Mode      humanize.Mode      `json:"mode" yaml:"mode"`
	Intensity humanize.Intensity `json:"intensity" yaml:"intensity"`
	Steps     []string           `json:"steps,omitempty" yaml:"steps,omitempty"`
	Words     int                `json:"words" yaml:"words"`
	Chars     int                `json:"chars" yaml:"chars"`
}

// document returns what the view currently shows.
func (v *textView) document(settings humanize.Settings) document {
	v.mu.Lock()
	defer v.mu.Unlock()
	return document{
		Humanized: v.output,
		Mode:      settings.Mode,
		Intensity: settings.Intensity,
		Steps:     v.steps,
		Words:     v.counts.Words,
		Chars:     v.counts.Chars,
	}
}

// writeDocument prints doc in format. Text output is the humanized text
// only; steps and counts go to diag in verbose mode.
func writeDocument(w, diag io.Writer, format string, doc document) error {
	if format != formatText {
		return writeStructured(w, format, doc)
	}
	if _, err := fmt.Fprintln(w, doc.Humanized); err != nil {
		return err
	}
	if verbose {
		printDetails(diag, doc)
	}
	return nil
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printDetails writes counts and processing steps.
func printDetails(w io.Writer, d document) {
	theme := defaultTheme
	fmt.Fprintln(w, theme.hintStyle().Render(fmt.Sprintf("%d words, %d characters", d.Words, d.Chars)))
	if len(d.Steps) == 0 {
		return
	}
	fmt.Fprintln(w, theme.statusStyle().Render("Processing steps:"))
	for i, step := range d.Steps {
		fmt.Fprintf(w, "  %d. %s\n", i+1, step)
	}
}
