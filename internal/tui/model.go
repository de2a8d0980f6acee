// Package tui implements the interactive full-screen editor.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/humanizer-go/internal/auth"
	"github.com/raphaelgruber/humanizer-go/internal/humanize"
	"github.com/raphaelgruber/humanizer-go/internal/orchestrator"
)

// toastDuration is how long a notification stays on screen.
const toastDuration = 3 * time.Second

const outputPlaceholder = "Your humanized text will appear here"

// Clipboard is the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

type systemClipboard struct{}

func (systemClipboard) ReadAll() (string, error)   { return clipboard.ReadAll() }
func (systemClipboard) WriteAll(text string) error { return clipboard.WriteAll(text) }

type focusArea int

const (
	focusEditor focusArea = iota
	focusOptions
)

// Internal messages.
type (
	submitDoneMsg   struct{ outcome orchestrator.Outcome }
	toastExpiredMsg struct{ id int }
	signInDoneMsg   struct{ err error }
	authEventMsg    struct{ event auth.Event }
	copyDoneMsg     struct{ err error }
)

type pasteMsg struct {
	text string
	err  error
}

type sessionMsg struct {
	session auth.Session
	user    string
}

// Options configures a Model.
type Options struct {
	// Provider is nil when sign-in is not required.
	Provider auth.Provider
	Session  auth.Session

	// User is the display name of the signed-in user.
	User     string
	Controls humanize.Controls

	// Events delivers auth-state changes; nil disables the subscription.
	Events    <-chan auth.Event
	Clipboard Clipboard
}

// Model is the bubbletea model for the editor.
type Model struct {
	ctx       context.Context
	orch      *orchestrator.Orchestrator
	provider  auth.Provider
	session   auth.Session
	user      string
	events    <-chan auth.Event
	clipboard Clipboard

	input    textarea.Model
	spinner  spinner.Model
	controls humanize.Controls
	focus    focusArea

	output       string
	outputCounts humanize.Counts
	steps        []string
	status       orchestrator.Status
	loading      bool

	toast     string
	toastKind orchestrator.ToastKind
	toastID   int

	width int
	theme Theme
}

// New creates the editor model.
func New(ctx context.Context, orch *orchestrator.Orchestrator, opts Options) Model {
	input := textarea.New()
	input.Placeholder = "Paste or type the text you want to humanize..."
	input.ShowLineNumbers = false
	input.SetWidth(80)
	input.SetHeight(8)
	input.Focus()

	if opts.Clipboard == nil {
		opts.Clipboard = systemClipboard{}
	}

	return Model{
		ctx:       ctx,
		orch:      orch,
		provider:  opts.Provider,
		session:   opts.Session,
		user:      opts.User,
		events:    opts.Events,
		clipboard: opts.Clipboard,
		input:     input,
		spinner:   spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		controls:  opts.Controls,
		width:     80,
		theme:     defaultTheme,
	}
}

// Init probes the API and starts listening for auth changes.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.checkHealth(), m.waitForEvent())
}

// Update handles messages and returns the updated model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.SetWidth(max(20, min(msg.Width-4, 120)))
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)

	case loadingMsg:
		m.loading = msg.loading
		if m.loading {
			return m, m.spinner.Tick
		}
		return m, nil

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case statusMsg:
		m.status = msg.status
		return m, nil

	case clearStepsMsg:
		m.steps = nil
		return m, nil

	case outputMsg:
		m.output = msg.text
		m.outputCounts = msg.counts
		return m, nil

	case stepsMsg:
		m.steps = msg.steps
		return m, nil

	case toastMsg:
		return m.showToast(msg.message, msg.kind)

	case toastExpiredMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil

	case submitDoneMsg:
		if msg.outcome.Kind != orchestrator.KindStale {
			m.session = msg.outcome.Session
			if !m.session.Authenticated {
				m.user = ""
			}
		}
		return m, nil

	case signInRequestMsg:
		return m, m.signIn()

	case signInDoneMsg:
		if msg.err != nil {
			if errors.Is(msg.err, auth.ErrSignInUnsupported) {
				return m.showToast("Sign-in is managed by HUMANIZER_TOKEN", orchestrator.ToastError)
			}
			return m.showToast("Sign-in failed: "+msg.err.Error(), orchestrator.ToastError)
		}
		return m, m.refreshSession()

	case authEventMsg:
		// Expiry is already the new state; re-reading the token would only
		// report it again.
		if msg.event.Type == auth.EventExpired {
			m.session = auth.Session{}
			m.user = ""
			return m, m.waitForEvent()
		}
		return m, tea.Batch(m.refreshSession(), m.waitForEvent())

	case sessionMsg:
		m.session = msg.session
		m.user = msg.user
		return m, nil

	case pasteMsg:
		if msg.err != nil {
			return m.showToast("Failed to paste from clipboard", orchestrator.ToastError)
		}
		m.input.SetValue(msg.text)
		return m.showToast("Text pasted from clipboard", orchestrator.ToastSuccess)

	case copyDoneMsg:
		if msg.err != nil {
			return m.showToast("Failed to copy to clipboard", orchestrator.ToastError)
		}
		return m.showToast("Copied to clipboard!", orchestrator.ToastSuccess)
	}

	if m.focus == focusEditor {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+s", "ctrl+enter":
		return m.submit()
	case "esc":
		if m.loading {
			orch := m.orch
			return m, func() tea.Msg {
				orch.Cancel()
				return nil
			}
		}
		return m, nil
	case "tab":
		if m.focus == focusEditor {
			m.focus = focusOptions
			m.input.Blur()
			return m, nil
		}
		m.focus = focusEditor
		return m, m.input.Focus()
	case "ctrl+v":
		return m, m.paste()
	case "ctrl+y":
		return m.copyOutput()
	case "ctrl+x":
		m.input.SetValue("")
		return m, nil
	case "ctrl+o":
		return m, m.signIn()
	}

	if m.focus == focusOptions {
		m.updateOptions(msg.String())
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// updateOptions applies an options-panel key.
func (m *Model) updateOptions(key string) {
	switch key {
	case "m", "right", "l":
		m.controls.Mode = string(cycleMode(humanize.Mode(m.controls.Mode), 1))
	case "M", "left", "h":
		m.controls.Mode = string(cycleMode(humanize.Mode(m.controls.Mode), -1))
	case "1", "2", "3":
		m.controls.IntensityPosition = int(key[0] - '1')
	case "s":
		m.controls.Synonyms = !m.controls.Synonyms
	case "c":
		m.controls.Contractions = !m.controls.Contractions
	case "v":
		m.controls.VaryLength = !m.controls.VaryLength
	case "i":
		m.controls.Informal = !m.controls.Informal
	case "r":
		m.controls.CasualStarters = !m.controls.CasualStarters
	case "p":
		m.controls.AIPolish = !m.controls.AIPolish
	}
}

// cycleMode returns the mode step positions away. Unknown modes start over.
func cycleMode(current humanize.Mode, step int) humanize.Mode {
	n := len(humanize.Modes)
	for i, mode := range humanize.Modes {
		if mode == current {
			return humanize.Modes[((i+step)%n+n)%n]
		}
	}
	return humanize.Modes[0]
}

// submit dispatches the current input. The submit control is disabled while
// a request is loading.
func (m Model) submit() (tea.Model, tea.Cmd) {
	if m.loading {
		return m, nil
	}
	orch, ctx := m.orch, m.ctx
	text := m.input.Value()
	settings := humanize.ReadSettings(m.controls)
	session := m.session
	return m, func() tea.Msg {
		return submitDoneMsg{outcome: orch.Submit(ctx, text, settings, session)}
	}
}

func (m Model) showToast(message string, kind orchestrator.ToastKind) (tea.Model, tea.Cmd) {
	m.toastID++
	m.toast = message
	m.toastKind = kind
	id := m.toastID
	return m, tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{id: id}
	})
}

func (m Model) checkHealth() tea.Cmd {
	orch, ctx := m.orch, m.ctx
	return func() tea.Msg {
		orch.CheckHealth(ctx)
		return nil
	}
}

// waitForEvent blocks on the next auth-state change.
func (m Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	events := m.events
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return authEventMsg{event: event}
	}
}

func (m Model) refreshSession() tea.Cmd {
	if m.provider == nil {
		return nil
	}
	p, ctx := m.provider, m.ctx
	return func() tea.Msg {
		msg := sessionMsg{session: auth.SessionFor(ctx, p)}
		if user, err := p.CurrentUser(ctx); err == nil && user != nil {
			msg.user = user.Name
		}
		return msg
	}
}

func (m Model) signIn() tea.Cmd {
	if m.provider == nil {
		return func() tea.Msg {
			return toastMsg{message: "Sign-in is not enabled", kind: orchestrator.ToastError}
		}
	}
	c := &signInCommand{ctx: m.ctx, provider: m.provider}
	return tea.Exec(c, func(err error) tea.Msg {
		return signInDoneMsg{err: err}
	})
}

func (m Model) paste() tea.Cmd {
	cb := m.clipboard
	return func() tea.Msg {
		text, err := cb.ReadAll()
		return pasteMsg{text: text, err: err}
	}
}

func (m Model) copyOutput() (tea.Model, tea.Cmd) {
	if strings.TrimSpace(m.output) == "" {
		return m.showToast("No text to copy", orchestrator.ToastError)
	}
	cb, text := m.clipboard, m.output
	return m, func() tea.Msg {
		return copyDoneMsg{err: cb.WriteAll(text)}
	}
}

// View renders the editor.
func (m Model) View() tea.View {
	v := tea.NewView(m.render())
	v.AltScreen = true
	return v
}

func (m Model) render() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")

	b.WriteString(m.theme.paneStyle(m.focus == focusEditor).Render(m.input.View()))
	b.WriteString("\n")
	b.WriteString(m.theme.hintStyle().Render(countsLine(humanize.Count(m.input.Value()))))
	b.WriteString("\n\n")

	b.WriteString(m.theme.paneStyle(m.focus == focusOptions).Render(m.optionsView()))
	b.WriteString("\n\n")

	b.WriteString(m.outputView())
	b.WriteString("\n")

	if len(m.steps) > 0 {
		b.WriteString("\n")
		b.WriteString(m.theme.titleStyle().Render("Processing steps"))
		b.WriteString("\n")
		for i, step := range m.steps {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, step)
		}
	}

	b.WriteString("\n")
	b.WriteString(m.toastView())
	b.WriteString("\n")
	b.WriteString(m.theme.hintStyle().Render(
		"ctrl+s humanize · tab options · ctrl+v paste · ctrl+y copy · ctrl+x clear · esc cancel · ctrl+o sign in · ctrl+c quit"))

	return b.String()
}

func (m Model) headerView() string {
	header := m.theme.titleStyle().Render("Text Humanizer") + "  " + m.statusView()
	switch {
	case m.user != "":
		header += "  " + m.theme.hintStyle().Render("signed in as "+m.user)
	case m.provider != nil && !m.session.Authenticated:
		header += "  " + m.theme.hintStyle().Render("not signed in (ctrl+o)")
	}
	return header
}

func (m Model) statusView() string {
	if m.loading {
		return m.spinner.View() + " " + string(orchestrator.StatusProcessing)
	}
	switch m.status {
	case orchestrator.StatusReady:
		return m.theme.successStyle().Render("● " + string(m.status))
	case orchestrator.StatusError:
		return m.theme.errorStyle().Render("● " + string(m.status))
	case orchestrator.StatusOffline:
		return m.theme.hintStyle().Render("● " + string(m.status))
	default:
		return m.theme.hintStyle().Render("● Checking")
	}
}

func (m Model) optionsView() string {
	selected := m.theme.selectedStyle()

	var modes []string
	for _, mode := range humanize.Modes {
		label := string(mode)
		if string(mode) == m.controls.Mode {
			label = selected.Render(label)
		}
		modes = append(modes, label)
	}

	var levels []string
	current := humanize.IntensityFromPosition(m.controls.IntensityPosition)
	for pos := 0; pos < 3; pos++ {
		intensity := humanize.IntensityFromPosition(pos)
		label := fmt.Sprintf("%d %s", pos+1, intensity)
		if intensity == current {
			label = selected.Render(label)
		}
		levels = append(levels, label)
	}

	toggles := []struct {
		key   string
		label string
		on    bool
	}{
		{"s", "synonyms", m.controls.Synonyms},
		{"c", "contractions", m.controls.Contractions},
		{"v", "vary length", m.controls.VaryLength},
		{"i", "informal", m.controls.Informal},
		{"r", "casual starters", m.controls.CasualStarters},
		{"p", "AI polish", m.controls.AIPolish},
	}
	var boxes []string
	for _, t := range toggles {
		box := "[ ]"
		if t.on {
			box = "[x]"
		}
		boxes = append(boxes, fmt.Sprintf("%s %s (%s)", box, t.label, t.key))
	}

	return "Mode       " + strings.Join(modes, "  ") + "\n" +
		"Intensity  " + strings.Join(levels, "  ") + "\n" +
		strings.Join(boxes[:3], "  ") + "\n" +
		strings.Join(boxes[3:], "  ")
}

func (m Model) outputView() string {
	width := max(20, min(m.width-4, 120))
	style := lipgloss.NewStyle().Width(width)

	if m.output == "" {
		return m.theme.paneStyle(false).Render(m.theme.hintStyle().Render(outputPlaceholder))
	}
	return m.theme.paneStyle(false).Render(style.Render(m.output)) + "\n" +
		m.theme.hintStyle().Render(countsLine(m.outputCounts))
}

func (m Model) toastView() string {
	if m.toast == "" {
		return ""
	}
	if m.toastKind == orchestrator.ToastError {
		return m.theme.errorStyle().Render("✗ " + m.toast)
	}
	return m.theme.successStyle().Render("✓ " + m.toast)
}

func countsLine(c humanize.Counts) string {
	return fmt.Sprintf("%d words · %d characters", c.Words, c.Chars)
}
