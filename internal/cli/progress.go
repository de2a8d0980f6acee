package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
)

// fileDoneMsg reports one finished batch file.
type fileDoneMsg struct {
	path string
	err  error
}

// batchDoneMsg signals that every file has been processed.
type batchDoneMsg struct{}

// progressModel is the bubbletea model for batch progress.
type progressModel struct {
	total    int
	done     int
	failed   int
	last     string
	progress progress.Model
	theme    Theme
	finished bool
	quitting bool
	cancel   context.CancelFunc
}

// newProgressModel creates a new progress model.
func newProgressModel(total int, cancel context.CancelFunc) progressModel {
	// Create progress bar with color blend
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)

	return progressModel{
		total:    total,
		progress: prog,
		theme:    defaultTheme,
		cancel:   cancel,
	}
}

// Init returns the initial command.
func (m progressModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			m.cancel()
			return m, tea.Quit
		}

	case fileDoneMsg:
		m.done++
		if msg.err != nil {
			m.failed++
		}
		m.last = filepath.Base(msg.path)
		var pct float64
		if m.total > 0 {
			pct = float64(m.done) / float64(m.total)
		}
		return m, m.progress.SetPercent(pct)

	case batchDoneMsg:
		m.finished = true
		return m, tea.Quit

	case progress.FrameMsg:
		// Update progress bar animation
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

// renderContent builds the display string.
func (m progressModel) renderContent() string {
	if m.quitting {
		return m.theme.hintStyle().Render("\nBatch cancelled.\n")
	}
	if m.finished {
		return ""
	}

	status := m.theme.statusStyle().Render("[humanizing]")
	counts := fmt.Sprintf("%d/%d files", m.done, m.total)
	if m.failed > 0 {
		counts += m.theme.errorStyle().Render(fmt.Sprintf(" (%d failed)", m.failed))
	}

	hint := m.theme.hintStyle().Render("Press Ctrl+C to cancel")
	if m.last != "" {
		hint = m.theme.hintStyle().Render("last: "+m.last) + "  " + hint
	}

	return fmt.Sprintf("%s %s %s\n%s\n", status, m.progress.View(), counts, hint)
}

// runWithProgress runs work while showing a progress bar on w. work calls
// report once per finished file. Returns context.Canceled when the user quit.
func runWithProgress(ctx context.Context, w io.Writer, total int, work func(ctx context.Context, report func(path string, err error)) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(total, cancel), tea.WithOutput(w))

	errc := make(chan error, 1)
	go func() {
		err := work(ctx, func(path string, err error) {
			p.Send(fileDoneMsg{path: path, err: err})
		})
		p.Send(batchDoneMsg{})
		errc <- err
	}()

	finalModel, err := p.Run()
	if err != nil {
		cancel()
		<-errc
		return fmt.Errorf("progress UI error: %w", err)
	}

	workErr := <-errc
	if m, ok := finalModel.(progressModel); ok && m.quitting {
		return context.Canceled
	}
	return workErr
}
