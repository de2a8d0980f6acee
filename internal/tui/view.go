package tui

import (
	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/humanizer-go/internal/humanize"
	"github.com/raphaelgruber/humanizer-go/internal/orchestrator"
)

// Messages carrying orchestrator effects into the update loop.
type (
	loadingMsg       struct{ loading bool }
	statusMsg        struct{ status orchestrator.Status }
	clearStepsMsg    struct{}
	stepsMsg         struct{ steps []string }
	signInRequestMsg struct{}

	outputMsg struct {
		text   string
		counts humanize.Counts
	}

	toastMsg struct {
		message string
		kind    orchestrator.ToastKind
	}
)

// programView implements orchestrator.View by sending every effect to the
// running program. The orchestrator calls it from command goroutines, so the
// model is only ever touched by Update.
type programView struct {
	send func(msg tea.Msg)
}

func (v programView) SetLoading(loading bool) {
	v.send(loadingMsg{loading})
}

func (v programView) SetStatus(status orchestrator.Status) {
	v.send(statusMsg{status})
}

func (v programView) ClearSteps() {
	v.send(clearStepsMsg{})
}

func (v programView) ShowOutput(text string, counts humanize.Counts) {
	v.send(outputMsg{text: text, counts: counts})
}

func (v programView) ShowSteps(steps []string) {
	v.send(stepsMsg{steps})
}

func (v programView) Toast(message string, kind orchestrator.ToastKind) {
	v.send(toastMsg{message: message, kind: kind})
}

func (v programView) RequestSignIn() {
	v.send(signInRequestMsg{})
}
