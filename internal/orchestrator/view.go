package orchestrator

import "github.com/raphaelgruber/humanizer-go/internal/humanize"

// Status is the passive indicator shown next to the submit control.
type Status string

// Indicator states.
const (
	StatusReady      Status = "Ready"
	StatusProcessing Status = "Processing"
	StatusError      Status = "Error"
	StatusOffline    Status = "Offline"
)

// ToastKind selects how a transient notification is styled.
type ToastKind string

// Notification kinds.
const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

// View receives every user-visible effect of a submission. Implementations
// must be safe to call from the goroutine running Submit.
type View interface {
	// SetLoading toggles the loading state and the submit affordance.
	SetLoading(loading bool)
	SetStatus(status Status)
	// ClearSteps hides the processing steps of the previous result.
	ClearSteps()
	// ShowOutput replaces the output pane.
	ShowOutput(text string, counts humanize.Counts)
	ShowSteps(steps []string)
	Toast(message string, kind ToastKind)
	// RequestSignIn starts the external sign-in flow.
	RequestSignIn()
}

// NopView discards every effect. Embed it to implement part of View.
type NopView struct{}

func (NopView) SetLoading(bool) {}
func (NopView) SetStatus(Status) {}
func (NopView) ClearSteps() {}
func (NopView) ShowOutput(string, humanize.Counts) {}
func (NopView) ShowSteps([]string) {}
func (NopView) Toast(string, ToastKind) {}
func (NopView) RequestSignIn() {}
