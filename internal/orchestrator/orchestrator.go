// Package orchestrator sequences a single humanize submission: session
// checks, input validation, dispatch and rendering of the outcome.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/raphaelgruber/humanizer-go/internal/auth"
	"github.com/raphaelgruber/humanizer-go/internal/client"
	"github.com/raphaelgruber/humanizer-go/internal/humanize"
	"github.com/raphaelgruber/humanizer-go/internal/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("github.com/raphaelgruber/humanizer-go/internal/orchestrator")

// User-facing messages.
const (
	MsgEmptyInput   = "Please enter some text to humanize"
	MsgSignIn       = "Please sign in to humanize text"
	MsgSignInAgain  = "Your session has expired. Please sign in again"
	MsgSuccess      = "Text humanized successfully!"
	MsgFailed       = "Humanization failed"
	MsgUnauthorized = "Sign-in was rejected. Please sign in again"
)

// Humanizer is the remote endpoint. *client.Client implements it.
type Humanizer interface {
	Humanize(ctx context.Context, req humanize.Request, token string) (*humanize.Result, error)
	Health(ctx context.Context) error
}

// Kind classifies how a submission ended.
type Kind string

// Submission outcomes.
const (
	KindSuccess         Kind = "success"
	KindEmptyInput      Kind = "empty_input"
	KindAuthRequired    Kind = "auth_required"
	KindAuthExpired     Kind = "auth_expired"
	KindTransport       Kind = "transport_error"
	KindAuthRejected    Kind = "auth_rejected"
	KindDeclaredFailure Kind = "declared_failure"

	// KindStale marks a response that arrived after a newer submission
	// started. Nothing was rendered for it.
	KindStale Kind = "stale"
)

// Outcome is the result of one Submit call.
type Outcome struct {
	Kind Kind

	// Err is nil on success. Classify with errors.Is.
	Err error

	// Message is what was surfaced to the user.
	Message string

	// Session is the session after the submission. Callers keep it for the
	// next submission.
	Session auth.Session

	// Result is the decoded response when the endpoint answered.
	Result *humanize.Result

	// Generation is zero when the submission never dispatched.
	Generation uint64
}

// Dispatched reports whether a request was sent for this outcome.
func (o Outcome) Dispatched() bool {
	return o.Generation > 0
}

// Orchestrator runs submissions against a Humanizer and renders them on a
// View. Only the latest submission's response is rendered.
type Orchestrator struct {
	api      Humanizer
	view     View
	provider auth.Provider
	metrics  *metrics.Collector
	logger   *slog.Logger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithProvider enables the authentication requirement. Without a provider
// submissions are sent anonymously.
func WithProvider(p auth.Provider) Option {
	return func(o *Orchestrator) { o.provider = p }
}

// WithMetrics sets the collector that receives timings and outcome counts.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *Orchestrator) { o.metrics = c }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// New creates an orchestrator.
func New(api Humanizer, view View, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		api:    api,
		view:   view,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.view == nil {
		o.view = NopView{}
	}
	if o.metrics == nil {
		o.metrics = metrics.NewCollector()
	}
	return o
}

// AuthRequired reports whether submissions need a signed-in session.
func (o *Orchestrator) AuthRequired() bool {
	return o.provider != nil
}

// Metrics returns the collector.
func (o *Orchestrator) Metrics() *metrics.Collector {
	return o.metrics
}

// Submit validates and dispatches rawText. It blocks until the response is
// rendered or discarded. Safe for concurrent use; a newer call cancels the
// request of an older one.
func (o *Orchestrator) Submit(ctx context.Context, rawText string, settings humanize.Settings, session auth.Session) Outcome {
	ctx, span := tracer.Start(ctx, "humanizer.submit")
	defer span.End()

	out := o.submit(ctx, rawText, settings, session)
	o.metrics.RecordOutcome(string(out.Kind))

	span.SetAttributes(
		attribute.String("humanizer.outcome", string(out.Kind)),
		attribute.Int64("humanizer.generation", int64(out.Generation)),
	)
	if out.Err != nil {
		span.SetStatus(codes.Error, out.Err.Error())
	}
	return out
}

func (o *Orchestrator) submit(ctx context.Context, rawText string, settings humanize.Settings, session auth.Session) Outcome {
	if o.provider != nil {
		if !session.Authenticated {
			o.view.Toast(MsgSignIn, ToastError)
			o.view.RequestSignIn()
			return Outcome{Kind: KindAuthRequired, Err: ErrAuthRequired, Message: MsgSignIn, Session: session}
		}

		token, err := o.refresh(ctx)
		if err != nil {
			o.logger.Warn("token refresh failed", "error", err)
			o.view.Toast(MsgSignInAgain, ToastError)
			o.view.RequestSignIn()
			return Outcome{
				Kind:    KindAuthExpired,
				Err:     fmt.Errorf("%w: %w", ErrAuthExpired, err),
				Message: MsgSignInAgain,
				Session: auth.Session{},
			}
		}
		session = auth.Signed(token)
	} else if !session.Valid() {
		session = auth.Session{}
	}

	text := strings.TrimSpace(rawText)
	if text == "" {
		o.view.Toast(MsgEmptyInput, ToastError)
		return Outcome{Kind: KindEmptyInput, Err: ErrEmptyInput, Message: MsgEmptyInput, Session: session}
	}

	ctx, gen, done := o.dispatch(ctx)
	defer done()

	req := settings.Request(text)
	o.logger.Debug("dispatching humanize request",
		"generation", gen,
		"mode", req.Mode,
		"intensity", req.Intensity,
		"bytes", len(text),
		"authenticated", session.Authenticated)

	var token string
	if session.Authenticated {
		token = session.Token
	}

	start := time.Now()
	result, err := o.api.Humanize(ctx, req, token)
	o.metrics.RecordTiming(metrics.OpHumanize, time.Since(start), err)

	return o.settle(gen, session, result, err)
}

// refresh asks the provider for a fresh token.
func (o *Orchestrator) refresh(ctx context.Context) (string, error) {
	start := time.Now()
	token, err := o.provider.Token(ctx)
	if err == nil && token == "" {
		err = auth.ErrNotSignedIn
	}
	o.metrics.RecordTiming(metrics.OpTokenRefresh, time.Since(start), err)
	return token, err
}

// dispatch starts a new generation, cancels the previous one and enters the
// loading state. The returned func releases the request context.
func (o *Orchestrator) dispatch(parent context.Context) (context.Context, uint64, func()) {
	ctx, cancel := context.WithCancel(parent)

	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
	}
	o.generation++
	gen := o.generation
	o.cancel = cancel

	o.view.SetLoading(true)
	o.view.SetStatus(StatusProcessing)
	o.view.ClearSteps()
	o.mu.Unlock()

	return ctx, gen, func() {
		cancel()
		o.mu.Lock()
		if o.generation == gen {
			o.cancel = nil
		}
		o.mu.Unlock()
	}
}

// settle renders the response of generation gen if it is still the latest.
func (o *Orchestrator) settle(gen uint64, session auth.Session, result *humanize.Result, err error) Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()

	if gen != o.generation {
		o.logger.Debug("discarding stale response", "generation", gen, "latest", o.generation)
		return Outcome{Kind: KindStale, Session: session, Result: result, Generation: gen}
	}

	out := classify(session, result, err)
	out.Generation = gen

	switch out.Kind {
	case KindSuccess:
		o.view.ShowOutput(result.Humanized, humanize.Count(result.Humanized))
		if len(result.Steps) > 0 {
			o.view.ShowSteps(result.Steps)
		}
		o.view.Toast(out.Message, ToastSuccess)
		o.view.SetStatus(StatusReady)
	case KindDeclaredFailure:
		o.logger.Info("humanize declared failure", "generation", gen, "error", out.Message)
		o.view.Toast(out.Message, ToastError)
		o.view.SetStatus(StatusReady)
	case KindAuthRejected:
		o.logger.Warn("humanize rejected credentials", "generation", gen)
		o.view.Toast(out.Message, ToastError)
		o.view.RequestSignIn()
		o.view.SetStatus(StatusError)
	default:
		o.logger.Warn("humanize request failed", "generation", gen, "error", out.Err)
		o.view.Toast(out.Message, ToastError)
		o.view.SetStatus(StatusError)
	}
	o.view.SetLoading(false)

	return out
}

// classify maps a response to an outcome without touching the view.
func classify(session auth.Session, result *humanize.Result, err error) Outcome {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return Outcome{
			Kind:    KindAuthRejected,
			Err:     fmt.Errorf("%w: %w", ErrAuthRejected, err),
			Message: MsgUnauthorized,
			Session: auth.Session{},
		}
	case err != nil:
		if !errors.Is(err, ErrTransport) {
			err = fmt.Errorf("%w: %w", ErrTransport, err)
		}
		return Outcome{Kind: KindTransport, Err: err, Message: err.Error(), Session: session}
	case result == nil:
		err = fmt.Errorf("%w: empty response", ErrTransport)
		return Outcome{Kind: KindTransport, Err: err, Message: err.Error(), Session: session}
	case !result.Success:
		msg := result.Error
		if msg == "" {
			msg = MsgFailed
		}
		return Outcome{
			Kind:    KindDeclaredFailure,
			Err:     fmt.Errorf("%w: %s", ErrDeclaredFailure, msg),
			Message: msg,
			Session: session,
			Result:  result,
		}
	default:
		return Outcome{Kind: KindSuccess, Message: MsgSuccess, Session: session, Result: result}
	}
}

// Cancel aborts the in-flight submission, if any. Its response is discarded
// and the loading state is cleared.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancel == nil {
		return false
	}
	o.cancel()
	o.cancel = nil
	o.generation++
	o.view.SetLoading(false)
	o.view.SetStatus(StatusReady)
	return true
}

// CheckHealth probes the endpoint and sets the passive status indicator.
// It never blocks submissions.
func (o *Orchestrator) CheckHealth(ctx context.Context) Status {
	start := time.Now()
	err := o.api.Health(ctx)
	o.metrics.RecordTiming(metrics.OpHealth, time.Since(start), err)

	status := StatusReady
	if err != nil {
		o.logger.Debug("health probe failed", "error", err)
		status = StatusOffline
	}
	o.view.SetStatus(status)
	return status
}
