package orchestrator_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/raphaelgruber/humanizer-go/internal/auth"
	"github.com/raphaelgruber/humanizer-go/internal/client"
	"github.com/raphaelgruber/humanizer-go/internal/devserver"
	"github.com/raphaelgruber/humanizer-go/internal/humanize"
	"github.com/raphaelgruber/humanizer-go/internal/metrics"
	"github.com/raphaelgruber/humanizer-go/internal/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// httptest keeps idle keep-alive connections in the default transport.
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
	)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type toast struct {
	Message string
	Kind    orchestrator.ToastKind
}

// recordingView keeps every effect for assertions.
type recordingView struct {
	mu       sync.Mutex
	loading  []bool
	statuses []orchestrator.Status
	output   string
	counts   humanize.Counts
	steps    []string
	cleared  int
	toasts   []toast
	signIns  int
}

func (v *recordingView) SetLoading(loading bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.loading = append(v.loading, loading)
}

func (v *recordingView) SetStatus(status orchestrator.Status) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.statuses = append(v.statuses, status)
}

func (v *recordingView) ClearSteps() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cleared++
	v.steps = nil
}

func (v *recordingView) ShowOutput(text string, counts humanize.Counts) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.output = text
	v.counts = counts
}

func (v *recordingView) ShowSteps(steps []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.steps = steps
}

func (v *recordingView) Toast(message string, kind orchestrator.ToastKind) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.toasts = append(v.toasts, toast{message, kind})
}

func (v *recordingView) RequestSignIn() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.signIns++
}

func (v *recordingView) lastStatus() orchestrator.Status {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.statuses) == 0 {
		return ""
	}
	return v.statuses[len(v.statuses)-1]
}

func (v *recordingView) lastToast() toast {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.toasts) == 0 {
		return toast{}
	}
	return v.toasts[len(v.toasts)-1]
}

// stubAPI answers with a fixed result or error and counts calls.
type stubAPI struct {
	calls     atomic.Int32
	result    *humanize.Result
	err       error
	healthErr error
	lastReq   humanize.Request
	lastToken string
}

func (s *stubAPI) Humanize(ctx context.Context, req humanize.Request, token string) (*humanize.Result, error) {
	s.calls.Add(1)
	s.lastReq = req
	s.lastToken = token
	return s.result, s.err
}

func (s *stubAPI) Health(ctx context.Context) error {
	return s.healthErr
}

// stubProvider issues a fixed token or fails.
type stubProvider struct {
	auth.Broker
	token string
	err   error
}

func (p *stubProvider) CurrentUser(ctx context.Context) (*auth.User, error) {
	return &auth.User{Name: "ada"}, nil
}

func (p *stubProvider) Token(ctx context.Context) (string, error) {
	return p.token, p.err
}

func (p *stubProvider) OpenSignIn(ctx context.Context, in io.Reader, out io.Writer) error {
	return nil
}

func (p *stubProvider) OpenUserProfile(ctx context.Context) (*auth.User, error) {
	return &auth.User{Name: "ada"}, nil
}

func defaultSettings() humanize.Settings {
	return humanize.ReadSettings(humanize.DefaultControls())
}

func newOrchestrator(api orchestrator.Humanizer, view orchestrator.View, opts ...orchestrator.Option) *orchestrator.Orchestrator {
	opts = append([]orchestrator.Option{orchestrator.WithLogger(quietLogger())}, opts...)
	return orchestrator.New(api, view, opts...)
}

func TestSubmitEmptyInputNeverDispatches(t *testing.T) {
	inputs := []string{"", " ", "\n\t  ", "   "}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			api := &stubAPI{}
			view := &recordingView{}
			o := newOrchestrator(api, view)

			out := o.Submit(context.Background(), input, defaultSettings(), auth.Session{})

			assert.Equal(t, orchestrator.KindEmptyInput, out.Kind)
			assert.ErrorIs(t, out.Err, orchestrator.ErrEmptyInput)
			assert.False(t, out.Dispatched())
			assert.Zero(t, api.calls.Load())
			assert.Empty(t, view.loading, "loading state is untouched")
			assert.Equal(t, toast{orchestrator.MsgEmptyInput, orchestrator.ToastError}, view.lastToast())
		})
	}
}

func TestSubmitUnauthenticatedTriggersSignIn(t *testing.T) {
	api := &stubAPI{}
	view := &recordingView{}
	o := newOrchestrator(api, view, orchestrator.WithProvider(&stubProvider{token: "tok"}))

	for _, text := range []string{"Some text", "", "   "} {
		out := o.Submit(context.Background(), text, defaultSettings(), auth.Session{})
		assert.Equal(t, orchestrator.KindAuthRequired, out.Kind)
		assert.ErrorIs(t, out.Err, orchestrator.ErrAuthRequired)
	}

	assert.Zero(t, api.calls.Load())
	assert.Equal(t, 3, view.signIns)
	assert.Empty(t, view.loading)
}

func TestSubmitTokenRefreshFailure(t *testing.T) {
	api := &stubAPI{}
	view := &recordingView{}
	provider := &stubProvider{err: auth.ErrTokenExpired}
	o := newOrchestrator(api, view, orchestrator.WithProvider(provider))

	out := o.Submit(context.Background(), "Some text", defaultSettings(), auth.Signed("stale"))

	assert.Equal(t, orchestrator.KindAuthExpired, out.Kind)
	assert.ErrorIs(t, out.Err, orchestrator.ErrAuthExpired)
	assert.ErrorIs(t, out.Err, auth.ErrTokenExpired)
	assert.False(t, out.Session.Authenticated, "session is marked unauthenticated")
	assert.Zero(t, api.calls.Load())
	assert.Equal(t, 1, view.signIns)

	snap := o.Metrics().Snapshot()
	require.NotNil(t, snap.TokenRefresh)
	assert.Equal(t, int64(1), snap.TokenRefresh.Failures)
}

func TestSubmitUsesRefreshedToken(t *testing.T) {
	api := &stubAPI{result: &humanize.Result{Success: true, Humanized: "ok"}}
	o := newOrchestrator(api, &recordingView{}, orchestrator.WithProvider(&stubProvider{token: "fresh"}))

	out := o.Submit(context.Background(), "text", defaultSettings(), auth.Signed("old"))

	require.Equal(t, orchestrator.KindSuccess, out.Kind)
	assert.Equal(t, "fresh", api.lastToken)
	assert.Equal(t, auth.Signed("fresh"), out.Session)
}

func TestSubmitWithoutProviderSendsNoToken(t *testing.T) {
	api := &stubAPI{result: &humanize.Result{Success: true, Humanized: "ok"}}
	o := newOrchestrator(api, &recordingView{})

	o.Submit(context.Background(), "text", defaultSettings(), auth.Session{Authenticated: true})
	assert.Empty(t, api.lastToken, "an authenticated session without a token is never dispatched as such")

	o.Submit(context.Background(), "text", defaultSettings(), auth.Signed("abc"))
	assert.Equal(t, "abc", api.lastToken)
}

func TestSubmitSuccessRendersOutput(t *testing.T) {
	api := &stubAPI{result: &humanize.Result{
		Success:   true,
		Humanized: "Hello there.",
		Steps:     []string{"Simplified sentence"},
	}}
	view := &recordingView{}
	o := newOrchestrator(api, view)

	out := o.Submit(context.Background(), "  Greetings, esteemed colleague.  ", defaultSettings(), auth.Session{})

	require.Equal(t, orchestrator.KindSuccess, out.Kind)
	require.NoError(t, out.Err)
	assert.Equal(t, uint64(1), out.Generation)
	assert.Equal(t, "Greetings, esteemed colleague.", api.lastReq.Text, "text is trimmed before dispatch")

	assert.Equal(t, "Hello there.", view.output)
	assert.Equal(t, humanize.Counts{Words: 2, Chars: 12}, view.counts)
	assert.Equal(t, []string{"Simplified sentence"}, view.steps)
	assert.Equal(t, 1, view.cleared)
	assert.Equal(t, []bool{true, false}, view.loading)
	assert.Equal(t, []orchestrator.Status{orchestrator.StatusProcessing, orchestrator.StatusReady}, view.statuses)
	assert.Equal(t, toast{orchestrator.MsgSuccess, orchestrator.ToastSuccess}, view.lastToast())
}

func TestSubmitSendsSettings(t *testing.T) {
	api := &stubAPI{result: &humanize.Result{Success: true}}
	o := newOrchestrator(api, &recordingView{})

	controls := humanize.Controls{
		Mode:              "ai_only",
		IntensityPosition: 2,
		Contractions:      true,
		Informal:          true,
		AIPolish:          true,
	}
	o.Submit(context.Background(), "text", humanize.ReadSettings(controls), auth.Session{})

	assert.Equal(t, humanize.ModeAIOnly, api.lastReq.Mode)
	assert.Equal(t, humanize.IntensityHeavy, api.lastReq.Intensity)
	assert.Equal(t, humanize.Options{Contractions: true, Informal: true, AIPolish: true}, api.lastReq.Options)
}

func TestSubmitDeclaredFailureKeepsOutput(t *testing.T) {
	tests := []struct {
		name    string
		result  *humanize.Result
		message string
	}{
		{"server message", &humanize.Result{Success: false, Error: "Rate limited"}, "Rate limited"},
		{"fallback message", &humanize.Result{Success: false}, orchestrator.MsgFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &stubAPI{result: tt.result}
			view := &recordingView{output: "previous"}
			o := newOrchestrator(api, view)

			out := o.Submit(context.Background(), "text", defaultSettings(), auth.Session{})

			assert.Equal(t, orchestrator.KindDeclaredFailure, out.Kind)
			assert.ErrorIs(t, out.Err, orchestrator.ErrDeclaredFailure)
			assert.Equal(t, tt.message, out.Message)
			assert.Equal(t, "previous", view.output)
			assert.Equal(t, toast{tt.message, orchestrator.ToastError}, view.lastToast())
			assert.Equal(t, orchestrator.StatusReady, view.lastStatus())
			assert.Equal(t, []bool{true, false}, view.loading)
		})
	}
}

func TestSubmitTransportFailure(t *testing.T) {
	api := &stubAPI{err: errors.New("connection refused")}
	view := &recordingView{output: "previous"}
	o := newOrchestrator(api, view)

	out := o.Submit(context.Background(), "text", defaultSettings(), auth.Session{})

	assert.Equal(t, orchestrator.KindTransport, out.Kind)
	assert.ErrorIs(t, out.Err, orchestrator.ErrTransport)
	assert.Contains(t, out.Message, "connection refused")
	assert.Equal(t, "previous", view.output)
	assert.Equal(t, orchestrator.StatusError, view.lastStatus())
	assert.Equal(t, []bool{true, false}, view.loading, "loading state is cleared")

	snap := o.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.Outcomes[string(orchestrator.KindTransport)])
	assert.Equal(t, int64(1), snap.Humanize.Failures)
}

func TestSubmitNilResultIsTransportFailure(t *testing.T) {
	o := newOrchestrator(&stubAPI{}, &recordingView{})
	out := o.Submit(context.Background(), "text", defaultSettings(), auth.Session{})
	assert.ErrorIs(t, out.Err, orchestrator.ErrTransport)
}

func TestSubmitUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "humanized": "ignored"})
	}))
	defer srv.Close()

	view := &recordingView{output: "previous"}
	o := newOrchestrator(client.New(srv.URL), view, orchestrator.WithProvider(&stubProvider{token: "tok"}))

	out := o.Submit(context.Background(), "text", defaultSettings(), auth.Signed("tok"))

	assert.Equal(t, orchestrator.KindAuthRejected, out.Kind)
	assert.ErrorIs(t, out.Err, orchestrator.ErrAuthRejected)
	assert.ErrorIs(t, out.Err, orchestrator.ErrAuthRequired)
	assert.False(t, out.Session.Authenticated)
	assert.Equal(t, 1, view.signIns)
	assert.Equal(t, "previous", view.output)
	assert.Equal(t, orchestrator.StatusError, view.lastStatus())
	assert.Equal(t, []bool{true, false}, view.loading)
}

func TestSubmitAgainstDevServer(t *testing.T) {
	srv := httptest.NewServer(devserver.New(devserver.Config{Token: "secret"}, quietLogger()))
	defer srv.Close()

	view := &recordingView{}
	provider := auth.NewStaticProvider(auth.User{Name: "dev"}, "secret")
	o := newOrchestrator(client.New(srv.URL), view, orchestrator.WithProvider(provider))

	session := auth.SessionFor(context.Background(), provider)
	out := o.Submit(context.Background(), "Hello there.", defaultSettings(), session)

	require.Equal(t, orchestrator.KindSuccess, out.Kind, out.Err)
	assert.Equal(t, "Hello there.", view.output)
	assert.Equal(t, []string{"AI Humanization", "NLP Enhancement"}, view.steps)
}

// blockingAPI holds the first request until released and answers the rest
// immediately.
type blockingAPI struct {
	started  chan struct{}
	release  chan struct{}
	calls    atomic.Int32
	firstCtx context.Context
}

func (b *blockingAPI) Humanize(ctx context.Context, req humanize.Request, token string) (*humanize.Result, error) {
	if b.calls.Add(1) == 1 {
		b.firstCtx = ctx
		close(b.started)
		<-b.release
		return &humanize.Result{Success: true, Humanized: "old"}, nil
	}
	return &humanize.Result{Success: true, Humanized: "new"}, nil
}

func (b *blockingAPI) Health(ctx context.Context) error { return nil }

func TestSubmitDiscardsStaleResponse(t *testing.T) {
	api := &blockingAPI{started: make(chan struct{}), release: make(chan struct{})}
	view := &recordingView{}
	o := newOrchestrator(api, view)

	first := make(chan orchestrator.Outcome, 1)
	go func() {
		first <- o.Submit(context.Background(), "one", defaultSettings(), auth.Session{})
	}()
	<-api.started

	second := o.Submit(context.Background(), "two", defaultSettings(), auth.Session{})
	require.Equal(t, orchestrator.KindSuccess, second.Kind)
	assert.Equal(t, uint64(2), second.Generation)
	assert.ErrorIs(t, api.firstCtx.Err(), context.Canceled, "superseded request is cancelled")

	close(api.release)
	stale := <-first

	assert.Equal(t, orchestrator.KindStale, stale.Kind)
	assert.Equal(t, uint64(1), stale.Generation)
	assert.Equal(t, "new", view.output, "stale response never reaches the view")
	assert.Equal(t, []bool{true, true, false}, view.loading)
}

func TestCancelDiscardsInFlight(t *testing.T) {
	api := &blockingAPI{started: make(chan struct{}), release: make(chan struct{})}
	view := &recordingView{}
	o := newOrchestrator(api, view)

	assert.False(t, o.Cancel(), "nothing in flight")

	done := make(chan orchestrator.Outcome, 1)
	go func() {
		done <- o.Submit(context.Background(), "one", defaultSettings(), auth.Session{})
	}()
	<-api.started

	assert.True(t, o.Cancel())
	close(api.release)

	assert.Equal(t, orchestrator.KindStale, (<-done).Kind)
	assert.Empty(t, view.output)
	assert.Equal(t, []bool{true, false}, view.loading)
	assert.Equal(t, orchestrator.StatusReady, view.lastStatus())
}

func TestCheckHealth(t *testing.T) {
	view := &recordingView{}
	o := newOrchestrator(&stubAPI{}, view)
	assert.Equal(t, orchestrator.StatusReady, o.CheckHealth(context.Background()))

	o = newOrchestrator(&stubAPI{healthErr: client.ErrOffline}, view)
	assert.Equal(t, orchestrator.StatusOffline, o.CheckHealth(context.Background()))
	assert.Equal(t, orchestrator.StatusOffline, view.lastStatus())
}

func TestNilViewAndMetrics(t *testing.T) {
	collector := metrics.NewCollector()
	o := newOrchestrator(&stubAPI{result: &humanize.Result{Success: true}}, nil, orchestrator.WithMetrics(collector))

	out := o.Submit(context.Background(), "text", defaultSettings(), auth.Session{})
	assert.Equal(t, orchestrator.KindSuccess, out.Kind)
	assert.Same(t, collector, o.Metrics())
	assert.Equal(t, int64(1), collector.Snapshot().Outcomes["success"])
}
