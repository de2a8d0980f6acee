// Package devserver provides a local stand-in for the humanize API with the
// same request validation and response shapes. Text passes through the
// configured Transformer, which echoes by default.
package devserver

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/raphaelgruber/humanizer-go/internal/humanize"
)

// ServiceName is reported by the health endpoint.
const ServiceName = "Text Humanizer API"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Step labels reported for each mode.
const (
	StepAIHumanization = "AI Humanization"
	StepNLPProcessing  = "NLP Processing"
	StepNLPEnhancement = "NLP Enhancement"
	StepAIPolish       = "AI Polish"
)

// Transformer rewrites text. Returning an error produces a declared failure.
type Transformer func(ctx context.Context, req humanize.Request) (string, error)

// Echo returns the text unchanged.
func Echo(_ context.Context, req humanize.Request) (string, error) {
	return req.Text, nil
}

// Config configures the dev server.
type Config struct {
	// Token, when set, is required as a bearer credential on /api/humanize.
	Token string

	// Delay is added before answering a humanize request.
	Delay time.Duration

	// Transform defaults to Echo.
	Transform Transformer
}

// Server is an http.Handler serving the humanize API.
type Server struct {
	router chi.Router
	cfg    Config
	logger *slog.Logger
}

// New builds the router.
func New(cfg Config, logger *slog.Logger) *Server {
	if cfg.Transform == nil {
		cfg.Transform = Echo
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{cfg: cfg, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(LoggingMiddleware(logger))

	r.Get("/api/health", s.handleHealth)
	r.Post("/api/humanize", s.handleHumanize)

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": ServiceName})
}

// humanizeBody mirrors humanize.Request with optional fields so defaults can
// be applied the way the real service does.
type humanizeBody struct {
	Text      *string            `json:"text"`
	Mode      humanize.Mode      `json:"mode"`
	Intensity humanize.Intensity `json:"intensity"`
	Options   *humanize.Options  `json:"options"`
}

type successBody struct {
	Success   bool               `json:"success"`
	Original  string             `json:"original"`
	Humanized string             `json:"humanized"`
	Mode      humanize.Mode      `json:"mode"`
	Intensity humanize.Intensity `json:"intensity"`
	Steps     []string           `json:"steps"`
}

type failureBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleHumanize(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Token != "" && !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Unauthorized"})
		return
	}

	var body humanizeBody
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		// A well-formed body with a field of the wrong type fails inside the
		// handler, not at validation.
		writeJSON(w, http.StatusInternalServerError, failureBody{
			Success: false,
			Error:   fmt.Sprintf("%s must be %s, got %s", typeErr.Field, typeErr.Type, typeErr.Value),
		})
		return
	}
	if err != nil || body.Text == nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "No text provided"})
		return
	}

	text := strings.TrimSpace(*body.Text)
	if text == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "Text cannot be empty"})
		return
	}

	req := humanize.Request{
		Text:      text,
		Mode:      body.Mode,
		Intensity: body.Intensity,
		Options:   humanize.DefaultOptions(),
	}
	if req.Mode == "" {
		req.Mode = humanize.ModeBalanced
	}
	if req.Intensity == "" {
		req.Intensity = humanize.IntensityMedium
	}
	if body.Options != nil {
		req.Options = *body.Options
	}

	if s.cfg.Delay > 0 {
		select {
		case <-time.After(s.cfg.Delay):
		case <-r.Context().Done():
			return
		}
	}

	out, err := s.cfg.Transform(r.Context(), req)
	if err != nil {
		s.logger.Warn("transform failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
		writeJSON(w, http.StatusInternalServerError, failureBody{Success: false, Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, successBody{
		Success:   true,
		Original:  text,
		Humanized: out,
		Mode:      req.Mode,
		Intensity: req.Intensity,
		Steps:     StepsFor(req.Mode, req.Options),
	})
}

// StepsFor lists the pipeline stages the service reports for a mode.
func StepsFor(mode humanize.Mode, opts humanize.Options) []string {
	switch mode {
	case humanize.ModeAIOnly:
		return []string{StepAIHumanization}
	case humanize.ModeNLPOnly:
		return []string{StepNLPProcessing}
	default:
		steps := []string{StepAIHumanization, StepNLPEnhancement}
		if opts.AIPolish {
			steps = append(steps, StepAIPolish)
		}
		return steps
	}
}

// authorized checks the bearer credential in constant time.
func (s *Server) authorized(r *http.Request) bool {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.Token)) == 1
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}
