package devserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/raphaelgruber/humanizer-go/internal/devserver"
	"github.com/raphaelgruber/humanizer-go/internal/humanize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func post(t *testing.T, h http.Handler, body string, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/humanize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), "body: %s", rec.Body.String())
	return rec, decoded
}

func TestHealth(t *testing.T) {
	srv := devserver.New(devserver.Config{}, quietLogger())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestHumanizeValidation(t *testing.T) {
	srv := devserver.New(devserver.Config{}, quietLogger())

	tests := []struct {
		name string
		body string
		want string
	}{
		{"missing text", `{"mode":"balanced"}`, "No text provided"},
		{"not json", `hello`, "No text provided"},
		{"blank text", `{"text":"   "}`, "Text cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := post(t, srv, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, body["error"])
		})
	}
}

func TestHumanizeWrongFieldType(t *testing.T) {
	srv := devserver.New(devserver.Config{}, quietLogger())

	rec, body := post(t, srv, `{"text": 5}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "text must be string, got number", body["error"])

	rec, body = post(t, srv, `{"text":"ok","options":5}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, body["success"])
}

func TestHumanizeEchoesTrimmedText(t *testing.T) {
	srv := devserver.New(devserver.Config{}, quietLogger())

	rec, body := post(t, srv, `{"text":"  Hello there.  ","mode":"ai_only","intensity":"heavy"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Hello there.", body["humanized"])
	assert.Equal(t, "Hello there.", body["original"])
	assert.Equal(t, "ai_only", body["mode"])
	assert.Equal(t, "heavy", body["intensity"])
	assert.Equal(t, []any{"AI Humanization"}, body["steps"])
}

func TestHumanizeDefaults(t *testing.T) {
	srv := devserver.New(devserver.Config{}, quietLogger())

	_, body := post(t, srv, `{"text":"x"}`, nil)
	assert.Equal(t, "balanced", body["mode"])
	assert.Equal(t, "medium", body["intensity"])
}

func TestStepsFor(t *testing.T) {
	assert.Equal(t, []string{"NLP Processing"}, devserver.StepsFor(humanize.ModeNLPOnly, humanize.Options{}))
	assert.Equal(t, []string{"AI Humanization", "NLP Enhancement"}, devserver.StepsFor(humanize.ModeBalanced, humanize.Options{}))
	assert.Equal(t, []string{"AI Humanization", "NLP Enhancement", "AI Polish"},
		devserver.StepsFor(humanize.ModeBalanced, humanize.Options{AIPolish: true}))
}

func TestHumanizeTransformFailure(t *testing.T) {
	srv := devserver.New(devserver.Config{
		Transform: func(ctx context.Context, req humanize.Request) (string, error) {
			return "", errors.New("Rate limited")
		},
	}, quietLogger())

	rec, body := post(t, srv, `{"text":"x"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Rate limited", body["error"])
}

func TestHumanizeRequiresToken(t *testing.T) {
	srv := devserver.New(devserver.Config{Token: "s3cret"}, quietLogger())

	rec, _ := post(t, srv, `{"text":"x"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = post(t, srv, `{"text":"x"}`, http.Header{"Authorization": {"Bearer wrong"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := post(t, srv, `{"text":"x"}`, http.Header{"Authorization": {"Bearer s3cret"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
}
