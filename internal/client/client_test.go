package client_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/raphaelgruber/humanizer-go/internal/client"
	"github.com/raphaelgruber/humanizer-go/internal/devserver"
	"github.com/raphaelgruber/humanizer-go/internal/humanize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleRequest() humanize.Request {
	return humanize.ReadSettings(humanize.DefaultControls()).Request("Hello there.")
}

func TestHumanizeAgainstDevServer(t *testing.T) {
	srv := httptest.NewServer(devserver.New(devserver.Config{}, quietLogger()))
	defer srv.Close()

	c := client.New(srv.URL+"/", client.WithLogger(quietLogger()))
	assert.Equal(t, srv.URL, c.BaseURL(), "trailing slash is trimmed")

	result, err := c.Humanize(context.Background(), sampleRequest(), "")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Hello there.", result.Humanized)
	assert.Equal(t, []string{"AI Humanization", "NLP Enhancement"}, result.Steps)
}

func TestHumanizeSendsHeadersAndBody(t *testing.T) {
	var (
		gotAuth      string
		gotType      string
		gotRequestID string
		gotBody      humanize.Request
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		gotRequestID = r.Header.Get("X-Request-ID")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"success":true,"humanized":"ok"}`))
	}))
	defer srv.Close()

	c := client.New(srv.URL, client.WithLogger(quietLogger()))
	_, err := c.Humanize(context.Background(), sampleRequest(), "tok-1")
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-1", gotAuth)
	assert.Equal(t, "application/json", gotType)
	assert.NotEmpty(t, gotRequestID)
	assert.Equal(t, sampleRequest(), gotBody)

	_, err = c.Humanize(context.Background(), sampleRequest(), "")
	require.NoError(t, err)
	assert.Empty(t, gotAuth, "no credential without a token")
}

func TestHumanizeUnauthorizedIgnoresBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":true,"humanized":"should be ignored"}`))
	}))
	defer srv.Close()

	result, err := client.New(srv.URL).Humanize(context.Background(), sampleRequest(), "tok")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, client.ErrUnauthorized)
}

func TestHumanizeDeclaredFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"success":false,"error":"Rate limited"}`))
	}))
	defer srv.Close()

	result, err := client.New(srv.URL).Humanize(context.Background(), sampleRequest(), "")
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Rate limited", result.Error)
}

func TestHumanizeUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`<html>bad gateway</html>`))
	}))
	defer srv.Close()

	_, err := client.New(srv.URL).Humanize(context.Background(), sampleRequest(), "")
	assert.ErrorIs(t, err, client.ErrTransport)
	assert.Contains(t, err.Error(), "502")
}

func TestHumanizeNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := client.New(url).Humanize(context.Background(), sampleRequest(), "")
	assert.ErrorIs(t, err, client.ErrTransport)
}

func TestHumanizeTimeout(t *testing.T) {
	srv := httptest.NewServer(devserver.New(devserver.Config{Delay: time.Second}, quietLogger()))
	defer srv.Close()

	c := client.New(srv.URL, client.WithTimeout(50*time.Millisecond))
	_, err := c.Humanize(context.Background(), sampleRequest(), "")
	assert.ErrorIs(t, err, client.ErrTransport)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(devserver.New(devserver.Config{}, quietLogger()))
	defer srv.Close()
	assert.NoError(t, client.New(srv.URL).Health(context.Background()))

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	assert.ErrorIs(t, client.New(down.URL).Health(context.Background()), client.ErrOffline)

	gone := httptest.NewServer(http.NotFoundHandler())
	goneURL := gone.URL
	gone.Close()
	assert.ErrorIs(t, client.New(goneURL).Health(context.Background()), client.ErrOffline)
}
