package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "charm.land/bubbletea/v2"
	"github.com/raphaelgruber/humanizer-go/internal/auth"
	"github.com/raphaelgruber/humanizer-go/internal/humanize"
	"github.com/raphaelgruber/humanizer-go/internal/metrics"
	"github.com/raphaelgruber/humanizer-go/internal/orchestrator"
)

// Config holds what the editor needs to run.
type Config struct {
	API orchestrator.Humanizer

	// Provider is nil when sign-in is not required.
	Provider auth.Provider
	Settings humanize.Settings
	Metrics  *metrics.Collector
	Logger   *slog.Logger
}

// Run starts the editor and blocks until the user quits or ctx is done.
func Run(ctx context.Context, cfg Config) error {
	view := &programView{}

	opts := []orchestrator.Option{orchestrator.WithMetrics(cfg.Metrics)}
	if cfg.Logger != nil {
		opts = append(opts, orchestrator.WithLogger(cfg.Logger))
	}
	if cfg.Provider != nil {
		opts = append(opts, orchestrator.WithProvider(cfg.Provider))
	}
	orch := orchestrator.New(cfg.API, view, opts...)

	modelOpts := Options{
		Provider: cfg.Provider,
		Controls: ControlsFor(cfg.Settings),
	}
	if cfg.Provider != nil {
		events, unsubscribe := cfg.Provider.Subscribe()
		defer unsubscribe()
		modelOpts.Events = events
		modelOpts.Session = auth.SessionFor(ctx, cfg.Provider)
		if user, err := cfg.Provider.CurrentUser(ctx); err == nil && user != nil {
			modelOpts.User = user.Name
		}
	}

	p := tea.NewProgram(New(ctx, orch, modelOpts), tea.WithContext(ctx))
	view.send = p.Send

	_, err := p.Run()
	orch.Cancel()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	return nil
}

// ControlsFor returns the controls showing settings.
func ControlsFor(s humanize.Settings) humanize.Controls {
	return humanize.Controls{
		Mode:              string(s.Mode),
		IntensityPosition: s.Intensity.Position(),
		Synonyms:          s.Options.Synonyms,
		Contractions:      s.Options.Contractions,
		VaryLength:        s.Options.VaryLength,
		Informal:          s.Options.Informal,
		CasualStarters:    s.Options.CasualStarters,
		AIPolish:          s.Options.AIPolish,
	}
}
