// Package cli provides the command-line interface for humanizer.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/raphaelgruber/humanizer-go/internal/auth"
	"github.com/raphaelgruber/humanizer-go/internal/client"
	"github.com/raphaelgruber/humanizer-go/internal/config"
	"github.com/raphaelgruber/humanizer-go/internal/metrics"
	"github.com/raphaelgruber/humanizer-go/internal/orchestrator"
	"github.com/raphaelgruber/humanizer-go/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool
	apiURL  string

	// Global config and collaborators, set up in PersistentPreRunE
	cfg          *config.Config
	logger       *slog.Logger
	apiClient    *client.Client
	fileProvider *auth.FileProvider
	collector    *metrics.Collector

	cleanups []func(context.Context) error
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "humanizer",
	Short: "Make machine-sounding text read naturally",
	Long: `Humanizer sends text to a humanize API and prints the rewritten result.

Pick a mode (balanced, nlp_only, ai_only), an intensity (light, medium,
heavy) and the techniques to apply. Run 'humanizer tui' for the
interactive editor.

Configuration is read from ~/.config/humanizer/config.yaml, a .env file
and HUMANIZER_* environment variables.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		return setup(cmd)
	},
}

// setup loads config and builds the shared collaborators.
func setup(cmd *cobra.Command) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if apiURL != "" {
		cfg.API.BaseURL = apiURL
	}

	level := cfg.LogLevel()
	if verbose && level > slog.LevelDebug {
		level = slog.LevelDebug
	}

	// The full-screen UI owns the terminal; log to file only.
	var closeLog func() error
	if cmd.Name() == "tui" {
		logger, closeLog = config.SetupFileLogger(cfg.Log.File, level)
	} else {
		logger, closeLog = config.SetupLogger(cfg.Log.File, quietLevel(level))
	}
	cleanups = append(cleanups, func(context.Context) error { return closeLog() })
	slog.SetDefault(logger)

	opts := []client.Option{
		client.WithTimeout(cfg.API.Timeout),
		client.WithLogger(logger),
	}
	if cfg.Trace.Enabled {
		shutdown, err := initTracing()
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
		cleanups = append(cleanups, shutdown)
		opts = append(opts, client.WithTransport(telemetry.Transport(nil)))
	}
	apiClient = client.New(cfg.API.BaseURL, opts...)

	fileProvider = auth.NewFileProvider(auth.NewStore(cfg.Auth.ProfileDir), auth.WithLogger(logger))
	collector = metrics.NewCollector()
	return nil
}

// quietLevel keeps routine info lines off the terminal unless asked for.
func quietLevel(level slog.Level) slog.Level {
	if level < slog.LevelWarn && !verbose {
		return slog.LevelWarn
	}
	return level
}

// initTracing exports spans as JSON lines next to the log file.
func initTracing() (func(context.Context) error, error) {
	path := filepath.Join(filepath.Dir(cfg.Log.File), "humanizer-traces.jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	shutdown, err := telemetry.InitTracer("humanizer", f, logger)
	if err != nil {
		f.Close()
		return nil, err
	}
	return func(ctx context.Context) error {
		err := shutdown(ctx)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}, nil
}

func teardown() {
	ctx := context.Background()
	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := cleanups[i](ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cleanup failed: %v\n", err)
		}
	}
	cleanups = nil
}

// provider returns the auth provider submissions are gated on, or nil when
// sign-in is not required.
func provider() auth.Provider {
	if !cfg.Auth.Enabled {
		return nil
	}
	if cfg.Auth.Token != "" {
		return auth.NewStaticProvider(auth.User{Name: "token"}, cfg.Auth.Token)
	}
	return fileProvider
}

// newOrchestrator wires an orchestrator to view.
func newOrchestrator(view orchestrator.View) *orchestrator.Orchestrator {
	opts := []orchestrator.Option{
		orchestrator.WithMetrics(collector),
		orchestrator.WithLogger(logger),
	}
	if p := provider(); p != nil {
		opts = append(opts, orchestrator.WithProvider(p))
	}
	return orchestrator.New(apiClient, view, opts...)
}

// session snapshots the current auth state.
func session(ctx context.Context) auth.Session {
	return auth.SessionFor(ctx, provider())
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext is Execute with a context for cancellation.
func ExecuteContext(ctx context.Context) error {
	defer teardown()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "humanize API base URL (overrides config)")

	// Add subcommands
	rootCmd.AddCommand(humanizeCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(versionCmd)
}
