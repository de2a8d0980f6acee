// Package config loads settings from defaults, an optional YAML file, a .env
// file and HUMANIZER_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/raphaelgruber/humanizer-go/internal/humanize"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "HUMANIZER_"

// envAliases maps variables whose name doesn't follow the section_key scheme.
var envAliases = map[string]string{
	"HUMANIZER_TOKEN":          "auth.token",
	"HUMANIZER_CLIENT_TIMEOUT": "api.timeout",
	"HUMANIZER_CONFIG":         "",
}

// Config holds all configuration values.
type Config struct {
	API       APIConfig       `koanf:"api"`
	Auth      AuthConfig      `koanf:"auth"`
	Log       LogConfig       `koanf:"log"`
	Trace     TraceConfig     `koanf:"trace"`
	Defaults  DefaultsConfig  `koanf:"defaults"`
	Batch     BatchConfig     `koanf:"batch"`
	DevServer DevServerConfig `koanf:"devserver"`
}

// APIConfig locates the humanize endpoint.
type APIConfig struct {
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// AuthConfig enables the sign-in requirement.
type AuthConfig struct {
	Enabled bool `koanf:"enabled"`

	// Token, when set, is used instead of stored credentials.
	Token      string `koanf:"token"`
	ProfileDir string `koanf:"profile_dir"`
}

// LogConfig configures the logger.
type LogConfig struct {
	File  string `koanf:"file"`
	Level string `koanf:"level"`
}

// TraceConfig toggles OpenTelemetry tracing of outgoing requests.
type TraceConfig struct {
	Enabled bool `koanf:"enabled"`
}

// DefaultsConfig holds the initial request settings.
type DefaultsConfig struct {
	Mode      string `koanf:"mode"`
	Intensity string `koanf:"intensity"`
}

// BatchConfig bounds the batch command.
type BatchConfig struct {
	Concurrency int `koanf:"concurrency"`
}

// DevServerConfig configures humanizer-devserver.
type DevServerConfig struct {
	Port  int    `koanf:"port"`
	Token string `koanf:"token"`
}

// defaults returns the built-in values.
func defaults() map[string]any {
	return map[string]any{
		"api.base_url":       "http://localhost:5000",
		"api.timeout":        "60s",
		"auth.enabled":       false,
		"auth.token":         "",
		"auth.profile_dir":   DefaultDir(),
		"log.file":           filepath.Join(os.TempDir(), "humanizer.log"),
		"log.level":          "INFO",
		"trace.enabled":      false,
		"defaults.mode":      string(humanize.ModeBalanced),
		"defaults.intensity": string(humanize.IntensityMedium),
		"batch.concurrency":  4,
		"devserver.port":     5000,
		"devserver.token":    "",
	}
}

// DefaultDir is the per-user configuration directory.
func DefaultDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "humanizer")
}

// Path returns the config file location: $HUMANIZER_CONFIG or config.yaml
// in DefaultDir.
func Path() string {
	if p := os.Getenv(EnvPrefix + "CONFIG"); p != "" {
		return p
	}
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Load reads .env from the working directory into the environment, then
// loads the configuration from Path.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return LoadFile(Path())
}

// LoadFile loads defaults, then path if it exists, then the environment.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKey maps HUMANIZER_API_BASE_URL to api.base_url: the first underscore
// separates the section from the key.
func envKey(s string) string {
	if alias, ok := envAliases[s]; ok {
		return alias
	}
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.Replace(key, "_", ".", 1)
}

func (c *Config) validate() error {
	if _, err := humanize.ParseIntensity(c.Defaults.Intensity); err != nil {
		return fmt.Errorf("defaults.intensity: %w", err)
	}
	if strings.TrimSpace(c.Defaults.Mode) == "" {
		c.Defaults.Mode = string(humanize.ModeBalanced)
	}
	if c.Batch.Concurrency < 1 {
		c.Batch.Concurrency = 1
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative, got %s", c.API.Timeout)
	}
	return nil
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	return parseLogLevel(c.Log.Level)
}

// DefaultSettings returns the request settings configured as defaults.
func (c *Config) DefaultSettings() humanize.Settings {
	intensity, _ := humanize.ParseIntensity(c.Defaults.Intensity)
	controls := humanize.DefaultControls()
	controls.Mode = c.Defaults.Mode
	controls.IntensityPosition = intensity.Position()
	return humanize.ReadSettings(controls)
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
