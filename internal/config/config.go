// Package config loads the optional deckbuilder.yaml tool configuration.
//
// The file tunes the tools around a deck (server, preview store, asset
// fetching, notifications, logging); the deck itself lives in the project's
// reveal.yaml. Environment variables are expanded in the file after .env
// files are loaded, and CLI flags override the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/deckbuilder/internal/assets"
	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/foundation/normalization"
	"git.home.luguber.info/inful/deckbuilder/internal/normalize"
	"git.home.luguber.info/inful/deckbuilder/internal/retry"
)

// FileName is the tool configuration file looked up in the project directory.
const FileName = "deckbuilder.yaml"

// Config is the tool configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Preview PreviewConfig `yaml:"preview"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Notify  NotifyConfig  `yaml:"notify"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ServerConfig configures `deckbuilder serve`.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// TLS files, relative to the project directory.
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`
	// Watch rebuilds and reloads browsers when the project changes.
	Watch bool `yaml:"watch"`
}

// PreviewConfig configures the editor preview store.
type PreviewConfig struct {
	Capacity int      `yaml:"capacity"`
	TTL      Duration `yaml:"ttl"`
	Sweep    Duration `yaml:"sweep"`
	// Database, when set, persists previews in SQLite.
	Database string `yaml:"database"`
}

// FetchConfig configures CDN downloads during pack.
type FetchConfig struct {
	// Distribution is where reveal.js files come from when neither the
	// static mirror nor the deck's cdn has them, in serve and pack. Empty
	// disables the fallback.
	Distribution string            `yaml:"distribution"`
	Timeout      Duration          `yaml:"timeout"`
	Backoff      retry.BackoffMode `yaml:"backoff"`
	Initial      Duration          `yaml:"initial_delay"`
	Max          Duration          `yaml:"max_delay"`
	MaxRetries   int               `yaml:"max_retries"`
}

// NotifyConfig configures pack completion events.
type NotifyConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// LoggingConfig configures the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Duration is a time.Duration written as "30s" in YAML.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		*d = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std converts to time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "localhost", Watch: true},
		Preview: PreviewConfig{
			Capacity: 64,
			TTL:      Duration(30 * time.Minute),
			Sweep:    Duration(time.Minute),
		},
		Fetch: FetchConfig{
			Distribution: assets.DefaultDistribution,
			Timeout:      Duration(30 * time.Second),
			Backoff:      retry.BackoffLinear,
			Initial:      Duration(time.Second),
			Max:          Duration(10 * time.Second),
			MaxRetries:   2,
		},
		Notify:  NotifyConfig{Subject: "deckbuilder.pack"},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: true},
	}
}

var (
	backoffModes = normalization.NewNormalizer(map[string]retry.BackoffMode{
		"fixed":       retry.BackoffFixed,
		"linear":      retry.BackoffLinear,
		"exponential": retry.BackoffExponential,
	}, retry.BackoffLinear)
	logLevels = normalization.NewNormalizer(map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}, slog.LevelInfo)
	logFormats = normalization.NewNormalizer(map[string]string{
		"text": "text",
		"json": "json",
	}, "text")
)

// Load reads dir/deckbuilder.yaml on top of the defaults. A missing file is
// not an error. .env files in dir are loaded first without overriding the
// process environment.
func Load(dir string) (*Config, error) {
	loadEnvFiles(dir)

	cfg := Default()
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "read tool configuration").
			WithContext("path", path).Build()
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "parse tool configuration").
			WithContext("path", path).UserAction().Build()
	}
	if err := cfg.normalize(); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryConfig, "invalid tool configuration").
			WithContext("path", path).UserAction().Build()
	}
	return cfg, nil
}

func loadEnvFiles(dir string) {
	for _, name := range []string{".env", ".env.local"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("Failed to load env file", "path", p, "error", err)
			continue
		}
		slog.Debug("Loaded environment file", "path", p)
	}
}

func (c *Config) normalize() error {
	mode, err := backoffModes.NormalizeWithError(string(c.Fetch.Backoff))
	if err != nil {
		return fmt.Errorf("fetch.backoff: %w", err)
	}
	c.Fetch.Backoff = mode
	if _, err := logLevels.NormalizeWithError(c.Logging.Level); err != nil {
		return fmt.Errorf("logging.level: %w", err)
	}
	format, err := logFormats.NormalizeWithError(c.Logging.Format)
	if err != nil {
		return fmt.Errorf("logging.format: %w", err)
	}
	c.Logging.Format = format
	if c.Preview.Capacity < 1 {
		return fmt.Errorf("preview.capacity must be at least 1, got %d", c.Preview.Capacity)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Fetch.Distribution != "" && !normalize.IsURL(c.Fetch.Distribution) {
		return fmt.Errorf("fetch.distribution must be an absolute URL, got %q", c.Fetch.Distribution)
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("fetch.max_retries cannot be negative")
	}
	return nil
}

// RetryPolicy builds the fetch retry policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.NewPolicy(c.Fetch.Backoff, c.Fetch.Initial.Std(), c.Fetch.Max.Std(), c.Fetch.MaxRetries)
}

// LogLevel parses the configured level, defaulting to info.
func (c *Config) LogLevel() slog.Level {
	return logLevels.Normalize(c.Logging.Level)
}

// TLSFiles returns the certificate and key paths when both exist in dir.
// Relative paths are resolved against dir; the defaults are localhost.crt
// and localhost.key.
func (c *Config) TLSFiles(dir string) (cert, key string, ok bool) {
	cert, key = c.Server.TLSCert, c.Server.TLSKey
	if cert == "" {
		cert = "localhost.crt"
	}
	if key == "" {
		key = "localhost.key"
	}
	if !filepath.IsAbs(cert) {
		cert = filepath.Join(dir, cert)
	}
	if !filepath.IsAbs(key) {
		key = filepath.Join(dir, key)
	}
	if !isFile(cert) || !isFile(key) {
		return "", "", false
	}
	return cert, key, true
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && !info.IsDir()
}

// Sample is written by `deckbuilder init`.
func Sample() ([]byte, error) {
	return yaml.Marshal(Default())
}
