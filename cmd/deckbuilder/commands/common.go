package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/deckbuilder/internal/config"
	"git.home.luguber.info/inful/deckbuilder/internal/metrics"
)

// LogLevelEnv overrides the log level when --verbose is not given.
const LogLevelEnv = "DECKBUILDER_LOG_LEVEL"

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags.
type CLI struct {
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Init     InitCmd     `cmd:"" help:"Initialize a new deck project"`
	Serve    ServeCmd    `cmd:"" help:"Serve the project with live reload and the editor"`
	Pack     PackCmd     `cmd:"" help:"Freeze the project into a static bundle"`
	Validate ValidateCmd `cmd:"" help:"Check the deck document and print its outline"`
	Doc      DocCmd      `cmd:"" help:"Serve the built-in documentation deck"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply(g *Global) error {
	setupLogging(g, logLevel(c.Verbose, ""), "text")
	return nil
}

// logLevel picks --verbose, then DECKBUILDER_LOG_LEVEL, then the configured level.
func logLevel(verbose bool, configured string) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	if env := strings.TrimSpace(os.Getenv(LogLevelEnv)); env != "" {
		configured = env
	}
	cfg := config.Default()
	cfg.Logging.Level = configured
	return cfg.LogLevel()
}

func setupLogging(g *Global, level slog.Level, format string) {
	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler = slog.NewTextHandler(os.Stderr, opts)
	if format == "json" {
		h = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger := slog.New(h)
	slog.SetDefault(logger)
	if g != nil {
		g.Logger = logger
	}
}

// loadConfig reads the tool configuration from dir and applies its logging
// settings.
func loadConfig(g *Global, root *CLI, dir string) (*config.Config, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	setupLogging(g, logLevel(root.Verbose, cfg.Logging.Level), cfg.Logging.Format)
	return cfg, nil
}

// newMetrics returns a Prometheus recorder and its registry when metrics are
// enabled, and a no-op recorder otherwise.
func newMetrics(cfg *config.Config) (metrics.Recorder, *prom.Registry) {
	if !cfg.Metrics.Enabled {
		return metrics.NoopRecorder{}, nil
	}
	reg := prom.NewRegistry()
	return metrics.NewPrometheusRecorder(reg), reg
}
