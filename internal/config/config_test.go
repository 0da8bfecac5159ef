package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/retry"
)

func writeConfig(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(body), 0o600))
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverridesAndExpandsEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DECK_NATS", "nats://broker:4222")
	writeConfig(t, dir, `
server:
  port: 8443
preview:
  capacity: 8
  ttl: 5m
fetch:
  backoff: Exponential
  initial_delay: 250ms
  max_retries: 4
notify:
  url: ${DECK_NATS}
logging:
  level: debug
`)

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 8443, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8, cfg.Preview.Capacity)
	assert.Equal(t, 5*time.Minute, cfg.Preview.TTL.Std())
	assert.Equal(t, "nats://broker:4222", cfg.Notify.URL)
	assert.Equal(t, "deckbuilder.pack", cfg.Notify.Subject)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel())

	p := cfg.RetryPolicy()
	assert.Equal(t, retry.BackoffExponential, p.Mode)
	assert.Equal(t, 250*time.Millisecond, p.Initial)
	assert.Equal(t, 4, p.MaxRetries)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("DECK_TEST_SUBJECT=from.env\n"), 0o600))
	writeConfig(t, dir, "notify:\n  subject: ${DECK_TEST_SUBJECT}\n")
	t.Cleanup(func() { _ = os.Unsetenv("DECK_TEST_SUBJECT") })

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "from.env", cfg.Notify.Subject)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"backoff", "fetch:\n  backoff: cubic\n"},
		{"capacity", "preview:\n  capacity: 0\n"},
		{"duration", "preview:\n  ttl: soon\n"},
		{"port", "server:\n  port: 70000\n"},
		{"log level", "logging:\n  level: loud\n"},
		{"distribution", "fetch:\n  distribution: reveal/dist\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, tt.body)
			_, err := Load(dir)
			require.Error(t, err)
			assert.True(t, derrors.HasCategory(err, derrors.CategoryConfig))
		})
	}
}

func TestTLSFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := Default()

	_, _, ok := cfg.TLSFiles(dir)
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "localhost.crt"), []byte("c"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "localhost.key"), []byte("k"), 0o600))
	cert, key, ok := cfg.TLSFiles(dir)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(dir, "localhost.crt"), cert)
	assert.Equal(t, filepath.Join(dir, "localhost.key"), key)
}

func TestSampleRoundTrips(t *testing.T) {
	data, err := Sample()
	require.NoError(t, err)

	dir := t.TempDir()
	writeConfig(t, dir, string(data))
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
