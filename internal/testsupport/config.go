package testsupport

import (
	"path/filepath"
	"testing"

	"fieldsync/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Backend.BaseURL = "http://127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithBackendURL points the test config at a live test server.
func WithBackendURL(url string) ConfigOption {
	return func(c *config.Config) {
		c.Backend.BaseURL = url
	}
}

// WithMaxRetries overrides the retry budget on the test config.
func WithMaxRetries(n int) ConfigOption {
	return func(c *config.Config) {
		c.Sync.MaxRetries = n
	}
}
