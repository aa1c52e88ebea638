package testsupport

import (
	"path/filepath"
	"testing"

	"murmur/internal/config"
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
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.OpenAI.APIKey = "sk-test"

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithStorageBackend selects the durable backend on the test config.
func WithStorageBackend(backend string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Storage.Backend = backend
	}
}

// WithClientBaseURL points the client at a test server.
func WithClientBaseURL(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Client.BaseURL = baseURL
	}
}
