package testsupport

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/nodo1014/indexer/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.MediaRoot = base
	cfg.Worker.ClientID = "test-client"

	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.Worker.WebSocketURL == "" {
		derived := strings.Replace(cfg.Worker.BaseURL, "https://", "wss://", 1)
		derived = strings.Replace(derived, "http://", "ws://", 1)
		cfg.Worker.WebSocketURL = derived
	}
	return &cfg
}

// WithWorkerURL points the config at a test server.
func WithWorkerURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Worker.BaseURL = url
		cfg.Worker.WebSocketURL = ""
	}
}

// WithFallbackLanguages overrides the acquisition fallback list.
func WithFallbackLanguages(langs ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Subtitles.FallbackLanguages = langs
	}
}
