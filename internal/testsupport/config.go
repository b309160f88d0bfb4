package testsupport

import (
	"path/filepath"
	"testing"

	"romkeeper/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.DatsDir = filepath.Join(base, "dats")
	cfg.Paths.QuarantineDir = filepath.Join(base, "quarantine")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.DatabasePath = filepath.Join(base, "catalog.db")
	cfg.Scan.WorkerCount = 2

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithDeepHash enables deep hashing on the test config.
func WithDeepHash() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Scan.DeepHash = true
	}
}

// WithFuzzyThreshold overrides the fuzzy duplicate threshold.
func WithFuzzyThreshold(threshold float64) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Dedupe.FuzzyThreshold = threshold
	}
}
