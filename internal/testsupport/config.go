// Package testsupport provides shared constructors for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"scout/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// Common folder seeding is disabled by default so tests control the registry
// contents.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Folders.CommonFolders = nil
	cfg.Watcher.DebounceMs = 40

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithCommonFolders sets the seeded common folders on the test config.
func WithCommonFolders(paths ...string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Folders.CommonFolders = paths
	}
}

// WithDebounceMs overrides the watcher debounce window on the test config.
func WithDebounceMs(ms int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Watcher.DebounceMs = ms
	}
}
