package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"montage/internal/config"
	"montage/internal/transcode"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.ProxyDir = filepath.Join(base, "proxies")
	cfg.Paths.LedgerDir = filepath.Join(base, "ledger")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.MetricsBind = ""

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithProfile overrides the default proxy profile on the test config.
func WithProfile(p transcode.Profile) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Proxy.Profile = p
	}
}

// WithFFmpegBinary points the engine at a stub binary.
func WithFFmpegBinary(path string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Transcode.FFmpegBinary = path
	}
}

// WriteConfigFile marshals the config to a TOML file and returns its path.
func WriteConfigFile(t testing.TB, cfg *config.Config) string {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
