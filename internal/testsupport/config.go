package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"discvault/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Output.Directory = filepath.Join(base, "output")
	cfgVal.Logging.LogDir = filepath.Join(base, "logs")
	cfgVal.Drive.EjectBetweenDiscs = false

	// Sessions require the destination to exist up front.
	if err := os.MkdirAll(cfgVal.Output.Directory, 0o755); err != nil {
		t.Fatalf("mkdir output dir: %v", err)
	}

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithDevice pins the optical drive path on the test config.
func WithDevice(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Drive.Device = path
	}
}

// WithOutputDir overrides the artifact destination on the test config.
func WithOutputDir(dir string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.Directory = dir
	}
}

// WithBufferKiB overrides the capture copy buffer size on the test config.
func WithBufferKiB(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Capture.BufferKiB = size
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Output.Directory)
}
