package testsupport

import (
	"path/filepath"
	"testing"

	"clientdedup/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t   testing.TB
	cfg *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test:
// <base>/input, <base>/output and <base>/logs.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.InputDir = filepath.Join(base, "input")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Output.ResultsDBPath = filepath.Join(cfgVal.Paths.OutputDir, "resolution.db")
	cfgVal.Output.Workers = 2
	cfgVal.Logging.RetentionDays = 0

	builder := &configBuilder{
		t:   t,
		cfg: &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithResultsDB enables the SQLite results export.
func WithResultsDB() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.ResultsDB = true
	}
}

// WithGroupExtracts enables the duplicate-group extracts.
func WithGroupExtracts() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.GroupExtracts = true
	}
}

// WithTwinSSNPolicy overrides the twin filter SSN policy.
func WithTwinSSNPolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Matching.TwinSSNPolicy = policy
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.InputDir)
}

// WithInputCSV writes a CSV file into the config's input directory.
func WithInputCSV(name string, header []string, rows ...[]string) ConfigOption {
	return func(b *configBuilder) {
		WriteCSV(b.t, b.cfg.Paths.InputDir, name, header, rows...)
	}
}
