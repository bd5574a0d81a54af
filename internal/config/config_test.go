package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mvp-joe/featurescan/internal/analyzer"
	"github.com/mvp-joe/featurescan/internal/diag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - Load() uses defaults when no config file exists
// - Load() reads .featurescan/config.yml and .featurescan/config.yaml
// - Load() merges a partial config file with defaults
// - Environment variables override config file values and defaults
// - NewFileLoader() reads an explicit file and fails when it is missing
// - Load() returns errors for malformed YAML and invalid values
// - Validate() rejects empty includes, bad globs, bad cache sizes and unknown severities
// - Validate() reports every problem at once
// - Severity() maps the configured name to a diag severity

func writeConfig(t *testing.T, root, name, content string) {
	t.Helper()
	dir := filepath.Join(root, DirName)
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	t.Parallel()

	cfg := Default()
	require.NotNil(t, cfg)

	assert.Contains(t, cfg.Paths.Include, "**/*.html")
	assert.Contains(t, cfg.Paths.Include, "**/*.js")
	assert.Contains(t, cfg.Paths.Ignore, "node_modules/**")
	assert.Equal(t, analyzer.DefaultCacheSize, cfg.Analysis.CacheSize)
	assert.Equal(t, "warning", cfg.Analysis.MinSeverity)
	assert.Empty(t, cfg.Output.File)
	assert.False(t, cfg.Output.Pretty)

	assert.NoError(t, Validate(cfg))
}

func TestLoad_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"config.yml", "config.yaml"} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			root := t.TempDir()
			writeConfig(t, root, name, `
paths:
  include:
    - "src/**/*.html"
  ignore:
    - "src/vendor/**"
analysis:
  cache_size: 64
  min_severity: error
output:
  file: out/metadata.json
  pretty: true
`)

			cfg, err := NewLoader(root).Load()
			require.NoError(t, err)
			assert.Equal(t, []string{"src/**/*.html"}, cfg.Paths.Include)
			assert.Equal(t, []string{"src/vendor/**"}, cfg.Paths.Ignore)
			assert.Equal(t, 64, cfg.Analysis.CacheSize)
			assert.Equal(t, "error", cfg.Analysis.MinSeverity)
			assert.Equal(t, "out/metadata.json", cfg.Output.File)
			assert.True(t, cfg.Output.Pretty)
		})
	}
}

func TestLoad_MergesConfigWithDefaults(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, "config.yml", "output:\n  pretty: true\n")

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)

	defaults := Default()
	assert.True(t, cfg.Output.Pretty)
	assert.Equal(t, defaults.Paths, cfg.Paths)
	assert.Equal(t, defaults.Analysis, cfg.Analysis)
}

func TestLoad_EnvironmentVariablesOverrideConfigFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	root := t.TempDir()
	writeConfig(t, root, "config.yml", "analysis:\n  cache_size: 64\n  min_severity: error\n")

	t.Setenv("FEATURESCAN_ANALYSIS_CACHE_SIZE", "8")
	t.Setenv("FEATURESCAN_OUTPUT_PRETTY", "true")

	cfg, err := NewLoader(root).Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Analysis.CacheSize)
	assert.Equal(t, "error", cfg.Analysis.MinSeverity)
	assert.True(t, cfg.Output.Pretty)
}

func TestLoad_EnvironmentVariablesOverrideDefaults(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	t.Setenv("FEATURESCAN_ANALYSIS_MIN_SEVERITY", "info")
	t.Setenv("FEATURESCAN_OUTPUT_FILE", "metadata.json")

	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Analysis.MinSeverity)
	assert.Equal(t, "metadata.json", cfg.Output.File)
}

func TestNewFileLoader(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	path := filepath.Join(root, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("analysis:\n  cache_size: 3\n"), 0644))

	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Analysis.CacheSize)

	_, err = NewFileLoader(filepath.Join(root, "missing.yml")).Load()
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoad_ReturnsErrorForMalformedYaml(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, "config.yml", "paths:\n  include: [unclosed\n")

	_, err := NewLoader(root).Load()
	assert.ErrorContains(t, err, "failed to read config file")
}

func TestLoad_ReturnsErrorForInvalidValues(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeConfig(t, root, "config.yml", "analysis:\n  cache_size: 0\n")

	_, err := NewLoader(root).Load()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidCacheSize)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestValidate_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"no include patterns", func(c *Config) { c.Paths.Include = nil }, ErrNoIncludePatterns},
		{"bad include glob", func(c *Config) { c.Paths.Include = []string{"src/[*.js"} }, ErrInvalidPattern},
		{"bad ignore glob", func(c *Config) { c.Paths.Ignore = []string{"vendor/[a-"} }, ErrInvalidPattern},
		{"zero cache size", func(c *Config) { c.Analysis.CacheSize = 0 }, ErrInvalidCacheSize},
		{"negative cache size", func(c *Config) { c.Analysis.CacheSize = -1 }, ErrInvalidCacheSize},
		{"unknown severity", func(c *Config) { c.Analysis.MinSeverity = "fatal" }, ErrInvalidSeverity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorIs(t, Validate(cfg), tt.want)
		})
	}
}

func TestValidate_ReportsMultipleErrors(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Paths.Include = nil
	cfg.Analysis.CacheSize = 0
	cfg.Analysis.MinSeverity = "loud"

	err := Validate(cfg)
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "validation failed:")
	assert.Contains(t, msg, "no include patterns")
	assert.Contains(t, msg, "cache_size must be positive")
	assert.Contains(t, msg, "min_severity must be")
}

func TestConfig_Severity(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, diag.SeverityWarning, cfg.Severity())

	cfg.Analysis.MinSeverity = "error"
	assert.Equal(t, diag.SeverityError, cfg.Severity())

	cfg.Analysis.MinSeverity = "nonsense"
	assert.Equal(t, diag.SeverityWarning, cfg.Severity())
}
