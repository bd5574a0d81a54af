package config

import (
	"github.com/mvp-joe/featurescan/internal/analyzer"
	"github.com/mvp-joe/featurescan/internal/diag"
)

// Config represents the complete featurescan configuration.
// It can be loaded from .featurescan/config.yml with environment variable overrides.
type Config struct {
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Analysis AnalysisConfig `yaml:"analysis" mapstructure:"analysis"`
	Output   OutputConfig   `yaml:"output" mapstructure:"output"`
}

// PathsConfig defines which files to analyze and which to ignore.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for analyzed files
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to skip
}

// AnalysisConfig tunes the analyzer.
type AnalysisConfig struct {
	CacheSize   int    `yaml:"cache_size" mapstructure:"cache_size"`     // scanned documents kept between runs
	MinSeverity string `yaml:"min_severity" mapstructure:"min_severity"` // info, warning or error
}

// OutputConfig controls where generated metadata goes.
type OutputConfig struct {
	File   string `yaml:"file" mapstructure:"file"` // empty writes to stdout
	Pretty bool   `yaml:"pretty" mapstructure:"pretty"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include: []string{
				"**/*.html",
				"**/*.js",
				"**/*.mjs",
				"**/*.ts",
			},
			Ignore: []string{
				"node_modules/**",
				"bower_components/**",
				".git/**",
				"dist/**",
				"build/**",
				"**/*.min.js",
			},
		},
		Analysis: AnalysisConfig{
			CacheSize:   analyzer.DefaultCacheSize,
			MinSeverity: "warning",
		},
		Output: OutputConfig{
			File:   "",
			Pretty: false,
		},
	}
}

// Severity returns the minimum severity of reported warnings. Unknown values
// fall back to warnings; Validate rejects them before this is reached.
func (c *Config) Severity() diag.Severity {
	if s, ok := diag.ParseSeverity(c.Analysis.MinSeverity); ok {
		return s
	}
	return diag.SeverityWarning
}
