package config

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/labeleval/internal/domain/model"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "LABELEVAL_"

// EnvConfigFile names the variable holding an optional YAML config path.
const EnvConfigFile = EnvPrefix + "CONFIG"

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if LABELEVAL_CONFIG is set
//  3. env (prefix LABELEVAL_)
func Load(ctx context.Context) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w: %s: %w", ErrLoadConfig, ErrConfigFile, path, err)
		}
	}

	// LABELEVAL_MAX_UPLOAD_BYTES -> max_upload_bytes (flat keys).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if _, err := model.ParseScope(c.Scope); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := model.ParseEmptyPolicy(c.EmptyPolicy); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q: want text or json", ErrInvalidConfig, c.LogFormat)
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("%w: max_upload_bytes must be positive", ErrInvalidConfig)
	}
	if c.ReportHistory <= 0 {
		return fmt.Errorf("%w: report_history must be positive", ErrInvalidConfig)
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	}
	if utf8.RuneCountInString(c.CSVDelimiter) != 1 {
		return fmt.Errorf("%w: csv_delimiter must be a single character", ErrInvalidConfig)
	}
	if c.LabelSeparator == "" {
		return fmt.Errorf("%w: label_separator must not be empty", ErrInvalidConfig)
	}
	if c.MetricsNamespace != "" && !metricNamePattern.MatchString(c.MetricsNamespace) {
		return fmt.Errorf("%w: metrics_namespace %q: %w", ErrInvalidConfig, c.MetricsNamespace, ErrMetricName)
	}
	if c.MetricsSubsystem != "" && !metricNamePattern.MatchString(c.MetricsSubsystem) {
		return fmt.Errorf("%w: metrics_subsystem %q: %w", ErrInvalidConfig, c.MetricsSubsystem, ErrMetricName)
	}
	for name := range c.MetricsLabels {
		if !metricNamePattern.MatchString(name) || strings.HasPrefix(name, "__") {
			return fmt.Errorf("%w: metrics_labels key %q: %w", ErrInvalidConfig, name, ErrMetricName)
		}
	}
	return nil
}

// metricNamePattern accepts Prometheus name segments and label names.
var metricNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Delimiter returns the CSV delimiter as a rune.
func (c *Config) Delimiter() rune {
	r, _ := utf8.DecodeRuneInString(c.CSVDelimiter)
	return r
}
