// Package config defines service configuration structures and loading hooks.
//
// Values are layered: defaults from New, then an optional YAML file named by
// LABELEVAL_CONFIG, then LABELEVAL_* environment variables.
package config

import (
	"runtime"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Scope is the default key selection: union or predicted.
	Scope string `koanf:"scope"`

	// Normalize enables Unicode folding of keys and labels by default.
	Normalize bool `koanf:"normalize"`

	// EmptyPolicy scores items with no labels on either side: zero or perfect.
	EmptyPolicy string `koanf:"empty_policy"`

	// MaxUploadBytes caps the request body of POST /evaluations.
	MaxUploadBytes int64 `koanf:"max_upload_bytes"`

	// ReportHistory bounds how many reports are kept in memory.
	ReportHistory int `koanf:"report_history"`

	// WorkerCount bounds concurrent runs during a comparison.
	WorkerCount int `koanf:"worker_count"`

	// CSVDelimiter is the field separator of exported CSV files.
	CSVDelimiter string `koanf:"csv_delimiter"`

	// LabelSeparator joins labels inside one CSV cell.
	LabelSeparator string `koanf:"label_separator"`

	// MetricsEnabled turns Prometheus recording on or off.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace and MetricsSubsystem prefix every metric name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`

	// MetricsLabels are constant labels added to every series. File only.
	MetricsLabels map[string]string `koanf:"metrics_labels"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "text",
		Addr:           ":9080",
		Scope:          "union",
		Normalize:      true,
		EmptyPolicy:    "zero",
		MaxUploadBytes: 32 << 20,
		ReportHistory:  100,
		WorkerCount:    runtime.NumCPU(),
		CSVDelimiter:   ",",
		LabelSeparator: "; ",

		MetricsEnabled:   true,
		MetricsNamespace: "labeleval",
		MetricsSubsystem: "evaluator",
	}
}
