package config

import "errors"

var (
	// ErrInvalidConfig wraps every Validate failure.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig wraps failures reading the file or the environment.
	ErrLoadConfig = errors.New("load config failed")
	// ErrConfigFile marks a LABELEVAL_CONFIG file that could not be read or parsed.
	ErrConfigFile = errors.New("config file unreadable")
	// ErrMetricName marks a metric name segment or label name that Prometheus
	// would reject.
	ErrMetricName = errors.New("not a valid metric name")
)
