package service

import (
	"github.com/okian/labeleval/internal/domain/model"
	"github.com/okian/labeleval/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithScope sets the default key selection.
func WithScope(scope model.Scope) Option {
	return func(s *Service) {
		s.scope = scope
	}
}

// WithNormalization sets whether keys and labels are folded by default.
func WithNormalization(enabled bool) Option {
	return func(s *Service) {
		s.normalize = enabled
	}
}

// WithEmptyPolicy sets the default score of items with no labels at all.
func WithEmptyPolicy(policy model.EmptyPolicy) Option {
	return func(s *Service) {
		s.emptyPolicy = policy
	}
}

// WithReportHistory sets how many reports are kept for later retrieval.
func WithReportHistory(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.reportHistory = n
		}
	}
}

// WithWorkerCount bounds how many runs Compare scores concurrently.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithCSVFormat sets the delimiter and in-cell label separator of CSV exports.
func WithCSVFormat(delimiter rune, labelSeparator string) Option {
	return func(s *Service) {
		s.csvDelimiter = delimiter
		s.labelSeparator = labelSeparator
	}
}
