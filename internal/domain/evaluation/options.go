// Package evaluation computes per-item and global precision/recall for
// multi-label classification results.
package evaluation

import "github.com/okian/labeleval/internal/domain/model"

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithScope selects which item keys are evaluated.
func WithScope(scope model.Scope) Option {
	return func(e *Engine) {
		e.scope = scope
	}
}

// WithNormalization toggles case/accent folding of keys and labels.
func WithNormalization(enabled bool) Option {
	return func(e *Engine) {
		e.normalize = enabled
	}
}

// WithEmptyPolicy sets how an item with no labels on either side is scored.
func WithEmptyPolicy(policy model.EmptyPolicy) Option {
	return func(e *Engine) {
		e.emptyPolicy = policy
	}
}
