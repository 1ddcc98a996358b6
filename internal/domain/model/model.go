// Package model contains domain models passed between layers.
package model

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// LabelMapping maps an item key (usually a file name) to the labels assigned to it.
// Label order and duplicates carry no meaning; scoring treats each value as a set.
type LabelMapping map[string][]string

// Keys returns the mapping keys in ascending order.
func (m LabelMapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Scope selects which item keys take part in an evaluation.
type Scope int

const (
	// ScopeUnion evaluates every key present in either mapping.
	ScopeUnion Scope = iota
	// ScopePredicted evaluates only keys present in the predicted mapping.
	ScopePredicted
)

func (s Scope) String() string {
	switch s {
	case ScopePredicted:
		return "predicted"
	default:
		return "union"
	}
}

// ParseScope accepts "union" or "predicted" (case-insensitive). An empty
// string selects ScopeUnion.
func ParseScope(v string) (Scope, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "union":
		return ScopeUnion, nil
	case "predicted", "predicted-only", "predicted_only":
		return ScopePredicted, nil
	default:
		return ScopeUnion, fmt.Errorf("unknown scope %q: want union or predicted", v)
	}
}

// EmptyPolicy decides the score of an item with no labels on either side.
type EmptyPolicy int

const (
	// EmptyAsZero scores an empty/empty item as precision 0, recall 0.
	EmptyAsZero EmptyPolicy = iota
	// EmptyAsPerfect scores an empty/empty item as precision 1, recall 1.
	EmptyAsPerfect
)

func (p EmptyPolicy) String() string {
	switch p {
	case EmptyAsPerfect:
		return "perfect"
	default:
		return "zero"
	}
}

// ParseEmptyPolicy accepts "zero" or "perfect" (case-insensitive). An empty
// string selects EmptyAsZero.
func ParseEmptyPolicy(v string) (EmptyPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "zero":
		return EmptyAsZero, nil
	case "perfect", "one":
		return EmptyAsPerfect, nil
	default:
		return EmptyAsZero, fmt.Errorf("unknown empty policy %q: want zero or perfect", v)
	}
}

// ItemResult is the score of one evaluated item key.
type ItemResult struct {
	Key         string   `json:"filename"`
	Actual      []string `json:"actual_labels"`
	Predicted   []string `json:"predicted_labels"`
	TotalLabels int      `json:"total_labels"`
	Matched     int      `json:"found_correct"`
	Spurious    int      `json:"found_incorrect"`
	Missing     int      `json:"not_found"`
	Precision   float64  `json:"precision"`
	Recall      float64  `json:"recall"`
}

// Summary is the outcome of one evaluation.
type Summary struct {
	// Items holds one result per evaluated key, sorted by key.
	Items []ItemResult
	// Excluded lists keys present in the ground truth but absent from the
	// predictions. Only populated under ScopePredicted.
	Excluded []string
	// MergedKeys lists normalized keys that absorbed more than one raw key.
	MergedKeys []string

	Scope       Scope
	Normalized  bool
	EmptyPolicy EmptyPolicy

	// Macro averages over Items. Meaningless when HasAggregates is false.
	GlobalPrecision float64
	GlobalRecall    float64

	// Micro averages computed from summed counts.
	PooledPrecision float64
	PooledRecall    float64
}

// HasAggregates reports whether at least one item was evaluated.
func (s Summary) HasAggregates() bool { return len(s.Items) > 0 }

// Global returns the macro-averaged precision and recall, with ok=false when
// no item was evaluated.
func (s Summary) Global() (precision, recall float64, ok bool) {
	if !s.HasAggregates() {
		return 0, 0, false
	}
	return s.GlobalPrecision, s.GlobalRecall, true
}

// Document is a raw, not yet validated label mapping upload.
type Document struct {
	Name string
	Data []byte
}

// Overrides carry per-request evaluation options. Nil fields fall back to
// the service defaults.
type Overrides struct {
	Scope       *Scope
	Normalize   *bool
	EmptyPolicy *EmptyPolicy
}

// Request asks for one evaluation of Predicted against Actual.
type Request struct {
	Actual    Document
	Predicted Document
	Options   Overrides
}

// Report is a stored evaluation outcome.
type Report struct {
	ID              string
	CreatedAt       time.Time
	ActualSource    string
	PredictedSource string
	Summary         Summary
	// Warning is set for advisory conditions such as an empty evaluation.
	Warning string
}

// CompareRequest asks for several prediction runs to be scored against one
// ground truth with the same options.
type CompareRequest struct {
	Actual  Document
	Runs    []Document
	Options Overrides
}
