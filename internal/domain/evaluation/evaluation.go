package evaluation

import (
	"sort"

	"github.com/okian/labeleval/internal/domain/model"
	"github.com/okian/labeleval/internal/domain/textnorm"
)

// Counts holds the confusion counts of one item.
type Counts struct {
	Matched  int // labels in both sets
	Spurious int // predicted labels absent from the ground truth
	Missing  int // ground-truth labels that were not predicted
}

// Ratios returns precision and recall for c. A zero denominator yields 0,
// except that an item with no labels at all scores 1/1 under EmptyAsPerfect.
func (c Counts) Ratios(policy model.EmptyPolicy) (precision, recall float64) {
	if c.Matched == 0 && c.Spurious == 0 && c.Missing == 0 {
		if policy == model.EmptyAsPerfect {
			return 1, 1
		}
		return 0, 0
	}
	if d := c.Matched + c.Spurious; d > 0 {
		precision = float64(c.Matched) / float64(d)
	}
	if d := c.Matched + c.Missing; d > 0 {
		recall = float64(c.Matched) / float64(d)
	}
	return precision, recall
}

// Compare scores predicted against actual using set semantics; order and
// duplicates in either slice are ignored. No normalization is applied.
func Compare(actual, predicted []string) Counts {
	return compareSets(toSet(actual, nil), toSet(predicted, nil))
}

// F1 is the harmonic mean of precision and recall, 0 when both are 0.
func F1(precision, recall float64) float64 {
	if precision+recall == 0 {
		return 0
	}
	return 2 * precision * recall / (precision + recall)
}

type labelSet map[string]struct{}

// Engine evaluates predicted label mappings against ground truth. An Engine
// is immutable after New and safe for concurrent use.
type Engine struct {
	scope       model.Scope
	normalize   bool
	emptyPolicy model.EmptyPolicy
}

// New creates an Engine. Defaults: union scope, normalization on, empty
// items scored 0/0.
func New(opts ...Option) *Engine {
	e := &Engine{
		scope:       model.ScopeUnion,
		normalize:   true,
		emptyPolicy: model.EmptyAsZero,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Scope returns the key selection this engine applies.
func (e *Engine) Scope() model.Scope { return e.scope }

// Evaluate scores predicted against actual. Neither mapping is modified.
func (e *Engine) Evaluate(actual, predicted model.LabelMapping) model.Summary {
	merged := make(map[string]struct{})
	truth := e.prepare(actual, merged)
	pred := e.prepare(predicted, merged)

	s := model.Summary{
		Scope:       e.scope,
		Normalized:  e.normalize,
		EmptyPolicy: e.emptyPolicy,
		MergedKeys:  sortedKeys(merged),
	}

	keys := make(map[string]struct{}, len(pred)+len(truth))
	for k := range pred {
		keys[k] = struct{}{}
	}
	for k := range truth {
		if _, ok := pred[k]; ok {
			continue
		}
		if e.scope == model.ScopePredicted {
			s.Excluded = append(s.Excluded, k)
			continue
		}
		keys[k] = struct{}{}
	}
	sort.Strings(s.Excluded)

	var pooled Counts
	s.Items = make([]model.ItemResult, 0, len(keys))
	for _, k := range sortedKeys(keys) {
		a, p := truth[k], pred[k]
		c := compareSets(a, p)
		precision, recall := c.Ratios(e.emptyPolicy)

		s.Items = append(s.Items, model.ItemResult{
			Key:         k,
			Actual:      sortedKeys(a),
			Predicted:   sortedKeys(p),
			TotalLabels: len(a),
			Matched:     c.Matched,
			Spurious:    c.Spurious,
			Missing:     c.Missing,
			Precision:   precision,
			Recall:      recall,
		})
		s.GlobalPrecision += precision
		s.GlobalRecall += recall
		pooled.Matched += c.Matched
		pooled.Spurious += c.Spurious
		pooled.Missing += c.Missing
	}

	if n := len(s.Items); n > 0 {
		s.GlobalPrecision /= float64(n)
		s.GlobalRecall /= float64(n)
		s.PooledPrecision, s.PooledRecall = pooled.Ratios(e.emptyPolicy)
	}
	return s
}

// prepare turns a mapping into key -> label set, folding text when enabled.
// Keys that collide after folding are unioned and recorded in merged.
func (e *Engine) prepare(m model.LabelMapping, merged map[string]struct{}) map[string]labelSet {
	out := make(map[string]labelSet, len(m))
	var fold func(string) string
	if e.normalize {
		fold = textnorm.Normalize
	}
	for rawKey, labels := range m {
		key := rawKey
		if fold != nil {
			key = fold(rawKey)
		}
		if existing, ok := out[key]; ok {
			merged[key] = struct{}{}
			for l := range toSet(labels, fold) {
				existing[l] = struct{}{}
			}
			continue
		}
		out[key] = toSet(labels, fold)
	}
	return out
}

func compareSets(actual, predicted labelSet) Counts {
	var c Counts
	for l := range predicted {
		if _, ok := actual[l]; ok {
			c.Matched++
		} else {
			c.Spurious++
		}
	}
	c.Missing = len(actual) - c.Matched
	return c
}

func toSet(labels []string, fold func(string) string) labelSet {
	set := make(labelSet, len(labels))
	for _, l := range labels {
		if fold != nil {
			l = fold(l)
		}
		set[l] = struct{}{}
	}
	return set
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
