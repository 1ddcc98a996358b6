// Package types contains the wire shapes shared by the HTTP API and its clients.
package types

import (
	"encoding/json"
	"time"

	"github.com/okian/labeleval/internal/domain/model"
)

// Report status values.
const (
	StatusOK     = "ok"
	StatusNoData = "no_data"
)

// EvaluateRequest is the JSON body of POST /evaluations.
type EvaluateRequest struct {
	Actual      json.RawMessage `json:"actual"`
	Predicted   json.RawMessage `json:"predicted"`
	Scope       string          `json:"scope,omitempty"`
	Normalize   *bool           `json:"normalize,omitempty"`
	EmptyPolicy string          `json:"empty_policy,omitempty"`
}

// Report is the JSON rendering of a stored evaluation. Global and pooled
// ratios are null when Status is StatusNoData.
type Report struct {
	ID              string             `json:"id"`
	CreatedAt       time.Time          `json:"created_at"`
	Status          string             `json:"status"`
	ActualSource    string             `json:"actual_source"`
	PredictedSource string             `json:"predicted_source"`
	Scope           string             `json:"scope"`
	Normalized      bool               `json:"normalized"`
	EmptyPolicy     string             `json:"empty_policy"`
	GlobalPrecision *float64           `json:"global_precision"`
	GlobalRecall    *float64           `json:"global_recall"`
	PooledPrecision *float64           `json:"pooled_precision"`
	PooledRecall    *float64           `json:"pooled_recall"`
	Items           []model.ItemResult `json:"items"`
	Excluded        []string           `json:"excluded"`
	MergedKeys      []string           `json:"merged_keys,omitempty"`
	Warning         string             `json:"warning,omitempty"`
	CSVURL          string             `json:"csv_url,omitempty"`
}

// ReportSummary is one entry of GET /evaluations: a report without its
// per-item rows.
type ReportSummary struct {
	ID              string    `json:"id"`
	CreatedAt       time.Time `json:"created_at"`
	Status          string    `json:"status"`
	ActualSource    string    `json:"actual_source"`
	PredictedSource string    `json:"predicted_source"`
	Scope           string    `json:"scope"`
	Items           int       `json:"items"`
	Excluded        int       `json:"excluded"`
	GlobalPrecision *float64  `json:"global_precision"`
	GlobalRecall    *float64  `json:"global_recall"`
	URL             string    `json:"url"`
}

// ReportList is the body of GET /evaluations, newest report first.
type ReportList struct {
	Reports []ReportSummary `json:"reports"`
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Source, Key and Index locate an input parse error.
	Source string `json:"source,omitempty"`
	Key    string `json:"key,omitempty"`
	Index  *int   `json:"index,omitempty"`
}

// FromReport converts a domain report to its wire shape.
func FromReport(r model.Report, csvURL string) Report {
	s := r.Summary
	out := Report{
		ID:              r.ID,
		CreatedAt:       r.CreatedAt,
		Status:          StatusNoData,
		ActualSource:    r.ActualSource,
		PredictedSource: r.PredictedSource,
		Scope:           s.Scope.String(),
		Normalized:      s.Normalized,
		EmptyPolicy:     s.EmptyPolicy.String(),
		Items:           s.Items,
		Excluded:        s.Excluded,
		MergedKeys:      s.MergedKeys,
		Warning:         r.Warning,
		CSVURL:          csvURL,
	}
	if out.Items == nil {
		out.Items = []model.ItemResult{}
	}
	if out.Excluded == nil {
		out.Excluded = []string{}
	}
	if s.HasAggregates() {
		out.Status = StatusOK
		out.GlobalPrecision = ptr(s.GlobalPrecision)
		out.GlobalRecall = ptr(s.GlobalRecall)
		out.PooledPrecision = ptr(s.PooledPrecision)
		out.PooledRecall = ptr(s.PooledRecall)
	}
	return out
}

// SummaryFromReport converts a domain report to a history entry linked at url.
func SummaryFromReport(r model.Report, url string) ReportSummary {
	s := r.Summary
	out := ReportSummary{
		ID:              r.ID,
		CreatedAt:       r.CreatedAt,
		Status:          StatusNoData,
		ActualSource:    r.ActualSource,
		PredictedSource: r.PredictedSource,
		Scope:           s.Scope.String(),
		Items:           len(s.Items),
		Excluded:        len(s.Excluded),
		URL:             url,
	}
	if p, rc, ok := s.Global(); ok {
		out.Status = StatusOK
		out.GlobalPrecision = ptr(p)
		out.GlobalRecall = ptr(rc)
	}
	return out
}

// ToModel converts a wire report back to the domain shape. Unknown scope or
// policy names fall back to the defaults.
func (r Report) ToModel() model.Report {
	scope, _ := model.ParseScope(r.Scope)
	policy, _ := model.ParseEmptyPolicy(r.EmptyPolicy)
	return model.Report{
		ID:              r.ID,
		CreatedAt:       r.CreatedAt,
		ActualSource:    r.ActualSource,
		PredictedSource: r.PredictedSource,
		Warning:         r.Warning,
		Summary: model.Summary{
			Items:           r.Items,
			Excluded:        r.Excluded,
			MergedKeys:      r.MergedKeys,
			Scope:           scope,
			Normalized:      r.Normalized,
			EmptyPolicy:     policy,
			GlobalPrecision: deref(r.GlobalPrecision),
			GlobalRecall:    deref(r.GlobalRecall),
			PooledPrecision: deref(r.PooledPrecision),
			PooledRecall:    deref(r.PooledRecall),
		},
	}
}

func ptr(v float64) *float64 { return &v }

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
