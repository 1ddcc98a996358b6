package service

import "errors"

var (
	// ErrEmptyEvaluation is advisory: no item was evaluated, so the global
	// metrics are undefined. It is reported as Report.Warning, never returned.
	ErrEmptyEvaluation = errors.New("no items to evaluate: global precision and recall are undefined")

	// ErrNotStarted is returned when the service is used before Start.
	ErrNotStarted = errors.New("service not started")

	// ErrReportNotFound is returned for unknown or evicted report ids.
	ErrReportNotFound = errors.New("report not found")

	// ErrNoRuns is returned by Compare when no predicted run was supplied.
	ErrNoRuns = errors.New("no prediction runs to compare")
)
