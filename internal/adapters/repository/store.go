// Package repository keeps recent evaluation reports in memory so they can be
// fetched again (for example to download the CSV export).
package repository

import (
	"context"

	"github.com/okian/labeleval/internal/domain/model"
)

// Store provides read/write access to recent reports.
type Store interface {
	// Put stores r, evicting the oldest report when the store is full.
	Put(ctx context.Context, r model.Report) error

	// Get returns the report with the given id.
	// Returns ErrNotFound if the id is unknown or was evicted.
	Get(ctx context.Context, id string) (model.Report, error)

	// Recent returns up to n reports, newest first.
	Recent(ctx context.Context, n int) ([]model.Report, error)

	// Count returns the number of reports currently held.
	Count(ctx context.Context) int
}
