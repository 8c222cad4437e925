// Package storage defines the persistence interface for contract records.
package storage

import (
	"context"

	"samscope/internal/models"
)

// Storage defines contract persistence operations. Implementations must be
// safe for use from multiple goroutines: the enrichment pipeline searches
// from a background goroutine while the caller's own context issues CRUD.
type Storage interface {
	// UpsertContracts validates and inserts-or-replaces contracts by notice
	// id, dropping invalid records. Returns the number actually persisted.
	UpsertContracts(ctx context.Context, contracts []*models.Contract) (int, error)

	// Search returns up to limit contracts matching the filter, skipping the
	// first offset matches. Results are reconstructed from the stored
	// original-row payload.
	Search(ctx context.Context, filter *models.Filter, limit, offset int) ([]*models.Contract, error)

	// Count returns the total number of contracts matching the filter.
	Count(ctx context.Context, filter *models.Filter) (int, error)

	// BulkUpdate sets the given column/value pairs on every contract whose
	// notice id is in ids. Field names outside the updatable set are rejected.
	BulkUpdate(ctx context.Context, ids []string, fields map[string]string) error

	// BulkDelete removes all contracts whose notice id is in ids. Unknown
	// ids are ignored.
	BulkDelete(ctx context.Context, ids []string) error

	// Agencies returns the distinct awarding agencies, sorted.
	Agencies(ctx context.Context) ([]string, error)

	// SetAsides returns the distinct set-aside categories, sorted.
	SetAsides(ctx context.Context) ([]string, error)

	Close() error
}
