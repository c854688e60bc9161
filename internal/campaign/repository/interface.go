package repository

import (
	"context"

	"dialer_backend/internal/campaign/domain"
)

// LeadStore is the row-oriented datastore boundary. Implementations carry
// no policy: selection, retries per attempt, and reconciliation rules all
// live in the services.
type LeadStore interface {
	// FetchLeads returns all lead rows in sheet order, header excluded,
	// each carrying its original 1-based sheet row index. An empty store
	// returns an empty slice, not an error.
	FetchLeads(ctx context.Context) ([]domain.Lead, error)

	// FetchRows returns the raw snapshot including the header row.
	FetchRows(ctx context.Context) ([][]string, error)

	// FetchActiveNumbers returns the ids of numbers flagged active. An
	// unreadable range is ErrUpstreamUnavailable; a readable range with no
	// active entries is an empty slice and nil error.
	FetchActiveNumbers(ctx context.Context) ([]string, error)

	// ApplyUpdates writes all cells in one batched call. Callers treat the
	// batch as atomic; any failure is ErrUpstreamWriteFailed.
	ApplyUpdates(ctx context.Context, updates []domain.CellUpdate) error
}
