package driven

import (
	"context"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

// RunStore records reindex history.
type RunStore interface {
	// Save inserts or updates a run by ID.
	Save(ctx context.Context, run domain.ReindexRun) error

	// Get returns a run by ID, or domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.ReindexRun, error)

	// List returns up to limit runs, newest first. Limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]domain.ReindexRun, error)

	// Close releases resources.
	Close() error
}
