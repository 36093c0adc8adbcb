package driving

import (
	"context"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

// QueryService serves lookups against the resident index and rebuilds it.
type QueryService interface {
	// Query embeds question and returns the nearest chunks with their metadata.
	Query(ctx context.Context, question string, opts domain.QueryOptions) (*domain.QueryResult, error)

	// Reindex rebuilds the index from the records at sourcePath and swaps it in.
	// An empty sourcePath uses the configured default.
	Reindex(ctx context.Context, sourcePath string) (*domain.ReindexRun, error)

	// Health reports file presence, residency and the configured provider.
	Health(ctx context.Context) (*domain.HealthStatus, error)

	// Runs lists recent reindex runs, newest first.
	Runs(ctx context.Context, limit int) ([]domain.ReindexRun, error)
}
