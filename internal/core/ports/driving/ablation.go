package driving

import (
	"context"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

// AblationRequest names the inputs and outputs of a sweep.
type AblationRequest struct {
	ManifestPath string
	TestPath     string

	// OutputPath receives the summary CSV.
	OutputPath string

	// WorkDir holds the records, indexes and per-cell reports of every combination.
	WorkDir string
}

type AblationService interface {
	// Run ingests, indexes and evaluates every combination in grid. A failed
	// combination is recorded in its cell and the sweep continues.
	Run(ctx context.Context, grid domain.AblationGrid, req AblationRequest) (*domain.AblationReport, error)
}
