package driven

import (
	"context"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

// EvalStore reads labelled questions and persists evaluation reports.
type EvalStore interface {
	// ReadCases returns every case at path in file order.
	ReadCases(ctx context.Context, path string) ([]domain.EvalCase, error)

	// WriteReport replaces path with one row per result.
	WriteReport(ctx context.Context, path string, report *domain.EvalReport) error

	// WriteAblation replaces path with one summary row per cell.
	WriteAblation(ctx context.Context, path string, report *domain.AblationReport) error
}
