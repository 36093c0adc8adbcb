package driving

import (
	"context"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

// EvalService measures retrieval quality against labelled questions.
type EvalService interface {
	// Evaluate queries every case in testPath with topK and writes the
	// per-case report to outputPath when it is not empty.
	Evaluate(ctx context.Context, testPath, outputPath string, topK int) (*domain.EvalReport, error)
}
