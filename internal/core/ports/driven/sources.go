package driven

import (
	"context"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

// SourceLoader resolves a source manifest into decoded document texts.
type SourceLoader interface {
	// LoadSources returns one SourceText per matched file, in manifest order.
	LoadSources(ctx context.Context, manifestPath string) ([]domain.SourceText, error)
}
