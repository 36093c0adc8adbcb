package driven

import (
	"context"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

// IndexStore persists an index and its co-indexed metadata as a matched pair.
type IndexStore interface {
	// Save writes both files. Position i of metas describes row i of index.
	Save(ctx context.Context, index VectorIndex, metas []domain.ChunkRecord) error

	// Load reads both files. It does not reconcile their lengths;
	// that check belongs to the caller deciding whether to serve them.
	Load(ctx context.Context) (VectorIndex, []domain.ChunkRecord, error)

	// Exists reports which of the two files are present.
	Exists() (indexPresent, metaPresent bool)
}
