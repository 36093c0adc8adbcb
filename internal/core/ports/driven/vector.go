package driven

import (
	"context"
	"encoding"
)

// VectorIndex is an immutable, exact similarity index over unit vectors.
type VectorIndex interface {
	// Search returns the k rows most similar to query in descending score order.
	// Equal scores keep insertion order. k larger than Len returns every row;
	// an empty index returns no hits and no error.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Len returns the number of stored rows.
	Len() int

	// Dimension returns the fixed vector size, zero for an empty index.
	Dimension() int

	// MarshalBinary serialises the vectors (and only the vectors).
	encoding.BinaryMarshaler
}

// IndexBuilder constructs a VectorIndex from raw embeddings.
type IndexBuilder interface {
	// Build normalises every vector and fixes the dimension to the first one.
	// A vector of any other dimension fails the whole build.
	Build(vectors [][]float32) (VectorIndex, error)
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Row is the zero-based insertion position of the matched vector.
	Row int

	// Score is the cosine similarity in [-1, 1].
	Score float64
}
