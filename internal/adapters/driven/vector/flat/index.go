// Package flat provides an exact, in-memory cosine similarity index.
//
// Vectors are L2-normalised at build time and kept in one row-major slice,
// so a search is a single dot-product pass over every row. Rows keep the
// order in which they were built; that order is what ties the index to its
// metadata file.
package flat

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"slices"

	"github.com/viant/vec/search"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var (
	_ driven.VectorIndex  = (*Index)(nil)
	_ driven.IndexBuilder = Builder{}
)

// epsilon keeps zero vectors at zero instead of dividing by zero.
const epsilon = 1e-10

// headerSize is the encoded dim and row count.
const headerSize = 8

// checkEvery is how many rows are scored between context checks.
const checkEvery = 4096

// Index is an immutable brute-force cosine index.
type Index struct {
	dim  int
	rows int
	data []float32
}

// Builder builds flat indexes.
type Builder struct{}

// Build implements driven.IndexBuilder.
func (Builder) Build(vectors [][]float32) (driven.VectorIndex, error) {
	return Build(vectors)
}

// Build normalises vectors and returns an index over them.
// All vectors must share one dimension. An empty input yields an empty index.
func Build(vectors [][]float32) (*Index, error) {
	if len(vectors) == 0 {
		return &Index{}, nil
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("%w: vectors have zero dimension", domain.ErrInvalidInput)
	}

	data := make([]float32, 0, len(vectors)*dim)
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has %d values, expected %d",
				domain.ErrDimensionMismatch, i, len(v), dim)
		}
		data = append(data, normalize(v)...)
	}

	return &Index{dim: dim, rows: len(vectors), data: data}, nil
}

// normalize returns v scaled to unit length.
func normalize(v []float32) []float32 {
	norm := float64(search.Float32s(v).Magnitude()) + epsilon
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}

// Len returns the number of rows.
func (ix *Index) Len() int {
	return ix.rows
}

// Dimension returns the vector size, zero for an empty index.
func (ix *Index) Dimension() int {
	return ix.dim
}

// Row returns a copy of the stored unit vector at row i.
func (ix *Index) Row(i int) ([]float32, bool) {
	if i < 0 || i >= ix.rows {
		return nil, false
	}
	return slices.Clone(ix.data[i*ix.dim : (i+1)*ix.dim]), true
}

// Search returns up to k rows ordered by descending cosine similarity.
// Equal scores keep row order. Scores are not clamped.
func (ix *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 || ix.rows == 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d values, index has %d",
			domain.ErrDimensionMismatch, len(query), ix.dim)
	}

	q := normalize(query)
	hits := make([]driven.VectorHit, ix.rows)
	for row := 0; row < ix.rows; row++ {
		if row%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		hits[row] = driven.VectorHit{Row: row, Score: dot(q, ix.data[row*ix.dim:(row+1)*ix.dim])}
	}

	slices.SortStableFunc(hits, func(a, b driven.VectorHit) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// MarshalBinary encodes the index as little-endian
// dim uint32, rows uint32, then rows*dim float32 values.
func (ix *Index) MarshalBinary() ([]byte, error) {
	buf := make([]byte, headerSize+4*len(ix.data))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(ix.dim))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(ix.rows))
	for i, f := range ix.data {
		binary.LittleEndian.PutUint32(buf[headerSize+4*i:], math.Float32bits(f))
	}
	return buf, nil
}

// UnmarshalBinary decodes data produced by MarshalBinary.
// Stored vectors are used as is; they were normalised when built.
func (ix *Index) UnmarshalBinary(data []byte) error {
	if len(data) < headerSize {
		return fmt.Errorf("%w: index file truncated (%d bytes)", domain.ErrInconsistentIndex, len(data))
	}
	dim := int(binary.LittleEndian.Uint32(data[0:4]))
	rows := int(binary.LittleEndian.Uint32(data[4:8]))

	want := headerSize + 4*dim*rows
	if len(data) != want {
		return fmt.Errorf("%w: index header says %d rows of %d values (%d bytes), file has %d bytes",
			domain.ErrInconsistentIndex, rows, dim, want, len(data))
	}
	if rows > 0 && dim == 0 {
		return fmt.Errorf("%w: index has %d rows of zero dimension", domain.ErrInconsistentIndex, rows)
	}

	values := make([]float32, dim*rows)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[headerSize+4*i:]))
	}

	ix.dim, ix.rows, ix.data = dim, rows, values
	if rows == 0 {
		ix.dim = 0
	}
	return nil
}

// Decode returns the index encoded in data.
func Decode(data []byte) (*Index, error) {
	ix := &Index{}
	if err := ix.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return ix, nil
}
