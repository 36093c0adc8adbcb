package flat

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

func mustBuild(t *testing.T, vectors [][]float32) *Index {
	t.Helper()
	ix, err := Build(vectors)
	require.NoError(t, err)
	return ix
}

func TestBuild_Empty(t *testing.T) {
	ix := mustBuild(t, nil)

	assert.Equal(t, 0, ix.Len())
	assert.Equal(t, 0, ix.Dimension())

	hits, err := ix.Search(context.Background(), []float32{1, 2}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestBuild_DimensionMismatch(t *testing.T) {
	_, err := Build([][]float32{{1, 0}, {1, 0, 0}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = Build([][]float32{{}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBuild_NormalisesRows(t *testing.T) {
	ix := mustBuild(t, [][]float32{{3, 4}, {0, 0}})

	row, ok := ix.Row(0)
	require.True(t, ok)
	assert.InDelta(t, 0.6, row[0], 1e-6)
	assert.InDelta(t, 0.8, row[1], 1e-6)

	zero, ok := ix.Row(1)
	require.True(t, ok)
	assert.Equal(t, []float32{0, 0}, zero)

	_, ok = ix.Row(2)
	assert.False(t, ok)
}

func TestSearch_SelfMatch(t *testing.T) {
	vectors := [][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.5, 0.5, 0.7},
	}
	ix := mustBuild(t, vectors)

	for i, v := range vectors {
		hits, err := ix.Search(context.Background(), v, 1)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, i, hits[0].Row)
		assert.InDelta(t, 1.0, hits[0].Score, 1e-5)
	}
}

func TestSearch_ScaleInvariant(t *testing.T) {
	ix := mustBuild(t, [][]float32{{1, 2, 3}, {-1, 0, 2}})

	a, err := ix.Search(context.Background(), []float32{1, 1, 1}, 2)
	require.NoError(t, err)
	b, err := ix.Search(context.Background(), []float32{100, 100, 100}, 2)
	require.NoError(t, err)

	require.Len(t, b, 2)
	for i := range a {
		assert.Equal(t, a[i].Row, b[i].Row)
		assert.InDelta(t, a[i].Score, b[i].Score, 1e-6)
	}
}

func TestSearch_OrderingAndBounds(t *testing.T) {
	ix := mustBuild(t, [][]float32{{0, 1}, {1, 0}, {1, 1}})

	hits, err := ix.Search(context.Background(), []float32{1, 0}, 10)
	require.NoError(t, err)

	require.Len(t, hits, 3)
	assert.Equal(t, []int{1, 2, 0}, []int{hits[0].Row, hits[1].Row, hits[2].Row})
	assert.InDelta(t, 1.0, hits[0].Score, 1e-6)
	assert.InDelta(t, 1/math.Sqrt2, hits[1].Score, 1e-6)
	assert.InDelta(t, 0.0, hits[2].Score, 1e-6)
}

func TestSearch_NegativeScoresUnclamped(t *testing.T) {
	ix := mustBuild(t, [][]float32{{-1, 0}})

	hits, err := ix.Search(context.Background(), []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, -1.0, hits[0].Score, 1e-6)
}

func TestSearch_TiesKeepRowOrder(t *testing.T) {
	ix := mustBuild(t, [][]float32{{1, 0}, {2, 0}, {0, 1}, {3, 0}})

	hits, err := ix.Search(context.Background(), []float32{1, 0}, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 3}, []int{hits[0].Row, hits[1].Row, hits[2].Row})

	// a zero query scores every row 0
	hits, err = ix.Search(context.Background(), []float32{0, 0}, 4)
	require.NoError(t, err)
	for i, h := range hits {
		assert.Equal(t, i, h.Row)
		assert.Zero(t, h.Score)
	}
}

func TestSearch_InvalidArguments(t *testing.T) {
	ix := mustBuild(t, [][]float32{{1, 0}})

	hits, err := ix.Search(context.Background(), []float32{1, 0}, 0)
	require.NoError(t, err)
	assert.Empty(t, hits)

	_, err = ix.Search(context.Background(), []float32{1, 0, 0}, 1)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestSearch_CancelledContext(t *testing.T) {
	ix := mustBuild(t, [][]float32{{1, 0}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ix.Search(ctx, []float32{1, 0}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMarshalBinary_Layout(t *testing.T) {
	ix := mustBuild(t, [][]float32{{2, 0}, {0, 1}})

	data, err := ix.MarshalBinary()
	require.NoError(t, err)

	require.Len(t, data, 8+2*2*4)
	assert.Equal(t, []byte{2, 0, 0, 0, 2, 0, 0, 0}, data[:8])
}

func TestDecode_RoundTrip(t *testing.T) {
	ix := mustBuild(t, [][]float32{{0.1, 0.2, 0.3}, {-0.3, 0.2, 0.1}, {1, 1, 1}})
	query := []float32{0.3, 0.1, 0.2}

	data, err := ix.MarshalBinary()
	require.NoError(t, err)
	loaded, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, ix.Len(), loaded.Len())
	assert.Equal(t, ix.Dimension(), loaded.Dimension())

	want, err := ix.Search(context.Background(), query, 3)
	require.NoError(t, err)
	got, err := loaded.Search(context.Background(), query, 3)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestDecode_Corrupt(t *testing.T) {
	_, err := Decode([]byte{1, 2, 3})
	assert.ErrorIs(t, err, domain.ErrInconsistentIndex)

	ix := mustBuild(t, [][]float32{{1, 0}})
	data, err := ix.MarshalBinary()
	require.NoError(t, err)

	_, err = Decode(data[:len(data)-1])
	assert.ErrorIs(t, err, domain.ErrInconsistentIndex)
}

func TestBuilder(t *testing.T) {
	ix, err := Builder{}.Build([][]float32{{1, 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, ix.Len())
	assert.Equal(t, 2, ix.Dimension())
}
