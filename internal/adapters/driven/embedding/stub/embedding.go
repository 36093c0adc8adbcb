// Package stub provides a deterministic embedding service that needs no model.
//
// Vectors are drawn from a PCG generator keyed by the configured seed and the
// FNV-1a hash of the text, so identical texts always map to identical vectors.
// The vectors carry no meaning; the stub exists for smoke runs and tests.
package stub

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand/v2"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// DefaultDimensions is the vector size when none is configured.
const DefaultDimensions = domain.DefaultStubDimensions

// Config holds configuration for the stub embedding service.
type Config struct {
	// Seed keys the generator.
	Seed int64

	// Dimensions is the vector size (default 8).
	Dimensions int
}

// EmbeddingService generates seeded pseudo-random embeddings.
type EmbeddingService struct {
	seed       uint64
	dimensions int
}

// NewEmbeddingService creates a new stub embedding service.
func NewEmbeddingService(cfg Config) *EmbeddingService {
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = DefaultDimensions
	}
	return &EmbeddingService{
		seed:       uint64(cfg.Seed),
		dimensions: cfg.Dimensions,
	}
}

// Embed returns the vector for text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("stub: %w", err)
	}
	return s.vector(text), nil
}

// EmbedBatch returns one vector per text in input order.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("stub: embed text %d: %w", i, err)
		}
		out[i] = s.vector(text)
	}
	return out, nil
}

func (s *EmbeddingService) vector(text string) []float32 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	rng := rand.New(rand.NewPCG(s.seed, h.Sum64()))

	v := make([]float32, s.dimensions)
	for i := range v {
		v[i] = float32(rng.NormFloat64())
	}
	return v
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns a name that identifies the seed and size.
func (s *EmbeddingService) ModelName() string {
	return fmt.Sprintf("seed-%d/%dd", int64(s.seed), s.dimensions)
}

// Ping always succeeds.
func (s *EmbeddingService) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *EmbeddingService) Close() error {
	return nil
}
