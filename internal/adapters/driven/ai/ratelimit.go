package ai

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
)

// Ensure RateLimitedEmbedding implements the interface.
var _ driven.EmbeddingService = (*RateLimitedEmbedding)(nil)

// RateLimitedEmbedding throttles provider requests with a token bucket.
// One request, single or batch, costs one token.
type RateLimitedEmbedding struct {
	inner   driven.EmbeddingService
	limiter *rate.Limiter
}

// NewRateLimitedEmbedding wraps inner so it makes at most rps requests per second.
// The burst equals the rate rounded up, with a minimum of one.
func NewRateLimitedEmbedding(inner driven.EmbeddingService, rps float64) *RateLimitedEmbedding {
	burst := int(math.Ceil(rps))
	if burst < 1 {
		burst = 1
	}
	return &RateLimitedEmbedding{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// Embed waits for a token and delegates.
func (r *RateLimitedEmbedding) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return r.inner.Embed(ctx, text)
}

// EmbedBatch waits for a token and delegates.
func (r *RateLimitedEmbedding) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	return r.inner.EmbedBatch(ctx, texts)
}

// Dimensions returns the wrapped service's vector size.
func (r *RateLimitedEmbedding) Dimensions() int {
	return r.inner.Dimensions()
}

// ModelName returns the wrapped service's model.
func (r *RateLimitedEmbedding) ModelName() string {
	return r.inner.ModelName()
}

// Ping is not throttled.
func (r *RateLimitedEmbedding) Ping(ctx context.Context) error {
	return r.inner.Ping(ctx)
}

// Close closes the wrapped service.
func (r *RateLimitedEmbedding) Close() error {
	return r.inner.Close()
}
