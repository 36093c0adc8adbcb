package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// For a fixed configuration the output is deterministic and every vector
// has Dimensions() entries. A failure is returned to the caller as is;
// implementations do not retry.
//
// Implementations include:
//   - Stub (seeded pseudo-random, no model)
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI (text-embedding-3-small, text-embedding-3-large)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	// The result has exactly len(texts) entries in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
