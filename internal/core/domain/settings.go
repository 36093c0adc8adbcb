package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// EmbeddingProvider identifies an embedding backend.
type EmbeddingProvider string

// Available embedding providers.
const (
	// ProviderStub is the deterministic seeded generator used for smoke runs.
	ProviderStub EmbeddingProvider = "stub"

	// ProviderOllama is a local Ollama instance.
	ProviderOllama EmbeddingProvider = "ollama"

	// ProviderOpenAI is the OpenAI embeddings API or a compatible endpoint.
	ProviderOpenAI EmbeddingProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p EmbeddingProvider) IsValid() bool {
	switch p {
	case ProviderStub, ProviderOllama, ProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p EmbeddingProvider) RequiresAPIKey() bool {
	return p == ProviderOpenAI
}

// String returns the string representation.
func (p EmbeddingProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p EmbeddingProvider) Description() string {
	switch p {
	case ProviderStub:
		return "Stub (deterministic, no model)"
	case ProviderOllama:
		return "Ollama (local)"
	case ProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// Default setting values.
const (
	DefaultIndexPath      = "data/knowledge_base/index.bin"
	DefaultMetaPath       = "data/knowledge_base/meta.jsonl"
	DefaultSourcePath     = "data/processed/clean.jsonl"
	DefaultChunkSize      = 1500
	DefaultStubDimensions = 8
	DefaultEmbedTimeout   = 30 * time.Second
	DefaultBatchSize      = 32
	DefaultServerAddr     = ":8080"
)

// IndexSettings locates the persisted index/metadata pair.
type IndexSettings struct {
	// Path is the vector index file.
	Path string

	// MetaPath is the JSONL metadata file, one line per index row.
	MetaPath string

	// SourcePath is the default record file for reindex.
	SourcePath string
}

// ChunkSettings configures the chunker.
type ChunkSettings struct {
	// Size is the window size in characters.
	Size int

	// Overlap is the number of characters shared by consecutive windows.
	Overlap int
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding backend.
	Provider EmbeddingProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions overrides the provider's output size. Zero uses the model default.
	Dimensions int

	// Seed keys the stub generator.
	Seed int64

	// Timeout bounds every provider call.
	Timeout time.Duration

	// BatchSize is the number of texts per bulk embedding call.
	BatchSize int

	// RateLimit caps provider requests per second. Zero disables throttling.
	RateLimit float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// ProviderID is the stable identity reported by health checks.
func (e EmbeddingSettings) ProviderID() string {
	if e.Provider == ProviderStub {
		dims := e.Dimensions
		if dims <= 0 {
			dims = DefaultStubDimensions
		}
		return fmt.Sprintf("stub:seed-%d/%dd", e.Seed, dims)
	}
	if e.Model == "" {
		return e.Provider.String()
	}
	return e.Provider.String() + ":" + e.Model
}

// QuerySettings holds query defaults.
type QuerySettings struct {
	// TopK is the default result count.
	TopK int
}

// ServerSettings configures the HTTP surface.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string
}

// HistorySettings configures reindex run history.
type HistorySettings struct {
	// Dir holds the SQLite history database. Empty keeps history in memory.
	Dir string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Index     IndexSettings
	Chunk     ChunkSettings
	Embedding EmbeddingSettings
	Query     QuerySettings
	Server    ServerSettings
	History   HistorySettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The stub provider is the default so a fresh install can index and query
// without any model available.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Index: IndexSettings{
			Path:       DefaultIndexPath,
			MetaPath:   DefaultMetaPath,
			SourcePath: DefaultSourcePath,
		},
		Chunk: ChunkSettings{
			Size: DefaultChunkSize,
		},
		Embedding: EmbeddingSettings{
			Provider:  ProviderStub,
			Timeout:   DefaultEmbedTimeout,
			BatchSize: DefaultBatchSize,
		},
		Query: QuerySettings{
			TopK: DefaultTopK,
		},
		Server: ServerSettings{
			Addr: DefaultServerAddr,
		},
	}
}

// Validate checks settings at startup.
func (s AppSettings) Validate() error {
	switch {
	case s.Index.Path == "":
		return fmt.Errorf("%w: index.path is required", ErrInvalidInput)
	case s.Index.MetaPath == "":
		return fmt.Errorf("%w: index.meta_path is required", ErrInvalidInput)
	case s.Index.Path == s.Index.MetaPath:
		return fmt.Errorf("%w: index.path and index.meta_path must differ", ErrInvalidInput)
	case s.Chunk.Size <= 0:
		return fmt.Errorf("%w: chunk.size must be positive", ErrInvalidInput)
	case s.Chunk.Overlap < 0:
		return fmt.Errorf("%w: chunk.overlap must not be negative", ErrInvalidInput)
	case s.Query.TopK <= 0:
		return fmt.Errorf("%w: query.top_k must be positive", ErrInvalidInput)
	case !s.Embedding.Provider.IsValid():
		return fmt.Errorf("%w: embedding.provider %q", ErrUnsupportedType, s.Embedding.Provider)
	case !s.Embedding.IsConfigured():
		return fmt.Errorf("%w: embedding.api_key is required for %s", ErrInvalidInput, s.Embedding.Provider)
	case s.Embedding.BatchSize <= 0:
		return fmt.Errorf("%w: embedding.batch_size must be positive", ErrInvalidInput)
	case s.Embedding.RateLimit < 0:
		return fmt.Errorf("%w: embedding.rate_limit must not be negative", ErrInvalidInput)
	}
	return nil
}
