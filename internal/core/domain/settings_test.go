package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultAppSettings_Valid(t *testing.T) {
	s := DefaultAppSettings()
	require.NoError(t, s.Validate())
	assert.Equal(t, ProviderStub, s.Embedding.Provider)
	assert.Equal(t, DefaultTopK, s.Query.TopK)
}

func TestAppSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppSettings)
		want   error
	}{
		{"empty index path", func(s *AppSettings) { s.Index.Path = "" }, ErrInvalidInput},
		{"same paths", func(s *AppSettings) { s.Index.MetaPath = s.Index.Path }, ErrInvalidInput},
		{"zero chunk size", func(s *AppSettings) { s.Chunk.Size = 0 }, ErrInvalidInput},
		{"negative overlap", func(s *AppSettings) { s.Chunk.Overlap = -1 }, ErrInvalidInput},
		{"zero top k", func(s *AppSettings) { s.Query.TopK = 0 }, ErrInvalidInput},
		{"unknown provider", func(s *AppSettings) { s.Embedding.Provider = "bert" }, ErrUnsupportedType},
		{"openai without key", func(s *AppSettings) { s.Embedding.Provider = ProviderOpenAI }, ErrInvalidInput},
		{"zero batch", func(s *AppSettings) { s.Embedding.BatchSize = 0 }, ErrInvalidInput},
		{"negative rate", func(s *AppSettings) { s.Embedding.RateLimit = -1 }, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultAppSettings()
			tt.mutate(&s)
			assert.ErrorIs(t, s.Validate(), tt.want)
		})
	}
}

func TestEmbeddingSettings_ProviderID(t *testing.T) {
	assert.Equal(t, "stub:seed-0/8d", EmbeddingSettings{Provider: ProviderStub}.ProviderID())
	assert.Equal(t, "stub:seed-7/16d", EmbeddingSettings{Provider: ProviderStub, Seed: 7, Dimensions: 16}.ProviderID())
	assert.Equal(t, "ollama", EmbeddingSettings{Provider: ProviderOllama}.ProviderID())
	assert.Equal(t, "openai:text-embedding-3-small",
		EmbeddingSettings{Provider: ProviderOpenAI, Model: "text-embedding-3-small"}.ProviderID())
}

func TestEmbeddingProvider(t *testing.T) {
	assert.True(t, ProviderOllama.IsValid())
	assert.False(t, EmbeddingProvider("").IsValid())
	assert.True(t, ProviderOpenAI.RequiresAPIKey())
	assert.False(t, ProviderStub.RequiresAPIKey())
	assert.Equal(t, unknownDescription, EmbeddingProvider("x").Description())
}
