package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	configfile "github.com/custodia-labs/kbquery/internal/adapters/driven/config/file"
	"github.com/custodia-labs/kbquery/internal/adapters/driven/ai"
	"github.com/custodia-labs/kbquery/internal/adapters/driven/sources"
	storagefile "github.com/custodia-labs/kbquery/internal/adapters/driven/storage/file"
	"github.com/custodia-labs/kbquery/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/kbquery/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/kbquery/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/kbquery/internal/chunker"
	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
	"github.com/custodia-labs/kbquery/internal/core/services"
	"github.com/custodia-labs/kbquery/internal/normalisers"
	"github.com/custodia-labs/kbquery/internal/normalisers/markdown"
	"github.com/custodia-labs/kbquery/internal/normalisers/plaintext"
	"github.com/custodia-labs/kbquery/internal/validator"
)

// app holds the wired services and what must be closed on exit.
type app struct {
	settings *domain.AppSettings
	embedder driven.EmbeddingService
	runs     driven.RunStore
	records  *storagefile.RecordStore

	query  *services.QueryService
	ingest *services.IngestService
}

func newSettingsService(dir string) (*services.SettingsService, error) {
	store, err := configfile.NewConfigStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	return services.NewSettingsService(store), nil
}

func newApp(settings *domain.AppSettings) (*app, error) {
	embedder, err := ai.CreateEmbeddingService(&settings.Embedding)
	if err != nil {
		return nil, fmt.Errorf("embedding provider: %w", err)
	}

	runs, err := newRunStore(settings.History.Dir)
	if err != nil {
		_ = embedder.Close()
		return nil, err
	}

	records := storagefile.NewRecordStore()
	v := validator.New()
	store := storagefile.NewIndexStore(settings.Index.Path, settings.Index.MetaPath)

	return &app{
		settings: settings,
		embedder: embedder,
		runs:     runs,
		records:  records,
		query:    newQuery(settings, embedder, store, runs, records, v),
		ingest:   newIngest(settings.Chunk, records, v),
	}, nil
}

func newQuery(settings *domain.AppSettings, embedder driven.EmbeddingService, store driven.IndexStore, runs driven.RunStore, records *storagefile.RecordStore, v *validator.Validator) *services.QueryService {
	return services.NewQueryService(services.QueryDeps{
		Embedder:  embedder,
		Builder:   flat.Builder{},
		Store:     store,
		Records:   records,
		Runs:      runs,
		Validator: v,
	}, services.QueryConfig{
		ProviderID: providerID(settings.Embedding.Provider, embedder),
		SourcePath: settings.Index.SourcePath,
		TopK:       settings.Query.TopK,
		BatchSize:  settings.Embedding.BatchSize,
		Timeout:    settings.Embedding.Timeout,
	})
}

func newIngest(chunk domain.ChunkSettings, records *storagefile.RecordStore, v *validator.Validator) *services.IngestService {
	registry := normalisers.NewRegistry(plaintext.New(), markdown.New())
	return services.NewIngestService(
		sources.NewManifestLoader(registry),
		records,
		chunker.New(
			chunker.WithChunkSize(chunk.Size),
			chunker.WithOverlap(chunk.Overlap),
		),
		v,
	)
}

// newAblationDeps builds a separate pipeline per combination. Indexes and run
// history stay under the sweep's work directory.
func newAblationDeps(settings *domain.AppSettings) services.AblationDeps {
	records := storagefile.NewRecordStore()
	v := validator.New()

	return services.AblationDeps{
		Ingest: func(size int) driving.IngestService {
			chunk := settings.Chunk
			chunk.Size = size
			return newIngest(chunk, records, v)
		},
		Query: func(model, dir string) (driving.QueryService, func() error, error) {
			cell := *settings
			if model != "" {
				cell.Embedding.Model = model
			}
			embedder, err := ai.CreateEmbeddingService(&cell.Embedding)
			if err != nil {
				return nil, nil, err
			}
			store := storagefile.NewIndexStore(filepath.Join(dir, "index.bin"), filepath.Join(dir, "meta.jsonl"))
			return newQuery(&cell, embedder, store, memory.NewRunStore(), records, v), embedder.Close, nil
		},
		Evals: storagefile.NewEvalStore(),
	}
}

func newRunStore(dir string) (driven.RunStore, error) {
	if dir == "" {
		return memory.NewRunStore(), nil
	}
	store, err := sqlite.NewStore(dir)
	if err != nil {
		return nil, fmt.Errorf("opening history: %w", err)
	}
	return store.RunStore(), nil
}

// providerID names the provider by the model actually in use.
func providerID(p domain.EmbeddingProvider, e driven.EmbeddingService) string {
	if name := e.ModelName(); name != "" {
		return p.String() + ":" + name
	}
	return p.String()
}

// Close releases the provider and the history store.
func (a *app) Close() error {
	return errors.Join(a.embedder.Close(), a.runs.Close())
}
