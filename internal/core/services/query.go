package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
	"github.com/custodia-labs/kbquery/internal/logger"
	"github.com/custodia-labs/kbquery/internal/validator"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// snapshot is the resident index/metadata pair. It is never mutated;
// a reindex replaces the whole value.
type snapshot struct {
	index driven.VectorIndex
	metas []domain.ChunkRecord
}

// QueryDeps are the collaborators of a QueryService.
type QueryDeps struct {
	Embedder  driven.EmbeddingService
	Builder   driven.IndexBuilder
	Store     driven.IndexStore
	Records   driven.RecordReader
	Runs      driven.RunStore
	Validator *validator.Validator

	// Progress is optional.
	Progress driven.ProgressReporter
}

// QueryConfig holds the tunables of a QueryService.
type QueryConfig struct {
	ProviderID string
	SourcePath string
	TopK       int
	BatchSize  int
	Timeout    time.Duration
}

// QueryService answers questions from the resident index and rebuilds it.
type QueryService struct {
	deps QueryDeps
	cfg  QueryConfig
	now  func() time.Time

	current atomic.Pointer[snapshot]

	// loadMu serialises loading and installing snapshots.
	loadMu sync.Mutex

	// reindexMu is the single rebuild slot.
	reindexMu sync.Mutex
}

// NewQueryService creates a query service. Nothing is loaded until the
// first query or an explicit Load.
func NewQueryService(deps QueryDeps, cfg QueryConfig) *QueryService {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultTopK
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = domain.DefaultBatchSize
	}
	if cfg.SourcePath == "" {
		cfg.SourcePath = domain.DefaultSourcePath
	}
	if deps.Validator == nil {
		deps.Validator = validator.New()
	}
	return &QueryService{
		deps: deps,
		cfg:  cfg,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// SetClock replaces the clock used for run timestamps.
func (s *QueryService) SetClock(now func() time.Time) {
	s.now = now
}

// SetProgress sets the reporter for subsequent reindex runs.
func (s *QueryService) SetProgress(p driven.ProgressReporter) {
	s.deps.Progress = p
}

// Load makes the persisted pair resident if it is not already.
func (s *QueryService) Load(ctx context.Context) error {
	_, err := s.ensureLoaded(ctx)
	return err
}

// Ready reports whether a snapshot is resident.
func (s *QueryService) Ready() bool {
	return s.current.Load() != nil
}

func (s *QueryService) ensureLoaded(ctx context.Context) (*snapshot, error) {
	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if snap := s.current.Load(); snap != nil {
		return snap, nil
	}

	index, metas, err := s.deps.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if index.Len() != len(metas) {
		return nil, fmt.Errorf("%w: %d vectors, %d metadata rows",
			domain.ErrInconsistentIndex, index.Len(), len(metas))
	}

	snap := &snapshot{index: index, metas: metas}
	s.current.Store(snap)
	logger.Info("index loaded: %d rows, %d dims", index.Len(), index.Dimension())
	return snap, nil
}

// Query embeds question and returns the nearest chunks.
func (s *QueryService) Query(
	ctx context.Context, question string, opts domain.QueryOptions,
) (*domain.QueryResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		logger.Debug("Empty question, returning no results")
		return &domain.QueryResult{Sources: []domain.SearchHit{}}, nil
	}

	k := opts.TopK
	if k <= 0 {
		k = s.cfg.TopK
	}

	// One dereference per request; a concurrent swap cannot tear the pair.
	snap, err := s.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	embedCtx, cancel := s.withTimeout(ctx)
	vec, err := s.deps.Embedder.Embed(embedCtx, question)
	cancel()
	if err != nil {
		return nil, providerError(err)
	}

	hits, err := snap.index.Search(ctx, vec, k)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	sources := make([]domain.SearchHit, 0, len(hits))
	for _, h := range hits {
		if h.Row < 0 || h.Row >= len(snap.metas) {
			logger.Warn("skipping row %d outside metadata bounds (%d)", h.Row, len(snap.metas))
			continue
		}
		sources = append(sources, domain.SearchHit{
			Record: snap.metas[h.Row],
			Row:    h.Row,
			Score:  h.Score,
		})
	}

	result := &domain.QueryResult{Sources: sources}
	if len(sources) > 0 {
		best := sources[0]
		result.Answer = &best
	}
	logger.Debug("query %q: %d hits (k=%d)", question, len(sources), k)
	return result, nil
}

// Reindex validates the records at sourcePath, embeds and indexes them,
// persists the pair and swaps it in. On any failure the resident pair
// is left as it was.
func (s *QueryService) Reindex(ctx context.Context, sourcePath string) (*domain.ReindexRun, error) {
	if !s.reindexMu.TryLock() {
		return nil, domain.ErrReindexInProgress
	}
	defer s.reindexMu.Unlock()

	if sourcePath == "" {
		sourcePath = s.cfg.SourcePath
	}

	run := domain.ReindexRun{
		ID:         uuid.NewString(),
		SourcePath: sourcePath,
		Status:     domain.RunRunning,
		ProviderID: s.cfg.ProviderID,
		StartedAt:  s.now(),
	}
	logger.Info("reindex %s: start (%s)", run.ID, sourcePath)
	s.recordRun(ctx, run)

	err := s.rebuild(ctx, &run)

	run.FinishedAt = s.now()
	switch {
	case err == nil:
		run.Status = domain.RunSucceeded
		logger.Info("reindex %s: %d rows in %s", run.ID, run.Rows, run.Duration())
	case errors.Is(err, domain.ErrNoValidRecords):
		run.Status = domain.RunNoRecords
		run.Error = err.Error()
		logger.Warn("reindex %s: %v", run.ID, err)
	default:
		run.Status = domain.RunFailed
		run.Error = err.Error()
		logger.Error("reindex %s failed: %v", run.ID, err)
	}
	s.recordRun(context.WithoutCancel(ctx), run)

	return &run, err
}

func (s *QueryService) rebuild(ctx context.Context, run *domain.ReindexRun) error {
	raws, skipped, err := s.deps.Records.ReadRecords(ctx, run.SourcePath)
	if err != nil {
		return fmt.Errorf("read records: %w", err)
	}
	if skipped > 0 {
		logger.Warn("reindex %s: skipped %d malformed lines", run.ID, skipped)
	}

	report := s.deps.Validator.ValidateAll(raws)
	run.Accepted = len(report.Accepted)
	run.Rejected = report.RejectedCount() + skipped
	if len(report.Accepted) == 0 {
		return fmt.Errorf("%w: %s", domain.ErrNoValidRecords, run.SourcePath)
	}

	vectors, err := s.embedAll(ctx, report.Accepted)
	if err != nil {
		return err
	}

	index, err := s.deps.Builder.Build(vectors)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	run.Rows = index.Len()
	run.Dimension = index.Dimension()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if err := s.deps.Store.Save(ctx, index, report.Accepted); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	s.current.Store(&snapshot{index: index, metas: report.Accepted})
	return nil
}

func (s *QueryService) embedAll(ctx context.Context, records []domain.ChunkRecord) ([][]float32, error) {
	progress := s.deps.Progress
	if progress == nil {
		progress = nopProgress{}
	}
	progress.Start(len(records))
	defer progress.Finish()

	vectors := make([][]float32, 0, len(records))
	for start := 0; start < len(records); start += s.cfg.BatchSize {
		end := min(start+s.cfg.BatchSize, len(records))

		texts := make([]string, 0, end-start)
		for _, r := range records[start:end] {
			texts = append(texts, r.Text)
		}

		embedCtx, cancel := s.withTimeout(ctx)
		batch, err := s.deps.Embedder.EmbedBatch(embedCtx, texts)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("embed records %d-%d: %w", start, end-1, providerError(err))
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("%w: %d vectors for %d texts",
				domain.ErrEmbeddingUnavailable, len(batch), len(texts))
		}

		vectors = append(vectors, batch...)
		progress.Add(len(batch))
	}
	return vectors, nil
}

// Health reports file presence, residency and the configured provider.
func (s *QueryService) Health(ctx context.Context) (*domain.HealthStatus, error) {
	indexPresent, metaPresent := s.deps.Store.Exists()

	status := &domain.HealthStatus{
		Status:          "ok",
		IndexPresent:    indexPresent,
		MetadataPresent: metaPresent,
		ProviderID:      s.cfg.ProviderID,
	}
	if snap := s.current.Load(); snap != nil {
		status.Ready = true
		status.Rows = snap.index.Len()
		status.Dimension = snap.index.Dimension()
	}

	runs, err := s.deps.Runs.List(ctx, 1)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	if len(runs) > 0 {
		status.LastReindex = &runs[0]
	}
	return status, nil
}

// Runs lists recent reindex runs, newest first.
func (s *QueryService) Runs(ctx context.Context, limit int) ([]domain.ReindexRun, error) {
	return s.deps.Runs.List(ctx, limit)
}

func (s *QueryService) recordRun(ctx context.Context, run domain.ReindexRun) {
	if err := s.deps.Runs.Save(ctx, run); err != nil {
		logger.Warn("reindex %s: recording run: %v", run.ID, err)
	}
}

func (s *QueryService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.Timeout)
}

// providerError classifies an embedding failure. Cancellation by the
// caller passes through; anything unclassified counts as the provider
// being unavailable.
func providerError(err error) error {
	if errors.Is(err, context.Canceled) || domain.KindOf(err) != domain.KindInternal {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
}

type nopProgress struct{}

func (nopProgress) Start(int) {}
func (nopProgress) Add(int)   {}
func (nopProgress) Finish()   {}
