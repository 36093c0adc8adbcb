package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driven"
)

var errProviderDown = errors.New("connection refused")

// mockEmbedder wraps another embedder and can fail or block on a given batch.
type mockEmbedder struct {
	inner driven.EmbeddingService

	// failOnBatch makes the n-th EmbedBatch call (1-based) fail. Zero never fails.
	failOnBatch int32
	embedErr    error

	// started is closed on the first EmbedBatch call; release unblocks it.
	started chan struct{}
	release chan struct{}
	once    sync.Once

	batches    atomic.Int32
	embedCalls atomic.Int32
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.embedCalls.Add(1)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.inner.Embed(ctx, text)
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	n := m.batches.Add(1)
	if m.started != nil {
		m.once.Do(func() { close(m.started) })
	}
	if m.release != nil {
		select {
		case <-m.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.failOnBatch > 0 && n >= m.failOnBatch {
		return nil, errProviderDown
	}
	return m.inner.EmbedBatch(ctx, texts)
}

func (m *mockEmbedder) Dimensions() int                { return m.inner.Dimensions() }
func (m *mockEmbedder) ModelName() string              { return m.inner.ModelName() }
func (m *mockEmbedder) Ping(ctx context.Context) error { return m.inner.Ping(ctx) }
func (m *mockEmbedder) Close() error                   { return nil }

// memIndexStore keeps the pair in memory.
type memIndexStore struct {
	mu      sync.Mutex
	index   driven.VectorIndex
	metas   []domain.ChunkRecord
	saveErr error
	loadErr error
	saves   int
	loads   int
}

func (s *memIndexStore) Save(_ context.Context, index driven.VectorIndex, metas []domain.ChunkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.index = index
	s.metas = append([]domain.ChunkRecord(nil), metas...)
	s.saves++
	return nil
}

func (s *memIndexStore) Load(_ context.Context) (driven.VectorIndex, []domain.ChunkRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return nil, nil, s.loadErr
	}
	if s.index == nil {
		return nil, nil, domain.ErrIndexUnavailable
	}
	return s.index, s.metas, nil
}

func (s *memIndexStore) Exists() (bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index != nil, s.metas != nil
}

// memRecords serves record files from a map.
type memRecords struct {
	mu      sync.Mutex
	files   map[string][]domain.RawRecord
	skipped map[string]int
}

func newMemRecords() *memRecords {
	return &memRecords{
		files:   make(map[string][]domain.RawRecord),
		skipped: make(map[string]int),
	}
}

func (m *memRecords) ReadRecords(_ context.Context, path string) ([]domain.RawRecord, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs, ok := m.files[path]
	if !ok {
		return nil, 0, domain.ErrNotFound
	}
	return recs, m.skipped[path], nil
}

func (m *memRecords) WriteRecords(_ context.Context, path string, records []domain.RawRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = append([]domain.RawRecord(nil), records...)
	return nil
}

// mockSourceLoader returns fixed texts.
type mockSourceLoader struct {
	texts []domain.SourceText
	err   error
}

func (m *mockSourceLoader) LoadSources(_ context.Context, _ string) ([]domain.SourceText, error) {
	return m.texts, m.err
}

// fixedIndex returns canned hits.
type fixedIndex struct {
	hits []driven.VectorHit
	rows int
}

func (f *fixedIndex) Search(_ context.Context, _ []float32, _ int) ([]driven.VectorHit, error) {
	return f.hits, nil
}
func (f *fixedIndex) Len() int                       { return f.rows }
func (f *fixedIndex) Dimension() int                 { return 8 }
func (f *fixedIndex) MarshalBinary() ([]byte, error) { return nil, nil }

// countingProgress records reporter calls.
type countingProgress struct {
	total    int
	added    int
	finished bool
}

func (p *countingProgress) Start(total int) { p.total = total }
func (p *countingProgress) Add(n int)       { p.added += n }
func (p *countingProgress) Finish()         { p.finished = true }
