package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
)

// sizedIngest records the pipeline steps run for one chunk size.
type sizedIngest struct {
	size  int
	fail  map[int]error
	steps *[]string
}

func (i *sizedIngest) Chunk(_ context.Context, manifest, output string) (*driving.IngestSummary, error) {
	*i.steps = append(*i.steps, fmt.Sprintf("chunk %d %s -> %s", i.size, manifest, output))
	if err := i.fail[i.size]; err != nil {
		return nil, err
	}
	return &driving.IngestSummary{OutputPath: output}, nil
}

func (i *sizedIngest) Validate(_ context.Context, in, out string) (*domain.ValidationReport, error) {
	*i.steps = append(*i.steps, fmt.Sprintf("validate %d %s -> %s", i.size, in, out))
	return &domain.ValidationReport{}, nil
}

// indexedQuery is a scripted query service that remembers what it indexed.
type indexedQuery struct {
	scriptedQuery
	reindexErr error
	reindexed  []string
}

func (q *indexedQuery) Reindex(_ context.Context, path string) (*domain.ReindexRun, error) {
	q.reindexed = append(q.reindexed, path)
	if q.reindexErr != nil {
		return nil, q.reindexErr
	}
	return &domain.ReindexRun{Status: domain.RunSucceeded}, nil
}

type ablationFixture struct {
	work    string
	steps   []string
	failCS  map[int]error
	store   *memEvalStore
	opened  []string
	queries []*indexedQuery
	closed  int

	// answers maps a model to the source it returns for every question.
	answers    map[string]string
	brokenAt   map[string]error
	reindexErr map[string]error
}

func newAblationFixture(t *testing.T) *ablationFixture {
	return &ablationFixture{
		work:   t.TempDir(),
		failCS: map[int]error{},
		store: &memEvalStore{cases: []domain.EvalCase{
			{Question: "Do I need a visa?", ExpectedURL: "https://example.org/visa"},
			{Question: "Is yellow fever vaccination required?", ExpectedURL: "https://example.org/health"},
		}},
		answers:    map[string]string{},
		brokenAt:   map[string]error{},
		reindexErr: map[string]error{},
	}
}

func (f *ablationFixture) service() *AblationService {
	return NewAblationService(AblationDeps{
		Ingest: func(size int) driving.IngestService {
			return &sizedIngest{size: size, fail: f.failCS, steps: &f.steps}
		},
		Query: func(model, dir string) (driving.QueryService, func() error, error) {
			f.opened = append(f.opened, model+"@"+dir)
			if err := f.brokenAt[model]; err != nil {
				return nil, nil, err
			}
			q := &indexedQuery{reindexErr: f.reindexErr[model]}
			q.top = map[string]string{}
			for _, c := range f.store.cases {
				q.top[c.Question] = f.answers[model]
			}
			f.queries = append(f.queries, q)
			return q, func() error { f.closed++; return nil }, nil
		},
		Evals: f.store,
	})
}

func (f *ablationFixture) request() driving.AblationRequest {
	return driving.AblationRequest{
		ManifestPath: "sources.yaml",
		TestPath:     "test.jsonl",
		OutputPath:   filepath.Join(f.work, "ablation_report.csv"),
		WorkDir:      f.work,
	}
}

func TestAblationService_Run_SweepsEveryCombination(t *testing.T) {
	f := newAblationFixture(t)
	f.answers[""] = "https://example.org/visa"
	f.answers["nomic:v1.5"] = "https://example.org/other"

	grid := domain.AblationGrid{ChunkSizes: []int{600, 1000}, Models: []string{"", "nomic:v1.5"}, TopKs: []int{1, 5}}
	report, err := f.service().Run(context.Background(), grid, f.request())

	require.NoError(t, err)
	require.Len(t, report.Cells, 8)
	assert.Zero(t, report.Failures())

	var order []string
	for _, c := range report.Cells {
		order = append(order, fmt.Sprintf("%d/%s/%d", c.ChunkSize, c.Model, c.TopK))
	}
	assert.Equal(t, []string{
		"600/default/1", "600/default/5", "600/nomic:v1.5/1", "600/nomic:v1.5/5",
		"1000/default/1", "1000/default/5", "1000/nomic:v1.5/1", "1000/nomic:v1.5/5",
	}, order)

	assert.InDelta(t, 0.5, report.Cells[0].Report.ExactMatch(), 1e-9)
	assert.InDelta(t, 0.0, report.Cells[2].Report.ExactMatch(), 1e-9)

	cs600 := filepath.Join(f.work, "cs600")
	assert.Equal(t, []string{
		"chunk 600 sources.yaml -> " + filepath.Join(cs600, "raw.jsonl"),
		"validate 600 " + filepath.Join(cs600, "raw.jsonl") + " -> " + filepath.Join(cs600, "clean.jsonl"),
	}, f.steps[:2])
	assert.Len(t, f.steps, 4, "ingest runs once per chunk size")

	assert.Equal(t, "@"+filepath.Join(cs600, "default"), f.opened[0])
	assert.Equal(t, "nomic:v1.5@"+filepath.Join(cs600, "nomic_v1.5"), f.opened[1])
	require.Len(t, f.queries, 4)
	assert.Equal(t, []string{filepath.Join(cs600, "clean.jsonl")}, f.queries[0].reindexed)
	assert.Equal(t, []int{1, 1, 5, 5}, f.queries[0].topKs)
	assert.Equal(t, 4, f.closed, "every provider is released")

	assert.Contains(t, f.store.paths, filepath.Join(cs600, "eval_cs600_k1_mdefault.csv"))
	assert.Contains(t, f.store.paths, filepath.Join(cs600, "eval_cs600_k5_mnomic_v1.5.csv"))
	assert.Len(t, f.store.paths, 8)

	assert.Equal(t, f.request().OutputPath, f.store.ablationPath)
	assert.Same(t, report, f.store.ablation)
}

func TestAblationService_Run_FailedCombinationsAreRecorded(t *testing.T) {
	f := newAblationFixture(t)
	f.failCS[1000] = errors.New("manifest unreadable")
	f.brokenAt["broken"] = errors.New("unknown model")
	f.reindexErr["stale"] = fmt.Errorf("%w: dimension mismatch", domain.ErrInconsistentIndex)

	grid := domain.AblationGrid{ChunkSizes: []int{600, 1000}, Models: []string{"", "broken", "stale"}, TopKs: []int{1}}
	report, err := f.service().Run(context.Background(), grid, f.request())

	require.NoError(t, err)
	require.Len(t, report.Cells, 6)
	assert.Equal(t, 5, report.Failures())

	assert.False(t, report.Cells[0].Failed())
	assert.Equal(t, "broken", report.Cells[1].Model)
	assert.Equal(t, "provider: unknown model", report.Cells[1].Err)
	assert.Contains(t, report.Cells[2].Err, "reindex: ")
	for _, c := range report.Cells[3:] {
		assert.Equal(t, 1000, c.ChunkSize)
		assert.Equal(t, "chunk: manifest unreadable", c.Err)
	}

	assert.Len(t, f.opened, 3, "no provider is opened for a chunk size that failed to ingest")
	assert.Equal(t, 2, f.closed)
	assert.NotNil(t, f.store.ablation, "the report is written even when cells fail")
}

func TestAblationService_Run_RefusesBadTestSet(t *testing.T) {
	f := newAblationFixture(t)
	f.store.readErr = fmt.Errorf("%w: test file test.jsonl", domain.ErrNotFound)

	grid := domain.AblationGrid{ChunkSizes: []int{600}, TopKs: []int{1}}
	_, err := f.service().Run(context.Background(), grid, f.request())

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, f.steps)
	assert.Nil(t, f.store.ablation)

	f.store.readErr, f.store.cases = nil, nil
	_, err = f.service().Run(context.Background(), grid, f.request())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAblationService_Run_InvalidGrid(t *testing.T) {
	f := newAblationFixture(t)

	_, err := f.service().Run(context.Background(), domain.AblationGrid{ChunkSizes: []int{0}, TopKs: []int{1}}, f.request())

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.steps)
}

func TestAblationService_Run_StopsWhenCancelled(t *testing.T) {
	f := newAblationFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	grid := domain.AblationGrid{ChunkSizes: []int{600}, TopKs: []int{1}}
	_, err := f.service().Run(ctx, grid, f.request())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, f.store.ablation)
}

func TestAblationService_Run_SkipsReportWithoutOutput(t *testing.T) {
	f := newAblationFixture(t)
	req := f.request()
	req.OutputPath = ""

	report, err := f.service().Run(context.Background(), domain.AblationGrid{ChunkSizes: []int{600}, TopKs: []int{1}}, req)

	require.NoError(t, err)
	assert.Len(t, report.Cells, 1)
	assert.Nil(t, f.store.ablation)
}
