package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
)

type mockAblationService struct {
	report *domain.AblationReport
	err    error
	grid   domain.AblationGrid
	req    driving.AblationRequest
	calls  int
}

func (m *mockAblationService) Run(_ context.Context, grid domain.AblationGrid, req driving.AblationRequest) (*domain.AblationReport, error) {
	m.calls++
	m.grid, m.req = grid, req
	return m.report, m.err
}

func withAblation(t *testing.T, svc driving.AblationService) {
	t.Helper()
	prev := ablationService
	ablationService = svc
	t.Cleanup(func() { ablationService = prev })
}

const (
	visaText   = "Travellers from most countries need a valid passport and a tourist visa for stays of up to ninety days."
	healthText = "Yellow fever vaccination is recommended for anyone visiting the rainforest regions of the country."
)

// writeKnowledgeBase lays out a manifest with two documents and a test set
// whose questions are the documents themselves.
func writeKnowledgeBase(t *testing.T) (manifest, testSet string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"docs/visa.txt":   visaText,
		"docs/health.txt": healthText,
		"sources.yaml": `
sources:
  - name: kb
    url: https://example.org/kb/
    paths: ["docs/*.txt"]
`,
		"test.jsonl": `{"question":"` + visaText + `","expected_url":"https://example.org/kb/docs/visa.txt"}
{"question":"` + healthText + `","expected_url":"https://example.org/kb/docs/health.txt"}
`,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return filepath.Join(dir, "sources.yaml"), filepath.Join(dir, "test.jsonl")
}

func TestAblationCmd_RunsStubPipeline(t *testing.T) {
	withServices(t, &mockQueryService{}, &mockIngestService{})
	withAblation(t, nil)

	manifest, testSet := writeKnowledgeBase(t)
	work := t.TempDir()
	outPath := filepath.Join(work, "ablation_report.csv")

	out, err := execute(t, "ablation", manifest,
		"--test", testSet,
		"--chunk-sizes", "600,1000",
		"--topk", "1,2",
		"--work-dir", work,
		"-o", outPath,
	)

	require.NoError(t, err)
	requireContains(t, out, "model=default k=1  EM@1=1.000", "Wrote "+outPath)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "chunk_size,model,top_k,em1,p50_s,p95_s,questions,error", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "600,default,1,1.0000,"), lines[1])
	assert.True(t, strings.HasPrefix(lines[4], "1000,default,2,1.0000,"), lines[4])
	for _, line := range lines[1:] {
		assert.True(t, strings.HasSuffix(line, ",2,"), "every row scores both questions without error: %s", line)
	}

	assert.FileExists(t, filepath.Join(work, "cs600", "clean.jsonl"))
	assert.FileExists(t, filepath.Join(work, "cs600", "default", "index.bin"))
	assert.FileExists(t, filepath.Join(work, "cs1000", "eval_cs1000_k2_mdefault.csv"))
}

func TestAblationCmd_ParsesGrid(t *testing.T) {
	withServices(t, &mockQueryService{}, &mockIngestService{})
	svc := &mockAblationService{report: &domain.AblationReport{Cells: []domain.AblationCell{
		{ChunkSize: 800, Model: "a", TopK: 3, Report: &domain.EvalReport{Results: []domain.EvalResult{{Match: true}}}},
		{ChunkSize: 1200, Model: "b", TopK: 3, Err: "reindex: provider down"},
	}}}
	withAblation(t, svc)

	out, err := execute(t, "ablation", "sources.yaml",
		"--chunk-sizes", "800, 1200",
		"--models", "a,b",
		"--topk", "3",
		"--test", "qa.jsonl",
		"-o", "",
	)

	require.NoError(t, err)
	assert.Equal(t, domain.AblationGrid{ChunkSizes: []int{800, 1200}, Models: []string{"a", "b"}, TopKs: []int{3}}, svc.grid)
	assert.Equal(t, driving.AblationRequest{
		ManifestPath: "sources.yaml",
		TestPath:     "qa.jsonl",
		WorkDir:      "results/ablation",
	}, svc.req)
	requireContains(t, out, "model=a k=3  EM@1=1.000", "model=b k=3  FAILED: reindex: provider down")
	assert.NotContains(t, out, "Wrote")
}

func TestAblationCmd_Defaults(t *testing.T) {
	withServices(t, &mockQueryService{}, &mockIngestService{})
	svc := &mockAblationService{report: &domain.AblationReport{Cells: []domain.AblationCell{
		{ChunkSize: 600, Model: "default", TopK: 1, Report: &domain.EvalReport{}},
	}}}
	withAblation(t, svc)

	_, err := execute(t, "ablation", "sources.yaml")

	require.NoError(t, err)
	assert.Equal(t, []int{600, 1000, 1500}, svc.grid.ChunkSizes)
	assert.Equal(t, []int{1, 5}, svc.grid.TopKs)
	assert.Empty(t, svc.grid.Models)
	assert.Equal(t, "results/ablation_report.csv", svc.req.OutputPath)
	assert.Equal(t, "data/test.jsonl", svc.req.TestPath)
}

func TestAblationCmd_RejectsBadList(t *testing.T) {
	withServices(t, &mockQueryService{}, &mockIngestService{})
	svc := &mockAblationService{}
	withAblation(t, svc)

	_, err := execute(t, "ablation", "sources.yaml", "--topk", "1,x")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Zero(t, svc.calls)
}

func TestAblationCmd_EveryCombinationFailed(t *testing.T) {
	withServices(t, &mockQueryService{}, &mockIngestService{})
	withAblation(t, &mockAblationService{report: &domain.AblationReport{Cells: []domain.AblationCell{
		{ChunkSize: 600, Model: "default", TopK: 1, Err: "chunk: manifest unreadable"},
	}}})

	out, err := execute(t, "ablation", "sources.yaml", "-o", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "every combination failed")
	assert.Contains(t, out, "FAILED: chunk: manifest unreadable")
}
