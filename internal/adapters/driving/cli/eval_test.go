package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

func writeTestSet(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.jsonl")
	content := `{"question":"What is a company?","expected_url":"https://example.org/1"}
{"question":"How to register a business?","expected_url":"https://example.org/2"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestEval(t *testing.T) {
	hit := domain.SearchHit{Record: domain.ChunkRecord{ID: "a", SourceID: "https://example.org/1"}, Score: 0.8}
	q := &mockQueryService{result: &domain.QueryResult{Answer: &hit, Sources: []domain.SearchHit{hit}}}
	withServices(t, q, &mockIngestService{})

	testPath := writeTestSet(t)
	outPath := filepath.Join(t.TempDir(), "results", "eval.csv")

	out, err := execute(t, "eval", testPath, "-o", outPath, "-k", "3")

	require.NoError(t, err)
	requireContains(t, out, "EM@1=0.500", "over 2 questions", "Wrote "+outPath)
	assert.Equal(t, 3, q.lastTopK)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "question,expected_url,top1_url,em1,latency_s", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "What is a company?,https://example.org/1,https://example.org/1,1,"))
	assert.True(t, strings.HasPrefix(lines[2], "How to register a business?,https://example.org/2,https://example.org/1,0,"))
}

func TestEval_MissingTestFile(t *testing.T) {
	withServices(t, &mockQueryService{result: &domain.QueryResult{}}, &mockIngestService{})

	_, err := execute(t, "eval", filepath.Join(t.TempDir(), "nope.jsonl"))

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "eval failed")
}
