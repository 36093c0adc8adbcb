package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbquery/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/core/ports/driving"
	"github.com/custodia-labs/kbquery/internal/core/services"
)

type mockQueryService struct {
	mu sync.Mutex

	result     *domain.QueryResult
	queryErr   error
	lastTopK   int
	run        *domain.ReindexRun
	reindexErr error
	reindexed  []string
	health     *domain.HealthStatus
	runs       []domain.ReindexRun
	runsLimit  int
}

func (m *mockQueryService) Query(_ context.Context, _ string, opts domain.QueryOptions) (*domain.QueryResult, error) {
	m.lastTopK = opts.TopK
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.result, nil
}

func (m *mockQueryService) Reindex(_ context.Context, path string) (*domain.ReindexRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reindexed = append(m.reindexed, path)
	return m.run, m.reindexErr
}

func (m *mockQueryService) Health(context.Context) (*domain.HealthStatus, error) {
	return m.health, nil
}

func (m *mockQueryService) Runs(_ context.Context, limit int) ([]domain.ReindexRun, error) {
	m.runsLimit = limit
	return m.runs, nil
}

func (m *mockQueryService) reindexCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.reindexed...)
}

type mockIngestService struct {
	summary *driving.IngestSummary
	report  *domain.ValidationReport
	err     error
	args    []string
}

func (m *mockIngestService) Chunk(_ context.Context, manifest, output string) (*driving.IngestSummary, error) {
	m.args = []string{manifest, output}
	return m.summary, m.err
}

func (m *mockIngestService) Validate(_ context.Context, in, out string) (*domain.ValidationReport, error) {
	m.args = []string{in, out}
	return m.report, m.err
}

// withServices installs the given services for the duration of the test.
func withServices(t *testing.T, q driving.QueryService, i driving.IngestService) *services.SettingsService {
	t.Helper()

	settings := services.NewSettingsService(memory.NewConfigStore())
	settings.SetEnvLookup(func(string) (string, bool) { return "", false })

	prevSettings, prevQuery, prevIngest := settingsService, queryService, ingestService
	settingsService, queryService, ingestService = settings, q, i
	t.Cleanup(func() {
		settingsService, queryService, ingestService = prevSettings, prevQuery, prevIngest
	})
	return settings
}

// execute runs the root command with args and returns everything it printed.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	queryTopK, queryJSON = 0, false
	historyLimit = 10
	reindexNoProgress = true
	chunkOutput, validateOutput = "data/raw/records.jsonl", domain.DefaultSourcePath
	evalOutput, evalTopK = "", domain.DefaultTopK
	versionShort = false
	ablationChunkSizes, ablationTopKs, ablationModels = "600,1000,1500", "1,5", ""
	ablationTest, ablationOutput, ablationWorkDir = "data/test.jsonl", "results/ablation_report.csv", "results/ablation"

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

func requireContains(t *testing.T, out string, parts ...string) {
	t.Helper()
	for _, p := range parts {
		require.Contains(t, out, p)
	}
}
