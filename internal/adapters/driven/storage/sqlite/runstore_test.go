package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/kbquery/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func testRun(id string, started time.Time) domain.ReindexRun {
	return domain.ReindexRun{
		ID:         id,
		SourcePath: "data/processed/clean.jsonl",
		Status:     domain.RunRunning,
		ProviderID: "stub:seed-0/8d",
		StartedAt:  started,
	}
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "history.db"), store.Path())
	assert.FileExists(t, store.Path())
}

func TestNewStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.RunStore().Save(context.Background(), testRun("a", time.Now())))
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var version int
	require.NoError(t, second.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 1, version)

	run, err := second.RunStore().Get(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "a", run.ID)
}

func TestRunStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	runs := setupTestStore(t).RunStore()
	started := time.Date(2025, 5, 1, 10, 0, 0, 123456789, time.UTC)

	run := testRun("run-1", started)
	require.NoError(t, runs.Save(ctx, run))

	got, err := runs.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunRunning, got.Status)
	assert.True(t, got.StartedAt.Equal(started))
	assert.True(t, got.FinishedAt.IsZero())
	assert.Empty(t, got.Error)

	// finish the run
	run.Status = domain.RunFailed
	run.Accepted = 5
	run.Rejected = 2
	run.Error = "embedding service unavailable"
	run.FinishedAt = started.Add(3 * time.Second)
	require.NoError(t, runs.Save(ctx, run))

	got, err = runs.Get(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.RunFailed, got.Status)
	assert.Equal(t, 5, got.Accepted)
	assert.Equal(t, 2, got.Rejected)
	assert.Equal(t, "embedding service unavailable", got.Error)
	assert.Equal(t, 3*time.Second, got.Duration())
}

func TestRunStore_Get_NotFound(t *testing.T) {
	runs := setupTestStore(t).RunStore()

	_, err := runs.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRunStore_Save_RequiresID(t *testing.T) {
	runs := setupTestStore(t).RunStore()

	err := runs.Save(context.Background(), domain.ReindexRun{})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRunStore_List_NewestFirst(t *testing.T) {
	ctx := context.Background()
	runs := setupTestStore(t).RunStore()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, runs.Save(ctx, testRun("old", base)))
	require.NoError(t, runs.Save(ctx, testRun("newest", base.Add(2*time.Hour))))
	require.NoError(t, runs.Save(ctx, testRun("middle", base.Add(90*time.Minute))))

	all, err := runs.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"newest", "middle", "old"}, []string{all[0].ID, all[1].ID, all[2].ID})

	limited, err := runs.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRunStore_List_Empty(t *testing.T) {
	runs := setupTestStore(t).RunStore()

	all, err := runs.List(context.Background(), 10)

	require.NoError(t, err)
	assert.NotNil(t, all)
	assert.Empty(t, all)
}
