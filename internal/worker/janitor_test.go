package worker

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/pkg/ptr"
)

type fakeCachePurger struct{ calls int }

func (c *fakeCachePurger) DeleteExpired(context.Context) (int64, error) {
	c.calls++
	return 3, nil
}

type fakePruner struct{ ttl time.Duration }

func (p *fakePruner) Prune(olderThan time.Duration) int {
	p.ttl = olderThan
	return 1
}

func writeFile(t *testing.T, path string, modTime time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func TestJanitor_CleanupExports(t *testing.T) {
	dir := t.TempDir()
	exportsDir := filepath.Join(dir, "exports")
	statesDir := filepath.Join(dir, "states")
	now := time.Date(2024, 3, 10, 3, 30, 0, 0, time.UTC)

	oldFile := filepath.Join(exportsDir, "job-1", "export.csv")
	writeFile(t, oldFile, now.AddDate(0, 0, -9))
	oldState := filepath.Join(statesDir, "job-1.state.json")
	writeFile(t, oldState, now.AddDate(0, 0, -9))
	freshState := filepath.Join(statesDir, "job-2.state.json")
	writeFile(t, freshState, now.Add(-time.Hour))

	repo := newFakeExportRepo()
	repo.finished = []*domain.ExportJob{
		{ID: 1, FilePath: ptr.Ptr(oldFile)},
		{ID: 2, FilePath: ptr.Ptr(filepath.Join(exportsDir, "job-gone", "missing.csv"))},
		{ID: 3},
	}

	j := NewJanitor(repo, &fakeCachePurger{}, &fakePruner{}, testLogger{}, JanitorConfig{
		RunAt:      "03:30",
		Retention:  7 * 24 * time.Hour,
		ExportsDir: exportsDir,
		StatesDir:  statesDir,
	})
	j.now = func() time.Time { return now }

	j.CleanupExports()

	assert.NoFileExists(t, oldFile)
	assert.NoDirExists(t, filepath.Join(exportsDir, "job-1"))
	assert.DirExists(t, exportsDir)
	assert.NoFileExists(t, oldState)
	assert.FileExists(t, freshState)
	assert.Equal(t, []int64{1, 2}, repo.cleared)
}

func TestJanitor_RecoverInterrupted(t *testing.T) {
	repo := newFakeExportRepo()
	repo.interrupted = 2

	j := NewJanitor(repo, &fakeCachePurger{}, &fakePruner{}, testLogger{}, JanitorConfig{RunAt: "03:30"})

	assert.NoError(t, j.RecoverInterrupted(context.Background()))
}

func TestJanitor_PurgeAndPrune(t *testing.T) {
	cache, pruner := &fakeCachePurger{}, &fakePruner{}
	j := NewJanitor(newFakeExportRepo(), cache, pruner, testLogger{}, JanitorConfig{RunAt: "03:30"})

	j.PurgeHostCache()
	j.PruneSessions()

	assert.Equal(t, 1, cache.calls)
	assert.Equal(t, 24*time.Hour, pruner.ttl)
}

func TestJanitor_StartStop(t *testing.T) {
	j := NewJanitor(newFakeExportRepo(), &fakeCachePurger{}, &fakePruner{}, testLogger{}, JanitorConfig{RunAt: "03:30"})

	require.NoError(t, j.Start())
	assert.Len(t, j.scheduler.Jobs(), 3)
	j.Stop()
}
