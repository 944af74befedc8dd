package checkpoint

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

func newStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), "out", DefaultPath("queries.csv")), nil)
}

func TestFileStore_RoundTrip(t *testing.T) {
	store := newStore(t)
	at := time.Date(2024, 2, 3, 4, 5, 6, 0, time.UTC)

	for _, c := range []struct{ offset, total int }{{0, 0}, {100, 100}, {537, 512}, {1 << 20, 1 << 19}} {
		require.NoError(t, store.Save(domain.FetchCursor{Offset: c.offset, TotalFetched: c.total, UpdatedAt: at}))

		got, ok := store.Load()
		require.True(t, ok)
		assert.Equal(t, c.offset, got.Offset)
		assert.Equal(t, c.total, got.TotalFetched)
		assert.True(t, got.UpdatedAt.Equal(at))
	}
}

func TestFileStore_CrashBeforeRenameKeepsPrevious(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save(domain.FetchCursor{Offset: 200, TotalFetched: 200}))

	store.beforeRename = func() error { return errors.New("killed") }
	err := store.Save(domain.FetchCursor{Offset: 300, TotalFetched: 300})
	require.ErrorIs(t, err, ErrReplaceCheckpoint)

	store.beforeRename = nil
	got, ok := store.Load()
	require.True(t, ok)
	assert.Equal(t, 200, got.Offset)
	assert.Equal(t, 200, got.TotalFetched)
}

func TestFileStore_MissingFile(t *testing.T) {
	_, ok := newStore(t).Load()
	assert.False(t, ok)
}

func TestFileStore_CorruptedFile(t *testing.T) {
	store := newStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(store.Path()), 0o755))
	require.NoError(t, os.WriteFile(store.Path(), []byte("{offset:"), 0o644))

	_, ok := store.Load()
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(store.Path(), []byte(`{"offset": -5, "total_fetched": 1}`), 0o644))
	_, ok = store.Load()
	assert.False(t, ok)
}

func TestFileStore_FileFormat(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Save(domain.FetchCursor{Offset: 10, TotalFetched: 10, UpdatedAt: time.Unix(0, 0).UTC()}))

	data, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"offset": 10, "total_fetched": 10, "updated_at": "1970-01-01T00:00:00Z"}`, string(data))

	_, err = os.Stat(store.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestFileStore_Remove(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Remove())

	require.NoError(t, store.Save(domain.FetchCursor{Offset: 1, TotalFetched: 1}))
	require.NoError(t, store.Remove())

	_, ok := store.Load()
	assert.False(t, ok)
}
