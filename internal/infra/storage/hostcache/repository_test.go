package hostcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/internal/infra/storage/schema"
)

func setupRepo(t *testing.T) (*Repository, *time.Time) {
	t.Helper()

	db, err := schema.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, schema.Migrate(context.Background(), db, "sqlite"))

	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	repo := NewRepository(db, "sqlite")
	repo.now = func() time.Time { return now }
	return repo, &now
}

var testHost = domain.Host{HostID: "https:example.com:443", URL: "https://example.com/", Verified: true}

func TestPutGet(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	summary := &domain.HostSummary{SQI: 40, SearchablePagesCount: 120, SiteProblems: map[string]int{"CRITICAL": 1}}
	require.NoError(t, repo.Put(ctx, 1, testHost, summary, time.Hour))

	entry, err := repo.Get(ctx, 1, testHost.HostID)
	require.NoError(t, err)
	assert.Equal(t, testHost, entry.Host)
	assert.Equal(t, summary, entry.Summary)

	_, err = repo.Get(ctx, 2, testHost.HostID)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestPut_Overwrites(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, 1, testHost, &domain.HostSummary{SQI: 10}, time.Hour))
	require.NoError(t, repo.Put(ctx, 1, testHost, nil, time.Hour))

	entry, err := repo.Get(ctx, 1, testHost.HostID)
	require.NoError(t, err)
	assert.Nil(t, entry.Summary)
}

func TestExpiry(t *testing.T) {
	repo, now := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, 1, testHost, nil, time.Hour))
	other := domain.Host{HostID: "https:other.ru:443"}
	require.NoError(t, repo.Put(ctx, 1, other, nil, 3*time.Hour))

	*now = now.Add(2 * time.Hour)

	_, err := repo.Get(ctx, 1, testHost.HostID)
	assert.ErrorIs(t, err, ErrCacheMiss)

	deleted, err := repo.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.Get(ctx, 1, other.HostID)
	assert.NoError(t, err)
}

func TestInvalidate(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Put(ctx, 1, testHost, nil, time.Hour))
	require.NoError(t, repo.Put(ctx, 1, domain.Host{HostID: "h2"}, nil, time.Hour))

	require.NoError(t, repo.Invalidate(ctx, 1, testHost.HostID))
	_, err := repo.Get(ctx, 1, testHost.HostID)
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, repo.Invalidate(ctx, 1, ""))
	_, err = repo.Get(ctx, 1, "h2")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
