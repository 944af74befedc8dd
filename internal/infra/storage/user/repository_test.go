package user

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/internal/infra/storage/schema"
)

func setupRepo(t *testing.T) (*Repository, *sql.DB) {
	t.Helper()

	db, err := schema.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, schema.Migrate(context.Background(), db, "sqlite"))

	repo := NewRepository(db, "sqlite")
	repo.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return repo, db
}

func TestUpsert_CreatesAndCountsRequests(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	u := &domain.User{ID: 42, Username: "alice", FullName: "Alice"}
	require.NoError(t, repo.Upsert(ctx, u))
	assert.Equal(t, int64(1), u.TotalRequests)

	u2 := &domain.User{ID: 42, Username: "alice_new", FullName: "Alice A"}
	require.NoError(t, repo.Upsert(ctx, u2))
	assert.Equal(t, int64(2), u2.TotalRequests)

	got, err := repo.GetByID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "alice_new", got.Username)
	assert.Equal(t, "Alice A", got.FullName)
	assert.True(t, got.IsActive)
	assert.Equal(t, int64(2), got.TotalRequests)
	assert.True(t, got.CreatedAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)))
}

func TestIncrementExports(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.User{ID: 7}))
	require.NoError(t, repo.IncrementExports(ctx, 7))
	require.NoError(t, repo.IncrementExports(ctx, 7))

	got, err := repo.GetByID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.TotalExports)

	assert.ErrorIs(t, repo.IncrementExports(ctx, 8), ErrUserNotFound)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, _ := setupRepo(t)

	_, err := repo.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCounts(t *testing.T) {
	repo, _ := setupRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, &domain.User{ID: 1}))
	repo.now = func() time.Time { return time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC) }
	require.NoError(t, repo.Upsert(ctx, &domain.User{ID: 2}))

	total, active, err := repo.Counts(ctx, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, int64(1), active)
}
