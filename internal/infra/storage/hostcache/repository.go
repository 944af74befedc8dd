package hostcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/pkg/dbmetrics"
	"github.com/FrankX3M/wordstat-api/pkg/sqlbuilder"
)

// Entry закэшированные данные сайта
type Entry struct {
	Host      domain.Host
	Summary   *domain.HostSummary
	UpdatedAt time.Time
	ExpiresAt time.Time
}

// Repository кэш карточек сайтов пользователя
type Repository struct {
	db      DBExecutor
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

func NewRepository(db DBExecutor, driver string) *Repository {
	return &Repository{
		db:      db,
		builder: sqlbuilder.New(driver),
		now:     time.Now,
	}
}

func (r *Repository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Second)
}

// Get возвращает непросроченную запись или ErrCacheMiss
func (r *Repository) Get(ctx context.Context, userID int64, hostID string) (*Entry, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.builder.Select("host_data", "summary_data", "updated_at", "expires_at").
		From("host_cache").
		Where(squirrel.Eq{"user_id": userID, "host_id": hostID}).
		Where(squirrel.Gt{"expires_at": r.timestamp()}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: Get - build select query: %v", ErrBuildQuery, err)
	}

	var (
		hostData, summaryData string
		updatedAt, expiresAt  sql.NullTime
	)
	err = executor.QueryRowContext(ctx, query, args...).Scan(&hostData, &summaryData, &updatedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: Get - scan row: %v", ErrScanRow, err)
	}

	entry := &Entry{UpdatedAt: updatedAt.Time, ExpiresAt: expiresAt.Time}
	if err := json.Unmarshal([]byte(hostData), &entry.Host); err != nil {
		return nil, fmt.Errorf("%w: Get - decode host: %v", ErrScanRow, err)
	}
	if summaryData != "" {
		entry.Summary = &domain.HostSummary{}
		if err := json.Unmarshal([]byte(summaryData), entry.Summary); err != nil {
			return nil, fmt.Errorf("%w: Get - decode summary: %v", ErrScanRow, err)
		}
	}

	return entry, nil
}

// Put сохраняет сайт и его сводку на ttl
func (r *Repository) Put(ctx context.Context, userID int64, host domain.Host, summary *domain.HostSummary, ttl time.Duration) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	hostData, err := json.Marshal(host)
	if err != nil {
		return fmt.Errorf("%w: Put - host: %v", ErrEncode, err)
	}
	var summaryData []byte
	if summary != nil {
		if summaryData, err = json.Marshal(summary); err != nil {
			return fmt.Errorf("%w: Put - summary: %v", ErrEncode, err)
		}
	}

	now := r.timestamp()
	query, args, err := r.builder.Insert("host_cache").
		Columns("user_id", "host_id", "host_data", "summary_data", "created_at", "updated_at", "expires_at").
		Values(userID, host.HostID, string(hostData), string(summaryData), now, now, now.Add(ttl)).
		Suffix(`ON CONFLICT (user_id, host_id) DO UPDATE SET
			host_data = excluded.host_data,
			summary_data = excluded.summary_data,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Put - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Put - execute upsert: %v", ErrExecQuery, err)
	}

	return nil
}

// Invalidate удаляет записи пользователя; пустой hostID удаляет все его сайты
func (r *Repository) Invalidate(ctx context.Context, userID int64, hostID string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	where := squirrel.Eq{"user_id": userID}
	if hostID != "" {
		where["host_id"] = hostID
	}

	query, args, err := r.builder.Delete("host_cache").Where(where).ToSql()
	if err != nil {
		return fmt.Errorf("%w: Invalidate - build delete query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: Invalidate - execute delete: %v", ErrExecQuery, err)
	}

	return nil
}

// DeleteExpired удаляет просроченные записи и возвращает их количество
func (r *Repository) DeleteExpired(ctx context.Context) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.builder.Delete("host_cache").
		Where(squirrel.LtOrEq{"expires_at": r.timestamp()}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteExpired - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteExpired - execute delete: %v", ErrExecQuery, err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: DeleteExpired - get rows affected: %v", ErrExecQuery, err)
	}

	return deleted, nil
}
