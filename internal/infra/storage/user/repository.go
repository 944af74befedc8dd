package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/pkg/dbmetrics"
	"github.com/FrankX3M/wordstat-api/pkg/sqlbuilder"
)

// Repository репозиторий пользователей бота
type Repository struct {
	db      DBExecutor
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

// NewRepository создает новый экземпляр репозитория пользователей
func NewRepository(db DBExecutor, driver string) *Repository {
	return &Repository{
		db:      db,
		builder: sqlbuilder.New(driver),
		now:     time.Now,
	}
}

// Upsert создаёт пользователя или обновляет имя и время активности
// Каждый вызов считается обращением к боту: total_requests увеличивается на 1
func (r *Repository) Upsert(ctx context.Context, u *domain.User) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)
	now := r.now().UTC().Truncate(time.Second)

	query, args, err := r.builder.Insert("users").
		Columns("id", "username", "full_name", "created_at", "last_activity", "is_active", "total_exports", "total_requests").
		Values(u.ID, u.Username, u.FullName, now, now, true, 0, 1).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			full_name = excluded.full_name,
			last_activity = excluded.last_activity,
			is_active = excluded.is_active,
			total_requests = users.total_requests + 1
		RETURNING total_exports, total_requests`).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: Upsert - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(&u.TotalExports, &u.TotalRequests)
	if err != nil {
		return fmt.Errorf("%w: Upsert - execute upsert: %v", ErrExecQuery, err)
	}

	u.LastActivity = now
	u.IsActive = true

	return nil
}

// GetByID получает пользователя по Telegram ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.builder.Select(
		"id",
		"username",
		"full_name",
		"created_at",
		"last_activity",
		"is_active",
		"total_exports",
		"total_requests",
	).
		From("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	var u domain.User
	var createdAt, lastActivity sql.NullTime

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&u.ID,
		&u.Username,
		&u.FullName,
		&createdAt,
		&lastActivity,
		&u.IsActive,
		&u.TotalExports,
		&u.TotalRequests,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan user: %v", ErrScanRow, err)
	}

	u.CreatedAt = createdAt.Time
	u.LastActivity = lastActivity.Time

	return &u, nil
}

// IncrementExports увеличивает счётчик успешных выгрузок
func (r *Repository) IncrementExports(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.builder.Update("users").
		Set("total_exports", squirrel.Expr("total_exports + 1")).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: IncrementExports - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: IncrementExports - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: IncrementExports - get rows affected: %v", ErrExecQuery, err)
	}
	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Counts всего пользователей и активных начиная с activeSince
func (r *Repository) Counts(ctx context.Context, activeSince time.Time) (total, active int64, err error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.builder.Select("COUNT(*)").
		Column(squirrel.Expr("COALESCE(SUM(CASE WHEN last_activity >= ? THEN 1 ELSE 0 END), 0)",
			activeSince.UTC().Truncate(time.Second))).
		From("users").
		ToSql()
	if err != nil {
		return 0, 0, fmt.Errorf("%w: Counts - build select query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&total, &active); err != nil {
		return 0, 0, fmt.Errorf("%w: Counts - scan row: %v", ErrScanRow, err)
	}

	return total, active, nil
}
