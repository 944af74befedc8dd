package exportjob

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/pkg/dbmetrics"
	"github.com/FrankX3M/wordstat-api/pkg/ptr"
	"github.com/FrankX3M/wordstat-api/pkg/sqlbuilder"
)

// MaxErrorMessageLen ограничение длины сохраняемого текста ошибки (в символах)
const MaxErrorMessageLen = 500

var exportColumns = []string{
	"id",
	"job_uuid",
	"user_id",
	"chat_id",
	"message_id",
	"host_id",
	"host_url",
	"export_type",
	"export_format",
	"device_type",
	"date_from",
	"date_to",
	"status",
	"rows_exported",
	"file_path",
	"file_size",
	"created_at",
	"completed_at",
	"error_message",
}

// Repository репозиторий задач выгрузки
type Repository struct {
	db      DBExecutor
	builder squirrel.StatementBuilderType
	now     func() time.Time
}

// NewRepository создает новый экземпляр репозитория выгрузок
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

// Create создаёт задачу в статусе pending и возвращает её ID
func (r *Repository) Create(ctx context.Context, job *domain.ExportJob) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	if job.JobUUID == "" {
		job.JobUUID = uuid.NewString()
	}
	job.Status = domain.ExportStatusPending
	job.CreatedAt = r.timestamp()

	query, args, err := r.builder.Insert("exports").
		Columns(
			"job_uuid",
			"user_id",
			"chat_id",
			"message_id",
			"host_id",
			"host_url",
			"export_type",
			"export_format",
			"device_type",
			"date_from",
			"date_to",
			"status",
			"created_at",
		).
		Values(
			job.JobUUID,
			job.UserID,
			job.ChatID,
			job.MessageID,
			job.HostID,
			job.HostURL,
			job.Kind,
			job.Format,
			job.DeviceType,
			job.DateFrom,
			job.DateTo,
			job.Status,
			job.CreatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&job.ID); err != nil {
		return 0, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return job.ID, nil
}

// GetByID получает задачу по ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.ExportJob, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.builder.Select(exportColumns...).
		From("exports").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	job, err := scanExport(executor.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrExportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan export: %v", ErrScanRow, err)
	}

	return job, nil
}

// ListPending задачи, ожидающие обработки, в порядке создания
func (r *Repository) ListPending(ctx context.Context, limit int) ([]*domain.ExportJob, error) {
	builder := r.builder.Select(exportColumns...).
		From("exports").
		Where(squirrel.Eq{"status": domain.ExportStatusPending}).
		OrderBy("created_at ASC", "id ASC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	return r.list(ctx, "ListPending", builder)
}

// ListByUser последние задачи пользователя
func (r *Repository) ListByUser(ctx context.Context, userID int64, limit int) ([]*domain.ExportJob, error) {
	builder := r.builder.Select(exportColumns...).
		From("exports").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	return r.list(ctx, "ListByUser", builder)
}

// ListFinishedBefore завершённые до before задачи, у которых ещё есть файл
func (r *Repository) ListFinishedBefore(ctx context.Context, before time.Time) ([]*domain.ExportJob, error) {
	builder := r.builder.Select(exportColumns...).
		From("exports").
		Where(squirrel.Eq{"status": []domain.ExportStatus{domain.ExportStatusCompleted, domain.ExportStatusFailed}}).
		Where(squirrel.NotEq{"file_path": nil}).
		Where(squirrel.Lt{"completed_at": before.UTC().Truncate(time.Second)}).
		OrderBy("completed_at ASC")

	return r.list(ctx, "ListFinishedBefore", builder)
}

// ClaimPending переводит задачу из pending в processing
// false означает, что задачу уже забрали или отменили
func (r *Repository) ClaimPending(ctx context.Context, id int64) (bool, error) {
	query, args, err := r.builder.Update("exports").
		Set("status", domain.ExportStatusProcessing).
		Where(squirrel.Eq{"id": id, "status": domain.ExportStatusPending}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%w: ClaimPending - build update query: %v", ErrBuildQuery, err)
	}

	affected, err := r.exec(ctx, "ClaimPending", query, args)
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

// MarkCompleted помечает задачу выполненной
func (r *Repository) MarkCompleted(ctx context.Context, id int64, rows int64, filePath string, fileSize int64) error {
	query, args, err := r.builder.Update("exports").
		Set("status", domain.ExportStatusCompleted).
		Set("rows_exported", rows).
		Set("file_path", ptr.ToNull(ptr.NonZero(filePath))).
		Set("file_size", fileSize).
		Set("completed_at", r.timestamp()).
		Set("error_message", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkCompleted - build update query: %v", ErrBuildQuery, err)
	}

	affected, err := r.exec(ctx, "MarkCompleted", query, args)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrExportNotFound
	}

	return nil
}

// MarkFailed помечает задачу неудачной; текст ошибки обрезается до MaxErrorMessageLen символов
// filePath сохраняется, если частичный файл остался на диске
func (r *Repository) MarkFailed(ctx context.Context, id int64, errorMsg string, rows int64, filePath string) error {
	query, args, err := r.builder.Update("exports").
		Set("status", domain.ExportStatusFailed).
		Set("rows_exported", rows).
		Set("file_path", ptr.ToNull(ptr.NonZero(filePath))).
		Set("completed_at", r.timestamp()).
		Set("error_message", Truncate(errorMsg, MaxErrorMessageLen)).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: MarkFailed - build update query: %v", ErrBuildQuery, err)
	}

	affected, err := r.exec(ctx, "MarkFailed", query, args)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrExportNotFound
	}

	return nil
}

// FailInterrupted помечает failed все задачи, оставшиеся в processing после остановки процесса
func (r *Repository) FailInterrupted(ctx context.Context, reason string) (int64, error) {
	query, args, err := r.builder.Update("exports").
		Set("status", domain.ExportStatusFailed).
		Set("completed_at", r.timestamp()).
		Set("error_message", Truncate(reason, MaxErrorMessageLen)).
		Where(squirrel.Eq{"status": domain.ExportStatusProcessing}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%w: FailInterrupted - build update query: %v", ErrBuildQuery, err)
	}

	return r.exec(ctx, "FailInterrupted", query, args)
}

// ClearFile убирает ссылку на удалённый файл
func (r *Repository) ClearFile(ctx context.Context, id int64) error {
	query, args, err := r.builder.Update("exports").
		Set("file_path", nil).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: ClearFile - build update query: %v", ErrBuildQuery, err)
	}

	_, err = r.exec(ctx, "ClearFile", query, args)
	return err
}

// StatsByUser агрегированная статистика выгрузок пользователя
func (r *Repository) StatsByUser(ctx context.Context, userID int64) (*domain.ExportStats, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.builder.Select(
		"export_type",
		"status",
		"COUNT(*)",
		"COALESCE(SUM(rows_exported), 0)",
		"COALESCE(SUM(file_size), 0)",
	).
		From("exports").
		Where(squirrel.Eq{"user_id": userID}).
		GroupBy("export_type", "status").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: StatsByUser - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: StatsByUser - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	stats := &domain.ExportStats{ByKind: make(map[domain.ExportKind]int64)}
	for rows.Next() {
		var (
			kind         domain.ExportKind
			status       domain.ExportStatus
			count        int64
			rowsExported int64
			bytes        int64
		)
		if err := rows.Scan(&kind, &status, &count, &rowsExported, &bytes); err != nil {
			return nil, fmt.Errorf("%w: StatsByUser - scan row: %v", ErrScanRow, err)
		}

		stats.Total += count
		stats.ByKind[kind] += count
		switch status {
		case domain.ExportStatusCompleted:
			stats.Completed += count
			stats.Rows += rowsExported
			stats.Bytes += bytes
		case domain.ExportStatusFailed:
			stats.Failed += count
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: StatsByUser - rows error: %v", ErrScanRow, err)
	}

	recent, err := r.ListByUser(ctx, userID, 1)
	if err != nil {
		return nil, err
	}
	if len(recent) > 0 {
		stats.LastAt = ptr.Ptr(recent[0].CreatedAt)
	}

	return stats, nil
}

func (r *Repository) list(ctx context.Context, method string, builder squirrel.SelectBuilder) ([]*domain.ExportJob, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %s - build select query: %v", ErrBuildQuery, method, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s - execute query: %v", ErrExecQuery, method, err)
	}
	defer rows.Close()

	jobs := make([]*domain.ExportJob, 0)
	for rows.Next() {
		job, err := scanExport(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %s - scan row: %v", ErrScanRow, method, err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s - rows error: %v", ErrScanRow, method, err)
	}

	return jobs, nil
}

func (r *Repository) exec(ctx context.Context, method, query string, args []interface{}) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, method, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, method, err)
	}

	return affected, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExport(row rowScanner) (*domain.ExportJob, error) {
	var (
		job          domain.ExportJob
		filePath     sql.Null[string]
		fileSize     sql.Null[int64]
		createdAt    sql.NullTime
		completedAt  sql.Null[time.Time]
		errorMessage sql.Null[string]
	)

	err := row.Scan(
		&job.ID,
		&job.JobUUID,
		&job.UserID,
		&job.ChatID,
		&job.MessageID,
		&job.HostID,
		&job.HostURL,
		&job.Kind,
		&job.Format,
		&job.DeviceType,
		&job.DateFrom,
		&job.DateTo,
		&job.Status,
		&job.RowsExported,
		&filePath,
		&fileSize,
		&createdAt,
		&completedAt,
		&errorMessage,
	)
	if err != nil {
		return nil, err
	}

	job.FilePath = ptr.FromNull(filePath)
	job.FileSize = ptr.FromNull(fileSize)
	job.CreatedAt = createdAt.Time
	job.CompletedAt = ptr.FromNull(completedAt)
	job.ErrorMessage = ptr.FromNull(errorMessage)

	return &job, nil
}

// Truncate обрезает строку до n символов
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Totals общее число задач, успешных и созданных начиная с since
func (r *Repository) Totals(ctx context.Context, since time.Time) (total, completed, recent int64, err error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := r.builder.Select("COUNT(*)").
		Column(squirrel.Expr("COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)", domain.ExportStatusCompleted)).
		Column(squirrel.Expr("COALESCE(SUM(CASE WHEN created_at >= ? THEN 1 ELSE 0 END), 0)", since.UTC().Truncate(time.Second))).
		From("exports").
		ToSql()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: Totals - build select query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&total, &completed, &recent); err != nil {
		return 0, 0, 0, fmt.Errorf("%w: Totals - scan row: %v", ErrScanRow, err)
	}

	return total, completed, recent, nil
}
