package worker

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/internal/service/export"
	"github.com/FrankX3M/wordstat-api/internal/service/fetcher"
)

// ExportRepository интерфейс для работы с задачами выгрузки
type ExportRepository interface {
	// ListPending задачи в статусе pending в порядке создания
	ListPending(ctx context.Context, limit int) ([]*domain.ExportJob, error)

	// ClaimPending переводит задачу pending -> processing, false если её уже забрали
	ClaimPending(ctx context.Context, id int64) (bool, error)

	MarkCompleted(ctx context.Context, id int64, rows int64, filePath string, fileSize int64) error
	MarkFailed(ctx context.Context, id int64, errorMsg string, rows int64, filePath string) error

	// FailInterrupted помечает failed задачи, оставшиеся в processing после остановки
	FailInterrupted(ctx context.Context, reason string) (int64, error)

	// ListFinishedBefore завершённые задачи с файлом, созданные раньше before
	ListFinishedBefore(ctx context.Context, before time.Time) ([]*domain.ExportJob, error)
	ClearFile(ctx context.Context, id int64) error
}

// UserRepository счётчик выгрузок пользователя
type UserRepository interface {
	IncrementExports(ctx context.Context, id int64) error
}

// TxManager выполняет функцию в транзакции
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Exporter выполняет одну выгрузку в файл
type Exporter interface {
	Run(ctx context.Context, req export.Request, progress fetcher.ProgressFunc) (*export.Result, error)
}

// AccountResolver user_id владельца токена
type AccountResolver interface {
	UserID(ctx context.Context) (string, error)
}

// TelegramService интерфейс для отправки сообщений через Telegram Bot API
type TelegramService interface {
	// SendMessage отправляет новое сообщение или редактирует msg.MessageID
	SendMessage(msg *domain.TelegramMessage) (int, error)

	SendDocument(chatID int64, path, caption string) error
}

// UpdateHandler обработчик обновлений Telegram
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update) error
}

// HostCachePurger удаление просроченных карточек сайтов
type HostCachePurger interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// SessionPruner удаление неактивных сессий чатов
type SessionPruner interface {
	Prune(olderThan time.Duration) int
}

// Logger интерфейс для логирования
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
