package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/internal/infra/storage/hostcache"
	"github.com/FrankX3M/wordstat-api/internal/usecase/request_export"
)

// Messenger интерфейс для отправки ответов в Telegram
type Messenger interface {
	// SendMessage отправляет новое сообщение или редактирует msg.MessageID, возвращает ID сообщения
	SendMessage(msg *domain.TelegramMessage) (int, error)
	AnswerCallback(callbackID, text string) error
	DeleteMessage(chatID int64, messageID int) error
}

// WebmasterAPI методы Вебмастера, нужные меню
type WebmasterAPI interface {
	ListHosts(ctx context.Context, userID string) ([]domain.Host, error)
	GetHost(ctx context.Context, userID, hostID string) (*domain.Host, error)
	GetHostSummary(ctx context.Context, userID, hostID string) (*domain.HostSummary, error)
}

// AccountResolver user_id владельца токена
type AccountResolver interface {
	UserID(ctx context.Context) (string, error)
	Reset()
}

// HostCache кэш карточек сайтов
type HostCache interface {
	Get(ctx context.Context, userID int64, hostID string) (*hostcache.Entry, error)
	Put(ctx context.Context, userID int64, host domain.Host, summary *domain.HostSummary, ttl time.Duration) error
	Invalidate(ctx context.Context, userID int64, hostID string) error
}

// UserRepository интерфейс для работы с пользователями бота
type UserRepository interface {
	Upsert(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	Counts(ctx context.Context, activeSince time.Time) (total, active int64, err error)
}

// ExportRepository статистика выгрузок
type ExportRepository interface {
	StatsByUser(ctx context.Context, userID int64) (*domain.ExportStats, error)
	Totals(ctx context.Context, since time.Time) (total, completed, recent int64, err error)
}

// StartMessageUseCase интерфейс для обработки команды /start
type StartMessageUseCase interface {
	Execute(ctx context.Context, from *tgbotapi.User, chatID int64) error
}

// RequestExportUseCase интерфейс для постановки выгрузки в очередь
type RequestExportUseCase interface {
	Execute(ctx context.Context, in request_export.Input) (*domain.ExportJob, error)
}

// ExportCanceller останавливает выполняющуюся выгрузку
type ExportCanceller interface {
	Cancel(jobID int64) bool
}

// Pinger проверка соединения с БД для /diagnose
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Logger интерфейс для логирования
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
