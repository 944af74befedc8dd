package start_message

import (
	"context"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

// TelegramService интерфейс для работы с Telegram Bot API
type TelegramService interface {
	SendMessage(msg *domain.TelegramMessage) (int, error)
}

// UserRepository интерфейс для регистрации пользователей бота
type UserRepository interface {
	Upsert(ctx context.Context, u *domain.User) error
}
