package start_message

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/internal/service/telegram/templates"
)

// UseCase обрабатывает команду /start
type UseCase struct {
	telegramService TelegramService
	users           UserRepository
}

// New создаёт новый use case для обработки /start
func New(telegramService TelegramService, users UserRepository) *UseCase {
	return &UseCase{
		telegramService: telegramService,
		users:           users,
	}
}

// Execute отправляет приветствие с основным меню и регистрирует пользователя
// Возвращает ошибку с полным контекстом для логирования на уровне выше
func (uc *UseCase) Execute(ctx context.Context, from *tgbotapi.User, chatID int64) error {
	firstName := ""
	if from != nil {
		firstName = from.FirstName
	}

	msg := domain.NewHTMLMessage(chatID, templates.WelcomeText(firstName)).WithReply(templates.MainMenu...)
	if _, err := uc.telegramService.SendMessage(msg); err != nil {
		return fmt.Errorf("usecase.StartMessage: send welcome message to chat %d: %w", chatID, err)
	}

	if from == nil {
		return nil
	}

	if err := uc.users.Upsert(ctx, UserFrom(from)); err != nil {
		return fmt.Errorf("usecase.StartMessage: register user %d: %w", from.ID, err)
	}

	return nil
}

// UserFrom пользователь бота из данных Telegram
func UserFrom(from *tgbotapi.User) *domain.User {
	name := strings.TrimSpace(from.FirstName + " " + from.LastName)
	return &domain.User{
		ID:       from.ID,
		Username: from.UserName,
		FullName: name,
	}
}
