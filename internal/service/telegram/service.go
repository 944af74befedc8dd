package telegram

import (
	"fmt"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

// MaxDocumentSize лимит Bot API на загрузку документа
const MaxDocumentSize = 50 << 20

const errNotModified = "message is not modified"

// Service сервис для отправки сообщений через Telegram Bot API
type Service struct {
	bot BotAPI
}

// NewService создает новый экземпляр Telegram сервиса
func NewService(bot BotAPI) *Service {
	return &Service{
		bot: bot,
	}
}

// SendMessage отправляет новое сообщение или редактирует msg.MessageID
// Возвращает ID сообщения в чате
func (s *Service) SendMessage(msg *domain.TelegramMessage) (int, error) {
	if msg.ChatID == 0 {
		return 0, ErrInvalidChatID
	}

	if msg.MessageText == "" {
		return 0, ErrEmptyMessage
	}

	if msg.MessageID != 0 {
		return msg.MessageID, s.editMessage(msg)
	}

	return s.sendTextMessage(msg)
}

// sendTextMessage отправляет текстовое сообщение
func (s *Service) sendTextMessage(msg *domain.TelegramMessage) (int, error) {
	tgMsg := tgbotapi.NewMessage(msg.ChatID, msg.MessageText)
	tgMsg.ParseMode = msg.ParseMode
	tgMsg.DisableWebPagePreview = true

	switch {
	case msg.HasInline():
		tgMsg.ReplyMarkup = buildInlineKeyboard(msg.InlineKeyboard)
	case msg.HasReply():
		tgMsg.ReplyMarkup = buildReplyKeyboard(msg.ReplyKeyboard)
	}

	sent, err := s.bot.Send(tgMsg)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrSendMessage, err)
	}

	return sent.MessageID, nil
}

// editMessage заменяет текст и inline-кнопки существующего сообщения
// Повторная установка того же текста ошибкой не считается
func (s *Service) editMessage(msg *domain.TelegramMessage) error {
	edit := tgbotapi.NewEditMessageText(msg.ChatID, msg.MessageID, msg.MessageText)
	edit.ParseMode = msg.ParseMode
	edit.DisableWebPagePreview = true
	if msg.HasInline() {
		markup := buildInlineKeyboard(msg.InlineKeyboard)
		edit.ReplyMarkup = &markup
	}

	if _, err := s.bot.Send(edit); err != nil {
		if strings.Contains(err.Error(), errNotModified) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrEditMessage, err)
	}

	return nil
}

// SendDocument отправляет файл с подписью
func (s *Service) SendDocument(chatID int64, path, caption string) error {
	if chatID == 0 {
		return ErrInvalidChatID
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSendDocument, err)
	}
	if info.Size() > MaxDocumentSize {
		return fmt.Errorf("%w: %d bytes", ErrFileTooLarge, info.Size())
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	doc.ParseMode = domain.ParseModeHTML

	if _, err := s.bot.Send(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSendDocument, err)
	}

	return nil
}

// AnswerCallback подтверждает нажатие inline-кнопки; непустой text показывается всплывающей подсказкой
func (s *Service) AnswerCallback(callbackID, text string) error {
	if _, err := s.bot.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return fmt.Errorf("%w: %v", ErrAnswerCallback, err)
	}
	return nil
}

func (s *Service) DeleteMessage(chatID int64, messageID int) error {
	if _, err := s.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteMessage, err)
	}
	return nil
}

// buildInlineKeyboard создает inline-клавиатуру с callback data
func buildInlineKeyboard(rows [][]domain.InlineButton) tgbotapi.InlineKeyboardMarkup {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))

	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
		}
		keyboard = append(keyboard, buttons)
	}

	return tgbotapi.NewInlineKeyboardMarkup(keyboard...)
}

func buildReplyKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	keyboard := make([][]tgbotapi.KeyboardButton, 0, len(rows))

	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, text := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(text))
		}
		keyboard = append(keyboard, buttons)
	}

	markup := tgbotapi.NewReplyKeyboard(keyboard...)
	markup.ResizeKeyboard = true
	return markup
}

// SetWebhook устанавливает webhook URL для получения обновлений от Telegram
func (s *Service) SetWebhook(webhookURL string) error {
	webhook, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("%w: failed to create webhook config: %v", ErrSetWebhook, err)
	}

	_, err = s.bot.Request(webhook)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSetWebhook, err)
	}

	return nil
}

// DeleteWebhook удаляет webhook (переключает на long polling)
func (s *Service) DeleteWebhook() error {
	deleteWebhook := tgbotapi.DeleteWebhookConfig{
		DropPendingUpdates: false, // Сохраняем необработанные сообщения
	}

	_, err := s.bot.Request(deleteWebhook)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteWebhook, err)
	}

	return nil
}

// GetUpdatesChan возвращает канал для получения обновлений в режиме long polling
func (s *Service) GetUpdatesChan(offset int) tgbotapi.UpdatesChannel {
	updateConfig := tgbotapi.NewUpdate(offset)
	updateConfig.Timeout = 60 // Long polling timeout
	updateConfig.AllowedUpdates = []string{"message", "callback_query"}

	return s.bot.GetUpdatesChan(updateConfig)
}
