package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// BotAPI часть tgbotapi.BotAPI, нужная боту выгрузок; в тестах подменяется fakeBot
type BotAPI interface {
	// Send новые сообщения, правка прогресса выгрузки и отправка файла
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)

	// Request ответы на callback кнопок мастера, удаление сообщений и настройка webhook
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)

	// GetUpdatesChan обновления для режима long polling
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}
