package worker

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// PollingHandler обрабатывает входящие обновления от Telegram в режиме long polling
type PollingHandler struct {
	handler UpdateHandler
	logger  Logger
}

// NewPollingHandler создаёт новый обработчик для long polling
func NewPollingHandler(handler UpdateHandler, logger Logger) *PollingHandler {
	return &PollingHandler{
		handler: handler,
		logger:  logger,
	}
}

// Start запускает обработку обновлений из канала
// Блокирующий метод, должен вызываться в отдельной goroutine
func (h *PollingHandler) Start(ctx context.Context, updatesChan tgbotapi.UpdatesChannel) {
	h.logger.Info("Starting Telegram long polling handler...")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("Stopping Telegram long polling handler...")
			return

		case update, ok := <-updatesChan:
			if !ok {
				h.logger.Warn("Telegram updates channel closed")
				return
			}
			h.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate обрабатывает одно обновление; ошибка только логируется, цикл продолжается
func (h *PollingHandler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if err := h.handler.HandleUpdate(ctx, update); err != nil {
		h.logger.Error("Failed to handle update %d: %v", update.UpdateID, err)
	}
}
