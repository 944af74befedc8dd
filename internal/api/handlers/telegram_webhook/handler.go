package telegram_webhook

import (
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/FrankX3M/wordstat-api/internal/api/handlers"
)

const msgInvalidRequestBody = "неверный формат тела запроса"

type Handler struct {
	updates UpdateHandler
	logger  Logger
}

func NewHandler(updates UpdateHandler, logger Logger) *Handler {
	return &Handler{
		updates: updates,
		logger:  logger,
	}
}

// Handle принимает update от Telegram
// Ошибка обработки не возвращается Telegram кодом 5xx, иначе тот же update придёт повторно
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := handlers.DecodeJSON(r, &update); err != nil {
		h.logger.Warn("Failed to decode telegram webhook: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	if err := h.updates.HandleUpdate(r.Context(), update); err != nil {
		h.logger.Error("Failed to handle update %d: %v", update.UpdateID, err)
	}

	w.WriteHeader(http.StatusOK)
}
