package health

import (
	"context"
	"net/http"
	"time"

	"github.com/FrankX3M/wordstat-api/internal/api/handlers"
)

const pingTimeout = 2 * time.Second

// Pinger проверка соединения с БД
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	db Pinger
}

// NewHandler db может быть nil, тогда проверяется только сам процесс
func NewHandler(db Pinger) *Handler {
	return &Handler{db: db}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	response := map[string]string{
		"status":   "healthy",
		"database": "ok",
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			response["status"] = "unhealthy"
			response["database"] = err.Error()
			handlers.RespondJSON(w, http.StatusServiceUnavailable, response)
			return
		}
	}

	handlers.RespondJSON(w, http.StatusOK, response)
}
