package export

import (
	"context"
	"net/url"
	"time"

	"github.com/FrankX3M/wordstat-api/internal/integrations/webmaster"
)

// QueryClient клиент Webmaster API
type QueryClient interface {
	Send(ctx context.Context, method, path string, params url.Values) (*webmaster.Response, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Observer метрики выгрузки
type Observer interface {
	ObservePage(records int)
	ObserveDroppedIndicator(indicator string)
	ObserveCoercionFailures(n int)
	ObserveExport(kind, status string, duration time.Duration)
}

type nopObserver struct{}

func (nopObserver) ObservePage(int)                            {}
func (nopObserver) ObserveDroppedIndicator(string)             {}
func (nopObserver) ObserveCoercionFailures(int)                {}
func (nopObserver) ObserveExport(string, string, time.Duration) {}
