package fetcher

import (
	"context"
	"net/url"

	"github.com/FrankX3M/wordstat-api/internal/domain"
	"github.com/FrankX3M/wordstat-api/internal/integrations/webmaster"
)

// QueryClient клиент Webmaster API
type QueryClient interface {
	Send(ctx context.Context, method, path string, params url.Values) (*webmaster.Response, error)
}

// CheckpointStore хранилище курсора выгрузки
type CheckpointStore interface {
	// Load возвращает сохранённый курсор; false если его нет
	Load() (domain.FetchCursor, bool)
	Save(cursor domain.FetchCursor) error
}

// Logger интерфейс для логирования
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Observer получатель метрик выгрузки
type Observer interface {
	ObservePage(records int)
	ObserveDroppedIndicator(indicator string)
	ObserveCoercionFailures(n int)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type nopObserver struct{}

func (nopObserver) ObservePage(int)                {}
func (nopObserver) ObserveDroppedIndicator(string) {}
func (nopObserver) ObserveCoercionFailures(int)    {}
