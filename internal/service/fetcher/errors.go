package fetcher

import "errors"

var (
	// ErrCancelled выгрузка остановлена по запросу
	ErrCancelled = errors.New("fetcher: cancelled")
	// ErrPageFailed все под-запросы страницы завершились ошибкой
	ErrPageFailed = errors.New("fetcher: all indicator requests failed")
	// ErrFatal неисправимая ошибка API
	ErrFatal       = errors.New("fetcher: fatal api error")
	ErrConsumer    = errors.New("fetcher: consumer failed")
	ErrCheckpoint  = errors.New("fetcher: failed to save checkpoint")
	ErrInvalidConf = errors.New("fetcher: invalid config")

	errStopIteration = errors.New("fetcher: iteration stopped")
)
