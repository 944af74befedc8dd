package domain

import (
	"errors"
	"time"
)

// ErrCursorRegression попытка сдвинуть курсор назад
var ErrCursorRegression = errors.New("domain: cursor must not move backwards")

// FetchCursor сохранённый прогресс выгрузки
type FetchCursor struct {
	Offset       int       `json:"offset"`
	TotalFetched int       `json:"total_fetched"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Advance возвращает курсор после обработки батча из batchSize записей
// nextOffset задаёт смещение следующего запроса; значения меньше offset+batchSize игнорируются
func (c FetchCursor) Advance(batchSize, nextOffset int, now time.Time) (FetchCursor, error) {
	if batchSize < 0 {
		return c, ErrCursorRegression
	}

	offset := c.Offset + batchSize
	if nextOffset > offset {
		offset = nextOffset
	}

	return FetchCursor{
		Offset:       offset,
		TotalFetched: c.TotalFetched + batchSize,
		UpdatedAt:    now,
	}, nil
}
