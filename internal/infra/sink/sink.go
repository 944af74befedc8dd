package sink

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/FrankX3M/wordstat-api/internal/domain"
)

var (
	// ErrOpenSink ошибка открытия файла выгрузки
	ErrOpenSink = errors.New("sink: failed to open")

	// ErrWriteSink ошибка записи строк
	ErrWriteSink = errors.New("sink: failed to write")

	// ErrCloseSink ошибка финализации файла
	ErrCloseSink = errors.New("sink: failed to close")

	// ErrUnsupportedFormat формат не поддерживается
	ErrUnsupportedFormat = errors.New("sink: unsupported format")
)

// Row плоская строка таблицы
type Row interface {
	Columns() []string
	Values() []any
}

// Writer приёмник строк выгрузки
type Writer interface {
	Write(rows []Row) error
	Close() error
	// Rows количество строк, записанных через этот Writer
	Rows() int
}

// Options параметры открытия
type Options struct {
	// Append дописывать в существующий файл (только csv)
	Append bool
	// BOM писать UTF-8 BOM в начало нового csv файла (для Excel)
	BOM bool
	// Now время формирования выгрузки для json
	Now func() time.Time
}

// Open открывает приёмник для формата
func Open(format domain.ExportFormat, path string, opts Options) (Writer, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	switch format {
	case domain.FormatCSV:
		return NewCSV(path, opts)
	case domain.FormatJSON:
		return NewJSON(path, opts), nil
	case domain.FormatXLSX:
		return NewXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// SupportsAppend можно ли дописывать в файл формата
func SupportsAppend(format domain.ExportFormat) bool {
	return format == domain.FormatCSV
}

// Rows приводит срез конкретных строк к []Row
func Rows[T Row](items []T) []Row {
	rows := make([]Row, len(items))
	for i, item := range items {
		rows[i] = item
	}
	return rows
}

// formatCell строковое представление значения ячейки
func formatCell(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case int64:
		return strconv.FormatInt(typed, 10)
	case int:
		return strconv.Itoa(typed)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(typed)
	}
}
