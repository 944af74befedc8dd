package sink

import (
	"encoding/csv"
	"fmt"
	"os"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter пишет строки в csv; при дозаписи заголовок повторно не пишется
type CSVWriter struct {
	file        *os.File
	writer      *csv.Writer
	needsHeader bool
	rows        int
}

// NewCSV открывает csv файл; заголовок пишется, только если файл пустой
func NewCSV(path string, opts Options) (*CSVWriter, error) {
	flags := os.O_CREATE | os.O_WRONLY
	if opts.Append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOpenSink, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: stat: %v", ErrOpenSink, err)
	}

	empty := info.Size() == 0
	if empty && opts.BOM {
		if _, err := f.Write(utf8BOM); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: bom: %v", ErrOpenSink, err)
		}
	}

	return &CSVWriter{
		file:        f,
		writer:      csv.NewWriter(f),
		needsHeader: empty,
	}, nil
}

func (w *CSVWriter) Write(rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	if w.needsHeader {
		if err := w.writer.Write(rows[0].Columns()); err != nil {
			return fmt.Errorf("%w: header: %v", ErrWriteSink, err)
		}
		w.needsHeader = false
	}

	for _, row := range rows {
		values := row.Values()
		record := make([]string, len(values))
		for i, v := range values {
			record[i] = formatCell(v)
		}
		if err := w.writer.Write(record); err != nil {
			return fmt.Errorf("%w: %v", ErrWriteSink, err)
		}
	}

	w.writer.Flush()
	if err := w.writer.Error(); err != nil {
		return fmt.Errorf("%w: flush: %v", ErrWriteSink, err)
	}

	w.rows += len(rows)
	return nil
}

func (w *CSVWriter) Rows() int {
	return w.rows
}

func (w *CSVWriter) Close() error {
	w.writer.Flush()
	flushErr := w.writer.Error()

	if err := w.file.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrCloseSink, err)
	}
	if flushErr != nil {
		return fmt.Errorf("%w: flush: %v", ErrCloseSink, flushErr)
	}
	return nil
}
