package sink

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// JSONWriter копит строки и при Close пишет {"export_date", "total_records", "data"}
// Ключи строк идут в порядке колонок
type JSONWriter struct {
	path string
	now  func() time.Time
	data []json.RawMessage
}

func NewJSON(path string, opts Options) *JSONWriter {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &JSONWriter{path: path, now: now}
}

func (w *JSONWriter) Write(rows []Row) error {
	for _, row := range rows {
		raw, err := marshalRow(row)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWriteSink, err)
		}
		w.data = append(w.data, raw)
	}
	return nil
}

func (w *JSONWriter) Rows() int {
	return len(w.data)
}

func (w *JSONWriter) Close() error {
	doc := struct {
		ExportDate   string            `json:"export_date"`
		TotalRecords int               `json:"total_records"`
		Data         []json.RawMessage `json:"data"`
	}{
		ExportDate:   w.now().Format(time.RFC3339),
		TotalRecords: len(w.data),
		Data:         w.data,
	}
	if doc.Data == nil {
		doc.Data = []json.RawMessage{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrCloseSink, err)
	}

	if err := os.WriteFile(w.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrCloseSink, err)
	}
	return nil
}

func marshalRow(row Row) (json.RawMessage, error) {
	columns := row.Columns()
	values := row.Values()

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		var value any
		if i < len(values) {
			value = values[i]
		}
		val, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}
