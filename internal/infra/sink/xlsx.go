package sink

import (
	"fmt"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	xlsxSheet       = "Export"
	xlsxMaxColWidth = 50
	// ограничение Excel на длину текста в ячейке
	xlsxMaxCellChars = 32767
)

// XLSXWriter пишет строки на лист Excel; файл сохраняется при Close
type XLSXWriter struct {
	path    string
	file    *excelize.File
	nextRow int
	widths  []int
	rows    int
}

func NewXLSX(path string) (*XLSXWriter, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %v", ErrOpenSink, err)
	}

	return &XLSXWriter{path: path, file: f, nextRow: 1}, nil
}

func (w *XLSXWriter) Write(rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	if w.nextRow == 1 {
		if err := w.writeHeader(rows[0].Columns()); err != nil {
			return err
		}
	}

	for _, row := range rows {
		values := row.Values()
		if err := w.writeRow(values); err != nil {
			return err
		}
	}

	w.rows += len(rows)
	return nil
}

func (w *XLSXWriter) Rows() int {
	return w.rows
}

func (w *XLSXWriter) Close() error {
	defer w.file.Close()

	if w.nextRow > 1 {
		if err := w.file.SetPanes(xlsxSheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return fmt.Errorf("%w: panes: %v", ErrCloseSink, err)
		}
	}

	for i, width := range w.widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCloseSink, err)
		}
		if err := w.file.SetColWidth(xlsxSheet, col, col, float64(min(width+2, xlsxMaxColWidth))); err != nil {
			return fmt.Errorf("%w: width: %v", ErrCloseSink, err)
		}
	}

	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("%w: %v", ErrCloseSink, err)
	}
	return nil
}

func (w *XLSXWriter) writeHeader(columns []string) error {
	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := w.writeRow(header); err != nil {
		return err
	}

	style, err := w.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"366092"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("%w: header style: %v", ErrWriteSink, err)
	}

	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteSink, err)
	}
	if err := w.file.SetCellStyle(xlsxSheet, "A1", last, style); err != nil {
		return fmt.Errorf("%w: header style: %v", ErrWriteSink, err)
	}

	return nil
}

func (w *XLSXWriter) writeRow(values []any) error {
	for i, v := range values {
		if s, ok := v.(string); ok && utf8.RuneCountInString(s) > xlsxMaxCellChars {
			values[i] = string([]rune(s)[:xlsxMaxCellChars])
		}
	}

	cell, err := excelize.CoordinatesToCellName(1, w.nextRow)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteSink, err)
	}

	if err := w.file.SetSheetRow(xlsxSheet, cell, &values); err != nil {
		return fmt.Errorf("%w: row %d: %v", ErrWriteSink, w.nextRow, err)
	}

	for i, v := range values {
		if i >= len(w.widths) {
			w.widths = append(w.widths, 0)
		}
		if n := utf8.RuneCountInString(formatCell(v)); n > w.widths[i] {
			w.widths[i] = n
		}
	}

	w.nextRow++
	return nil
}
