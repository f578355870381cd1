package record

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXSource decodes rows of one worksheet.
type XLSXSource struct {
	layout *Layout
	file   *excelize.File
	rows   *excelize.Rows
	closer io.Closer
	number int
	closed bool
}

// NewXLSXSource opens the workbook in r and positions on the layout's sheet
// (or the first sheet).
func NewXLSXSource(r io.Reader, layout *Layout) (*XLSXSource, error) {
	if layout.Format != FormatXLSX {
		return nil, fmt.Errorf("%w: xlsx source needs an xlsx layout, got %q", ErrInvalidLayout, layout.Format)
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	sheet := layout.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open sheet %q: %w", sheet, err)
	}

	s := &XLSXSource{layout: layout, file: f, rows: rows}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	if layout.Header && rows.Next() {
		if _, err := rows.Columns(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("read header: %w", err)
		}
	}
	return s, nil
}

// Next implements Source.
func (s *XLSXSource) Next() (Record, error) {
	for s.rows.Next() {
		s.number++
		cols, err := s.rows.Columns()
		if err != nil {
			return Record{}, &FormatError{RecordNumber: s.number, Message: err.Error()}
		}
		if isEmptyRow(cols) {
			continue
		}
		// excelize drops trailing empty cells
		for len(cols) < len(s.layout.Fields) {
			cols = append(cols, "")
		}
		return s.layout.decode(s.number, cols, strings.Join(cols, "\t"))
	}
	if err := s.rows.Error(); err != nil {
		return Record{}, fmt.Errorf("read row %d: %w", s.number+1, err)
	}
	return Record{}, io.EOF
}

// Close implements Source.
func (s *XLSXSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	if err := s.rows.Close(); err != nil {
		firstErr = err
	}
	if err := s.file.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if s.closer != nil {
		if err := s.closer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
