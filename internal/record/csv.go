package record

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// CSVSource decodes delimited records with encoding/csv.
type CSVSource struct {
	layout  *Layout
	closer  io.Closer
	counter *CountingReader
	reader  *csv.Reader
	number  int
	started bool
	closed  bool
}

// NewCSVSource reads delimited records from r. size is the total byte size if
// known (0 otherwise) and only feeds progress reporting.
func NewCSVSource(r io.Reader, size int64, layout *Layout) (*CSVSource, error) {
	if layout.Format != FormatCSV {
		return nil, fmt.Errorf("%w: csv source needs a csv layout, got %q", ErrInvalidLayout, layout.Format)
	}

	s := &CSVSource{layout: layout, counter: Wrap(r, size)}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}

	s.reader = csv.NewReader(s.counter)
	s.reader.Comma = []rune(layout.Delimiter)[0]
	s.reader.FieldsPerRecord = -1
	s.reader.LazyQuotes = true
	s.reader.TrimLeadingSpace = true
	return s, nil
}

// Next implements Source.
func (s *CSVSource) Next() (Record, error) {
	if !s.started {
		s.started = true
		if s.layout.Header {
			if _, err := s.reader.Read(); err != nil {
				if errors.Is(err, io.EOF) {
					return Record{}, io.EOF
				}
				var perr *csv.ParseError
				if !errors.As(err, &perr) {
					return Record{}, fmt.Errorf("read header: %w", err)
				}
			}
		}
	}

	for {
		row, err := s.reader.Read()
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		s.number++

		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return Record{}, &FormatError{RecordNumber: s.number, Message: perr.Err.Error()}
		}
		if err != nil {
			return Record{}, fmt.Errorf("read record %d: %w", s.number, err)
		}
		if isEmptyRow(row) {
			continue
		}
		return s.layout.decode(s.number, row, strings.Join(row, s.layout.Delimiter))
	}
}

// Progress implements ProgressReporter.
func (s *CSVSource) Progress() int {
	return s.counter.Progress()
}

// Close implements Source.
func (s *CSVSource) Close() error {
	if s.closed || s.closer == nil {
		s.closed = true
		return nil
	}
	s.closed = true
	return s.closer.Close()
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if !isBlank(v) {
			return false
		}
	}
	return true
}
