package record

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

// FixedSource decodes fixed-length records. Records are delimited by the
// layout's separator; within a record each field occupies Width bytes.
type FixedSource struct {
	layout  *Layout
	closer  io.Closer
	scanner *bufio.Scanner
	counter *CountingReader
	number  int
	closed  bool
}

// NewFixedSource reads fixed-length records from r. If r is an io.Closer it
// is closed by Close.
func NewFixedSource(r io.Reader, layout *Layout) (*FixedSource, error) {
	return newFixedSource(r, 0, layout)
}

func newFixedSource(r io.Reader, size int64, layout *Layout) (*FixedSource, error) {
	if layout.Format != FormatFixed {
		return nil, fmt.Errorf("%w: fixed source needs a fixed layout, got %q", ErrInvalidLayout, layout.Format)
	}

	s := &FixedSource{layout: layout, counter: Wrap(r, size)}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}

	s.scanner = bufio.NewScanner(s.counter)
	s.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	s.scanner.Split(splitOn([]byte(layout.Separator)))
	return s, nil
}

// Next implements Source. Blank records are skipped but still consume a
// record number, so numbers always match positions in the file.
func (s *FixedSource) Next() (Record, error) {
	for s.scanner.Scan() {
		s.number++
		raw := strings.TrimRight(s.scanner.Text(), "\r")
		if isBlank(raw) {
			continue
		}
		values, err := s.split(raw)
		if err != nil {
			return Record{}, err
		}
		return s.layout.decode(s.number, values, raw)
	}
	if err := s.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("read record %d: %w", s.number+1, err)
	}
	return Record{}, io.EOF
}

func (s *FixedSource) split(raw string) ([]string, error) {
	values := make([]string, 0, len(s.layout.Fields))
	pos := 0
	for _, f := range s.layout.Fields {
		if f.Width == 0 {
			values = append(values, raw[min(pos, len(raw)):])
			pos = len(raw)
			continue
		}
		end := pos + f.Width
		if end > len(raw) {
			return nil, &FormatError{
				RecordNumber: s.number,
				Field:        f.Name,
				Message:      fmt.Sprintf("record is %d bytes, field needs bytes %d-%d", len(raw), pos+1, end),
			}
		}
		values = append(values, raw[pos:end])
		pos = end
	}
	if pos != len(raw) {
		return nil, &FormatError{
			RecordNumber: s.number,
			Message:      fmt.Sprintf("record is %d bytes, layout expects %d", len(raw), pos),
		}
	}
	return values, nil
}

// Progress implements ProgressReporter.
func (s *FixedSource) Progress() int {
	return s.counter.Progress()
}

// Close implements Source.
func (s *FixedSource) Close() error {
	if s.closed || s.closer == nil {
		s.closed = true
		return nil
	}
	s.closed = true
	return s.closer.Close()
}

// splitOn returns a bufio.SplitFunc that splits on sep and drops it.
func splitOn(sep []byte) bufio.SplitFunc {
	return func(data []byte, atEOF bool) (int, []byte, error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		if i := bytes.Index(data, sep); i >= 0 {
			return i + len(sep), data[:i], nil
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}
