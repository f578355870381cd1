package record

import (
	"fmt"
	"io"
)

// NewSource returns the Source matching the layout's format. size is the
// total byte size of r if known, 0 otherwise.
func NewSource(r io.Reader, size int64, layout *Layout) (Source, error) {
	switch layout.Format {
	case FormatFixed:
		return newFixedSource(r, size, layout)
	case FormatCSV:
		return NewCSVSource(r, size, layout)
	case FormatXLSX:
		return NewXLSXSource(r, layout)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", ErrInvalidLayout, layout.Format)
	}
}

// ProgressReporter is implemented by sources that know how much of their
// input has been consumed. Progress returns a percentage in 0-100 and stays 0
// when the input size is unknown.
type ProgressReporter interface {
	Progress() int
}
