// Package record decodes uploaded files into numbered records.
//
// A Source yields one Record per call to Next. Malformed records are reported
// as *FormatError and the source stays usable, so callers can keep reading
// until io.EOF. Any other error means the underlying stream failed and the
// source should be closed.
package record

import (
	"fmt"
	"sort"
	"strings"
)

// Record is one decoded unit of an upload.
type Record struct {
	Number int               // 1-based record number
	Fields map[string]string // field name -> decoded value
	Raw    string            // undecoded record text, for diagnostics
}

// Get returns the value of a field, or "" if absent.
func (r Record) Get(name string) string {
	return r.Fields[name]
}

func (r Record) String() string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%q", k, r.Fields[k])
	}
	b.WriteString("}")
	return b.String()
}

// FormatError reports a record that could not be decoded with the layout.
type FormatError struct {
	RecordNumber int
	Field        string // empty when the whole record is malformed
	Message      string
}

func (e *FormatError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("record %d: field %q: %s", e.RecordNumber, e.Field, e.Message)
	}
	return fmt.Sprintf("record %d: %s", e.RecordNumber, e.Message)
}

// Source produces records from an upload.
type Source interface {
	// Next returns the next record. It returns io.EOF when the input is
	// exhausted and *FormatError for a record that could not be decoded.
	Next() (Record, error)

	// Close releases the underlying stream. Calling it more than once is safe.
	Close() error
}
