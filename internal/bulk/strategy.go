package bulk

import (
	"github.com/JonMunkholm/bulkload/internal/message"
	"github.com/JonMunkholm/bulkload/internal/record"
)

// Outcome is the result of validating one record: either Object is set and
// Messages is empty, or Messages explains why the record was rejected.
type Outcome[T any] struct {
	Object       T
	Messages     []message.Message
	RecordNumber int
	Target       string
	Profile      string
}

// Valid reports whether the record converted cleanly.
func (o Outcome[T]) Valid() bool {
	return len(o.Messages) == 0
}

// Strategy decides how records are validated and how failures are reported.
type Strategy[T any] interface {
	// ValidateRecord converts one record. Ordinary validation failures are
	// returned in the outcome, never as a panic.
	ValidateRecord(rec record.Record) Outcome[T]

	// HandleInvalidRecord turns a failed outcome into the messages stored
	// for the record.
	HandleInvalidRecord(rec record.Record, out Outcome[T]) []message.Message

	// HandleInvalidFormat returns the single message stored for a record
	// that could not be decoded.
	HandleInvalidFormat(ferr *record.FormatError) message.Message

	// HandleEmptyInput is called once when the upload produced neither
	// objects nor errors. A nil return accepts the empty upload.
	HandleEmptyInput(identifier string) error
}

// Engine converts records into T under a named validation profile.
type Engine[T any] interface {
	Validate(rec record.Record, profile string) Outcome[T]
}
