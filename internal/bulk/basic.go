package bulk

import (
	"github.com/JonMunkholm/bulkload/internal/message"
	"github.com/JonMunkholm/bulkload/internal/record"
)

// MessageIDs selects the catalog entries a BasicStrategy reports with.
type MessageIDs struct {
	OnFormatError     string
	OnValidationError string
	OnEmptyInput      string
}

// DefaultMessageIDs are used for any zero field of a MessageIDs.
var DefaultMessageIDs = MessageIDs{
	OnFormatError:     message.IDFormatError,
	OnValidationError: message.IDRecordInvalid,
	OnEmptyInput:      message.IDEmptyInput,
}

func (ids MessageIDs) withDefaults() MessageIDs {
	if ids.OnFormatError == "" {
		ids.OnFormatError = DefaultMessageIDs.OnFormatError
	}
	if ids.OnValidationError == "" {
		ids.OnValidationError = DefaultMessageIDs.OnValidationError
	}
	if ids.OnEmptyInput == "" {
		ids.OnEmptyInput = DefaultMessageIDs.OnEmptyInput
	}
	return ids
}

// BasicStrategy delegates conversion to an Engine and reports every failure
// with one of three configured message IDs.
type BasicStrategy[T any] struct {
	engine  Engine[T]
	profile string
	ids     MessageIDs
	catalog message.Catalog
}

// NewBasicStrategy returns a strategy validating with engine under profile.
// A nil catalog uses message.DefaultCatalog.
func NewBasicStrategy[T any](engine Engine[T], profile string, ids MessageIDs, catalog message.Catalog) *BasicStrategy[T] {
	if catalog == nil {
		catalog = message.DefaultCatalog
	}
	return &BasicStrategy[T]{
		engine:  engine,
		profile: profile,
		ids:     ids.withDefaults(),
		catalog: catalog,
	}
}

// ValidateRecord implements Strategy.
func (s *BasicStrategy[T]) ValidateRecord(rec record.Record) Outcome[T] {
	out := s.engine.Validate(rec, s.profile)
	out.RecordNumber = rec.Number
	if out.Profile == "" {
		out.Profile = s.profile
	}
	return out
}

// HandleInvalidRecord rewrites each engine message under the validation
// error ID, prefixed with the record number.
func (s *BasicStrategy[T]) HandleInvalidRecord(rec record.Record, out Outcome[T]) []message.Message {
	msgs := make([]message.Message, len(out.Messages))
	for i, m := range out.Messages {
		msgs[i] = s.catalog.Create(message.LevelError, s.ids.OnValidationError, rec.Number, m.Text)
	}
	return msgs
}

// HandleInvalidFormat implements Strategy.
func (s *BasicStrategy[T]) HandleInvalidFormat(ferr *record.FormatError) message.Message {
	return s.catalog.Create(message.LevelError, s.ids.OnFormatError, ferr.RecordNumber)
}

// HandleEmptyInput rejects the upload with *EmptyInputError.
func (s *BasicStrategy[T]) HandleEmptyInput(identifier string) error {
	return &EmptyInputError{
		Identifier: identifier,
		Message:    s.catalog.Create(message.LevelError, s.ids.OnEmptyInput, identifier),
	}
}
