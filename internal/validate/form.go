// Package validate checks decoded records against field rules and converts
// them into typed objects.
//
// A Form holds named profiles. Each profile is a list of field specs; the
// same record type can be validated strictly on upload and leniently on a
// re-run by picking a different profile.
package validate

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/bulkload/internal/bulk"
	"github.com/JonMunkholm/bulkload/internal/message"
	"github.com/JonMunkholm/bulkload/internal/record"
)

// FieldType is the type a field value must convert to.
type FieldType int

const (
	FieldText FieldType = iota
	FieldEnum
	FieldDate
	FieldNumeric
	FieldInt
	FieldBool
	FieldUUID
)

func (t FieldType) String() string {
	switch t {
	case FieldText:
		return "text"
	case FieldEnum:
		return "enum"
	case FieldDate:
		return "date"
	case FieldNumeric:
		return "numeric"
	case FieldInt:
		return "integer"
	case FieldBool:
		return "bool"
	case FieldUUID:
		return "uuid"
	default:
		return "value"
	}
}

// FieldSpec defines the rules for one field.
type FieldSpec struct {
	Name       string              // record field name
	Label      string              // name used in messages; defaults to Name
	Type       FieldType           // expected data type
	Required   bool                // value must not be blank
	MinLen     int                 // minimum length in characters, 0 for none
	MaxLen     int                 // maximum length in characters, 0 for none
	EnumValues []string            // allowed values for FieldEnum, case-insensitive
	Normalizer func(string) string // optional transformation before checks
}

func (s FieldSpec) label() string {
	if s.Label != "" {
		return s.Label
	}
	return s.Name
}

// BuildFunc converts a checked row into T. A returned error rejects the
// record with the error text.
type BuildFunc[T any] func(row Row) (T, error)

// Form validates records into T. It implements bulk.Engine[T].
type Form[T any] struct {
	profiles map[string][]FieldSpec
	build    BuildFunc[T]
	catalog  message.Catalog
}

// NewForm returns a form that builds objects with build. Profiles are added
// with Profile.
func NewForm[T any](build BuildFunc[T]) *Form[T] {
	return &Form[T]{
		profiles: make(map[string][]FieldSpec),
		build:    build,
		catalog:  message.DefaultCatalog,
	}
}

// Profile registers specs under name and returns f for chaining.
func (f *Form[T]) Profile(name string, specs ...FieldSpec) *Form[T] {
	f.profiles[name] = specs
	return f
}

// WithCatalog sets the catalog used to format rule messages.
func (f *Form[T]) WithCatalog(c message.Catalog) *Form[T] {
	if c != nil {
		f.catalog = c
	}
	return f
}

// Profiles returns the registered profile names.
func (f *Form[T]) Profiles() []string {
	names := make([]string, 0, len(f.profiles))
	for name := range f.profiles {
		names = append(names, name)
	}
	return names
}

// Validate implements bulk.Engine. Every failing field contributes one
// message, in spec order; T is only built when all fields pass.
func (f *Form[T]) Validate(rec record.Record, profile string) bulk.Outcome[T] {
	out := bulk.Outcome[T]{RecordNumber: rec.Number, Profile: profile}

	specs, ok := f.profiles[profile]
	if !ok {
		out.Messages = []message.Message{{
			Level: message.LevelError,
			ID:    message.IDUnknownMessage,
			Text:  fmt.Sprintf("unknown validation profile %q", profile),
		}}
		return out
	}

	row := Row{values: make(map[string]string, len(specs))}
	for _, spec := range specs {
		raw := CleanCell(rec.Get(spec.Name))
		if spec.Normalizer != nil && raw != "" {
			raw = spec.Normalizer(raw)
		}
		row.values[spec.Name] = raw

		if m, bad := f.check(raw, spec); bad {
			out.Messages = append(out.Messages, m)
		}
	}
	if len(out.Messages) > 0 {
		return out
	}

	obj, err := f.build(row)
	if err != nil {
		out.Messages = []message.Message{{Level: message.LevelError, ID: message.IDUnknownMessage, Text: err.Error()}}
		return out
	}
	out.Object = obj
	return out
}

func (f *Form[T]) check(raw string, spec FieldSpec) (message.Message, bool) {
	label := spec.label()
	if raw == "" {
		if spec.Required {
			return f.catalog.Create(message.LevelError, message.IDRequired, label), true
		}
		return message.Message{}, false
	}

	switch spec.Type {
	case FieldNumeric:
		if !ToPgNumeric(raw).Valid {
			return f.catalog.Create(message.LevelError, message.IDNotNumber, label), true
		}
	case FieldInt:
		if !ToPgInt8(raw).Valid {
			return f.catalog.Create(message.LevelError, message.IDNotNumber, label), true
		}
	case FieldDate:
		if !ToPgDate(raw).Valid {
			return f.catalog.Create(message.LevelError, message.IDNotDate, label), true
		}
	case FieldBool:
		if !ToPgBool(raw).Valid {
			return f.catalog.Create(message.LevelError, message.IDNotBool, label), true
		}
	case FieldUUID:
		if !ToPgUUID(raw).Valid {
			return message.Message{
				Level: message.LevelError,
				ID:    message.IDUnknownMessage,
				Text:  fmt.Sprintf("%s must be a UUID", label),
			}, true
		}
	case FieldEnum:
		if !inEnum(raw, spec.EnumValues) {
			return f.catalog.Create(message.LevelError, message.IDNotInEnum, label, strings.Join(spec.EnumValues, ", ")), true
		}
	}

	n := utf8.RuneCountInString(raw)
	switch {
	case spec.MinLen > 0 && spec.MaxLen > 0 && (n < spec.MinLen || n > spec.MaxLen):
		return f.catalog.Create(message.LevelError, message.IDLengthRange, label, spec.MinLen, spec.MaxLen), true
	case spec.MinLen > 0 && n < spec.MinLen:
		return f.catalog.Create(message.LevelError, message.IDTooShort, label, spec.MinLen), true
	case spec.MaxLen > 0 && n > spec.MaxLen:
		return f.catalog.Create(message.LevelError, message.IDTooLong, label, spec.MaxLen), true
	}
	return message.Message{}, false
}

func inEnum(v string, values []string) bool {
	if len(values) == 0 {
		return true
	}
	for _, ev := range values {
		if strings.EqualFold(ev, v) {
			return true
		}
	}
	return false
}
