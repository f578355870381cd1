// Package message builds the leveled, coded messages that uploads report back
// to users, and maps technical errors to user-friendly text.
package message

import (
	"fmt"
	"strings"
)

// Level is the severity of a message.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the level by name in JSON payloads.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Message is one formatted, user-facing message.
type Message struct {
	Level Level  `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

func (m Message) String() string {
	return m.Text
}

// Texts returns the text of every message, preserving order.
func Texts(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Text
	}
	return out
}

// Join concatenates message texts with sep.
func Join(msgs []Message, sep string) string {
	return strings.Join(Texts(msgs), sep)
}

// Catalog maps message IDs to fmt templates.
type Catalog map[string]string

// Message IDs used by the upload pipeline.
const (
	IDRequired       = "VAL001"
	IDNotNumber      = "VAL002"
	IDNotDate        = "VAL003"
	IDTooShort       = "VAL004"
	IDTooLong        = "VAL005"
	IDNotInEnum      = "VAL006"
	IDLengthRange    = "VAL007"
	IDNotBool        = "VAL008"
	IDFormatError    = "VAL101"
	IDRecordInvalid  = "VAL102"
	IDEmptyInput     = "FILE005"
	IDUnknownMessage = "ERR000"
)

// DefaultCatalog holds the templates shipped with the application.
// Templates receive their arguments in the order the caller passes them.
var DefaultCatalog = Catalog{
	IDRequired:      "%s is required",
	IDNotNumber:     "%s must be a number",
	IDNotDate:       "%s must be a date (YYYY-MM-DD or similar)",
	IDTooShort:      "%s must be at least %d characters",
	IDTooLong:       "%s must be at most %d characters",
	IDNotInEnum:     "%s must be one of: %s",
	IDLengthRange:   "%s must be between %d and %d characters",
	IDNotBool:       "%s must be yes/no, true/false, or 1/0",
	IDFormatError:   "line %d: the record layout is invalid",
	IDRecordInvalid: "line %d: %s",
	IDEmptyInput:    "file %s contains no records",
}

// Create formats the template registered under id. An unknown id still
// yields a message so that callers never lose the arguments.
func (c Catalog) Create(level Level, id string, args ...any) Message {
	tmpl, ok := c[id]
	if !ok {
		parts := make([]string, 0, len(args)+1)
		parts = append(parts, id)
		for _, a := range args {
			parts = append(parts, fmt.Sprint(a))
		}
		return Message{Level: level, ID: id, Text: strings.Join(parts, " ")}
	}
	return Message{Level: level, ID: id, Text: fmt.Sprintf(tmpl, args...)}
}

// With returns a copy of c with the given templates added or replaced.
func (c Catalog) With(overrides map[string]string) Catalog {
	out := make(Catalog, len(c)+len(overrides))
	for k, v := range c {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// Errorf creates an error-level message from the default catalog.
func Errorf(id string, args ...any) Message {
	return DefaultCatalog.Create(LevelError, id, args...)
}
