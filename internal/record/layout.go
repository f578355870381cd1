package record

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the physical encoding of an upload.
type Format string

const (
	FormatFixed Format = "fixed"
	FormatCSV   Format = "csv"
	FormatXLSX  Format = "xlsx"
)

// FieldType is the lexical type a field must satisfy to be decoded at all.
// Semantic rules (ranges, lengths, enums) belong to the validation engine.
type FieldType string

const (
	TypeText   FieldType = "text"
	TypeDigits FieldType = "digits"
	TypeNumber FieldType = "number"
)

var (
	digitsRegex = regexp.MustCompile(`^[0-9]+$`)
	numberRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
)

// Field describes one field of a record.
type Field struct {
	Name string    `yaml:"name"`
	Type FieldType `yaml:"type"`
	// Width is the byte width of a fixed-length field. A zero width on the
	// last field consumes the rest of the record.
	Width int `yaml:"width"`
	// Optional fields may be blank even when typed.
	Optional bool `yaml:"optional"`
}

// Layout describes how to decode records from an upload.
type Layout struct {
	Name      string  `yaml:"name"`
	Format    Format  `yaml:"format"`
	Separator string  `yaml:"separator"` // record separator for fixed layouts (default "\n")
	Delimiter string  `yaml:"delimiter"` // field delimiter for csv layouts (default ",")
	Header    bool    `yaml:"header"`    // first row is a header and is skipped
	Sheet     string  `yaml:"sheet"`     // xlsx sheet name (default: first sheet)
	Fields    []Field `yaml:"fields"`
}

// ErrInvalidLayout is returned for layouts that cannot decode anything.
var ErrInvalidLayout = errors.New("invalid layout")

// ParseLayout decodes a YAML layout definition.
func ParseLayout(data []byte) (*Layout, error) {
	var l Layout
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidLayout, err)
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// LoadLayout reads and parses a YAML layout file.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout %s: %w", path, err)
	}
	l, err := ParseLayout(data)
	if err != nil {
		return nil, fmt.Errorf("layout %s: %w", path, err)
	}
	return l, nil
}

// Validate checks the layout and fills in defaults.
func (l *Layout) Validate() error {
	if l.Format == "" {
		l.Format = FormatCSV
	}
	if len(l.Fields) == 0 {
		return fmt.Errorf("%w: no fields defined", ErrInvalidLayout)
	}

	seen := make(map[string]bool, len(l.Fields))
	for i := range l.Fields {
		f := &l.Fields[i]
		if f.Name == "" {
			return fmt.Errorf("%w: field %d has no name", ErrInvalidLayout, i+1)
		}
		if seen[f.Name] {
			return fmt.Errorf("%w: duplicate field %q", ErrInvalidLayout, f.Name)
		}
		seen[f.Name] = true

		switch f.Type {
		case "":
			f.Type = TypeText
		case TypeText, TypeDigits, TypeNumber:
		default:
			return fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidLayout, f.Name, f.Type)
		}

		if l.Format == FormatFixed {
			last := i == len(l.Fields)-1
			if f.Width < 0 || (f.Width == 0 && !last) {
				return fmt.Errorf("%w: fixed field %q needs a positive width", ErrInvalidLayout, f.Name)
			}
		}
	}

	switch l.Format {
	case FormatFixed:
		if l.Separator == "" {
			l.Separator = "\n"
		}
	case FormatCSV:
		if l.Delimiter == "" {
			l.Delimiter = ","
		}
		if len([]rune(l.Delimiter)) != 1 {
			return fmt.Errorf("%w: csv delimiter must be a single character", ErrInvalidLayout)
		}
	case FormatXLSX:
	default:
		return fmt.Errorf("%w: unknown format %q", ErrInvalidLayout, l.Format)
	}
	return nil
}

// FieldNames returns the field names in layout order.
func (l *Layout) FieldNames() []string {
	names := make([]string, len(l.Fields))
	for i, f := range l.Fields {
		names[i] = f.Name
	}
	return names
}

// decode checks values against the field types and builds a record.
func (l *Layout) decode(number int, values []string, raw string) (Record, error) {
	if len(values) < len(l.Fields) {
		return Record{}, &FormatError{
			RecordNumber: number,
			Message:      fmt.Sprintf("expected %d fields, got %d", len(l.Fields), len(values)),
		}
	}

	fields := make(map[string]string, len(l.Fields))
	for i, f := range l.Fields {
		v := strings.TrimSpace(values[i])
		if err := checkType(f, v); err != "" {
			return Record{}, &FormatError{RecordNumber: number, Field: f.Name, Message: err}
		}
		fields[f.Name] = v
	}
	return Record{Number: number, Fields: fields, Raw: raw}, nil
}

func checkType(f Field, v string) string {
	if v == "" {
		if f.Optional || f.Type == TypeText {
			return ""
		}
		return "value is blank"
	}
	switch f.Type {
	case TypeDigits:
		if !digitsRegex.MatchString(v) {
			return fmt.Sprintf("invalid digits %q", v)
		}
	case TypeNumber:
		if !numberRegex.MatchString(v) {
			return fmt.Sprintf("invalid number %q", v)
		}
	}
	return ""
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
