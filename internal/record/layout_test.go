package record

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseLayout(t *testing.T) {
	data := []byte(`
name: cities
format: fixed
separator: ","
fields:
  - name: id
    type: digits
    width: 1
  - name: city
    width: 0
`)
	l, err := ParseLayout(data)
	if err != nil {
		t.Fatalf("ParseLayout() error = %v", err)
	}
	if l.Format != FormatFixed {
		t.Errorf("Format = %q, want %q", l.Format, FormatFixed)
	}
	if l.Separator != "," {
		t.Errorf("Separator = %q, want %q", l.Separator, ",")
	}
	if got := l.Fields[1].Type; got != TypeText {
		t.Errorf("Fields[1].Type = %q, want %q", got, TypeText)
	}
	names := l.FieldNames()
	if len(names) != 2 || names[0] != "id" || names[1] != "city" {
		t.Errorf("FieldNames() = %v, want [id city]", names)
	}
}

func TestLayoutValidate_Defaults(t *testing.T) {
	l := &Layout{Fields: []Field{{Name: "a"}}}
	if err := l.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if l.Format != FormatCSV {
		t.Errorf("Format = %q, want %q", l.Format, FormatCSV)
	}
	if l.Delimiter != "," {
		t.Errorf("Delimiter = %q, want %q", l.Delimiter, ",")
	}
}

func TestLayoutValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
	}{
		{"no fields", Layout{Format: FormatCSV}},
		{"unnamed field", Layout{Fields: []Field{{Type: TypeText}}}},
		{"duplicate field", Layout{Fields: []Field{{Name: "a"}, {Name: "a"}}}},
		{"unknown type", Layout{Fields: []Field{{Name: "a", Type: "date"}}}},
		{"unknown format", Layout{Format: "json", Fields: []Field{{Name: "a"}}}},
		{"zero width not last", Layout{Format: FormatFixed, Fields: []Field{{Name: "a"}, {Name: "b", Width: 2}}}},
		{"negative width", Layout{Format: FormatFixed, Fields: []Field{{Name: "a", Width: -1}}}},
		{"long delimiter", Layout{Delimiter: "::", Fields: []Field{{Name: "a"}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			if !errors.Is(err, ErrInvalidLayout) {
				t.Errorf("Validate() error = %v, want ErrInvalidLayout", err)
			}
		})
	}
}

func TestLoadLayout(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cities.yaml")
	if err := os.WriteFile(path, []byte("fields:\n  - name: city\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	l, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("LoadLayout() error = %v", err)
	}
	if len(l.Fields) != 1 || l.Fields[0].Name != "city" {
		t.Errorf("Fields = %+v, want one field named city", l.Fields)
	}

	if _, err := LoadLayout(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("LoadLayout() on a missing file should fail")
	}
}

func TestCheckType(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		value string
		ok    bool
	}{
		{"digits", Field{Type: TypeDigits}, "0042", true},
		{"digits with letter", Field{Type: TypeDigits}, "4a", false},
		{"signed number", Field{Type: TypeNumber}, "-12.5", true},
		{"leading dot number", Field{Type: TypeNumber}, ".5", true},
		{"bad number", Field{Type: TypeNumber}, "1.2.3", false},
		{"blank text", Field{Type: TypeText}, "", true},
		{"blank digits", Field{Type: TypeDigits}, "", false},
		{"blank optional digits", Field{Type: TypeDigits, Optional: true}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checkType(tt.field, tt.value) == ""
			if got != tt.ok {
				t.Errorf("checkType(%q) ok = %v, want %v", tt.value, got, tt.ok)
			}
		})
	}
}

func TestParseLayout_MalformedYAML(t *testing.T) {
	_, err := ParseLayout([]byte("fields: [name: id"))
	if !errors.Is(err, ErrInvalidLayout) {
		t.Errorf("ParseLayout() error = %v, want ErrInvalidLayout", err)
	}
}
