package validate

import (
	"math"
	"testing"
	"time"
)

// ----------------------------------------------------------------------------
// ToPgNumeric Tests
// ----------------------------------------------------------------------------

func TestToPgNumeric(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantValue float64
	}{
		{name: "positive integer", input: "123", wantValid: true, wantValue: 123},
		{name: "negative integer", input: "-456", wantValid: true, wantValue: -456},
		{name: "decimal number", input: "123.45", wantValid: true, wantValue: 123.45},
		{name: "leading decimal point", input: ".99", wantValid: true, wantValue: 0.99},
		{name: "dollar amount", input: "$1,234.50", wantValid: true, wantValue: 1234.5},
		{name: "euro amount", input: "€99", wantValid: true, wantValue: 99},
		{name: "accounting negative", input: "(12.50)", wantValid: true, wantValue: -12.5},
		{name: "empty", input: "", wantValid: false},
		{name: "whitespace", input: "   ", wantValid: false},
		{name: "letters", input: "abc", wantValid: false},
		{name: "two decimal points", input: "1.2.3", wantValid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ToPgNumeric(tt.input)
			if result.Valid != tt.wantValid {
				t.Fatalf("ToPgNumeric(%q).Valid = %v, want %v", tt.input, result.Valid, tt.wantValid)
			}
			if !tt.wantValid {
				return
			}
			f, err := result.Float64Value()
			if err != nil {
				t.Fatalf("Float64Value() error: %v", err)
			}
			if math.Abs(f.Float64-tt.wantValue) > 1e-9 {
				t.Errorf("ToPgNumeric(%q) = %v, want %v", tt.input, f.Float64, tt.wantValue)
			}
		})
	}
}

func TestToPgInt8(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		want      int64
	}{
		{"42", true, 42},
		{"-7", true, -7},
		{"1,000", true, 1000},
		{"(5)", true, -5},
		{"4.5", false, 0},
		{"", false, 0},
		{"x", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ToPgInt8(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgInt8(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if got.Int64 != tt.want {
				t.Errorf("ToPgInt8(%q) = %d, want %d", tt.input, got.Int64, tt.want)
			}
		})
	}
}

// ----------------------------------------------------------------------------
// ToPgDate Tests
// ----------------------------------------------------------------------------

func TestToPgDate(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		want      time.Time
	}{
		{"ISO", "2024-03-15", true, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"slashes year first", "2024/03/15", true, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"US", "3/15/2024", true, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"compact", "20240315", true, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"month name", "Mar 15, 2024", true, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"two digit year", "3/15/24", true, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{"empty", "", false, time.Time{}},
		{"garbage", "not a date", false, time.Time{}},
		{"impossible day", "2024-02-30", false, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToPgDate(tt.input)
			if got.Valid != tt.wantValid {
				t.Fatalf("ToPgDate(%q).Valid = %v, want %v", tt.input, got.Valid, tt.wantValid)
			}
			if tt.wantValid && !got.Time.Equal(tt.want) {
				t.Errorf("ToPgDate(%q) = %v, want %v", tt.input, got.Time, tt.want)
			}
		})
	}
}

func TestToPgDate_TwoDigitYearPivot(t *testing.T) {
	orig := TwoDigitYearPivot
	defer func() { TwoDigitYearPivot = orig }()

	TwoDigitYearPivot = 0
	got := ToPgDate("1/1/68")
	if !got.Valid {
		t.Fatal("ToPgDate returned invalid")
	}
	if got.Time.Year() > time.Now().Year() {
		t.Errorf("year = %d, want a year not after %d", got.Time.Year(), time.Now().Year())
	}
}

// ----------------------------------------------------------------------------
// ToPgBool / ToPgUUID / ToPgText Tests
// ----------------------------------------------------------------------------

func TestToPgBool(t *testing.T) {
	tests := []struct {
		input     string
		wantValid bool
		want      bool
	}{
		{"true", true, true},
		{"YES", true, true},
		{" y ", true, true},
		{"1", true, true},
		{"false", true, false},
		{"No", true, false},
		{"0", true, false},
		{"", false, false},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ToPgBool(tt.input)
			if got.Valid != tt.wantValid || got.Bool != tt.want {
				t.Errorf("ToPgBool(%q) = {%v %v}, want {%v %v}", tt.input, got.Bool, got.Valid, tt.want, tt.wantValid)
			}
		})
	}
}

func TestToPgUUID(t *testing.T) {
	if got := ToPgUUID("6ba7b810-9dad-11d1-80b4-00c04fd430c8"); !got.Valid {
		t.Error("ToPgUUID(valid) returned invalid")
	}
	if got := ToPgUUID("not-a-uuid"); got.Valid {
		t.Error("ToPgUUID(invalid) returned valid")
	}
}

func TestToPgText(t *testing.T) {
	if got := ToPgText("  tokyo "); !got.Valid || got.String != "tokyo" {
		t.Errorf("ToPgText = %+v, want tokyo", got)
	}
	if got := ToPgText("   "); got.Valid {
		t.Errorf("ToPgText(blank) = %+v, want invalid", got)
	}
}

// ----------------------------------------------------------------------------
// CleanCell Tests
// ----------------------------------------------------------------------------

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "simple string unchanged", input: "hello", want: "hello"},
		{name: "empty string", input: "", want: ""},
		{name: "surrounded by whitespace", input: "  hello  ", want: "hello"},
		{name: "Excel formula with quotes", input: `="00123"`, want: "00123"},
		{name: "Excel formula without quotes", input: "=123", want: "123"},
		{name: "double quoted", input: `"hello"`, want: "hello"},
		{name: "single quoted", input: `'hello'`, want: "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
