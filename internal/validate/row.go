package validate

import "github.com/jackc/pgx/v5/pgtype"

// Row gives a BuildFunc typed access to the cleaned values of a record.
type Row struct {
	values map[string]string
}

// NewRow wraps already cleaned values.
func NewRow(values map[string]string) Row {
	return Row{values: values}
}

// String returns the cleaned value of name.
func (r Row) String(name string) string { return r.values[name] }

func (r Row) Text(name string) pgtype.Text       { return ToPgText(r.values[name]) }
func (r Row) Date(name string) pgtype.Date       { return ToPgDate(r.values[name]) }
func (r Row) Numeric(name string) pgtype.Numeric { return ToPgNumeric(r.values[name]) }
func (r Row) Int(name string) pgtype.Int8        { return ToPgInt8(r.values[name]) }
func (r Row) Bool(name string) pgtype.Bool       { return ToPgBool(r.values[name]) }
func (r Row) UUID(name string) pgtype.UUID       { return ToPgUUID(r.values[name]) }
