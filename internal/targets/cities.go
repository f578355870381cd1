package targets

import (
	"strings"

	"github.com/JonMunkholm/bulkload/internal/record"
	"github.com/JonMunkholm/bulkload/internal/validate"
)

func init() {
	registerCities()
}

// City is one row of the cities table.
type City struct {
	ID   int64  `db:"id"`
	Name string `db:"city"`
}

// CitiesLayout is the fixed-length layout of city uploads: a one digit id
// followed by the name, records separated by commas, e.g. "1tokyo,2osaka".
func CitiesLayout() *record.Layout {
	return &record.Layout{
		Name:      "cities",
		Format:    record.FormatFixed,
		Separator: ",",
		Fields: []record.Field{
			{Name: "id", Type: record.TypeDigits, Width: 1},
			{Name: "city", Type: record.TypeText},
		},
	}
}

// CitiesForm validates city records. The "strict" profile also caps the
// name length.
func CitiesForm() *validate.Form[City] {
	return validate.NewForm[City](func(r validate.Row) (City, error) {
		return City{ID: r.Int("id").Int64, Name: r.String("city")}, nil
	}).
		Profile("default",
			validate.FieldSpec{Name: "id", Type: validate.FieldInt, Required: true},
			validate.FieldSpec{Name: "city", Required: true, MinLen: 3, Normalizer: strings.ToLower},
		).
		Profile("strict",
			validate.FieldSpec{Name: "id", Type: validate.FieldInt, Required: true},
			validate.FieldSpec{Name: "city", Required: true, MinLen: 3, MaxLen: 40, Normalizer: strings.ToLower},
		)
}

func registerCities() {
	Register(Spec[City]{
		Info: Info{
			Key:   "cities",
			Group: "Reference",
			Label: "Cities",
			Table: "cities",
		},
		Layout:    CitiesLayout(),
		Form:      CitiesForm(),
		PgInsert:  "INSERT INTO cities (id, city) VALUES ($1, $2)",
		PgArgs:    func(c City) []any { return []any{c.ID, c.Name} },
		SQLInsert: "INSERT INTO cities (id, city) VALUES (:id, :city)",
	})
}
