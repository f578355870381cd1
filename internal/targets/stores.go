package targets

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/bulkload/internal/record"
	"github.com/JonMunkholm/bulkload/internal/validate"
)

func init() {
	registerStores()
}

// Store is one row of the stores table.
type Store struct {
	Code    string         `db:"store_code"`
	Name    string         `db:"name"`
	State   string         `db:"state"`
	Opened  pgtype.Date    `db:"opened_on"`
	Revenue pgtype.Numeric `db:"revenue"`
	Active  pgtype.Bool    `db:"active"`
}

// StoresLayout is the CSV layout of store uploads, with a header row.
func StoresLayout() *record.Layout {
	return &record.Layout{
		Name:   "stores",
		Format: record.FormatCSV,
		Header: true,
		Fields: []record.Field{
			{Name: "store_code"},
			{Name: "name"},
			{Name: "state"},
			{Name: "opened_on"},
			{Name: "revenue"},
			{Name: "active", Optional: true},
		},
	}
}

// StoresForm validates store records.
func StoresForm() *validate.Form[Store] {
	specs := []validate.FieldSpec{
		{Name: "store_code", Label: "Store code", Required: true, MinLen: 2, MaxLen: 10},
		{Name: "name", Label: "Name", Required: true, MaxLen: 100},
		{Name: "state", Label: "State", Type: validate.FieldEnum, Required: true, EnumValues: stateCodes(), Normalizer: NormalizeUSState},
		{Name: "opened_on", Label: "Opened on", Type: validate.FieldDate},
		{Name: "revenue", Label: "Revenue", Type: validate.FieldNumeric},
		{Name: "active", Label: "Active", Type: validate.FieldBool},
	}
	return validate.NewForm[Store](func(r validate.Row) (Store, error) {
		return Store{
			Code:    r.String("store_code"),
			Name:    r.String("name"),
			State:   r.String("state"),
			Opened:  r.Date("opened_on"),
			Revenue: r.Numeric("revenue"),
			Active:  r.Bool("active"),
		}, nil
	}).Profile("default", specs...)
}

func registerStores() {
	Register(Spec[Store]{
		Info: Info{
			Key:   "stores",
			Group: "Retail",
			Label: "Stores",
			Table: "stores",
		},
		Layout:   StoresLayout(),
		Form:     StoresForm(),
		PgInsert: "INSERT INTO stores (store_code, name, state, opened_on, revenue, active) VALUES ($1, $2, $3, $4, $5, $6)",
		PgArgs: func(s Store) []any {
			return []any{s.Code, s.Name, s.State, s.Opened, s.Revenue, s.Active}
		},
		SQLInsert: "INSERT INTO stores (store_code, name, state, opened_on, revenue, active) " +
			"VALUES (:store_code, :name, :state, :opened_on, :revenue, :active)",
	})
}
