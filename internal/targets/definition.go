package targets

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/JonMunkholm/bulkload/internal/bulk"
	"github.com/JonMunkholm/bulkload/internal/message"
	"github.com/JonMunkholm/bulkload/internal/record"
	"github.com/JonMunkholm/bulkload/internal/store"
	"github.com/JonMunkholm/bulkload/internal/validate"
)

// Spec describes a target for objects of type T.
type Spec[T any] struct {
	Info    Info
	Layout  *record.Layout
	Form    *validate.Form[T]
	Profile string // validation profile used by default

	// PgInsert is a positional ($1, $2, ...) insert fed by PgArgs.
	PgInsert string
	PgArgs   func(T) []any

	// SQLInsert is a named (:col) insert bound from db tags of T. Used for
	// database/sql drivers.
	SQLInsert string
}

// Register validates spec and adds it to the registry. Panics on an
// incomplete spec or a duplicate key, since both are programming errors.
func Register[T any](spec Spec[T]) {
	if spec.Info.Key == "" || spec.Layout == nil || spec.Form == nil {
		panic("target spec needs a key, a layout and a form")
	}
	if err := spec.Layout.Validate(); err != nil {
		panic(fmt.Sprintf("target %s: %v", spec.Info.Key, err))
	}
	if spec.Profile == "" {
		spec.Profile = "default"
	}
	if len(spec.Info.Columns) == 0 {
		spec.Info.Columns = spec.Layout.FieldNames()
	}
	add(Definition{Info: spec.Info, Layout: spec.Layout, Profile: spec.Profile, pipeline: spec})
}

// Definition is a registered target with its element type erased.
type Definition struct {
	Info    Info
	Layout  *record.Layout
	Profile string

	pipeline interface {
		validate(src record.Source, identifier string, opts RunOptions) (Validated, error)
	}
}

// RunOptions configures one validation run.
type RunOptions struct {
	Profile  string // overrides the target's default profile
	IDs      bulk.MessageIDs
	Catalog  message.Catalog
	Observer bulk.Observer
}

// Validate runs src through the target's validation form.
func (d Definition) Validate(src record.Source, identifier string, opts RunOptions) (Validated, error) {
	if opts.Profile == "" {
		opts.Profile = d.Profile
	}
	return d.pipeline.validate(src, identifier, opts)
}

// Validated is the result of a run, importable into either kind of store.
type Validated interface {
	HasError() bool
	ErrorMessages() *bulk.ErrorMessages
	ValidCount() int

	// ImportPgx writes the objects with positional inserts on db.
	ImportPgx(ctx context.Context, db store.DBTX, opts ...bulk.ImportOption) (int, error)

	// ImportSQL writes the objects with named multi-row inserts on db.
	ImportSQL(ctx context.Context, db sqlx.ExtContext, opts ...bulk.ImportOption) (int, error)
}

func (s Spec[T]) validate(src record.Source, identifier string, opts RunOptions) (Validated, error) {
	strategy := bulk.NewBasicStrategy[T](s.Form, opts.Profile, opts.IDs, opts.Catalog)
	res, err := bulk.ValidateAll[T](src, identifier, strategy, bulk.WithObserver(opts.Observer))
	if err != nil {
		return nil, err
	}
	return &validated[T]{Result: res, spec: s}, nil
}

type validated[T any] struct {
	*bulk.Result[T]
	spec Spec[T]
}

func (v *validated[T]) ImportPgx(ctx context.Context, db store.DBTX, opts ...bulk.ImportOption) (int, error) {
	if v.spec.PgInsert == "" || v.spec.PgArgs == nil {
		return 0, fmt.Errorf("target %s has no postgres insert", v.spec.Info.Key)
	}
	return bulk.ImportAll(ctx, v.Result, store.NewPgxPolicy(db, v.spec.PgInsert, v.spec.PgArgs), opts...)
}

func (v *validated[T]) ImportSQL(ctx context.Context, db sqlx.ExtContext, opts ...bulk.ImportOption) (int, error) {
	if v.spec.SQLInsert == "" {
		return 0, fmt.Errorf("target %s has no sql insert", v.spec.Info.Key)
	}
	return bulk.ImportAll(ctx, v.Result, store.NewSQLPolicy[T](db, v.spec.SQLInsert), opts...)
}
