package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/bulkload/internal/bulk"
	"github.com/JonMunkholm/bulkload/internal/record"
	"github.com/JonMunkholm/bulkload/internal/validate"
)

type city struct {
	ID   int    `db:"id"`
	City string `db:"city"`
}

func cityArgs(c city) []any { return []any{c.ID, c.City} }

// fakePg records every batch sent and fails the row at failRow (1-based
// across all batches) when set.
type fakePg struct {
	batches [][]*pgx.QueuedQuery
	failRow int
	seen    int
	closed  int
}

func (f *fakePg) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (f *fakePg) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	f.batches = append(f.batches, b.QueuedQueries)
	return &fakeResults{db: f}
}

type fakeResults struct {
	db *fakePg
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	r.db.seen++
	if r.db.seen == r.db.failRow {
		return pgconn.CommandTag{}, errors.New("duplicate key value violates unique constraint")
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *fakeResults) Query() (pgx.Rows, error) { return nil, errors.New("not supported") }
func (r *fakeResults) QueryRow() pgx.Row        { return nil }
func (r *fakeResults) Close() error {
	r.db.closed++
	return nil
}

// recordList is an in-memory record.Source.
type recordList []record.Record

func (l *recordList) Next() (record.Record, error) {
	if len(*l) == 0 {
		return record.Record{}, io.EOF
	}
	rec := (*l)[0]
	*l = (*l)[1:]
	return rec, nil
}

func (l *recordList) Close() error { return nil }

// validCities runs n generated records through the pipeline.
func validCities(t *testing.T, n int) *bulk.Result[city] {
	t.Helper()
	recs := make(recordList, n)
	for i := range n {
		recs[i] = record.Record{
			Number: i + 1,
			Fields: map[string]string{"id": strconv.Itoa(i + 1), "city": fmt.Sprintf("city%d", i+1)},
		}
	}

	form := validate.NewForm[city](func(r validate.Row) (city, error) {
		return city{ID: int(r.Int("id").Int64), City: r.String("city")}, nil
	}).Profile("default",
		validate.FieldSpec{Name: "id", Type: validate.FieldInt, Required: true},
		validate.FieldSpec{Name: "city", Required: true},
	)

	res, err := bulk.ValidateAll[city](&recs, "cities", bulk.NewBasicStrategy[city](form, "default", bulk.MessageIDs{}, nil))
	require.NoError(t, err)
	return res
}

func TestPgxPolicy_Batches(t *testing.T) {
	db := &fakePg{}
	p := NewPgxPolicy(db, "INSERT INTO cities (id, city) VALUES ($1, $2)", cityArgs)
	ctx := context.Background()

	stmt, err := p.Prepare(ctx, city{ID: 1, City: "tokyo"})
	require.NoError(t, err)

	for i, name := range []string{"tokyo", "osaka", "kyoto"} {
		require.NoError(t, p.AddBatch(ctx, stmt, city{ID: i + 1, City: name}))
	}
	require.NoError(t, stmt.Exec(ctx))
	require.NoError(t, stmt.Exec(ctx), "empty flush is a no-op")

	require.Len(t, db.batches, 1)
	require.Len(t, db.batches[0], 3)
	require.Equal(t, []any{2, "osaka"}, db.batches[0][1].Arguments)
	require.Equal(t, 1, db.closed)
	require.EqualValues(t, 3, stmt.(*PgxStatement).Affected)
}

func TestPgxPolicy_PlaceholderMismatch(t *testing.T) {
	p := NewPgxPolicy(&fakePg{}, "INSERT INTO cities (id) VALUES ($1)", cityArgs)
	_, err := p.Prepare(context.Background(), city{})
	require.ErrorContains(t, err, "1 placeholders, object yields 2 arguments")
}

func TestPgxPolicy_RowFailureNamesRow(t *testing.T) {
	db := &fakePg{failRow: 2}
	p := NewPgxPolicy(db, "INSERT INTO cities (id, city) VALUES ($1, $2)", cityArgs)
	ctx := context.Background()

	stmt, err := p.Prepare(ctx, city{ID: 1})
	require.NoError(t, err)
	require.NoError(t, p.AddBatch(ctx, stmt, city{ID: 1}))
	require.NoError(t, p.AddBatch(ctx, stmt, city{ID: 1}))

	err = stmt.Exec(ctx)
	require.ErrorContains(t, err, "batch row 2: duplicate key")
	require.Equal(t, 1, db.closed)
}

func TestPgxPolicy_WithImportAll(t *testing.T) {
	db := &fakePg{}
	p := NewPgxPolicy(db, "INSERT INTO cities (id, city) VALUES ($1, $2)", cityArgs)

	res := validCities(t, 5)
	n, err := bulk.ImportAll(context.Background(), res, p, bulk.WithBatchSize(2))
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Len(t, db.batches, 3)
	require.Len(t, db.batches[2], 1)
}

func TestPlaceholders(t *testing.T) {
	require.Equal(t, 0, placeholders("SELECT 1"))
	require.Equal(t, 3, placeholders("INSERT INTO t VALUES ($1, $3, $2)"))
	require.Equal(t, 12, placeholders("VALUES ($12, $1)"))
}

// fakeSQL satisfies sqlx.ExtContext and records executed statements.
type fakeSQL struct {
	queries []string
	args    [][]any
	err     error
}

func (f *fakeSQL) DriverName() string     { return "mysql" }
func (f *fakeSQL) Rebind(q string) string { return sqlx.Rebind(sqlx.QUESTION, q) }
func (f *fakeSQL) BindNamed(q string, arg any) (string, []any, error) {
	return sqlx.BindNamed(sqlx.QUESTION, q, arg)
}

func (f *fakeSQL) QueryContext(context.Context, string, ...any) (*sql.Rows, error) {
	return nil, errors.New("not supported")
}

func (f *fakeSQL) QueryxContext(context.Context, string, ...any) (*sqlx.Rows, error) {
	return nil, errors.New("not supported")
}

func (f *fakeSQL) QueryRowxContext(context.Context, string, ...any) *sqlx.Row {
	return nil
}

func (f *fakeSQL) ExecContext(_ context.Context, q string, args ...any) (sql.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.queries = append(f.queries, q)
	f.args = append(f.args, args)
	return driver.RowsAffected(len(args) / 2), nil
}

func TestSQLPolicy_MultiRowInsert(t *testing.T) {
	db := &fakeSQL{}
	p := NewSQLPolicy[city](db, "INSERT INTO cities (id, city) VALUES (:id, :city)")

	res := validCities(t, 3)
	n, err := bulk.ImportAll(context.Background(), res, p, bulk.WithBatchSize(2))
	require.NoError(t, err)
	require.Equal(t, 3, n)

	require.Len(t, db.queries, 2)
	require.Equal(t, 4, strings.Count(db.queries[0], "?"))
	require.Equal(t, []any{1, "city1", 2, "city2"}, db.args[0])
	require.Equal(t, []any{3, "city3"}, db.args[1])
}

func TestSQLPolicy_PrepareRejectsUnknownField(t *testing.T) {
	p := NewSQLPolicy[city](&fakeSQL{}, "INSERT INTO cities (id, country) VALUES (:id, :country)")
	_, err := p.Prepare(context.Background(), city{ID: 1})
	require.ErrorContains(t, err, "bind insert")
}

func TestSQLPolicy_ExecError(t *testing.T) {
	boom := errors.New("Error 1062: Duplicate entry")
	p := NewSQLPolicy[city](&fakeSQL{err: boom}, "INSERT INTO cities (id, city) VALUES (:id, :city)")

	_, err := bulk.ImportAll(context.Background(), validCities(t, 1), p)
	require.ErrorIs(t, err, boom)
	require.ErrorContains(t, err, "flush batch 1")
}
