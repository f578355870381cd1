package store

import (
	"context"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/JonMunkholm/bulkload/internal/bulk"
)

// SQLConfig holds database/sql pool settings.
type SQLConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OpenSQL connects through a database/sql driver ("mysql" is registered by
// this package) and verifies the connection.
func OpenSQL(ctx context.Context, driver, dsn string, sc SQLConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", driver, err)
	}

	if sc.MaxOpenConns > 0 {
		db.SetMaxOpenConns(sc.MaxOpenConns)
	}
	if sc.MaxIdleConns > 0 {
		db.SetMaxIdleConns(sc.MaxIdleConns)
	}
	if sc.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(sc.ConnMaxLifetime)
	}
	return db, nil
}

// SQLPolicy collects a batch of objects and writes it with one multi-row
// named insert. query uses :name placeholders bound from db tags of T, e.g.
//
//	INSERT INTO cities (id, city) VALUES (:id, :city)
type SQLPolicy[T any] struct {
	db    sqlx.ExtContext
	query string
}

// NewSQLPolicy returns a policy running query on db, which may be a *sqlx.DB
// or a *sqlx.Tx.
func NewSQLPolicy[T any](db sqlx.ExtContext, query string) *SQLPolicy[T] {
	return &SQLPolicy[T]{db: db, query: query}
}

// Prepare binds query against the first object to catch missing fields
// before anything is sent.
func (p *SQLPolicy[T]) Prepare(_ context.Context, first T) (bulk.Statement, error) {
	if _, _, err := sqlx.Named(p.query, first); err != nil {
		return nil, fmt.Errorf("bind insert: %w", err)
	}
	return &SQLStatement[T]{db: p.db, query: p.query}, nil
}

// AddBatch implements bulk.InsertionPolicy.
func (p *SQLPolicy[T]) AddBatch(_ context.Context, stmt bulk.Statement, obj T) error {
	s, ok := stmt.(*SQLStatement[T])
	if !ok {
		return fmt.Errorf("sql policy got statement %T", stmt)
	}
	s.rows = append(s.rows, obj)
	return nil
}

// SQLStatement is the bulk.Statement of a SQLPolicy.
type SQLStatement[T any] struct {
	db       sqlx.ExtContext
	query    string
	rows     []T
	Affected int64
}

// Exec writes the collected rows as one statement.
func (s *SQLStatement[T]) Exec(ctx context.Context) error {
	if len(s.rows) == 0 {
		return nil
	}
	rows := s.rows
	s.rows = nil

	res, err := sqlx.NamedExecContext(ctx, s.db, s.query, rows)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil {
		s.Affected += n
	}
	return nil
}
