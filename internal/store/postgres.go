// Package store implements insertion policies that write validated uploads
// to a database: PgxPolicy for PostgreSQL through pgx batches, and SQLPolicy
// for database/sql drivers such as MySQL through sqlx bulk named inserts.
package store

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/bulkload/internal/bulk"
)

// DBTX is the interface for database operations.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...any) (pgconn.CommandTag, error)
	SendBatch(context.Context, *pgx.Batch) pgx.BatchResults
}

// PoolConfig holds the pool settings applied on top of the connection URL.
type PoolConfig struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration // 0 keeps the pgx default
	MaxConnIdleTime time.Duration
}

// OpenPostgres connects a pool and verifies it with a ping.
func OpenPostgres(ctx context.Context, url string, pc PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if pc.MaxConns > 0 {
		poolConfig.MaxConns = int32(pc.MaxConns)
	}
	if pc.MinConns > 0 {
		poolConfig.MinConns = int32(pc.MinConns)
	}
	if pc.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = pc.MaxConnLifetime
	}
	if pc.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = pc.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

var placeholderRegex = regexp.MustCompile(`\$(\d+)`)

// placeholders returns the highest $N placeholder in sql.
func placeholders(sql string) int {
	highest := 0
	for _, m := range placeholderRegex.FindAllStringSubmatch(sql, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

// PgxPolicy queues one parameterized insert per object and sends each batch
// in a single round trip.
type PgxPolicy[T any] struct {
	db   DBTX
	sql  string
	args func(T) []any
}

// NewPgxPolicy returns a policy running sql with the arguments args derives
// from each object. Run it on a pgx.Tx to make the import atomic.
func NewPgxPolicy[T any](db DBTX, sql string, args func(T) []any) *PgxPolicy[T] {
	return &PgxPolicy[T]{db: db, sql: sql, args: args}
}

// Prepare checks that the object shape matches the statement's placeholders.
func (p *PgxPolicy[T]) Prepare(_ context.Context, first T) (bulk.Statement, error) {
	if want, got := placeholders(p.sql), len(p.args(first)); want != got {
		return nil, fmt.Errorf("insert has %d placeholders, object yields %d arguments", want, got)
	}
	return &PgxStatement{db: p.db, sql: p.sql, batch: &pgx.Batch{}}, nil
}

// AddBatch implements bulk.InsertionPolicy.
func (p *PgxPolicy[T]) AddBatch(_ context.Context, stmt bulk.Statement, obj T) error {
	s, ok := stmt.(*PgxStatement)
	if !ok {
		return fmt.Errorf("pgx policy got statement %T", stmt)
	}
	s.batch.Queue(s.sql, p.args(obj)...)
	return nil
}

// PgxStatement is the bulk.Statement of a PgxPolicy.
type PgxStatement struct {
	db       DBTX
	sql      string
	batch    *pgx.Batch
	Affected int64 // rows affected by all flushed batches
}

// Exec sends the queued inserts and reads every result before closing, so a
// failing row is reported with its position in the batch.
func (s *PgxStatement) Exec(ctx context.Context) error {
	n := s.batch.Len()
	if n == 0 {
		return nil
	}
	br := s.db.SendBatch(ctx, s.batch)
	s.batch = &pgx.Batch{}

	for i := 0; i < n; i++ {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return fmt.Errorf("batch row %d: %w", i+1, err)
		}
		s.Affected += tag.RowsAffected()
	}
	return br.Close()
}
