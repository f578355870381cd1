package service

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jmoiron/sqlx"

	"github.com/JonMunkholm/bulkload/internal/bulk"
	"github.com/JonMunkholm/bulkload/internal/config"
	"github.com/JonMunkholm/bulkload/internal/store"
	"github.com/JonMunkholm/bulkload/internal/targets"
)

// Importer writes the objects of a validated upload in one transaction.
type Importer interface {
	Import(ctx context.Context, v targets.Validated, opts ...bulk.ImportOption) (int, error)
}

// TxBeginner is satisfied by *pgxpool.Pool and *pgx.Conn.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PgxImporter imports into Postgres with batched positional inserts.
type PgxImporter struct {
	DB TxBeginner
}

func (p PgxImporter) Import(ctx context.Context, v targets.Validated, opts ...bulk.ImportOption) (int, error) {
	tx, err := p.DB.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	n, err := v.ImportPgx(ctx, tx, opts...)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// SQLImporter imports through database/sql with named multi-row inserts.
type SQLImporter struct {
	DB *sqlx.DB
}

func (s SQLImporter) Import(ctx context.Context, v targets.Validated, opts ...bulk.ImportOption) (int, error) {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	n, err := v.ImportSQL(ctx, tx, opts...)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// Connect opens the configured database and returns an importer for it and
// a function that closes the connection.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (Importer, func(), error) {
	switch cfg.Driver {
	case "mysql":
		db, err := store.OpenSQL(ctx, "mysql", cfg.URL, store.SQLConfig{
			MaxOpenConns:    cfg.MaxConns,
			MaxIdleConns:    cfg.MinConns,
			ConnMaxLifetime: cfg.MaxConnLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		return SQLImporter{DB: db}, func() { _ = db.Close() }, nil
	default:
		pool, err := store.OpenPostgres(ctx, cfg.URL, store.PoolConfig{
			MaxConns:        cfg.MaxConns,
			MinConns:        cfg.MinConns,
			MaxConnLifetime: cfg.MaxConnLifetime,
			MaxConnIdleTime: cfg.MaxConnIdleTime,
		})
		if err != nil {
			return nil, nil, err
		}
		return PgxImporter{DB: pool}, pool.Close, nil
	}
}
