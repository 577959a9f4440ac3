// Package sqldb opens the Postgres profile store and wraps sqlx queries with
// consistent error mapping.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

const (
	driverName         = "pgx"
	uniqueViolation    = "23505"
	undefinedTable     = "42P01"
	defaultMaxOpen     = 10
	defaultMaxIdle     = 5
	defaultConnMaxIdle = 5 * time.Minute
)

var (
	// ErrDBNotFound is returned when a query matches no rows.
	ErrDBNotFound = sql.ErrNoRows
	// ErrDBDuplicatedEntry is returned on unique constraint violations.
	ErrDBDuplicatedEntry = errors.New("sqldb: duplicated entry")
	// ErrDBUndefinedTable is returned when the schema has not been migrated.
	ErrDBUndefinedTable = errors.New("sqldb: undefined table")
)

// Config is the connection string plus pool sizing.
type Config struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Open connects with the pgx stdlib driver and verifies the connection.
func Open(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	db, err := sqlx.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqldb: open: %w", err)
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = defaultMaxOpen
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = defaultMaxIdle
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxIdleTime(defaultConnMaxIdle)

	if err := StatusCheck(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// StatusCheck pings the database, bounded by a one second timeout when ctx
// has no deadline.
func StatusCheck(ctx context.Context, db *sqlx.DB) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Second)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqldb: ping: %w", err)
	}
	return nil
}

// NamedQueryStruct runs a named query and scans the single resulting row into dest.
func NamedQueryStruct(ctx context.Context, log *zap.Logger, db sqlx.ExtContext, query string, data any, dest any) error {
	log.Debug("sqldb: query", zap.String("query", query))

	rows, err := sqlx.NamedQueryContext(ctx, db, query, data)
	if err != nil {
		return mapError(err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return mapError(err)
		}
		return ErrDBNotFound
	}
	if err := rows.StructScan(dest); err != nil {
		return fmt.Errorf("sqldb: scan: %w", err)
	}
	return nil
}

func mapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return fmt.Errorf("%w: %s", ErrDBDuplicatedEntry, pgErr.ConstraintName)
		case undefinedTable:
			return fmt.Errorf("%w: %s", ErrDBUndefinedTable, pgErr.Message)
		}
	}
	return err
}
