// Package tx carries a SQL transaction through context so stores that share a
// business operation (say, a registration insert and its audit entry) write
// atomically without coupling their interfaces to database/sql.
package tx

import (
	"context"
	"database/sql"
)

type ctxKey struct{}

var txKey = ctxKey{}

// WithTx stores a SQL transaction in context for downstream store usage.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, txKey, tx)
}

// From extracts a SQL transaction from context if present.
func From(ctx context.Context) (*sql.Tx, bool) {
	tx, ok := ctx.Value(txKey).(*sql.Tx)
	return tx, ok
}

// Runner executes a function inside a transaction scope. Services depend on
// this interface so unit tests can run against the no-op memory
// implementation while production wires the SQL one.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SQLRunner begins a transaction on db, injects it into context, and
// commits or rolls back around fn.
type SQLRunner struct {
	db *sql.DB
}

// NewSQLRunner wraps db as a Runner.
func NewSQLRunner(db *sql.DB) *SQLRunner {
	return &SQLRunner{db: db}
}

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sqlTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(WithTx(ctx, sqlTx)); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	return sqlTx.Commit()
}

// NopRunner runs fn directly; memory stores take their own locks.
type NopRunner struct{}

func (NopRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
