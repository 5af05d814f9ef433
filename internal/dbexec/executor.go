// Package dbexec provides the database execution abstractions used by the
// storage layer: plain queries for batched lookups and read-only snapshot
// transactions for list pages.
package dbexec

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Rows abstracts sql.Rows so tests can substitute fakes.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// QueryExecutor runs read queries.
type QueryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
}

// Tx is a read-only transaction. Every query issued through it observes the
// same snapshot.
type Tx interface {
	QueryExecutor
	Commit() error
	Rollback() error
}

// Snapshotter opens snapshot transactions.
type Snapshotter interface {
	BeginSnapshot(ctx context.Context) (Tx, error)
}

// Executor is everything the storage layer needs from the database.
type Executor interface {
	QueryExecutor
	Snapshotter
}

// StandardExecutor executes queries directly against a database handle.
type StandardExecutor struct {
	db *sql.DB
}

// NewStandardExecutor creates an executor that runs queries directly against the database.
func NewStandardExecutor(db *sql.DB) *StandardExecutor {
	return &StandardExecutor{db: db}
}

func (e *StandardExecutor) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	if e.db == nil {
		return nil, sql.ErrConnDone
	}
	return e.db.QueryContext(ctx, query, args...)
}

// BeginSnapshot starts a read-only REPEATABLE READ transaction. On MySQL and
// TiDB this pins a consistent snapshot for every statement in the transaction.
func (e *StandardExecutor) BeginSnapshot(ctx context.Context) (Tx, error) {
	if e.db == nil {
		return nil, sql.ErrConnDone
	}
	tx, err := e.db.BeginTx(ctx, &sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("begin snapshot: %w", err)
	}
	return &snapshotTx{tx: tx}, nil
}

type snapshotTx struct {
	tx *sql.Tx
}

func (t *snapshotTx) QueryContext(ctx context.Context, query string, args ...any) (Rows, error) {
	return t.tx.QueryContext(ctx, query, args...)
}

func (t *snapshotTx) Commit() error {
	return t.tx.Commit()
}

// Rollback ignores sql.ErrTxDone so it can be deferred after Commit.
func (t *snapshotTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
