// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/recipehub/internal/platform/ctxkey"
)

// Querier runs statements. Both the pool and an open transaction satisfy it.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DB is the connection handle injected into repositories.
//
// [*pgxpool.Pool] satisfies it in production and pgxmock.PgxPoolIface in tests.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Conn returns the transaction bound to ctx by [Transactor.WithinTx], or db
// when the caller is not inside a transaction.
func Conn(ctx context.Context, db DB) Querier {
	if tx, ok := ctx.Value(ctxkey.KeyQuerier).(pgx.Tx); ok {
		return tx
	}
	return db
}

// Transactor runs a unit of work inside one database transaction.
type Transactor struct {
	db DB
}

// NewTransactor creates a Transactor on top of db.
func NewTransactor(db DB) *Transactor {
	return &Transactor{db: db}
}

// WithinTx runs fn in a transaction that is committed when fn returns nil and
// rolled back otherwise, including on panic.
//
// Repositories called with the ctx passed to fn join the transaction through
// [Conn]. A nested WithinTx joins the outer transaction instead of opening a
// new one.
func (transactor *Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if _, ok := ctx.Value(ctxkey.KeyQuerier).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := transactor.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres_begin_tx: %w", err)
	}

	defer func() {
		if recovered := recover(); recovered != nil {
			_ = tx.Rollback(ctx)
			panic(recovered)
		}
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				err = errors.Join(err, fmt.Errorf("postgres_rollback_tx: %w", rollbackErr))
			}
		}
	}()

	if err = fn(context.WithValue(ctx, ctxkey.KeyQuerier, tx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres_commit_tx: %w", err)
	}
	return nil
}
