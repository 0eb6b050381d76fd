package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "ibanmanager/pkg/domain-errors"
	txcontext "ibanmanager/pkg/platform/tx"
)

const defaultIBANTxTimeout = 5 * time.Second

// ibanPostgresTx runs IBAN mutations and their outbox writes in one SQL
// transaction carried through context.
type ibanPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newIBANPostgresTx(db *sql.DB) *ibanPostgresTx {
	return &ibanPostgresTx{db: db}
}

func (t *ibanPostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, ok := txcontext.From(ctx); ok {
		return fn(ctx)
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultIBANTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin transaction")
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // rollback after commit is no-op; error already captured
	}()

	txCtx := txcontext.WithCommitHooks(txcontext.WithTx(ctx, tx))
	if err := fn(txCtx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit transaction")
	}
	txcontext.RunCommitHooks(txCtx)
	return nil
}
