// Package tx carries a SQL transaction through context so stores taking part
// in a unit of work share it without widening their signatures.
package tx

import (
	"context"
	"database/sql"
	"sync"
)

type ctxKey struct{}

type hooksKey struct{}

var txKey = ctxKey{}

type commitHooks struct {
	mu  sync.Mutex
	fns []func(context.Context)
}

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

// Executor is the subset of *sql.DB and *sql.Tx used by stores.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ExecutorFrom returns the transaction in ctx, or db when none is active.
func ExecutorFrom(ctx context.Context, db *sql.DB) Executor {
	if t, ok := From(ctx); ok {
		return t
	}
	return db
}

// WithCommitHooks attaches an empty after-commit hook list to ctx. The unit of
// work that owns the transaction runs the hooks with RunCommitHooks once the
// commit succeeds.
func WithCommitHooks(ctx context.Context) context.Context {
	return context.WithValue(ctx, hooksKey{}, &commitHooks{})
}

// AfterCommit registers fn to run after the surrounding transaction commits.
// It reports false when ctx carries no hook list; the caller should then act
// immediately.
func AfterCommit(ctx context.Context, fn func(context.Context)) bool {
	hooks, ok := ctx.Value(hooksKey{}).(*commitHooks)
	if !ok {
		return false
	}
	hooks.mu.Lock()
	hooks.fns = append(hooks.fns, fn)
	hooks.mu.Unlock()
	return true
}

// RunCommitHooks runs and clears the hooks registered on ctx, in order.
func RunCommitHooks(ctx context.Context) {
	hooks, ok := ctx.Value(hooksKey{}).(*commitHooks)
	if !ok {
		return
	}
	hooks.mu.Lock()
	fns := hooks.fns
	hooks.fns = nil
	hooks.mu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}
