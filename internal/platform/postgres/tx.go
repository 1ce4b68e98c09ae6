package postgres

import (
	"context"
	"database/sql"
	"time"

	dErrors "custody/pkg/domain-errors"
	txcontext "custody/pkg/platform/tx"
)

const defaultTxTimeout = 5 * time.Second

// Tx runs service transactions as one sql.Tx. Stores pick the transaction up
// from the context through txcontext.ExecutorFor.
type Tx struct {
	db      *sql.DB
	timeout time.Duration
	lockKey int64
	useLock bool
}

type TxOption func(*Tx)

// WithAdvisoryLock serializes every transaction of this Tx on a
// transaction-scoped advisory lock.
func WithAdvisoryLock(key int64) TxOption {
	return func(t *Tx) {
		t.lockKey = key
		t.useLock = true
	}
}

func WithTimeout(d time.Duration) TxOption {
	return func(t *Tx) {
		if d > 0 {
			t.timeout = d
		}
	}
}

func NewTx(db *sql.DB, opts ...TxOption) *Tx {
	t := &Tx{db: db, timeout: defaultTxTimeout}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	err := txcontext.Run(ctx, t.db, nil, func(txCtx context.Context) error {
		if t.useLock {
			if _, err := txcontext.ExecutorFor(txCtx, t.db).ExecContext(txCtx, `SELECT pg_advisory_xact_lock($1)`, t.lockKey); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to acquire transaction lock")
			}
		}
		return fn(txCtx)
	})
	if err != nil && ctx.Err() != nil && dErrors.CodeOf(err) == dErrors.CodeInternal {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction timed out")
	}
	return err
}

// View runs fn in a read-only snapshot so multi-statement reads agree with
// each other. Inside an open transaction fn joins it instead.
func (t *Tx) View(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "read aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	opts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	err := txcontext.Run(ctx, t.db, opts, fn)
	if err != nil && ctx.Err() != nil && dErrors.CodeOf(err) == dErrors.CodeInternal {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "read timed out")
	}
	return err
}
