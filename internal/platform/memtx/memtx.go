// Package memtx gives in-memory stores transactional semantics. A sharded lock
// serializes transactions touching the same entity. Stores stage their writes
// with OnCommit so nothing is visible until the transaction commits, and the
// staged writes of one transaction are applied under a single view lock that
// View readers wait on. Record keeps undo steps for the few writes that must
// land immediately.
package memtx

import (
	"context"
	"sync"
	"time"

	dErrors "custody/pkg/domain-errors"
	"custody/pkg/platform/tx"
)

// NumShards is the number of lock shards per Lanes.
const NumShards = 128

// DefaultTimeout bounds a transaction when the caller's context has no deadline.
const DefaultTimeout = 5 * time.Second

// Lanes runs transactions under sharded mutexes. The shard is chosen from the
// key set with tx.WithShardKey; transactions without a key share shard 0.
type Lanes struct {
	shards  [NumShards]sync.Mutex
	view    sync.RWMutex
	timeout time.Duration
}

// NewLanes creates Lanes with the given timeout (DefaultTimeout when zero).
func NewLanes(timeout time.Duration) *Lanes {
	return &Lanes{timeout: timeout}
}

// RunInTx executes fn while holding the shard lock for ctx's shard key. Undo steps
// recorded through Record are replayed in reverse when fn returns an error or
// panics. Hooks registered through OnCommit run in order once fn succeeds,
// still under the shard lock and with View readers held off.
func (l *Lanes) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := l.timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	shard := selectShard(tx.ShardKey(ctx))
	l.shards[shard].Lock()
	defer l.shards[shard].Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	j := &journal{}
	defer func() {
		if p := recover(); p != nil {
			j.rollback()
			panic(p)
		}
		if err != nil {
			j.rollback()
		}
	}()
	if err = fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		return err
	}
	l.view.Lock()
	defer l.view.Unlock()
	j.commit()
	return nil
}

// View runs fn against committed state only. Commits wait until fn returns,
// so a reader never sees part of a transaction. fn must not call View or
// RunInTx on the same Lanes.
func (l *Lanes) View(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "read aborted: context cancelled")
	}
	l.view.RLock()
	defer l.view.RUnlock()
	return fn(ctx)
}

// Record registers an undo step for the transaction carried by ctx. Outside a
// transaction the write is final and undo is discarded.
func Record(ctx context.Context, undo func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.record(undo)
	}
}

// OnCommit defers fn until the transaction carried by ctx succeeds. Outside a
// transaction fn runs immediately.
func OnCommit(ctx context.Context, fn func()) {
	if j, ok := ctx.Value(journalKey{}).(*journal); ok {
		j.onCommit(fn)
		return
	}
	fn()
}

type journalKey struct{}

type journal struct {
	mu      sync.Mutex
	undo    []func()
	commits []func()
}

func (j *journal) onCommit(fn func()) {
	j.mu.Lock()
	j.commits = append(j.commits, fn)
	j.mu.Unlock()
}

func (j *journal) commit() {
	j.mu.Lock()
	commits := j.commits
	j.commits = nil
	j.undo = nil
	j.mu.Unlock()
	for _, fn := range commits {
		fn()
	}
}

func (j *journal) record(undo func()) {
	j.mu.Lock()
	j.undo = append(j.undo, undo)
	j.mu.Unlock()
}

func (j *journal) rollback() {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
	j.commits = nil
}

func selectShard(key string) int {
	if key == "" {
		return 0
	}
	return int(hashString(key) % NumShards)
}

// hashString is FNV-1a.
func hashString(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
