package testutil

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
)

// InjectedTxRunner runs bodies in real transactions on DB and can fail a commit on demand.
// A failed commit rolls the body's writes back.
type InjectedTxRunner struct {
	DB *gorm.DB

	mu sync.Mutex

	FailBegin  error
	FailCommit error
	// FailCommitOnce clears FailCommit after it fires.
	FailCommitOnce bool

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin := r.FailBegin
	r.mu.Unlock()
	if failBegin != nil {
		return failBegin
	}

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if fn != nil {
			if err := fn(dbctx.Context{Ctx: ctx, Tx: tx}); err != nil {
				return err
			}
		}
		r.mu.Lock()
		failCommit := r.FailCommit
		if failCommit != nil && r.FailCommitOnce {
			r.FailCommit = nil
		}
		r.mu.Unlock()
		return failCommit
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.RollbackCalls++
		return err
	}
	r.CommitCalls++
	return nil
}
