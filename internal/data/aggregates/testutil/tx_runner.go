package testutil

import (
	"context"
	"errors"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/data/aggregates"
	"github.com/yungbote/curriculum-backend/internal/platform/dbctx"
)

// InjectedTxRunner is a test helper for aggregate tests. With DB set the body
// runs inside a real transaction that is rolled back on any injected failure;
// without it the body runs with no transaction at all.
type InjectedTxRunner struct {
	mu sync.Mutex

	DB *gorm.DB

	FailBegin      error
	FailBeforeBody error
	FailCommit     error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

var errRollback = errors.New("injected rollback")

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin := r.FailBegin
	failBeforeBody := r.FailBeforeBody
	failCommit := r.FailCommit
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if failBeforeBody != nil {
		r.count(&r.RollbackCalls)
		return failBeforeBody
	}
	if fn == nil {
		r.count(&r.CommitCalls)
		return nil
	}

	if r.DB == nil {
		if err := fn(dbctx.Context{Ctx: ctx}); err != nil {
			r.count(&r.RollbackCalls)
			return err
		}
		if failCommit != nil {
			r.count(&r.RollbackCalls)
			return failCommit
		}
		r.count(&r.CommitCalls)
		return nil
	}

	var bodyErr error
	txErr := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if bodyErr = fn(dbctx.Context{Ctx: ctx, Tx: tx}); bodyErr != nil {
			return bodyErr
		}
		if failCommit != nil {
			return errRollback
		}
		return nil
	})
	switch {
	case bodyErr != nil:
		r.count(&r.RollbackCalls)
		return bodyErr
	case errors.Is(txErr, errRollback):
		r.count(&r.RollbackCalls)
		return failCommit
	case txErr != nil:
		r.count(&r.RollbackCalls)
		return txErr
	}
	r.count(&r.CommitCalls)
	return nil
}

func (r *InjectedTxRunner) count(n *int) {
	r.mu.Lock()
	*n++
	r.mu.Unlock()
}
