package aggregates

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/yungbote/curriculum-backend/internal/data/db"
	domainagg "github.com/yungbote/curriculum-backend/internal/domain/aggregates"
	"github.com/yungbote/curriculum-backend/internal/platform/dbctx"
)

// TxRunner provides a shared transaction boundary primitive for aggregate writes.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type gormTxRunner struct {
	db   *gorm.DB
	opts *sql.TxOptions
}

// NewGormTxRunner returns a transaction runner backed by GORM transactions.
func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &gormTxRunner{db: db}
}

// NewSnapshotTxRunner returns a runner whose transactions read one consistent
// snapshot: repeatable read and read-only on Postgres, a plain transaction
// elsewhere.
func NewSnapshotTxRunner(gdb *gorm.DB) TxRunner {
	r := &gormTxRunner{db: gdb}
	if db.IsPostgres(gdb) {
		r.opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}
	return r
}

func (r *gormTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	txFn := func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	}
	if r.opts != nil {
		return r.db.WithContext(ctx).Transaction(txFn, r.opts)
	}
	return r.db.WithContext(ctx).Transaction(txFn)
}
