package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// DB returns the transaction bound to ctx, falling back to db when no
// transaction is open.
func (c Context) DB(db *gorm.DB) *gorm.DB {
	if c.Tx != nil {
		return c.Tx.WithContext(c.Ctx)
	}
	if db == nil {
		return nil
	}
	return db.WithContext(c.Ctx)
}
