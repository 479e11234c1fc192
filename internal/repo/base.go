// Package repo holds the shared plumbing every GORM-backed store embeds.
package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base binds a gorm handle for a domain repository. Repositories embed it
// and rebuild themselves around a transaction handle via their WithTx
// methods.
type Base struct {
	conn *gorm.DB
}

func NewBase(conn *gorm.DB) Base {
	return Base{conn: conn}
}

// DB returns the handle scoped to ctx so cancellation and deadlines
// propagate into the driver.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.conn
	}
	return b.conn.WithContext(ctx)
}
