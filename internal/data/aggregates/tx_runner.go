package aggregates

import (
	"context"

	"gorm.io/gorm"

	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
)

// TxRunner is the single transaction boundary for settlement writes. Every ledger
// mutation of one operation commits or rolls back together.
type TxRunner interface {
	InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error
}

type ledgerTxRunner struct {
	db *gorm.DB
}

func NewGormTxRunner(db *gorm.DB) TxRunner {
	return &ledgerTxRunner{db: db}
}

func (r *ledgerTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	if fn == nil {
		return nil
	}
	if r == nil || r.db == nil {
		return domainagg.NewError(domainagg.CodeInternal, "aggregate.tx", "transaction runner has nil db", nil)
	}
	// A caller that gave up before the write started gets a retryable answer and no rows.
	if err := ctx.Err(); err != nil {
		return domainagg.NewError(domainagg.CodeRetryable, "aggregate.tx", "request cancelled before commit", err)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
