package aggregates

import (
	"strings"

	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
	"gorm.io/gorm"
)

// CASGuard performs conditional balance debits. A debit that would take escrow or a
// pending refund below zero touches no row and reports false.
type CASGuard struct {
	db *gorm.DB
}

func NewCASGuard(db *gorm.DB) CASGuard {
	return CASGuard{db: db}
}

func (g CASGuard) baseDB(dbc dbctx.Context) (*gorm.DB, error) {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx), nil
	}
	if g.db != nil {
		return g.db.WithContext(dbc.Ctx), nil
	}
	return nil, ValidationError("missing db transaction context")
}

// DebitIfCovered subtracts amount from column only when the stored value covers it.
func (g CASGuard) DebitIfCovered(dbc dbctx.Context, table, keyColumn string, key any, column string, amount int64, extra map[string]any) (bool, error) {
	db, err := g.baseDB(dbc)
	if err != nil {
		return false, err
	}
	if amount < 0 {
		return false, ValidationError("debit amount must be >= 0")
	}
	updates := map[string]any{column: gorm.Expr(column+" - ?", amount)}
	for k, v := range extra {
		updates[k] = v
	}
	res := db.Table(table).
		Where(keyColumn+" = ? AND "+column+" >= ?", key, amount).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// RequireCASSuccess converts a failed compare-and-set into a typed conflict error.
func RequireCASSuccess(ok bool, message string) error {
	if ok {
		return nil
	}
	return ConflictError(strings.TrimSpace(message))
}
