package groupbuy

import (
	"gorm.io/gorm"

	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type PayoutRepo interface {
	Create(dbc dbctx.Context, row *types.Payout) error
	GetByIdempotencyKey(dbc dbctx.Context, key string) (*types.Payout, error)
	ListByRecipient(dbc dbctx.Context, recipient string) ([]*types.Payout, error)
}

type payoutRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPayoutRepo(db *gorm.DB, baseLog *logger.Logger) PayoutRepo {
	return &payoutRepo{db: db, log: baseLog.With("repo", "PayoutRepo")}
}

func (r *payoutRepo) Create(dbc dbctx.Context, row *types.Payout) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *payoutRepo) GetByIdempotencyKey(dbc dbctx.Context, key string) (*types.Payout, error) {
	if key == "" {
		return nil, nil
	}
	var row types.Payout
	if err := dbc.DB(r.db).Where("idempotency_key = ?", key).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.IdempotencyKey == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *payoutRepo) ListByRecipient(dbc dbctx.Context, recipient string) ([]*types.Payout, error) {
	var out []*types.Payout
	err := dbc.DB(r.db).Where("recipient = ?", recipient).Order("created_at ASC").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
