package groupbuy

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type PendingRefundRepo interface {
	GetByParticipant(dbc dbctx.Context, participant string) (*types.PendingRefund, error)
	LockByParticipant(dbc dbctx.Context, participant string) (*types.PendingRefund, error)
	// Credit adds amount to the participant's balance, creating the row when absent.
	Credit(dbc dbctx.Context, participant string, amount int64, at time.Time) error
	SetAmount(dbc dbctx.Context, participant string, amount int64, at time.Time) error
}

type pendingRefundRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPendingRefundRepo(db *gorm.DB, baseLog *logger.Logger) PendingRefundRepo {
	return &pendingRefundRepo{db: db, log: baseLog.With("repo", "PendingRefundRepo")}
}

func (r *pendingRefundRepo) GetByParticipant(dbc dbctx.Context, participant string) (*types.PendingRefund, error) {
	return r.find(dbc.DB(r.db), participant)
}

func (r *pendingRefundRepo) LockByParticipant(dbc dbctx.Context, participant string) (*types.PendingRefund, error) {
	return r.find(dbc.DB(r.db).Clauses(clause.Locking{Strength: "UPDATE"}), participant)
}

func (r *pendingRefundRepo) find(t *gorm.DB, participant string) (*types.PendingRefund, error) {
	if participant == "" {
		return nil, nil
	}
	var row types.PendingRefund
	if err := t.Where("participant = ?", participant).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.Participant == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *pendingRefundRepo) Credit(dbc dbctx.Context, participant string, amount int64, at time.Time) error {
	if participant == "" || amount == 0 {
		return nil
	}
	row := &types.PendingRefund{Participant: participant, Amount: amount, UpdatedAt: at}
	return dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "participant"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"amount":     gorm.Expr("pending_refund.amount + ?", amount),
				"updated_at": at,
			}),
		}).
		Create(row).Error
}

func (r *pendingRefundRepo) SetAmount(dbc dbctx.Context, participant string, amount int64, at time.Time) error {
	if participant == "" {
		return nil
	}
	return dbc.DB(r.db).
		Model(&types.PendingRefund{}).
		Where("participant = ?", participant).
		Updates(map[string]interface{}{"amount": amount, "updated_at": at}).Error
}
