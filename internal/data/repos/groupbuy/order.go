package groupbuy

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type OrderRepo interface {
	Create(dbc dbctx.Context, row *types.Order) error

	GetByID(dbc dbctx.Context, id uint64) (*types.Order, error)
	LockByID(dbc dbctx.Context, id uint64) (*types.Order, error)
	GetLiveByKey(dbc dbctx.Context, liveKey string) (*types.Order, error)

	// LockByCampaignAndStatus locks every order of the campaign in the given status, ordered by id.
	LockByCampaignAndStatus(dbc dbctx.Context, campaignID uint64, status types.OrderStatus) ([]*types.Order, error)
	ListIDsByCampaign(dbc dbctx.Context, campaignID uint64) ([]uint64, error)

	// ListOverdueRequested returns orders still awaiting disclosure whose deadline passed.
	ListOverdueRequested(dbc dbctx.Context, now time.Time, limit int) ([]*types.Order, error)

	UpdateFields(dbc dbctx.Context, id uint64, updates map[string]interface{}) error
	// UpdateStatusWhere updates the order only while it is still in from. It reports whether a row changed.
	UpdateStatusWhere(dbc dbctx.Context, id uint64, from types.OrderStatus, updates map[string]interface{}) (bool, error)
}

type orderRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return &orderRepo{db: db, log: baseLog.With("repo", "OrderRepo")}
}

func (r *orderRepo) Create(dbc dbctx.Context, row *types.Order) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *orderRepo) GetByID(dbc dbctx.Context, id uint64) (*types.Order, error) {
	return r.findOne(dbc.DB(r.db), "id = ?", id)
}

func (r *orderRepo) LockByID(dbc dbctx.Context, id uint64) (*types.Order, error) {
	return r.findOne(dbc.DB(r.db).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

func (r *orderRepo) GetLiveByKey(dbc dbctx.Context, liveKey string) (*types.Order, error) {
	if liveKey == "" {
		return nil, nil
	}
	return r.findOne(dbc.DB(r.db), "live_key = ?", liveKey)
}

func (r *orderRepo) findOne(t *gorm.DB, where string, arg interface{}) (*types.Order, error) {
	if id, ok := arg.(uint64); ok && id == 0 {
		return nil, nil
	}
	var row types.Order
	if err := t.Where(where, arg).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *orderRepo) LockByCampaignAndStatus(dbc dbctx.Context, campaignID uint64, status types.OrderStatus) ([]*types.Order, error) {
	var out []*types.Order
	if campaignID == 0 {
		return out, nil
	}
	err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("campaign_id = ? AND status = ?", campaignID, status).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) ListIDsByCampaign(dbc dbctx.Context, campaignID uint64) ([]uint64, error) {
	var ids []uint64
	if campaignID == 0 {
		return ids, nil
	}
	err := dbc.DB(r.db).
		Model(&types.Order{}).
		Where("campaign_id = ?", campaignID).
		Order("id ASC").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *orderRepo) ListOverdueRequested(dbc dbctx.Context, now time.Time, limit int) ([]*types.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.Order
	err := dbc.DB(r.db).
		Where("disclosure_status = ? AND disclosure_deadline <= ?", types.DisclosureRequested, now).
		Order("disclosure_deadline ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *orderRepo) UpdateFields(dbc dbctx.Context, id uint64, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Order{}).Where("id = ?", id).Updates(updates).Error
}

func (r *orderRepo) UpdateStatusWhere(dbc dbctx.Context, id uint64, from types.OrderStatus, updates map[string]interface{}) (bool, error) {
	if id == 0 || len(updates) == 0 {
		return false, nil
	}
	res := dbc.DB(r.db).Model(&types.Order{}).Where("id = ? AND status = ?", id, from).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
