package groupbuy

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type DisclosureRequestRepo interface {
	Create(dbc dbctx.Context, row *types.DisclosureRequest) error
	GetByRequestID(dbc dbctx.Context, requestID string) (*types.DisclosureRequest, error)
	LockByRequestID(dbc dbctx.Context, requestID string) (*types.DisclosureRequest, error)
	GetByOrderID(dbc dbctx.Context, orderID uint64) (*types.DisclosureRequest, error)
	UpdateFields(dbc dbctx.Context, requestID string, updates map[string]interface{}) error
	Delete(dbc dbctx.Context, requestID string) error
}

type disclosureRequestRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDisclosureRequestRepo(db *gorm.DB, baseLog *logger.Logger) DisclosureRequestRepo {
	return &disclosureRequestRepo{db: db, log: baseLog.With("repo", "DisclosureRequestRepo")}
}

func (r *disclosureRequestRepo) Create(dbc dbctx.Context, row *types.DisclosureRequest) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *disclosureRequestRepo) GetByRequestID(dbc dbctx.Context, requestID string) (*types.DisclosureRequest, error) {
	return r.findByRequestID(dbc.DB(r.db), requestID)
}

func (r *disclosureRequestRepo) LockByRequestID(dbc dbctx.Context, requestID string) (*types.DisclosureRequest, error) {
	return r.findByRequestID(dbc.DB(r.db).Clauses(clause.Locking{Strength: "UPDATE"}), requestID)
}

func (r *disclosureRequestRepo) findByRequestID(t *gorm.DB, requestID string) (*types.DisclosureRequest, error) {
	if requestID == "" {
		return nil, nil
	}
	var row types.DisclosureRequest
	if err := t.Where("request_id = ?", requestID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.RequestID == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *disclosureRequestRepo) GetByOrderID(dbc dbctx.Context, orderID uint64) (*types.DisclosureRequest, error) {
	if orderID == 0 {
		return nil, nil
	}
	var row types.DisclosureRequest
	if err := dbc.DB(r.db).Where("order_id = ?", orderID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.RequestID == "" {
		return nil, nil
	}
	return &row, nil
}

func (r *disclosureRequestRepo) UpdateFields(dbc dbctx.Context, requestID string, updates map[string]interface{}) error {
	if requestID == "" || len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.DisclosureRequest{}).Where("request_id = ?", requestID).Updates(updates).Error
}

func (r *disclosureRequestRepo) Delete(dbc dbctx.Context, requestID string) error {
	if requestID == "" {
		return nil
	}
	return dbc.DB(r.db).Where("request_id = ?", requestID).Delete(&types.DisclosureRequest{}).Error
}
