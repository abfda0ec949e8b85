package groupbuy

import (
	"gorm.io/gorm"

	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type AuditEventRepo interface {
	Create(dbc dbctx.Context, rows []*types.AuditEvent) error
	ListByCampaign(dbc dbctx.Context, campaignID uint64, afterID uint64, limit int) ([]*types.AuditEvent, error)
	ListByEntity(dbc dbctx.Context, entityType, entityID string) ([]*types.AuditEvent, error)
}

type auditEventRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAuditEventRepo(db *gorm.DB, baseLog *logger.Logger) AuditEventRepo {
	return &auditEventRepo{db: db, log: baseLog.With("repo", "AuditEventRepo")}
}

func (r *auditEventRepo) Create(dbc dbctx.Context, rows []*types.AuditEvent) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.DB(r.db).Create(&rows).Error
}

func (r *auditEventRepo) ListByCampaign(dbc dbctx.Context, campaignID uint64, afterID uint64, limit int) ([]*types.AuditEvent, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var out []*types.AuditEvent
	err := dbc.DB(r.db).
		Where("campaign_id = ? AND id > ?", campaignID, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *auditEventRepo) ListByEntity(dbc dbctx.Context, entityType, entityID string) ([]*types.AuditEvent, error) {
	var out []*types.AuditEvent
	err := dbc.DB(r.db).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
