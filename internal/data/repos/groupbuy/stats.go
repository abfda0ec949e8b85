package groupbuy

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type AggregateStatsRepo interface {
	Create(dbc dbctx.Context, row *types.AggregateStats) error
	GetByCampaignID(dbc dbctx.Context, campaignID uint64) (*types.AggregateStats, error)
	LockByCampaignID(dbc dbctx.Context, campaignID uint64) (*types.AggregateStats, error)
	UpdateFields(dbc dbctx.Context, campaignID uint64, updates map[string]interface{}) error
}

type aggregateStatsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAggregateStatsRepo(db *gorm.DB, baseLog *logger.Logger) AggregateStatsRepo {
	return &aggregateStatsRepo{db: db, log: baseLog.With("repo", "AggregateStatsRepo")}
}

func (r *aggregateStatsRepo) Create(dbc dbctx.Context, row *types.AggregateStats) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *aggregateStatsRepo) GetByCampaignID(dbc dbctx.Context, campaignID uint64) (*types.AggregateStats, error) {
	return r.find(dbc.DB(r.db), campaignID)
}

func (r *aggregateStatsRepo) LockByCampaignID(dbc dbctx.Context, campaignID uint64) (*types.AggregateStats, error) {
	return r.find(dbc.DB(r.db).Clauses(clause.Locking{Strength: "UPDATE"}), campaignID)
}

func (r *aggregateStatsRepo) find(t *gorm.DB, campaignID uint64) (*types.AggregateStats, error) {
	if campaignID == 0 {
		return nil, nil
	}
	var row types.AggregateStats
	if err := t.Where("campaign_id = ?", campaignID).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.CampaignID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *aggregateStatsRepo) UpdateFields(dbc dbctx.Context, campaignID uint64, updates map[string]interface{}) error {
	if campaignID == 0 || len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.AggregateStats{}).Where("campaign_id = ?", campaignID).Updates(updates).Error
}
