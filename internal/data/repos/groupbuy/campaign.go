package groupbuy

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type CampaignRepo interface {
	Create(dbc dbctx.Context, row *types.Campaign) error
	GetByID(dbc dbctx.Context, id uint64) (*types.Campaign, error)
	LockByID(dbc dbctx.Context, id uint64) (*types.Campaign, error)
	UpdateFields(dbc dbctx.Context, id uint64, updates map[string]interface{}) error
}

type campaignRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCampaignRepo(db *gorm.DB, baseLog *logger.Logger) CampaignRepo {
	return &campaignRepo{db: db, log: baseLog.With("repo", "CampaignRepo")}
}

func (r *campaignRepo) Create(dbc dbctx.Context, row *types.Campaign) error {
	if row == nil {
		return nil
	}
	return dbc.DB(r.db).Create(row).Error
}

func (r *campaignRepo) GetByID(dbc dbctx.Context, id uint64) (*types.Campaign, error) {
	if id == 0 {
		return nil, nil
	}
	var row types.Campaign
	if err := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&row).Error; err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *campaignRepo) LockByID(dbc dbctx.Context, id uint64) (*types.Campaign, error) {
	if id == 0 {
		return nil, nil
	}
	var row types.Campaign
	err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Limit(1).
		Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == 0 {
		return nil, nil
	}
	return &row, nil
}

func (r *campaignRepo) UpdateFields(dbc dbctx.Context, id uint64, updates map[string]interface{}) error {
	if id == 0 || len(updates) == 0 {
		return nil
	}
	return dbc.DB(r.db).Model(&types.Campaign{}).Where("id = ?", id).Updates(updates).Error
}
