package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/groupbuy-settlement/internal/data/repos/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type CampaignRepo = groupbuy.CampaignRepo
type AggregateStatsRepo = groupbuy.AggregateStatsRepo
type OrderRepo = groupbuy.OrderRepo
type DisclosureRequestRepo = groupbuy.DisclosureRequestRepo
type PendingRefundRepo = groupbuy.PendingRefundRepo
type PayoutRepo = groupbuy.PayoutRepo
type AuditEventRepo = groupbuy.AuditEventRepo

func NewCampaignRepo(db *gorm.DB, baseLog *logger.Logger) CampaignRepo {
	return groupbuy.NewCampaignRepo(db, baseLog)
}
func NewAggregateStatsRepo(db *gorm.DB, baseLog *logger.Logger) AggregateStatsRepo {
	return groupbuy.NewAggregateStatsRepo(db, baseLog)
}
func NewOrderRepo(db *gorm.DB, baseLog *logger.Logger) OrderRepo {
	return groupbuy.NewOrderRepo(db, baseLog)
}
func NewDisclosureRequestRepo(db *gorm.DB, baseLog *logger.Logger) DisclosureRequestRepo {
	return groupbuy.NewDisclosureRequestRepo(db, baseLog)
}
func NewPendingRefundRepo(db *gorm.DB, baseLog *logger.Logger) PendingRefundRepo {
	return groupbuy.NewPendingRefundRepo(db, baseLog)
}
func NewPayoutRepo(db *gorm.DB, baseLog *logger.Logger) PayoutRepo {
	return groupbuy.NewPayoutRepo(db, baseLog)
}
func NewAuditEventRepo(db *gorm.DB, baseLog *logger.Logger) AuditEventRepo {
	return groupbuy.NewAuditEventRepo(db, baseLog)
}

// Set bundles every repo over one database handle.
type Set struct {
	Campaign   CampaignRepo
	Stats      AggregateStatsRepo
	Order      OrderRepo
	Disclosure DisclosureRequestRepo
	Refund     PendingRefundRepo
	Payout     PayoutRepo
	Audit      AuditEventRepo
}

func NewSet(db *gorm.DB, baseLog *logger.Logger) Set {
	return Set{
		Campaign:   NewCampaignRepo(db, baseLog),
		Stats:      NewAggregateStatsRepo(db, baseLog),
		Order:      NewOrderRepo(db, baseLog),
		Disclosure: NewDisclosureRequestRepo(db, baseLog),
		Refund:     NewPendingRefundRepo(db, baseLog),
		Payout:     NewPayoutRepo(db, baseLog),
		Audit:      NewAuditEventRepo(db, baseLog),
	}
}
