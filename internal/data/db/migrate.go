package db

import (
	"gorm.io/gorm"

	"github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Campaign manager
		&groupbuy.Campaign{},
		&groupbuy.AggregateStats{},

		// Order engine + disclosure coordinator
		&groupbuy.Order{},
		&groupbuy.DisclosureRequest{},

		// Refund ledger
		&groupbuy.PendingRefund{},
		&groupbuy.Payout{},

		// Audit outbox
		&groupbuy.AuditEvent{},
	)
}
