package testutil

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
)

// SeedCampaign inserts an active campaign with its stats row, bypassing validation.
func SeedCampaign(tb testing.TB, ctx context.Context, tx *gorm.DB, organizer string, deadline time.Time) *types.Campaign {
	tb.Helper()
	now := time.Now().UTC()
	c := &types.Campaign{
		Organizer:        organizer,
		Name:             "bulk coffee",
		Description:      "single origin",
		UnitPrice:        10,
		MinOrderQuantity: 5,
		MaxOrderQuantity: 100,
		Category:         types.CategoryFood,
		Deadline:         deadline,
		Active:           true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed campaign: %v", err)
	}
	st := &types.AggregateStats{CampaignID: c.ID, QuantityHandle: "q0", AmountHandle: "a0", UpdatedAt: now}
	if err := tx.WithContext(ctx).Create(st).Error; err != nil {
		tb.Fatalf("seed stats: %v", err)
	}
	return c
}

// SeedOrder inserts a live order in the given status.
func SeedOrder(tb testing.TB, ctx context.Context, tx *gorm.DB, campaignID uint64, participant string, status types.OrderStatus) *types.Order {
	tb.Helper()
	now := time.Now().UTC()
	key := types.LiveOrderKey(campaignID, participant)
	o := &types.Order{
		CampaignID:         campaignID,
		Participant:        participant,
		QuantityHandle:     "q",
		AmountHandle:       "a",
		PaidAmount:         10,
		PlacedAt:           now,
		Status:             status,
		DisclosureStatus:   types.DisclosureNone,
		DisclosureDeadline: now.Add(types.DefaultOrderLifetime),
		LiveKey:            &key,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := tx.WithContext(ctx).Create(o).Error; err != nil {
		tb.Fatalf("seed order: %v", err)
	}
	return o
}
