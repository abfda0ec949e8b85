package aggregates

import (
	"context"

	"github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
)

var RefundAggregateContract = Contract{
	Name:    "GroupBuy.RefundAggregate",
	Locks:   []LockScope{LockRefund},
	Effects: []Effect{EffectAudit, EffectTransfer},
	Notes:   "Owns pending refund balances; zeroes a balance before any outbound transfer.",
}

// RefundAggregate is the pull-based compensation store.
type RefundAggregate interface {
	Aggregate

	// ClaimPendingRefund zeroes the caller's balance atomically and then transfers it.
	ClaimPendingRefund(ctx context.Context, in ClaimPendingRefundInput) (RefundOutcome, error)
}

type ClaimPendingRefundInput struct {
	Participant groupbuy.Actor
}
