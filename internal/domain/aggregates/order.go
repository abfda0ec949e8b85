package aggregates

import (
	"context"
	"time"

	"github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
)

var OrderAggregateContract = Contract{
	Name:    "GroupBuy.OrderAggregate",
	Locks:   []LockScope{LockCampaign, LockOrder, LockRefund},
	Effects: []Effect{EffectAudit, EffectTransfer},
	Notes:   "Owns placement, cancellation and reclaim together with campaign counters and escrow.",
}

// OrderAggregate owns the order placement/cancellation side of the state machine.
type OrderAggregate interface {
	Aggregate

	PlaceOrder(ctx context.Context, in PlaceOrderInput) (PlaceOrderResult, error)

	// CancelOrder moves a PENDING order to CANCELLED and refunds it.
	CancelOrder(ctx context.Context, in CancelOrderInput) (CancelOrderResult, error)

	// ReclaimUnfilledOrder refunds a PENDING order once its campaign is past the deadline or
	// deactivated.
	ReclaimUnfilledOrder(ctx context.Context, in CancelOrderInput) (CancelOrderResult, error)
}

type PlaceOrderInput struct {
	Participant groupbuy.Actor
	CampaignID  uint64
	Quantity    int64
	PaidAmount  int64
}

type PlaceOrderResult struct {
	OrderID            uint64
	CampaignID         uint64
	Status             groupbuy.OrderStatus
	DisclosureDeadline time.Time
}

type CancelOrderInput struct {
	Participant groupbuy.Actor
	OrderID     uint64
}

type CancelOrderResult struct {
	OrderID uint64
	Status  groupbuy.OrderStatus
	Refund  RefundOutcome
}

// RefundOutcome reports how a refund was settled.
type RefundOutcome struct {
	Recipient string
	Amount    int64
	// Transferred is true when the direct transfer succeeded; otherwise the amount
	// sits in the recipient's pending refund balance.
	Transferred bool
	PayoutID    string
}
