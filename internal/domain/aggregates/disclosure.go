package aggregates

import (
	"context"
	"time"

	"github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
)

var DisclosureAggregateContract = Contract{
	Name:    "GroupBuy.DisclosureAggregate",
	Locks:   []LockScope{LockCampaign, LockOrder, LockDisclosure, LockRefund},
	Effects: []Effect{EffectAudit, EffectOracle, EffectTransfer},
	Notes:   "Owns the request/callback/timeout exchange with the confidential-computation oracle.",
}

// DisclosureAggregate coordinates confidential-value disclosure for processing orders.
// The callback and the timeout are mutually exclusive through the disclosure deadline.
type DisclosureAggregate interface {
	Aggregate

	RequestDisclosure(ctx context.Context, in RequestDisclosureInput) (RequestDisclosureResult, error)

	OnDisclosureCallback(ctx context.Context, in DisclosureCallbackInput) (DisclosureCallbackResult, error)

	OnDisclosureTimeout(ctx context.Context, in DisclosureTimeoutInput) (DisclosureTimeoutResult, error)
}

type RequestDisclosureInput struct {
	Participant groupbuy.Actor
	OrderID     uint64
}

type RequestDisclosureResult struct {
	OrderID   uint64
	RequestID string
	Deadline  time.Time
}

type DisclosureCallbackInput struct {
	RequestID        string
	RevealedQuantity int64
	RevealedAmount   int64
	Proof            string
}

type DisclosureCallbackResult struct {
	OrderID          uint64
	Status           groupbuy.OrderStatus
	RevealedQuantity int64
	RevealedAmount   int64
}

type DisclosureTimeoutInput struct {
	Administrator groupbuy.Actor
	OrderID       uint64
}

type DisclosureTimeoutResult struct {
	OrderID uint64
	Status  groupbuy.OrderStatus
	Refund  RefundOutcome
}
