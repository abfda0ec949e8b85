package aggregates

import (
	"context"

	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy/guard"
)

type refundAggregate struct {
	deps   SettlementDeps
	ledger refundLedger
}

func NewRefundAggregate(deps SettlementDeps) domainagg.RefundAggregate {
	deps = deps.withDefaults()
	return &refundAggregate{deps: deps, ledger: refundLedger{deps: deps}}
}

func (a *refundAggregate) Contract() domainagg.Contract {
	return domainagg.RefundAggregateContract
}

func (a *refundAggregate) ClaimPendingRefund(ctx context.Context, in domainagg.ClaimPendingRefundInput) (domainagg.RefundOutcome, error) {
	const op = "GroupBuy.Refund.Claim"
	if err := a.deps.validate(op); err != nil {
		return domainagg.RefundOutcome{}, err
	}
	participant := types.NormalizeIdentity(in.Participant.Identity)
	if err := guard.Identity(op, participant); err != nil {
		return domainagg.RefundOutcome{}, err
	}
	return a.ledger.claim(ctx, op, participant)
}
