package aggregates

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/groupbuy-settlement/internal/audit"
	"github.com/yungbote/groupbuy-settlement/internal/confidential"
	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy/guard"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
)

type orderAggregate struct {
	deps   SettlementDeps
	ledger refundLedger
}

func NewOrderAggregate(deps SettlementDeps) domainagg.OrderAggregate {
	deps = deps.withDefaults()
	return &orderAggregate{deps: deps, ledger: refundLedger{deps: deps}}
}

func (a *orderAggregate) Contract() domainagg.Contract {
	return domainagg.OrderAggregateContract
}

func (a *orderAggregate) PlaceOrder(ctx context.Context, in domainagg.PlaceOrderInput) (domainagg.PlaceOrderResult, error) {
	const op = "GroupBuy.Order.Place"
	var out domainagg.PlaceOrderResult
	if err := a.deps.validate(op); err != nil {
		return out, err
	}
	if a.deps.Boundary == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "confidential boundary not configured", nil)
	}
	participant := types.NormalizeIdentity(in.Participant.Identity)
	if err := guard.Identity(op, participant); err != nil {
		return out, err
	}
	if err := guard.Positive(op, "quantity", in.Quantity); err != nil {
		return out, err
	}
	if err := guard.Positive(op, "paid_amount", in.PaidAmount); err != nil {
		return out, err
	}

	var events []*types.AuditEvent
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		now := a.deps.now()
		c, err := a.deps.Repos.Campaign.LockByID(dbc, in.CampaignID)
		if err != nil {
			return err
		}
		if err := guard.CampaignOpen(op, c, now); err != nil {
			return err
		}
		if err := guard.Range(op, "quantity", in.Quantity, 1, c.MaxOrderQuantity); err != nil {
			return err
		}
		liveKey := types.LiveOrderKey(c.ID, participant)
		existing, err := a.deps.Repos.Order.GetLiveByKey(dbc, liveKey)
		if err != nil {
			return err
		}
		if existing != nil {
			return domainagg.Errorf(domainagg.CodeDuplicateOrder, op, "participant already holds order %d on campaign %d", existing.ID, c.ID)
		}
		if c.CurrentOrders >= c.MaxOrderQuantity {
			return domainagg.Errorf(domainagg.CodeCapacityExceeded, op, "campaign %d is full", c.ID)
		}
		expected, err := guard.MulNoOverflow(op, c.UnitPrice, in.Quantity)
		if err != nil {
			return err
		}
		if in.PaidAmount != expected {
			return domainagg.Errorf(domainagg.CodePaymentMismatch, op, "paid %d, expected %d", in.PaidAmount, expected)
		}
		totalCollected, err := guard.AddNoOverflow(op, c.TotalCollected, in.PaidAmount)
		if err != nil {
			return err
		}
		escrow, err := guard.AddNoOverflow(op, c.EscrowBalance, in.PaidAmount)
		if err != nil {
			return err
		}

		qty, amt, err := a.wrapCommitment(ctx, participant, in.Quantity, in.PaidAmount)
		if err != nil {
			return domainagg.Wrap(domainagg.CodeRetryable, op, err)
		}

		o := &types.Order{
			CampaignID:         c.ID,
			Participant:        participant,
			QuantityHandle:     qty.String(),
			AmountHandle:       amt.String(),
			PaidAmount:         in.PaidAmount,
			PlacedAt:           now,
			Status:             types.OrderPending,
			DisclosureStatus:   types.DisclosureNone,
			DisclosureDeadline: now.Add(a.deps.OrderLifetime),
			LiveKey:            &liveKey,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := a.deps.Repos.Order.Create(dbc, o); err != nil {
			if isUniqueViolation(err) {
				return domainagg.NewError(domainagg.CodeDuplicateOrder, op, "participant already holds a live order", err)
			}
			return err
		}

		if err := a.combineStats(ctx, dbc, op, c.ID, qty, amt, now); err != nil {
			return err
		}
		if err := a.deps.Repos.Campaign.UpdateFields(dbc, c.ID, map[string]interface{}{
			"current_orders":  c.CurrentOrders + 1,
			"total_collected": totalCollected,
			"escrow_balance":  escrow,
			"updated_at":      now,
		}); err != nil {
			return err
		}

		rec := audit.OrderRecord(types.AuditOrderPlaced, participant, o, "")
		rec.Metadata = map[string]any{"disclosure_deadline": o.DisclosureDeadline}
		ev, err := a.deps.Audit.Write(dbc, now, rec)
		if err != nil {
			return err
		}
		events = ev
		out = domainagg.PlaceOrderResult{
			OrderID:            o.ID,
			CampaignID:         c.ID,
			Status:             o.Status,
			DisclosureDeadline: o.DisclosureDeadline,
		}
		return nil
	})
	if err != nil {
		return domainagg.PlaceOrderResult{}, err
	}
	a.deps.Audit.Publish(ctx, events)
	return out, nil
}

// wrapCommitment turns the plaintext commitment into handles the participant may have disclosed.
func (a *orderAggregate) wrapCommitment(ctx context.Context, participant string, quantity, amount int64) (confidential.Handle, confidential.Handle, error) {
	b := a.deps.Boundary
	qty, err := b.Wrap(ctx, quantity)
	if err != nil {
		return "", "", err
	}
	amt, err := b.Wrap(ctx, amount)
	if err != nil {
		return "", "", err
	}
	for _, h := range []confidential.Handle{qty, amt} {
		if err := b.Authorize(ctx, h, participant); err != nil {
			return "", "", err
		}
	}
	return qty, amt, nil
}

// combineStats folds the new order into the campaign's aggregate handles. The participant
// counter only ever grows.
func (a *orderAggregate) combineStats(ctx context.Context, dbc dbctx.Context, op string, campaignID uint64, qty, amt confidential.Handle, now time.Time) error {
	st, err := a.deps.Repos.Stats.LockByCampaignID(dbc, campaignID)
	if err != nil {
		return err
	}
	if st == nil {
		return domainagg.Errorf(domainagg.CodeInternal, op, "aggregate stats missing for campaign %d", campaignID)
	}
	sumQty, err := a.deps.Boundary.Combine(ctx, confidential.Handle(st.QuantityHandle), qty)
	if err != nil {
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	}
	sumAmt, err := a.deps.Boundary.Combine(ctx, confidential.Handle(st.AmountHandle), amt)
	if err != nil {
		return domainagg.Wrap(domainagg.CodeRetryable, op, err)
	}
	return a.deps.Repos.Stats.UpdateFields(dbc, campaignID, map[string]interface{}{
		"participant_count": st.ParticipantCount + 1,
		"quantity_handle":   sumQty.String(),
		"amount_handle":     sumAmt.String(),
		"updated_at":        now,
	})
}

func (a *orderAggregate) CancelOrder(ctx context.Context, in domainagg.CancelOrderInput) (domainagg.CancelOrderResult, error) {
	const op = "GroupBuy.Order.Cancel"
	return a.withdraw(ctx, op, in, types.AuditOrderCancelled, func(c *types.Campaign, o *types.Order, now time.Time) error {
		if !now.Before(c.Deadline) {
			return domainagg.NewError(domainagg.CodeExpired, op, "campaign deadline passed", nil)
		}
		if !now.Before(o.DisclosureDeadline) {
			return domainagg.NewError(domainagg.CodeExpired, op, "order lifetime passed", nil)
		}
		return nil
	})
}

func (a *orderAggregate) ReclaimUnfilledOrder(ctx context.Context, in domainagg.CancelOrderInput) (domainagg.CancelOrderResult, error) {
	const op = "GroupBuy.Order.Reclaim"
	// A PENDING order was never picked up by BeginProcessing, so once the campaign closed or
	// was deactivated nothing else can refund it, whether or not the target was met.
	return a.withdraw(ctx, op, in, types.AuditOrderReclaimed, func(c *types.Campaign, _ *types.Order, now time.Time) error {
		if c.AcceptsOrdersAt(now) {
			return domainagg.NewError(domainagg.CodeInvalidState, op, "campaign still open; cancel instead", nil)
		}
		return nil
	})
}

// withdraw moves a PENDING order to CANCELLED, releases its live key, rolls back the campaign
// counters and refunds it. check runs under the campaign and order locks.
func (a *orderAggregate) withdraw(
	ctx context.Context,
	op string,
	in domainagg.CancelOrderInput,
	action types.AuditAction,
	check func(c *types.Campaign, o *types.Order, now time.Time) error,
) (domainagg.CancelOrderResult, error) {
	out := domainagg.CancelOrderResult{OrderID: in.OrderID}
	if err := a.deps.validate(op); err != nil {
		return out, err
	}
	if err := guard.Identity(op, in.Participant.Identity); err != nil {
		return out, err
	}
	peek, err := a.deps.Repos.Order.GetByID(dbctx.Context{Ctx: ctx}, in.OrderID)
	if err != nil {
		return out, MapError(op, err)
	}
	if err := guard.OrderExists(op, peek); err != nil {
		return out, err
	}

	var (
		events   []*types.AuditEvent
		refunded *types.Order
		amount   int64
	)
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		now := a.deps.now()
		// Campaign before order: the lock order every writer follows.
		c, err := a.deps.Repos.Campaign.LockByID(dbc, peek.CampaignID)
		if err != nil {
			return err
		}
		if err := guard.CampaignExists(op, c); err != nil {
			return err
		}
		o, err := a.deps.Repos.Order.LockByID(dbc, in.OrderID)
		if err != nil {
			return err
		}
		if err := guard.OrderExists(op, o); err != nil {
			return err
		}
		if err := guard.OrderParticipant(op, in.Participant, o); err != nil {
			return err
		}
		if err := guard.Transition(op, o, types.OrderCancelled); err != nil {
			return err
		}
		if err := check(c, o, now); err != nil {
			return err
		}

		ok, err := a.deps.Repos.Order.UpdateStatusWhere(dbc, o.ID, types.OrderPending, map[string]interface{}{
			"status":     types.OrderCancelled,
			"live_key":   nil,
			"updated_at": now,
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "order changed while cancelling"); err != nil {
			return err
		}

		currentOrders := c.CurrentOrders - 1
		totalCollected := c.TotalCollected - o.PaidAmount
		if currentOrders < 0 || totalCollected < 0 {
			return domainagg.Errorf(domainagg.CodeInsufficientFunds, op, "campaign %d counters would go negative", c.ID)
		}
		if err := a.deps.Repos.Campaign.UpdateFields(dbc, c.ID, map[string]interface{}{
			"current_orders":  currentOrders,
			"total_collected": totalCollected,
			"updated_at":      now,
		}); err != nil {
			return err
		}

		amount = o.RefundableAmount()
		if err := a.ledger.credit(dbc, op, c.ID, o.Participant, amount, now); err != nil {
			return err
		}

		rec := audit.OrderRecord(action, o.Participant, o, fmt.Sprintf("refund %d", amount))
		rec.Metadata = map[string]any{"refund": amount}
		ev, err := a.deps.Audit.Write(dbc, now, rec)
		if err != nil {
			return err
		}
		events = ev
		refunded = o
		return nil
	})
	if err != nil {
		return out, err
	}
	a.deps.Audit.Publish(ctx, events)

	out.Status = types.OrderCancelled
	out.Refund = a.ledger.settle(ctx, op, refunded, amount)
	return out, nil
}
