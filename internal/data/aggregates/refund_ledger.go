package aggregates

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/groupbuy-settlement/internal/audit"
	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/payout"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
)

const (
	recreditAttempts = 3
	transferTimeout  = 30 * time.Second
)

// refundLedger moves refunds out of campaign escrow. Crediting happens inside the caller's
// transaction; the outbound transfer happens only after that transaction committed.
type refundLedger struct {
	deps SettlementDeps
}

// credit debits the campaign's escrow and credits the recipient's pending balance.
func (l refundLedger) credit(dbc dbctx.Context, op string, campaignID uint64, recipient string, amount int64, now time.Time) error {
	if amount <= 0 {
		return nil
	}
	if types.IsNullIdentity(recipient) {
		return domainagg.NewError(domainagg.CodeInvalidParameter, op, "refund recipient is the null identity", nil)
	}
	ok, err := l.deps.Base.CASGuard.DebitIfCovered(dbc, "campaign", "id", campaignID, "escrow_balance", amount, map[string]any{
		"updated_at": now,
	})
	if err != nil {
		return err
	}
	if !ok {
		return domainagg.Errorf(domainagg.CodeInsufficientFunds, op, "campaign %d escrow cannot cover refund of %d", campaignID, amount)
	}
	return l.deps.Repos.Refund.Credit(dbc, recipient, amount, now)
}

// settle attempts the direct transfer of an amount previously credited by credit. When the
// transfer cannot be made the amount stays claimable. The credit already committed, so the
// caller's cancellation no longer applies.
func (l refundLedger) settle(ctx context.Context, op string, o *types.Order, amount int64) domainagg.RefundOutcome {
	out := domainagg.RefundOutcome{Recipient: o.Participant, Amount: amount}
	if amount <= 0 || l.deps.Transferer == nil {
		return out
	}
	ctx = context.WithoutCancel(ctx)
	base := l.deps.Base
	log := base.Log.With("op", op, "order_id", o.ID, "recipient", o.Participant)

	var taken bool
	err := executeWrite(ctx, base, op+".Sweep", func(dbc dbctx.Context) error {
		ok, err := base.CASGuard.DebitIfCovered(dbc, "pending_refund", "participant", o.Participant, "amount", amount, map[string]any{
			"updated_at": l.deps.now(),
		})
		taken = ok
		return err
	})
	if err != nil {
		log.Warn("refund sweep failed; amount stays pending", "amount", amount, "error", err)
		l.deps.Metrics.ObserveRefund("deferred", amount)
		return out
	}
	if !taken {
		// A concurrent claim already took the balance, this amount included.
		return out
	}

	receipt, err := l.transfer(ctx, payout.Transfer{
		Recipient:      o.Participant,
		Amount:         amount,
		IdempotencyKey: fmt.Sprintf("order-refund:%d", o.ID),
	})
	if err != nil {
		log.Warn("refund transfer failed; crediting pending balance", "amount", amount, "error", err)
		l.recredit(ctx, op, o.Participant, amount, audit.OrderRecord(types.AuditRefundDeferred, o.Participant, o, err.Error()))
		l.deps.Metrics.ObserveRefund("deferred", amount)
		return out
	}

	out.Transferred = true
	out.PayoutID = receipt.ID
	l.record(ctx, op, audit.Record{
		Action:     types.AuditRefundProcessed,
		Actor:      o.Participant,
		EntityType: types.EntityOrder,
		EntityID:   orderEntityID(o.ID),
		CampaignID: o.CampaignID,
		Detail:     fmt.Sprintf("refunded %d", amount),
		Metadata:   map[string]any{"payout_id": receipt.ID, "amount": amount},
	})
	l.deps.Metrics.ObserveRefund("transferred", amount)
	return out
}

// claim zeroes the participant's whole balance, commits, then transfers it.
func (l refundLedger) claim(ctx context.Context, op string, participant string) (domainagg.RefundOutcome, error) {
	out := domainagg.RefundOutcome{Recipient: participant}
	var amount int64
	err := executeWrite(ctx, l.deps.Base, op, func(dbc dbctx.Context) error {
		row, err := l.deps.Repos.Refund.LockByParticipant(dbc, participant)
		if err != nil {
			return err
		}
		if row == nil || row.Amount <= 0 {
			return domainagg.NewError(domainagg.CodeNothingToClaim, op, "no pending refund", nil)
		}
		amount = row.Amount
		return l.deps.Repos.Refund.SetAmount(dbc, participant, 0, l.deps.now())
	})
	if err != nil {
		return out, err
	}
	out.Amount = amount
	// The balance is zeroed and committed; everything below must run to completion.
	ctx = context.WithoutCancel(ctx)
	if l.deps.Transferer == nil {
		l.recredit(ctx, op, participant, amount, audit.Record{Action: types.AuditRefundDeferred, Detail: "no transferer configured"})
		return out, domainagg.NewError(domainagg.CodeInternal, op, "payout transferer not configured", nil)
	}

	receipt, err := l.transfer(ctx, payout.Transfer{
		Recipient:      participant,
		Amount:         amount,
		IdempotencyKey: "claim:" + uuid.NewString(),
	})
	if err != nil {
		l.recredit(ctx, op, participant, amount, audit.Record{Action: types.AuditRefundDeferred, Detail: err.Error()})
		l.deps.Metrics.ObserveRefund("deferred", amount)
		return out, domainagg.NewError(domainagg.CodeRetryable, op, "transfer failed; balance restored", err)
	}
	out.Transferred = true
	out.PayoutID = receipt.ID
	l.record(ctx, op, audit.Record{
		Action:     types.AuditRefundClaimed,
		Actor:      participant,
		EntityType: types.EntityRefund,
		EntityID:   participant,
		Detail:     fmt.Sprintf("claimed %d", amount),
		Metadata:   map[string]any{"payout_id": receipt.ID, "amount": amount},
	})
	l.deps.Metrics.ObserveRefund("claimed", amount)
	return out, nil
}

// transfer bounds a single payout call so a stuck transferer cannot hold a detached context forever.
func (l refundLedger) transfer(ctx context.Context, t payout.Transfer) (payout.Receipt, error) {
	tctx, cancel := context.WithTimeout(ctx, transferTimeout)
	defer cancel()
	return l.deps.Transferer.Transfer(tctx, t)
}

// recredit returns an untransferred amount to the pending balance. rec is completed and
// written in the same transaction.
func (l refundLedger) recredit(ctx context.Context, op, participant string, amount int64, rec audit.Record) {
	if rec.Actor == "" {
		rec.Actor = participant
	}
	if rec.EntityType == "" {
		rec.EntityType = types.EntityRefund
		rec.EntityID = participant
	}
	if rec.Metadata == nil {
		rec.Metadata = map[string]any{}
	}
	rec.Metadata["amount"] = amount

	var events []*types.AuditEvent
	var err error
	for attempt := 1; attempt <= recreditAttempts; attempt++ {
		err = executeWrite(ctx, l.deps.Base, op+".Recredit", func(dbc dbctx.Context) error {
			now := l.deps.now()
			if err := l.deps.Repos.Refund.Credit(dbc, participant, amount, now); err != nil {
				return err
			}
			ev, err := l.deps.Audit.Write(dbc, now, rec)
			events = ev
			return err
		})
		if err == nil {
			l.deps.Audit.Publish(ctx, events)
			return
		}
		if attempt == recreditAttempts {
			break
		}
		timer := time.NewTimer(time.Duration(attempt) * 50 * time.Millisecond)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}
	l.deps.Base.Log.Error("refund re-credit failed; manual reconciliation required",
		"op", op, "participant", participant, "amount", amount, "error", err)
}

func (l refundLedger) record(ctx context.Context, op string, rec audit.Record) {
	var events []*types.AuditEvent
	err := executeWrite(ctx, l.deps.Base, op+".Audit", func(dbc dbctx.Context) error {
		ev, err := l.deps.Audit.Write(dbc, l.deps.now(), rec)
		events = ev
		return err
	})
	if err != nil {
		l.deps.Base.Log.Warn("audit write failed", "op", op, "action", rec.Action, "error", err)
		return
	}
	l.deps.Audit.Publish(ctx, events)
}
