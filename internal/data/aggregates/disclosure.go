package aggregates

import (
	"context"
	"fmt"

	"github.com/yungbote/groupbuy-settlement/internal/audit"
	"github.com/yungbote/groupbuy-settlement/internal/confidential"
	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy/guard"
	"github.com/yungbote/groupbuy-settlement/internal/oracle"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
)

type disclosureAggregate struct {
	deps   SettlementDeps
	ledger refundLedger
}

func NewDisclosureAggregate(deps SettlementDeps) domainagg.DisclosureAggregate {
	deps = deps.withDefaults()
	return &disclosureAggregate{deps: deps, ledger: refundLedger{deps: deps}}
}

func (a *disclosureAggregate) Contract() domainagg.Contract {
	return domainagg.DisclosureAggregateContract
}

func (a *disclosureAggregate) RequestDisclosure(ctx context.Context, in domainagg.RequestDisclosureInput) (domainagg.RequestDisclosureResult, error) {
	const op = "GroupBuy.Disclosure.Request"
	out := domainagg.RequestDisclosureResult{OrderID: in.OrderID}
	if err := a.deps.validate(op); err != nil {
		return out, err
	}
	if a.deps.Oracle == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "oracle not configured", nil)
	}
	if err := guard.Identity(op, in.Participant.Identity); err != nil {
		return out, err
	}

	var events []*types.AuditEvent
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		now := a.deps.now()
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
		if err := guard.OrderStatus(op, o, types.OrderProcessing); err != nil {
			return err
		}
		if o.DisclosureStatus != types.DisclosureNone {
			return domainagg.Errorf(domainagg.CodeAlreadyRequested, op, "order %d disclosure is %s", o.ID, o.DisclosureStatus)
		}
		if !now.Before(o.DisclosureDeadline) {
			return domainagg.NewError(domainagg.CodeExpired, op, "disclosure deadline passed", nil)
		}

		requestID, err := a.deps.Oracle.RequestDisclosure(ctx, oracle.Request{
			OrderID:     o.ID,
			Handles:     []confidential.Handle{confidential.Handle(o.QuantityHandle), confidential.Handle(o.AmountHandle)},
			Requester:   o.Participant,
			CallbackURL: a.deps.CallbackURL,
			Deadline:    o.DisclosureDeadline,
		})
		if err != nil {
			return domainagg.NewError(domainagg.CodeRetryable, op, "oracle request failed", err)
		}
		if requestID == "" {
			return domainagg.NewError(domainagg.CodeRetryable, op, "oracle returned empty request id", nil)
		}

		if err := a.deps.Repos.Disclosure.Create(dbc, &types.DisclosureRequest{
			RequestID: requestID,
			OrderID:   o.ID,
			State:     types.DisclosureRequestPending,
			Deadline:  o.DisclosureDeadline,
			CreatedAt: now,
		}); err != nil {
			return err
		}
		if err := a.deps.Repos.Order.UpdateFields(dbc, o.ID, map[string]interface{}{
			"disclosure_status":     types.DisclosureRequested,
			"disclosure_request_id": requestID,
			"updated_at":            now,
		}); err != nil {
			return err
		}

		rec := audit.OrderRecord(types.AuditDisclosureRequested, o.Participant, o, "")
		rec.Metadata = map[string]any{"request_id": requestID, "deadline": o.DisclosureDeadline}
		ev, err := a.deps.Audit.Write(dbc, now, rec)
		if err != nil {
			return err
		}
		events = ev
		out.RequestID = requestID
		out.Deadline = o.DisclosureDeadline
		return nil
	})
	if err != nil {
		return domainagg.RequestDisclosureResult{OrderID: in.OrderID}, err
	}
	a.deps.Audit.Publish(ctx, events)
	a.deps.Metrics.IncDisclosure("requested")

	if a.deps.Watcher != nil {
		if err := a.deps.Watcher.Watch(ctx, out.OrderID, out.RequestID, out.Deadline); err != nil {
			a.deps.Base.Log.Warn("deadline watch not scheduled; sweeper will apply the timeout",
				"order_id", out.OrderID, "request_id", out.RequestID, "error", err)
		}
	}
	return out, nil
}

func (a *disclosureAggregate) OnDisclosureCallback(ctx context.Context, in domainagg.DisclosureCallbackInput) (domainagg.DisclosureCallbackResult, error) {
	const op = "GroupBuy.Disclosure.Callback"
	var out domainagg.DisclosureCallbackResult
	if err := a.deps.validate(op); err != nil {
		return out, err
	}

	// Resolve the order first so the order row is locked before its index entry.
	peek, err := a.deps.Repos.Disclosure.GetByRequestID(dbctx.Context{Ctx: ctx}, in.RequestID)
	if err != nil {
		return out, MapError(op, err)
	}
	if peek == nil {
		a.deps.Metrics.IncDisclosure("unknown")
		return out, domainagg.NewError(domainagg.CodeUnknownRequest, op, "unknown disclosure request", nil)
	}

	var events []*types.AuditEvent
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		now := a.deps.now()
		o, err := a.deps.Repos.Order.LockByID(dbc, peek.OrderID)
		if err != nil {
			return err
		}
		if err := guard.OrderExists(op, o); err != nil {
			return err
		}
		req, err := a.deps.Repos.Disclosure.LockByRequestID(dbc, in.RequestID)
		if err != nil {
			return err
		}
		if req == nil {
			return domainagg.NewError(domainagg.CodeUnknownRequest, op, "unknown disclosure request", nil)
		}
		if req.State == types.DisclosureRequestRetired {
			return domainagg.NewError(domainagg.CodeExpired, op, "disclosure request timed out", nil)
		}
		if !now.Before(req.Deadline) {
			return domainagg.NewError(domainagg.CodeExpired, op, "disclosure deadline passed", nil)
		}
		if err := guard.Range(op, "revealed_quantity", in.RevealedQuantity, 1, types.MaxOrderQuantityCeiling); err != nil {
			return err
		}
		if err := guard.Positive(op, "revealed_amount", in.RevealedAmount); err != nil {
			return err
		}
		if a.deps.Prover == nil || !a.deps.Prover.Verify(in.RequestID, in.RevealedQuantity, in.RevealedAmount, in.Proof) {
			return domainagg.NewError(domainagg.CodeUnauthorized, op, "disclosure proof rejected", nil)
		}
		if err := guard.Transition(op, o, types.OrderCompleted); err != nil {
			return err
		}
		if o.DisclosureStatus != types.DisclosureRequested {
			return domainagg.Errorf(domainagg.CodeInvalidState, op, "order %d disclosure is %s", o.ID, o.DisclosureStatus)
		}

		if err := a.deps.Repos.Order.UpdateFields(dbc, o.ID, map[string]interface{}{
			"status":            types.OrderCompleted,
			"disclosure_status": types.DisclosureCompleted,
			"revealed":          true,
			"revealed_quantity": in.RevealedQuantity,
			"revealed_amount":   in.RevealedAmount,
			"updated_at":        now,
		}); err != nil {
			return err
		}
		if err := a.deps.Repos.Disclosure.Delete(dbc, req.RequestID); err != nil {
			return err
		}

		rec := audit.OrderRecord(types.AuditDisclosureCompleted, o.Participant, o, "")
		rec.Metadata = map[string]any{
			"request_id":        req.RequestID,
			"revealed_quantity": in.RevealedQuantity,
			"revealed_amount":   in.RevealedAmount,
		}
		ev, err := a.deps.Audit.Write(dbc, now, rec)
		if err != nil {
			return err
		}
		events = ev
		out = domainagg.DisclosureCallbackResult{
			OrderID:          o.ID,
			Status:           types.OrderCompleted,
			RevealedQuantity: in.RevealedQuantity,
			RevealedAmount:   in.RevealedAmount,
		}
		return nil
	})
	if err != nil {
		a.deps.Metrics.IncDisclosure("rejected")
		return domainagg.DisclosureCallbackResult{}, err
	}
	a.deps.Audit.Publish(ctx, events)
	a.deps.Metrics.IncDisclosure("completed")
	return out, nil
}

func (a *disclosureAggregate) OnDisclosureTimeout(ctx context.Context, in domainagg.DisclosureTimeoutInput) (domainagg.DisclosureTimeoutResult, error) {
	const op = "GroupBuy.Disclosure.Timeout"
	out := domainagg.DisclosureTimeoutResult{OrderID: in.OrderID}
	if err := a.deps.validate(op); err != nil {
		return out, err
	}
	if err := guard.Admin(op, in.Administrator); err != nil {
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
		if err := guard.Transition(op, o, types.OrderRefunded); err != nil {
			return err
		}
		if o.DisclosureStatus != types.DisclosureRequested {
			return domainagg.Errorf(domainagg.CodeInvalidState, op, "order %d disclosure is %s", o.ID, o.DisclosureStatus)
		}
		if now.Before(o.DisclosureDeadline) {
			return domainagg.Errorf(domainagg.CodeInvalidState, op, "order %d deadline not reached", o.ID)
		}

		ok, err := a.deps.Repos.Order.UpdateStatusWhere(dbc, o.ID, types.OrderProcessing, map[string]interface{}{
			"status":            types.OrderRefunded,
			"disclosure_status": types.DisclosureFailed,
			"updated_at":        now,
		})
		if err != nil {
			return err
		}
		if err := RequireCASSuccess(ok, "order changed while timing out"); err != nil {
			return err
		}
		if o.DisclosureRequestID != nil {
			if err := a.deps.Repos.Disclosure.UpdateFields(dbc, *o.DisclosureRequestID, map[string]interface{}{
				"state":      types.DisclosureRequestRetired,
				"retired_at": now,
			}); err != nil {
				return err
			}
		}

		amount = o.RefundableAmount()
		if err := a.ledger.credit(dbc, op, c.ID, o.Participant, amount, now); err != nil {
			return err
		}

		rec := audit.OrderRecord(types.AuditDisclosureFailed, in.Administrator.Identity, o, fmt.Sprintf("refund %d", amount))
		rec.Metadata = map[string]any{"refund": amount, "deadline": o.DisclosureDeadline}
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
	a.deps.Metrics.IncDisclosure("timed_out")

	out.Status = types.OrderRefunded
	out.Refund = a.ledger.settle(ctx, op, refunded, amount)
	return out, nil
}
