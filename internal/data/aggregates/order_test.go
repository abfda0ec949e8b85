package aggregates

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/groupbuy-settlement/internal/confidential"
	aggtest "github.com/yungbote/groupbuy-settlement/internal/data/aggregates/testutil"
	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
)

func TestPlaceOrderUpdatesLedger(t *testing.T) {
	h := newHarness(t)
	cid := h.createCampaign(2, 10)

	res, err := h.place(cid, "0xalice", 3)
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if res.Status != types.OrderPending {
		t.Fatalf("status: want=pending got=%s", res.Status)
	}
	if want := testStart.Add(testLifetime); !res.DisclosureDeadline.Equal(want) {
		t.Fatalf("deadline: want=%s got=%s", want, res.DisclosureDeadline)
	}
	h.mustPlace(cid, "0xbob", 2)

	c := h.campaign(cid)
	if c.CurrentOrders != 2 || c.TotalCollected != 50 || c.EscrowBalance != 50 {
		t.Fatalf("campaign counters: orders=%d collected=%d escrow=%d", c.CurrentOrders, c.TotalCollected, c.EscrowBalance)
	}

	st, err := h.repos.Stats.GetByCampaignID(h.dbc(), cid)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.ParticipantCount != 2 {
		t.Fatalf("participant_count: want=2 got=%d", st.ParticipantCount)
	}
	qty, _ := h.vault.Reveal(h.ctx, confidential.Handle(st.QuantityHandle))
	amt, _ := h.vault.Reveal(h.ctx, confidential.Handle(st.AmountHandle))
	if qty != 5 || amt != 50 {
		t.Fatalf("aggregate handles: want=5/50 got=%d/%d", qty, amt)
	}

	o := h.order(res.OrderID)
	if !h.vault.Authorized(confidential.Handle(o.QuantityHandle), "0xalice") {
		t.Fatalf("participant not authorized on own quantity handle")
	}
	if h.vault.Authorized(confidential.Handle(o.QuantityHandle), "0xbob") {
		t.Fatalf("other participant authorized on quantity handle")
	}
	if !hasAction(h.actions(cid), types.AuditOrderPlaced) {
		t.Fatalf("order_placed audit missing")
	}
}

func TestPlaceOrderRejections(t *testing.T) {
	h := newHarness(t)
	cid := h.createCampaign(1, 3)

	_, err := h.orders.PlaceOrder(h.ctx, domainagg.PlaceOrderInput{Participant: participant("0xalice"), CampaignID: cid, Quantity: 2, PaidAmount: 19})
	wantCode(t, "underpaid", err, domainagg.CodePaymentMismatch)
	_, err = h.orders.PlaceOrder(h.ctx, domainagg.PlaceOrderInput{Participant: participant("0xalice"), CampaignID: cid, Quantity: 2, PaidAmount: 21})
	wantCode(t, "overpaid", err, domainagg.CodePaymentMismatch)
	_, err = h.place(cid, "0xalice", 4)
	wantCode(t, "quantity above max", err, domainagg.CodeInvalidParameter)
	_, err = h.place(cid, "0xalice", 0)
	wantCode(t, "zero quantity", err, domainagg.CodeInvalidParameter)
	_, err = h.place(cid, types.NullIdentity, 1)
	wantCode(t, "null identity", err, domainagg.CodeInvalidParameter)
	_, err = h.place(999, "0xalice", 1)
	wantCode(t, "missing campaign", err, domainagg.CodeNotFound)

	h.mustPlace(cid, "0xalice", 1)
	_, err = h.place(cid, "0xalice", 1)
	wantCode(t, "duplicate", err, domainagg.CodeDuplicateOrder)

	h.mustPlace(cid, "0xbob", 1)
	h.mustPlace(cid, "0xcarol", 1)
	_, err = h.place(cid, "0xdave", 1)
	wantCode(t, "capacity", err, domainagg.CodeCapacityExceeded)

	h.clock.Advance(49 * time.Hour)
	_, err = h.place(cid, "0xerin", 1)
	wantCode(t, "expired campaign", err, domainagg.CodeCampaignNotEligible)

	if got := h.campaign(cid).EscrowBalance; got != 30 {
		t.Fatalf("rejections moved escrow: want=30 got=%d", got)
	}
}

func TestPlaceOrderConcurrentCapacity(t *testing.T) {
	h := newHarness(t)
	cid := h.createCampaign(1, 4)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		placed   int
		rejected int
		other    []error
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := h.place(cid, fmt.Sprintf("0xp%02d", i), 1)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				placed++
			case domainagg.IsCode(err, domainagg.CodeCapacityExceeded):
				rejected++
			default:
				other = append(other, err)
			}
		}(i)
	}
	wg.Wait()
	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if placed != 4 || rejected != 6 {
		t.Fatalf("placements: want=4/6 got=%d/%d", placed, rejected)
	}
	c := h.campaign(cid)
	if c.CurrentOrders != 4 || c.EscrowBalance != 40 {
		t.Fatalf("campaign after race: orders=%d escrow=%d", c.CurrentOrders, c.EscrowBalance)
	}
}

func TestPlaceOrderRollsBackOnCommitFailure(t *testing.T) {
	h := newHarness(t)
	cid := h.createCampaign(1, 10)

	runner := &aggtest.InjectedTxRunner{DB: h.db, FailCommit: errors.New("commit lost"), FailCommitOnce: true}
	h.deps.Base.Runner = runner
	h.rebuild()

	if _, err := h.place(cid, "0xalice", 1); err == nil {
		t.Fatalf("expected commit failure")
	}
	if runner.RollbackCalls != 1 {
		t.Fatalf("rollback calls: want=1 got=%d", runner.RollbackCalls)
	}
	c := h.campaign(cid)
	if c.CurrentOrders != 0 || c.EscrowBalance != 0 {
		t.Fatalf("rolled back placement leaked: %+v", c)
	}
	if hasAction(h.actions(cid), types.AuditOrderPlaced) {
		t.Fatalf("audit written for rolled back placement")
	}
	h.mustPlace(cid, "0xalice", 1)
}

func TestCancelOrderRefundsDirectly(t *testing.T) {
	h := newHarness(t)
	cid := h.createCampaign(5, 10)
	oid := h.mustPlace(cid, "0xalice", 3)
	h.mustPlace(cid, "0xbob", 1)

	_, err := h.orders.CancelOrder(h.ctx, domainagg.CancelOrderInput{Participant: participant("0xbob"), OrderID: oid})
	wantCode(t, "stranger", err, domainagg.CodeUnauthorized)

	res, err := h.orders.CancelOrder(h.ctx, domainagg.CancelOrderInput{Participant: participant("0xalice"), OrderID: oid})
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if res.Status != types.OrderCancelled || !res.Refund.Transferred || res.Refund.Amount != 30 {
		t.Fatalf("cancel result: %+v", res)
	}
	if got := h.paidOut("0xalice"); got != 30 {
		t.Fatalf("payout: want=30 got=%d", got)
	}
	if got := h.pending("0xalice"); got != 0 {
		t.Fatalf("pending: want=0 got=%d", got)
	}
	c := h.campaign(cid)
	if c.CurrentOrders != 1 || c.TotalCollected != 10 || c.EscrowBalance != 10 {
		t.Fatalf("campaign after cancel: orders=%d collected=%d escrow=%d", c.CurrentOrders, c.TotalCollected, c.EscrowBalance)
	}
	o := h.order(oid)
	if o.LiveKey != nil {
		t.Fatalf("live key not released")
	}
	actions := h.actions(cid)
	if !hasAction(actions, types.AuditOrderCancelled) || !hasAction(actions, types.AuditRefundProcessed) {
		t.Fatalf("audit trail: %v", actions)
	}

	_, err = h.orders.CancelOrder(h.ctx, domainagg.CancelOrderInput{Participant: participant("0xalice"), OrderID: oid})
	wantCode(t, "cancel twice", err, domainagg.CodeInvalidState)

	// The released key admits a fresh order.
	h.mustPlace(cid, "0xalice", 1)
}

func TestCancelOrderDefersRefundWhenTransferFails(t *testing.T) {
	h := newHarness(t)
	cid := h.createCampaign(5, 10)
	oid := h.mustPlace(cid, "0xalice", 2)
	h.xfer.SetFail(true)

	res, err := h.orders.CancelOrder(h.ctx, domainagg.CancelOrderInput{Participant: participant("0xalice"), OrderID: oid})
	if err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	if res.Refund.Transferred {
		t.Fatalf("refund reported transferred")
	}
	if got := h.pending("0xalice"); got != 20 {
		t.Fatalf("pending: want=20 got=%d", got)
	}
	if got := h.order(oid).Status; got != types.OrderCancelled {
		t.Fatalf("status: want=cancelled got=%s", got)
	}
	if !hasAction(h.actions(cid), types.AuditRefundDeferred) {
		t.Fatalf("refund_deferred audit missing")
	}
}

func TestCancelOrderAfterDeadlines(t *testing.T) {
	h := newHarness(t)
	cid := h.createCampaign(5, 10)
	oid := h.mustPlace(cid, "0xalice", 1)

	h.clock.Advance(testLifetime)
	_, err := h.orders.CancelOrder(h.ctx, domainagg.CancelOrderInput{Participant: participant("0xalice"), OrderID: oid})
	wantCode(t, "order lifetime", err, domainagg.CodeExpired)

	h.clock.Advance(48 * time.Hour)
	_, err = h.orders.CancelOrder(h.ctx, domainagg.CancelOrderInput{Participant: participant("0xalice"), OrderID: oid})
	wantCode(t, "campaign deadline", err, domainagg.CodeExpired)

	_, err = h.orders.CancelOrder(h.ctx, domainagg.CancelOrderInput{Participant: participant("0xalice"), OrderID: 999})
	wantCode(t, "missing order", err, domainagg.CodeNotFound)
}

func TestReclaimUnfilledOrder(t *testing.T) {
	h := newHarness(t)
	cid := h.createCampaign(5, 10)
	oid := h.mustPlace(cid, "0xalice", 2)

	_, err := h.orders.ReclaimUnfilledOrder(h.ctx, domainagg.CancelOrderInput{Participant: participant("0xalice"), OrderID: oid})
	wantCode(t, "before deadline", err, domainagg.CodeInvalidState)

	h.clock.Advance(49 * time.Hour)
	_, err = h.orders.ReclaimUnfilledOrder(h.ctx, domainagg.CancelOrderInput{Participant: participant("0xbob"), OrderID: oid})
	wantCode(t, "stranger", err, domainagg.CodeUnauthorized)

	res, err := h.orders.ReclaimUnfilledOrder(h.ctx, domainagg.CancelOrderInput{Participant: participant("0xalice"), OrderID: oid})
	if err != nil {
		t.Fatalf("ReclaimUnfilledOrder: %v", err)
	}
	if !res.Refund.Transferred || res.Refund.Amount != 20 {
		t.Fatalf("reclaim refund: %+v", res.Refund)
	}
	if got := h.campaign(cid).EscrowBalance; got != 0 {
		t.Fatalf("escrow: want=0 got=%d", got)
	}
	if !hasAction(h.actions(cid), types.AuditOrderReclaimed) {
		t.Fatalf("order_reclaimed audit missing")
	}
}

// A campaign that met its target but was never processed must not strand its escrow.
func TestReclaimAbandonedCampaign(t *testing.T) {
	t.Run("target met past deadline", func(t *testing.T) {
		h := newHarness(t)
		cid := h.createCampaign(1, 10)
		oid := h.mustPlace(cid, "0xalice", 2)
		h.clock.Advance(72 * time.Hour)

		_, err := h.orders.CancelOrder(h.ctx, domainagg.CancelOrderInput{Participant: participant("0xalice"), OrderID: oid})
		wantCode(t, "cancel after deadline", err, domainagg.CodeExpired)

		res, err := h.orders.ReclaimUnfilledOrder(h.ctx, domainagg.CancelOrderInput{Participant: participant("0xalice"), OrderID: oid})
		if err != nil {
			t.Fatalf("ReclaimUnfilledOrder: %v", err)
		}
		if res.Status != types.OrderCancelled || !res.Refund.Transferred || res.Refund.Amount != 20 {
			t.Fatalf("reclaim: %+v", res)
		}
		if got := h.order(oid).Status; got != types.OrderCancelled {
			t.Fatalf("order status: want=%s got=%s", types.OrderCancelled, got)
		}
		if got := h.campaign(cid).EscrowBalance; got != 0 {
			t.Fatalf("escrow: want=0 got=%d", got)
		}
	})

	t.Run("deactivated after target met", func(t *testing.T) {
		h := newHarness(t)
		cid := h.createCampaign(1, 10)
		oid := h.mustPlace(cid, "0xalice", 3)
		if err := h.campaigns.DeactivateCampaign(h.ctx, domainagg.DeactivateCampaignInput{Organizer: organizer(), CampaignID: cid}); err != nil {
			t.Fatalf("DeactivateCampaign: %v", err)
		}
		_, err := h.campaigns.BeginProcessing(h.ctx, domainagg.BeginProcessingInput{Organizer: organizer(), CampaignID: cid})
		wantCode(t, "begin on inactive", err, domainagg.CodeCampaignNotEligible)

		res, err := h.orders.ReclaimUnfilledOrder(h.ctx, domainagg.CancelOrderInput{Participant: participant("0xalice"), OrderID: oid})
		if err != nil {
			t.Fatalf("ReclaimUnfilledOrder: %v", err)
		}
		if res.Refund.Amount != 30 {
			t.Fatalf("reclaim refund: %+v", res.Refund)
		}
		if got := h.paidOut("0xalice"); got != 30 {
			t.Fatalf("paid out: want=30 got=%d", got)
		}
	})

	t.Run("processing order stays put", func(t *testing.T) {
		h := newHarness(t)
		_, oid := h.processingOrder("0xalice", 1)
		h.clock.Advance(72 * time.Hour)

		_, err := h.orders.ReclaimUnfilledOrder(h.ctx, domainagg.CancelOrderInput{Participant: participant("0xalice"), OrderID: oid})
		wantCode(t, "processing order", err, domainagg.CodeInvalidState)
	})
}
