package aggregates

import (
	"context"
	"sync"
	"testing"
	"time"

	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/payout"
)

// deferRefund cancels a fresh order while transfers fail, leaving amount claimable.
func (h *harness) deferRefund(cid uint64, who string, qty int64) {
	h.t.Helper()
	oid := h.mustPlace(cid, who, qty)
	h.xfer.SetFail(true)
	defer h.xfer.SetFail(false)
	if _, err := h.orders.CancelOrder(h.ctx, domainagg.CancelOrderInput{Participant: participant(who), OrderID: oid}); err != nil {
		h.t.Fatalf("CancelOrder: %v", err)
	}
}

func TestClaimPendingRefund(t *testing.T) {
	h := newHarness(t)
	cid := h.createCampaign(5, 10)

	_, err := h.refunds.ClaimPendingRefund(h.ctx, domainagg.ClaimPendingRefundInput{Participant: participant("0xalice")})
	wantCode(t, "nothing pending", err, domainagg.CodeNothingToClaim)
	_, err = h.refunds.ClaimPendingRefund(h.ctx, domainagg.ClaimPendingRefundInput{Participant: participant(types.NullIdentity)})
	wantCode(t, "null identity", err, domainagg.CodeInvalidParameter)

	h.deferRefund(cid, "0xalice", 2)
	h.deferRefund(cid, "0xalice", 3)
	if got := h.pending("0xalice"); got != 50 {
		t.Fatalf("accumulated pending: want=50 got=%d", got)
	}

	out, err := h.refunds.ClaimPendingRefund(h.ctx, domainagg.ClaimPendingRefundInput{Participant: participant("0xalice")})
	if err != nil {
		t.Fatalf("ClaimPendingRefund: %v", err)
	}
	if !out.Transferred || out.Amount != 50 || out.PayoutID == "" {
		t.Fatalf("claim outcome: %+v", out)
	}
	if got := h.pending("0xalice"); got != 0 {
		t.Fatalf("pending after claim: want=0 got=%d", got)
	}
	if got := h.paidOut("0xalice"); got != 50 {
		t.Fatalf("paid out: want=50 got=%d", got)
	}

	_, err = h.refunds.ClaimPendingRefund(h.ctx, domainagg.ClaimPendingRefundInput{Participant: participant("0xalice")})
	wantCode(t, "second claim", err, domainagg.CodeNothingToClaim)

	claims, err := h.repos.Audit.ListByEntity(h.dbc(), types.EntityRefund, "0xalice")
	if err != nil {
		t.Fatalf("ListByEntity: %v", err)
	}
	if !hasAction(auditActions(claims), types.AuditRefundClaimed) {
		t.Fatalf("refund_claimed audit missing")
	}
}

func TestClaimPendingRefundRestoresBalanceOnFailure(t *testing.T) {
	h := newHarness(t)
	cid := h.createCampaign(5, 10)
	h.deferRefund(cid, "0xalice", 2)

	h.xfer.SetFail(true)
	_, err := h.refunds.ClaimPendingRefund(h.ctx, domainagg.ClaimPendingRefundInput{Participant: participant("0xalice")})
	wantCode(t, "failed transfer", err, domainagg.CodeRetryable)
	if got := h.pending("0xalice"); got != 20 {
		t.Fatalf("restored balance: want=20 got=%d", got)
	}

	h.xfer.SetFail(false)
	out, err := h.refunds.ClaimPendingRefund(h.ctx, domainagg.ClaimPendingRefundInput{Participant: participant("0xalice")})
	if err != nil || out.Amount != 20 {
		t.Fatalf("retry claim: out=%+v err=%v", out, err)
	}
}

func TestConcurrentClaimsPayOnce(t *testing.T) {
	h := newHarness(t)
	cid := h.createCampaign(5, 10)
	h.deferRefund(cid, "0xalice", 4)

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		wins   int
		misses int
		other  []error
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.refunds.ClaimPendingRefund(h.ctx, domainagg.ClaimPendingRefundInput{Participant: participant("0xalice")})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				wins++
			case domainagg.IsCode(err, domainagg.CodeNothingToClaim):
				misses++
			default:
				other = append(other, err)
			}
		}()
	}
	wg.Wait()
	if len(other) > 0 {
		t.Fatalf("unexpected errors: %v", other)
	}
	if wins != 1 || misses != 7 {
		t.Fatalf("claims: want=1 win got=%d (misses=%d)", wins, misses)
	}
	if got := h.paidOut("0xalice"); got != 40 {
		t.Fatalf("paid out: want=40 got=%d", got)
	}
}

// Money paid in is always accounted for by escrow, pending balances and payouts.
func TestFundsAreConserved(t *testing.T) {
	h := newHarness(t)
	a := h.createCampaign(2, 10)
	b := h.createCampaign(1, 10)

	alice := h.mustPlace(a, "0xalice", 3)
	h.mustPlace(a, "0xbob", 2)
	h.deferRefund(a, "0xcarol", 1)
	if _, err := h.orders.CancelOrder(h.ctx, domainagg.CancelOrderInput{Participant: participant("0xalice"), OrderID: alice}); err != nil {
		t.Fatalf("CancelOrder: %v", err)
	}
	dave := h.mustPlace(b, "0xdave", 5)
	if _, err := h.campaigns.BeginProcessing(h.ctx, domainagg.BeginProcessingInput{Organizer: organizer(), CampaignID: b}); err != nil {
		t.Fatalf("BeginProcessing: %v", err)
	}
	h.requestDisclosure("0xdave", dave)
	h.xfer.SetFail(true)
	h.clock.Advance(testLifetime + time.Minute)
	if _, err := h.disclosures.OnDisclosureTimeout(h.ctx, domainagg.DisclosureTimeoutInput{Administrator: types.SystemAdmin(), OrderID: dave}); err != nil {
		t.Fatalf("OnDisclosureTimeout: %v", err)
	}
	h.xfer.SetFail(false)

	paidIn := int64(30 + 20 + 10 + 50)
	var escrow, pending, out int64
	for _, id := range []uint64{a, b} {
		escrow += h.campaign(id).EscrowBalance
	}
	for _, who := range []string{"0xalice", "0xbob", "0xcarol", "0xdave"} {
		pending += h.pending(who)
		out += h.paidOut(who)
	}
	if escrow+pending+out != paidIn {
		t.Fatalf("conservation: escrow=%d pending=%d out=%d paid_in=%d", escrow, pending, out, paidIn)
	}
	if escrow != 20 || pending != 60 || out != 30 {
		t.Fatalf("split: escrow=%d pending=%d out=%d", escrow, pending, out)
	}
}

func auditActions(rows []*types.AuditEvent) []types.AuditAction {
	out := make([]types.AuditAction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Action)
	}
	return out
}

// cancelingTransferer cancels the caller's context before delegating, the way a client
// disconnecting mid-request would.
type cancelingTransferer struct {
	cancel context.CancelFunc
	next   payout.Transferer
}

func (c cancelingTransferer) Transfer(ctx context.Context, t payout.Transfer) (payout.Receipt, error) {
	c.cancel()
	if c.next == nil {
		return payout.Receipt{}, context.Canceled
	}
	return c.next.Transfer(ctx, t)
}

func TestCancelledCallerKeepsRefundAccounted(t *testing.T) {
	t.Run("claim transfer fails", func(t *testing.T) {
		h := newHarness(t)
		cid := h.createCampaign(5, 10)
		h.deferRefund(cid, "0xalice", 2)

		ctx, cancel := context.WithCancel(h.ctx)
		defer cancel()
		h.deps.Transferer = cancelingTransferer{cancel: cancel}
		h.rebuild()

		_, err := h.refunds.ClaimPendingRefund(ctx, domainagg.ClaimPendingRefundInput{Participant: participant("0xalice")})
		wantCode(t, "claim", err, domainagg.CodeRetryable)
		if got, paid := h.pending("0xalice"), h.paidOut("0xalice"); got+paid != 20 || got != 20 {
			t.Fatalf("after cancelled claim: want pending=20 got pending=%d paid=%d", got, paid)
		}
	})

	t.Run("claim transfer succeeds", func(t *testing.T) {
		h := newHarness(t)
		cid := h.createCampaign(5, 10)
		h.deferRefund(cid, "0xalice", 2)

		ctx, cancel := context.WithCancel(h.ctx)
		defer cancel()
		h.deps.Transferer = cancelingTransferer{cancel: cancel, next: h.xfer}
		h.rebuild()

		out, err := h.refunds.ClaimPendingRefund(ctx, domainagg.ClaimPendingRefundInput{Participant: participant("0xalice")})
		if err != nil || !out.Transferred {
			t.Fatalf("claim: out=%+v err=%v", out, err)
		}
		if got, paid := h.pending("0xalice"), h.paidOut("0xalice"); got != 0 || paid != 20 {
			t.Fatalf("after claim: want pending=0 paid=20 got pending=%d paid=%d", got, paid)
		}
		rows, err := h.repos.Audit.ListByEntity(h.dbc(), types.EntityRefund, "0xalice")
		if err != nil {
			t.Fatalf("ListByEntity: %v", err)
		}
		if !hasAction(auditActions(rows), types.AuditRefundClaimed) {
			t.Fatalf("refund_claimed audit missing after caller cancelled")
		}
	})

	t.Run("cancel order transfer fails", func(t *testing.T) {
		h := newHarness(t)
		cid := h.createCampaign(5, 10)
		oid := h.mustPlace(cid, "0xalice", 2)

		ctx, cancel := context.WithCancel(h.ctx)
		defer cancel()
		h.deps.Transferer = cancelingTransferer{cancel: cancel}
		h.rebuild()

		res, err := h.orders.CancelOrder(ctx, domainagg.CancelOrderInput{Participant: participant("0xalice"), OrderID: oid})
		if err != nil {
			t.Fatalf("CancelOrder: %v", err)
		}
		if res.Refund.Transferred {
			t.Fatalf("refund reported transferred: %+v", res.Refund)
		}
		if got, paid := h.pending("0xalice"), h.paidOut("0xalice"); got != 20 || paid != 0 {
			t.Fatalf("after cancelled refund: want pending=20 paid=0 got pending=%d paid=%d", got, paid)
		}
		if escrow := h.campaign(cid).EscrowBalance; escrow != 0 {
			t.Fatalf("escrow: want=0 got=%d", escrow)
		}
	})
}
