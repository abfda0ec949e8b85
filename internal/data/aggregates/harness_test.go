package aggregates

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/groupbuy-settlement/internal/audit"
	"github.com/yungbote/groupbuy-settlement/internal/confidential"
	aggtest "github.com/yungbote/groupbuy-settlement/internal/data/aggregates/testutil"
	"github.com/yungbote/groupbuy-settlement/internal/data/repos"
	repotest "github.com/yungbote/groupbuy-settlement/internal/data/repos/testutil"
	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/oracle"
	"github.com/yungbote/groupbuy-settlement/internal/payout"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
)

const (
	testOrganizer = "0xorganizer"
	testSecret    = "oracle-secret"
	testLifetime  = time.Hour
)

var testStart = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	clock  *aggtest.Clock
	vault  *confidential.Vault
	prover *oracle.Prover
	oracle *aggtest.StubOracle
	xfer   *aggtest.FlakyTransferer
	hooks  *aggtest.HooksRecorder
	repos  repos.Set
	deps   SettlementDeps

	campaigns   domainagg.CampaignAggregate
	orders      domainagg.OrderAggregate
	disclosures domainagg.DisclosureAggregate
	refunds     domainagg.RefundAggregate
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := repotest.SQLite(t)
	log := repotest.Logger(t)
	set := repos.NewSet(db, log)
	h := &harness{
		t:      t,
		ctx:    context.Background(),
		db:     db,
		clock:  aggtest.NewClock(testStart),
		vault:  confidential.NewVault(),
		prover: oracle.NewProver(testSecret),
		oracle: &aggtest.StubOracle{},
		xfer:   &aggtest.FlakyTransferer{Next: payout.NewLedgerTransferer(set.Payout, log)},
		hooks:  &aggtest.HooksRecorder{},
		repos:  set,
	}
	h.deps = SettlementDeps{
		Base:          BaseDeps{DB: db, Log: log, Hooks: h.hooks, Now: h.clock.Now},
		Repos:         set,
		Boundary:      h.vault,
		Oracle:        h.oracle,
		Prover:        h.prover,
		Transferer:    h.xfer,
		Audit:         audit.NewWriter(set.Audit, nil, log),
		OrderLifetime: testLifetime,
	}
	h.rebuild()
	return h
}

// rebuild re-creates the aggregates after h.deps changed.
func (h *harness) rebuild() {
	h.campaigns = NewCampaignAggregate(h.deps)
	h.orders = NewOrderAggregate(h.deps)
	h.disclosures = NewDisclosureAggregate(h.deps)
	h.refunds = NewRefundAggregate(h.deps)
}

func participant(id string) types.Actor {
	return types.Actor{Identity: id, Role: types.RoleParticipant}
}

func organizer() types.Actor {
	return types.Actor{Identity: testOrganizer, Role: types.RoleParticipant}
}

func (h *harness) createCampaign(min, max int64) uint64 {
	h.t.Helper()
	res, err := h.campaigns.CreateCampaign(h.ctx, domainagg.CreateCampaignInput{
		Organizer:        organizer(),
		Name:             "bulk coffee",
		Description:      "single origin beans",
		UnitPrice:        10,
		MinOrderQuantity: min,
		MaxOrderQuantity: max,
		Category:         types.CategoryFood,
		Deadline:         testStart.Add(48 * time.Hour),
	})
	if err != nil {
		h.t.Fatalf("CreateCampaign: %v", err)
	}
	return res.CampaignID
}

func (h *harness) place(campaignID uint64, who string, qty int64) (domainagg.PlaceOrderResult, error) {
	return h.orders.PlaceOrder(h.ctx, domainagg.PlaceOrderInput{
		Participant: participant(who),
		CampaignID:  campaignID,
		Quantity:    qty,
		PaidAmount:  qty * 10,
	})
}

func (h *harness) mustPlace(campaignID uint64, who string, qty int64) uint64 {
	h.t.Helper()
	res, err := h.place(campaignID, who, qty)
	if err != nil {
		h.t.Fatalf("PlaceOrder(%s): %v", who, err)
	}
	return res.OrderID
}

// processingOrder places one order on a campaign that needs a single order, then starts processing.
func (h *harness) processingOrder(who string, qty int64) (uint64, uint64) {
	h.t.Helper()
	cid := h.createCampaign(1, 10)
	oid := h.mustPlace(cid, who, qty)
	if _, err := h.campaigns.BeginProcessing(h.ctx, domainagg.BeginProcessingInput{Organizer: organizer(), CampaignID: cid}); err != nil {
		h.t.Fatalf("BeginProcessing: %v", err)
	}
	return cid, oid
}

func (h *harness) dbc() dbctx.Context { return dbctx.Context{Ctx: h.ctx} }

func (h *harness) campaign(id uint64) *types.Campaign {
	h.t.Helper()
	c, err := h.repos.Campaign.GetByID(h.dbc(), id)
	if err != nil || c == nil {
		h.t.Fatalf("load campaign %d: %v", id, err)
	}
	return c
}

func (h *harness) order(id uint64) *types.Order {
	h.t.Helper()
	o, err := h.repos.Order.GetByID(h.dbc(), id)
	if err != nil || o == nil {
		h.t.Fatalf("load order %d: %v", id, err)
	}
	return o
}

func (h *harness) pending(who string) int64 {
	h.t.Helper()
	row, err := h.repos.Refund.GetByParticipant(h.dbc(), who)
	if err != nil {
		h.t.Fatalf("load pending refund: %v", err)
	}
	if row == nil {
		return 0
	}
	return row.Amount
}

func (h *harness) paidOut(who string) int64 {
	h.t.Helper()
	rows, err := h.repos.Payout.ListByRecipient(h.dbc(), who)
	if err != nil {
		h.t.Fatalf("load payouts: %v", err)
	}
	var sum int64
	for _, r := range rows {
		sum += r.Amount
	}
	return sum
}

func (h *harness) actions(campaignID uint64) []types.AuditAction {
	h.t.Helper()
	rows, err := h.repos.Audit.ListByCampaign(h.dbc(), campaignID, 0, 1000)
	if err != nil {
		h.t.Fatalf("load audit: %v", err)
	}
	out := make([]types.AuditAction, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.Action)
	}
	return out
}

func hasAction(actions []types.AuditAction, want types.AuditAction) bool {
	for _, a := range actions {
		if a == want {
			return true
		}
	}
	return false
}

func wantCode(t *testing.T, label string, err error, code domainagg.ErrorCode) {
	t.Helper()
	if !domainagg.IsCode(err, code) {
		t.Fatalf("%s: want=%s got=%v", label, code, err)
	}
}
