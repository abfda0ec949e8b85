package groupbuy

import (
	"context"
	"os"
	"testing"
	"time"

	"gorm.io/gorm"

	repotest "github.com/yungbote/groupbuy-settlement/internal/data/repos/testutil"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
)

// forEachStore runs fn on a private sqlite database and, when TEST_POSTGRES_DSN is set,
// inside a rolled-back postgres transaction.
func forEachStore(t *testing.T, fn func(t *testing.T, db *gorm.DB)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, repotest.SQLite(t)) })
	if os.Getenv("TEST_POSTGRES_DSN") != "" {
		t.Run("postgres", func(t *testing.T) { fn(t, repotest.Tx(t, repotest.DB(t))) })
	}
}

func TestPendingRefundCreditAccumulates(t *testing.T) {
	forEachStore(t, func(t *testing.T, db *gorm.DB) {
		repo := NewPendingRefundRepo(db, repotest.Logger(t))
		dbc := dbctx.Context{Ctx: context.Background(), Tx: db}
		at := time.Now().UTC()

		if got, err := repo.GetByParticipant(dbc, "0xalice"); err != nil || got != nil {
			t.Fatalf("empty balance: want=nil,nil got=%v,%v", got, err)
		}
		for _, amt := range []int64{30, 12, 0} {
			if err := repo.Credit(dbc, "0xalice", amt, at); err != nil {
				t.Fatalf("Credit(%d): %v", amt, err)
			}
		}
		got, err := repo.GetByParticipant(dbc, "0xalice")
		if err != nil || got == nil {
			t.Fatalf("GetByParticipant: %v", err)
		}
		if got.Amount != 42 {
			t.Fatalf("balance: want=42 got=%d", got.Amount)
		}
		if err := repo.SetAmount(dbc, "0xalice", 0, at); err != nil {
			t.Fatalf("SetAmount: %v", err)
		}
		got, _ = repo.GetByParticipant(dbc, "0xalice")
		if got.Amount != 0 {
			t.Fatalf("zeroed balance: want=0 got=%d", got.Amount)
		}
	})
}

func TestOrderUpdateStatusWhereIsConditional(t *testing.T) {
	forEachStore(t, func(t *testing.T, db *gorm.DB) {
		ctx := context.Background()
		c := repotest.SeedCampaign(t, ctx, db, "0xorganizer", time.Now().Add(time.Hour))
		o := repotest.SeedOrder(t, ctx, db, c.ID, "0xalice", types.OrderPending)
		repo := NewOrderRepo(db, repotest.Logger(t))
		dbc := dbctx.Context{Ctx: ctx, Tx: db}

		ok, err := repo.UpdateStatusWhere(dbc, o.ID, types.OrderProcessing, map[string]interface{}{"status": types.OrderCompleted})
		if err != nil || ok {
			t.Fatalf("wrong from-status: want=false got=%v err=%v", ok, err)
		}
		ok, err = repo.UpdateStatusWhere(dbc, o.ID, types.OrderPending, map[string]interface{}{"status": types.OrderProcessing})
		if err != nil || !ok {
			t.Fatalf("matching from-status: want=true got=%v err=%v", ok, err)
		}
		got, err := repo.GetByID(dbc, o.ID)
		if err != nil || got == nil || got.Status != types.OrderProcessing {
			t.Fatalf("reload: got=%+v err=%v", got, err)
		}
		if missing, err := repo.GetByID(dbc, o.ID+1000); err != nil || missing != nil {
			t.Fatalf("missing order: want=nil,nil got=%v,%v", missing, err)
		}
	})
}

func TestOrderListOverdueRequested(t *testing.T) {
	forEachStore(t, func(t *testing.T, db *gorm.DB) {
		ctx := context.Background()
		now := time.Now().UTC()
		c := repotest.SeedCampaign(t, ctx, db, "0xorganizer", now.Add(time.Hour))
		repo := NewOrderRepo(db, repotest.Logger(t))
		dbc := dbctx.Context{Ctx: ctx, Tx: db}

		late := repotest.SeedOrder(t, ctx, db, c.ID, "0xlate", types.OrderProcessing)
		later := repotest.SeedOrder(t, ctx, db, c.ID, "0xlater", types.OrderProcessing)
		fresh := repotest.SeedOrder(t, ctx, db, c.ID, "0xfresh", types.OrderProcessing)
		repotest.SeedOrder(t, ctx, db, c.ID, "0xidle", types.OrderPending)
		for id, deadline := range map[uint64]time.Time{
			late.ID:  now.Add(-2 * time.Minute),
			later.ID: now.Add(-time.Minute),
			fresh.ID: now.Add(time.Minute),
		} {
			if err := repo.UpdateFields(dbc, id, map[string]interface{}{
				"disclosure_status":   types.DisclosureRequested,
				"disclosure_deadline": deadline,
			}); err != nil {
				t.Fatalf("UpdateFields: %v", err)
			}
		}

		got, err := repo.ListOverdueRequested(dbc, now, 10)
		if err != nil {
			t.Fatalf("ListOverdueRequested: %v", err)
		}
		if len(got) != 2 || got[0].ID != late.ID || got[1].ID != later.ID {
			t.Fatalf("overdue: want=[%d %d] got=%v", late.ID, later.ID, orderIDs(got))
		}
		if got, _ := repo.ListOverdueRequested(dbc, now, 1); len(got) != 1 {
			t.Fatalf("limit: want=1 got=%d", len(got))
		}
	})
}

func TestDisclosureRequestLifecycle(t *testing.T) {
	forEachStore(t, func(t *testing.T, db *gorm.DB) {
		repo := NewDisclosureRequestRepo(db, repotest.Logger(t))
		dbc := dbctx.Context{Ctx: context.Background(), Tx: db}
		now := time.Now().UTC()

		row := &types.DisclosureRequest{RequestID: "req-1", OrderID: 7, State: types.DisclosureRequestPending, Deadline: now.Add(time.Hour), CreatedAt: now}
		if err := repo.Create(dbc, row); err != nil {
			t.Fatalf("Create: %v", err)
		}
		got, err := repo.GetByOrderID(dbc, 7)
		if err != nil || got == nil || got.RequestID != "req-1" {
			t.Fatalf("GetByOrderID: got=%+v err=%v", got, err)
		}
		if err := repo.UpdateFields(dbc, "req-1", map[string]interface{}{"state": types.DisclosureRequestRetired, "retired_at": now}); err != nil {
			t.Fatalf("retire: %v", err)
		}
		got, _ = repo.GetByRequestID(dbc, "req-1")
		if got == nil || got.State != types.DisclosureRequestRetired || got.RetiredAt == nil {
			t.Fatalf("retired row: got=%+v", got)
		}
		if err := repo.Delete(dbc, "req-1"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if got, err := repo.GetByRequestID(dbc, "req-1"); err != nil || got != nil {
			t.Fatalf("deleted row: want=nil,nil got=%v,%v", got, err)
		}
	})
}

func TestAuditListByCampaignPagesByID(t *testing.T) {
	forEachStore(t, func(t *testing.T, db *gorm.DB) {
		repo := NewAuditEventRepo(db, repotest.Logger(t))
		dbc := dbctx.Context{Ctx: context.Background(), Tx: db}
		now := time.Now().UTC()
		cid, other := uint64(11), uint64(12)

		var rows []*types.AuditEvent
		for i, campaign := range []uint64{cid, other, cid, cid} {
			c := campaign
			rows = append(rows, &types.AuditEvent{
				Action:     types.AuditOrderPlaced,
				Actor:      "0xalice",
				EntityType: types.EntityOrder,
				EntityID:   string(rune('a' + i)),
				CampaignID: &c,
				CreatedAt:  now,
			})
		}
		if err := repo.Create(dbc, rows); err != nil {
			t.Fatalf("Create: %v", err)
		}

		first, err := repo.ListByCampaign(dbc, cid, 0, 2)
		if err != nil || len(first) != 2 {
			t.Fatalf("first page: want=2 got=%d err=%v", len(first), err)
		}
		rest, err := repo.ListByCampaign(dbc, cid, first[1].ID, 2)
		if err != nil || len(rest) != 1 || rest[0].EntityID != "d" {
			t.Fatalf("second page: got=%+v err=%v", rest, err)
		}
	})
}

func orderIDs(rows []*types.Order) []uint64 {
	out := make([]uint64, 0, len(rows))
	for _, o := range rows {
		out = append(out, o.ID)
	}
	return out
}
