package aggregates

import (
	"context"
	"testing"
	"time"

	repotest "github.com/yungbote/groupbuy-settlement/internal/data/repos/testutil"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
)

func TestRequireCASSuccess(t *testing.T) {
	if err := RequireCASSuccess(true, "ok"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := RequireCASSuccess(false, "stale"); err == nil {
		t.Fatalf("expected conflict error")
	}
}

func TestCASGuardDebitIfCovered(t *testing.T) {
	db := repotest.SQLite(t)
	ctx := context.Background()
	c := repotest.SeedCampaign(t, ctx, db, "org", time.Now().Add(time.Hour))
	if err := db.Model(&types.Campaign{}).Where("id = ?", c.ID).Update("escrow_balance", 30).Error; err != nil {
		t.Fatalf("seed escrow: %v", err)
	}
	g := NewCASGuard(db)
	dbc := dbctx.Context{Ctx: ctx}

	ok, err := g.DebitIfCovered(dbc, "campaign", "id", c.ID, "escrow_balance", 20, nil)
	if err != nil || !ok {
		t.Fatalf("covered debit: want=true got=%v err=%v", ok, err)
	}
	ok, err = g.DebitIfCovered(dbc, "campaign", "id", c.ID, "escrow_balance", 20, nil)
	if err != nil || ok {
		t.Fatalf("uncovered debit: want=false got=%v err=%v", ok, err)
	}
	var got types.Campaign
	if err := db.First(&got, c.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.EscrowBalance != 10 {
		t.Fatalf("escrow: want=10 got=%d", got.EscrowBalance)
	}
	if _, err := g.DebitIfCovered(dbc, "campaign", "id", c.ID, "escrow_balance", -1, nil); err == nil {
		t.Fatalf("negative debit: expected error")
	}
}
