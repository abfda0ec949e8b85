package aggregates

import (
	"context"
	"errors"
	"testing"

	repotest "github.com/yungbote/groupbuy-settlement/internal/data/repos/testutil"
	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
)

func TestLedgerTxRunnerRejectsCancelledContext(t *testing.T) {
	runner := NewGormTxRunner(repotest.SQLite(t))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := runner.InTx(ctx, func(dbctx.Context) error {
		called = true
		return nil
	})
	if !domainagg.IsCode(err, domainagg.CodeRetryable) {
		t.Fatalf("cancelled ctx: want=retryable got=%v", err)
	}
	if called {
		t.Fatalf("body must not run for a cancelled ctx")
	}
}

func TestLedgerTxRunnerNilDB(t *testing.T) {
	err := NewGormTxRunner(nil).InTx(context.Background(), func(dbctx.Context) error { return nil })
	if !domainagg.IsCode(err, domainagg.CodeInternal) {
		t.Fatalf("nil db: want=internal got=%v", err)
	}
}

func TestLedgerTxRunnerRollsBackOnError(t *testing.T) {
	db := repotest.SQLite(t)
	runner := NewGormTxRunner(db)
	boom := errors.New("boom")
	err := runner.InTx(context.Background(), func(dbc dbctx.Context) error {
		repotest.SeedCampaign(t, dbc.Ctx, dbc.Tx, "0xorganizer", testStart.Add(testLifetime))
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("body error: want=%v got=%v", boom, err)
	}
	var n int64
	if err := db.Model(&types.Campaign{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Fatalf("rolled back campaigns: want=0 got=%d", n)
	}
}
