package payout

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/groupbuy-settlement/internal/data/repos"
	repotest "github.com/yungbote/groupbuy-settlement/internal/data/repos/testutil"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
)

func TestLedgerTransfererIsIdempotent(t *testing.T) {
	db := repotest.SQLite(t)
	log := repotest.Logger(t)
	repo := repos.NewPayoutRepo(db, log)
	tr := NewLedgerTransferer(repo, log)
	ctx := context.Background()

	first, err := tr.Transfer(ctx, Transfer{Recipient: "alice", Amount: 10, IdempotencyKey: "k1"})
	if err != nil {
		t.Fatalf("Transfer: %v", err)
	}
	second, err := tr.Transfer(ctx, Transfer{Recipient: "alice", Amount: 10, IdempotencyKey: "k1"})
	if err != nil {
		t.Fatalf("Transfer replay: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("replay receipt: want=%s got=%s", first.ID, second.ID)
	}
	rows, err := repo.ListByRecipient(dbctx.Context{Ctx: ctx}, "alice")
	if err != nil {
		t.Fatalf("ListByRecipient: %v", err)
	}
	if len(rows) != 1 || rows[0].Amount != 10 {
		t.Fatalf("payout rows: want one of 10 got=%+v", rows)
	}
}

func TestLedgerTransfererRejectsInvalid(t *testing.T) {
	db := repotest.SQLite(t)
	log := repotest.Logger(t)
	tr := NewLedgerTransferer(repos.NewPayoutRepo(db, log), log)

	cases := []Transfer{
		{Recipient: "alice", Amount: 0, IdempotencyKey: "k"},
		{Recipient: "", Amount: 5, IdempotencyKey: "k"},
		{Recipient: "0x0000000000000000000000000000000000000000", Amount: 5, IdempotencyKey: "k"},
		{Recipient: "alice", Amount: 5},
	}
	for _, tc := range cases {
		if _, err := tr.Transfer(context.Background(), tc); !errors.Is(err, ErrInvalidTransfer) {
			t.Fatalf("Transfer(%+v): want ErrInvalidTransfer got=%v", tc, err)
		}
	}
}
