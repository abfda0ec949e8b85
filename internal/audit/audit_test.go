package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/yungbote/groupbuy-settlement/internal/data/repos"
	repotest "github.com/yungbote/groupbuy-settlement/internal/data/repos/testutil"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
)

type recordingPublisher struct {
	events []*types.AuditEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events []*types.AuditEvent) error {
	p.events = append(p.events, events...)
	return p.err
}

func TestWriterPersistsAndPublishes(t *testing.T) {
	db := repotest.SQLite(t)
	log := repotest.Logger(t)
	repo := repos.NewAuditEventRepo(db, log)
	pub := &recordingPublisher{}
	w := NewWriter(repo, pub, log)
	ctx := context.Background()
	at := time.Now().UTC()

	order := &types.Order{ID: 4, CampaignID: 2}
	rec := OrderRecord(types.AuditOrderPlaced, "alice", order, "placed")
	rec.Metadata = map[string]any{"deadline": "x"}

	rows, err := w.Write(dbctx.Context{Ctx: ctx}, at, rec)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if len(rows) != 1 || rows[0].ID == 0 {
		t.Fatalf("rows: want one persisted row got=%+v", rows)
	}
	w.Publish(ctx, rows)
	if len(pub.events) != 1 {
		t.Fatalf("published: want=1 got=%d", len(pub.events))
	}

	got, err := repo.ListByCampaign(dbctx.Context{Ctx: ctx}, 2, 0, 10)
	if err != nil {
		t.Fatalf("ListByCampaign: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("listed: want=1 got=%d", len(got))
	}
	if got[0].Action != types.AuditOrderPlaced || got[0].EntityID != "4" || got[0].Actor != "alice" {
		t.Fatalf("unexpected event: %+v", got[0])
	}
	var meta map[string]any
	if err := json.Unmarshal(got[0].Metadata, &meta); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if meta["deadline"] != "x" {
		t.Fatalf("metadata deadline: got=%v", meta["deadline"])
	}
}

func TestWriterPublishFailureIsSwallowed(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("down")}
	w := NewWriter(nil, pub, repotest.Logger(t))
	w.Publish(context.Background(), []*types.AuditEvent{{ID: 1}})
	if len(pub.events) != 1 {
		t.Fatalf("publisher should still be called")
	}
}
