// Package audit is the append-only event stream. Events are written in the same transaction as
// the state change they describe and fanned out to observers after commit.
package audit

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"gorm.io/datatypes"

	"github.com/yungbote/groupbuy-settlement/internal/data/repos"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type Record struct {
	Action     types.AuditAction
	Actor      string
	EntityType string
	EntityID   string
	CampaignID uint64
	Detail     string
	Metadata   map[string]any
}

// OrderRecord builds a record about an order.
func OrderRecord(action types.AuditAction, actor string, o *types.Order, detail string) Record {
	return Record{
		Action:     action,
		Actor:      actor,
		EntityType: types.EntityOrder,
		EntityID:   strconv.FormatUint(o.ID, 10),
		CampaignID: o.CampaignID,
		Detail:     detail,
	}
}

// Publisher delivers committed events to external observers. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, events []*types.AuditEvent) error
}

type Writer struct {
	repo      repos.AuditEventRepo
	publisher Publisher
	log       *logger.Logger
}

func NewWriter(repo repos.AuditEventRepo, publisher Publisher, log *logger.Logger) *Writer {
	return &Writer{repo: repo, publisher: publisher, log: log.With("component", "AuditWriter")}
}

// Write appends records inside dbc's transaction and returns the persisted rows.
func (w *Writer) Write(dbc dbctx.Context, at time.Time, recs ...Record) ([]*types.AuditEvent, error) {
	if len(recs) == 0 {
		return nil, nil
	}
	rows := make([]*types.AuditEvent, 0, len(recs))
	for _, r := range recs {
		ev := &types.AuditEvent{
			Action:     r.Action,
			Actor:      r.Actor,
			EntityType: r.EntityType,
			EntityID:   r.EntityID,
			Detail:     r.Detail,
			CreatedAt:  at,
		}
		if r.CampaignID != 0 {
			id := r.CampaignID
			ev.CampaignID = &id
		}
		if len(r.Metadata) > 0 {
			raw, err := json.Marshal(r.Metadata)
			if err != nil {
				return nil, err
			}
			ev.Metadata = datatypes.JSON(raw)
		}
		rows = append(rows, ev)
	}
	if err := w.repo.Create(dbc, rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Publish fans committed events out. Failures are logged, never returned: the rows are already durable.
func (w *Writer) Publish(ctx context.Context, events []*types.AuditEvent) {
	if w == nil || w.publisher == nil || len(events) == 0 {
		return
	}
	if err := w.publisher.Publish(ctx, events); err != nil {
		w.log.Warn("audit publish failed", "events", len(events), "error", err)
	}
}

// LogPublisher writes events to the log.
type LogPublisher struct {
	Log *logger.Logger
}

func (p LogPublisher) Publish(_ context.Context, events []*types.AuditEvent) error {
	for _, ev := range events {
		p.Log.Info("audit",
			"action", ev.Action,
			"actor", ev.Actor,
			"entity_type", ev.EntityType,
			"entity_id", ev.EntityID,
			"detail", ev.Detail,
		)
	}
	return nil
}
