package aggregates

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/groupbuy-settlement/internal/audit"
	"github.com/yungbote/groupbuy-settlement/internal/confidential"
	"github.com/yungbote/groupbuy-settlement/internal/data/repos"
	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/observability"
	"github.com/yungbote/groupbuy-settlement/internal/oracle"
	"github.com/yungbote/groupbuy-settlement/internal/payout"
)

// DeadlineWatcher arranges for OnDisclosureTimeout to run once deadline passes.
type DeadlineWatcher interface {
	Watch(ctx context.Context, orderID uint64, requestID string, deadline time.Time) error
}

// SettlementDeps is shared by the campaign, order, disclosure and refund aggregates.
type SettlementDeps struct {
	Base BaseDeps

	Repos      repos.Set
	Boundary   confidential.Boundary
	Oracle     oracle.Oracle
	Prover     *oracle.Prover
	Transferer payout.Transferer
	Audit      *audit.Writer
	// Watcher is optional; without it the sweeper job applies timeouts.
	Watcher DeadlineWatcher
	Metrics *observability.Metrics

	OrderLifetime time.Duration
	CallbackURL   string
}

func (d SettlementDeps) withDefaults() SettlementDeps {
	d.Base = d.Base.withDefaults()
	if d.OrderLifetime <= 0 {
		d.OrderLifetime = types.DefaultOrderLifetime
	}
	return d
}

func (d SettlementDeps) validate(op string) error {
	r := d.Repos
	if r.Campaign == nil || r.Stats == nil || r.Order == nil || r.Disclosure == nil || r.Refund == nil || r.Audit == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "settlement repos not configured", nil)
	}
	if d.Audit == nil {
		return domainagg.NewError(domainagg.CodeInternal, op, "audit writer not configured", nil)
	}
	return nil
}

func (d SettlementDeps) now() time.Time {
	return d.Base.Now()
}

func orderEntityID(id uint64) string {
	return fmt.Sprintf("%d", id)
}
