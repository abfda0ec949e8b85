// Package sweeper applies overdue disclosure timeouts on a poll loop. It covers deployments
// without Temporal and requests whose deadline watch could not be scheduled.
package sweeper

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/groupbuy-settlement/internal/data/repos"
	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/observability"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type Config struct {
	Interval time.Duration
	Batch    int
}

type Sweeper struct {
	log        *logger.Logger
	orders     repos.OrderRepo
	disclosure domainagg.DisclosureAggregate
	metrics    *observability.Metrics
	cfg        Config
	now        func() time.Time
}

func New(baseLog *logger.Logger, orders repos.OrderRepo, disclosure domainagg.DisclosureAggregate, metrics *observability.Metrics, cfg Config) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 100
	}
	return &Sweeper{
		log:        baseLog.With("component", "DisclosureSweeper"),
		orders:     orders,
		disclosure: disclosure,
		metrics:    metrics,
		cfg:        cfg,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Run polls until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	s.log.Info("disclosure sweeper started", "interval", s.cfg.Interval.String(), "batch", s.cfg.Batch)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.Warn("disclosure sweep failed", "error", err)
			}
		}
	}
}

// RunOnce applies the timeout to every overdue REQUESTED order in one batch and returns how
// many were refunded.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	overdue, err := s.orders.ListOverdueRequested(dbctx.Context{Ctx: ctx}, s.now(), s.cfg.Batch)
	if err != nil {
		s.metrics.IncTimeoutScan("error")
		return 0, err
	}
	refunded := 0
	for _, o := range overdue {
		if ctx.Err() != nil {
			return refunded, ctx.Err()
		}
		result := s.expire(ctx, o)
		s.metrics.IncTimeoutScan(result)
		if result == "refunded" {
			refunded++
		}
	}
	return refunded, nil
}

func (s *Sweeper) expire(ctx context.Context, o *types.Order) (result string) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("disclosure timeout panic", "order_id", o.ID, "panic", fmt.Sprint(r))
			result = "error"
		}
	}()
	out, err := s.disclosure.OnDisclosureTimeout(ctx, domainagg.DisclosureTimeoutInput{
		Administrator: types.SystemAdmin(),
		OrderID:       o.ID,
	})
	switch {
	case err == nil:
		s.log.Info("disclosure timed out", "order_id", o.ID, "refund", out.Refund.Amount, "transferred", out.Refund.Transferred)
		return "refunded"
	case domainagg.IsCode(err, domainagg.CodeInvalidState):
		// A callback or a workflow got there first.
		return "skipped"
	default:
		s.log.Warn("disclosure timeout failed", "order_id", o.ID, "error", err)
		return "error"
	}
}
