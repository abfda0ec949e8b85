package services

import (
	"context"
	"time"

	"github.com/yungbote/groupbuy-settlement/internal/data/aggregates"
	"github.com/yungbote/groupbuy-settlement/internal/data/repos"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy/guard"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

// CampaignStats is the privacy-preserving view of a campaign's aggregate statistics.
type CampaignStats struct {
	CampaignID       uint64 `json:"campaign_id"`
	ParticipantCount int64  `json:"participant_count"`
	TargetReached    bool   `json:"target_reached"`
}

type DisclosureView struct {
	OrderID   uint64                 `json:"order_id"`
	Status    types.DisclosureStatus `json:"status"`
	RequestID string                 `json:"request_id,omitempty"`
	Deadline  time.Time              `json:"deadline"`
	// TimedOut is true once the deadline passed without a callback, whether or not the
	// timeout has been applied yet.
	TimedOut bool `json:"timed_out"`
}

type RefundBalance struct {
	Identity string `json:"identity"`
	Amount   int64  `json:"amount"`
}

// QueryService is the authorization-gated read surface over the ledger.
type QueryService interface {
	GetCampaign(ctx context.Context, campaignID uint64) (*types.Campaign, error)
	CheckTargetReached(ctx context.Context, campaignID uint64) (bool, error)
	GetStats(ctx context.Context, campaignID uint64) (CampaignStats, error)
	ListOrderIDs(ctx context.Context, actor types.Actor, campaignID uint64) ([]uint64, error)
	ListAuditEvents(ctx context.Context, actor types.Actor, campaignID, afterID uint64, limit int) ([]*types.AuditEvent, error)

	GetOrder(ctx context.Context, actor types.Actor, orderID uint64) (*types.Order, error)
	GetDisclosureStatus(ctx context.Context, actor types.Actor, orderID uint64) (DisclosureView, error)
	GetPendingRefund(ctx context.Context, actor types.Actor, identity string) (RefundBalance, error)
}

type queryService struct {
	log   *logger.Logger
	repos repos.Set
	now   func() time.Time
}

func NewQueryService(log *logger.Logger, set repos.Set, now func() time.Time) QueryService {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &queryService{
		log:   log.With("service", "QueryService"),
		repos: set,
		now:   now,
	}
}

func (s *queryService) campaign(ctx context.Context, op string, id uint64) (*types.Campaign, error) {
	c, err := s.repos.Campaign.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if err := guard.CampaignExists(op, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *queryService) order(ctx context.Context, op string, id uint64) (*types.Order, error) {
	o, err := s.repos.Order.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	if err := guard.OrderExists(op, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *queryService) GetCampaign(ctx context.Context, campaignID uint64) (*types.Campaign, error) {
	return s.campaign(ctx, "GroupBuy.Query.Campaign", campaignID)
}

func (s *queryService) CheckTargetReached(ctx context.Context, campaignID uint64) (bool, error) {
	c, err := s.campaign(ctx, "GroupBuy.Query.TargetReached", campaignID)
	if err != nil {
		return false, err
	}
	return c.IsTargetMet(), nil
}

func (s *queryService) GetStats(ctx context.Context, campaignID uint64) (CampaignStats, error) {
	const op = "GroupBuy.Query.Stats"
	c, err := s.campaign(ctx, op, campaignID)
	if err != nil {
		return CampaignStats{}, err
	}
	st, err := s.repos.Stats.GetByCampaignID(dbctx.Context{Ctx: ctx}, campaignID)
	if err != nil {
		return CampaignStats{}, aggregates.MapError(op, err)
	}
	out := CampaignStats{CampaignID: c.ID, TargetReached: c.IsTargetMet()}
	if st != nil {
		out.ParticipantCount = st.ParticipantCount
		out.TargetReached = out.TargetReached || st.TargetReached
	}
	return out, nil
}

func (s *queryService) ListOrderIDs(ctx context.Context, actor types.Actor, campaignID uint64) ([]uint64, error) {
	const op = "GroupBuy.Query.OrderIDs"
	c, err := s.campaign(ctx, op, campaignID)
	if err != nil {
		return nil, err
	}
	if err := guard.Organizer(op, actor, c); err != nil {
		return nil, err
	}
	ids, err := s.repos.Order.ListIDsByCampaign(dbctx.Context{Ctx: ctx}, c.ID)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return ids, nil
}

func (s *queryService) ListAuditEvents(ctx context.Context, actor types.Actor, campaignID, afterID uint64, limit int) ([]*types.AuditEvent, error) {
	const op = "GroupBuy.Query.Audit"
	c, err := s.campaign(ctx, op, campaignID)
	if err != nil {
		return nil, err
	}
	if err := guard.OrganizerOrAdmin(op, actor, c); err != nil {
		return nil, err
	}
	rows, err := s.repos.Audit.ListByCampaign(dbctx.Context{Ctx: ctx}, c.ID, afterID, limit)
	if err != nil {
		return nil, aggregates.MapError(op, err)
	}
	return rows, nil
}

func (s *queryService) GetOrder(ctx context.Context, actor types.Actor, orderID uint64) (*types.Order, error) {
	const op = "GroupBuy.Query.Order"
	o, err := s.order(ctx, op, orderID)
	if err != nil {
		return nil, err
	}
	if err := guard.ParticipantOrAdmin(op, actor, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *queryService) GetDisclosureStatus(ctx context.Context, actor types.Actor, orderID uint64) (DisclosureView, error) {
	const op = "GroupBuy.Query.Disclosure"
	o, err := s.order(ctx, op, orderID)
	if err != nil {
		return DisclosureView{}, err
	}
	if err := guard.ParticipantOrAdmin(op, actor, o); err != nil {
		return DisclosureView{}, err
	}
	out := DisclosureView{
		OrderID:  o.ID,
		Status:   o.DisclosureStatus,
		Deadline: o.DisclosureDeadline,
	}
	if o.DisclosureRequestID != nil {
		out.RequestID = *o.DisclosureRequestID
	}
	switch o.DisclosureStatus {
	case types.DisclosureFailed:
		out.TimedOut = true
	case types.DisclosureRequested:
		out.TimedOut = !s.now().Before(o.DisclosureDeadline)
	}
	return out, nil
}

func (s *queryService) GetPendingRefund(ctx context.Context, actor types.Actor, identity string) (RefundBalance, error) {
	const op = "GroupBuy.Query.PendingRefund"
	identity = types.NormalizeIdentity(identity)
	if err := guard.Identity(op, identity); err != nil {
		return RefundBalance{}, err
	}
	if err := guard.SelfOrAdmin(op, actor, identity); err != nil {
		return RefundBalance{}, err
	}
	row, err := s.repos.Refund.GetByParticipant(dbctx.Context{Ctx: ctx}, identity)
	if err != nil {
		return RefundBalance{}, aggregates.MapError(op, err)
	}
	out := RefundBalance{Identity: identity}
	if row != nil {
		out.Amount = row.Amount
	}
	return out, nil
}
