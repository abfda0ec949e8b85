package aggregates

import (
	"context"
	"time"

	"github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
)

var CampaignAggregateContract = Contract{
	Name:    "GroupBuy.CampaignAggregate",
	Locks:   []LockScope{LockCampaign, LockOrder},
	Effects: []Effect{EffectAudit},
	Notes:   "Owns campaign creation, deactivation and the PENDING -> PROCESSING sweep.",
}

// CampaignAggregate owns campaign lifecycle invariants.
type CampaignAggregate interface {
	Aggregate

	// CreateCampaign validates and persists a new campaign plus its aggregate stats.
	CreateCampaign(ctx context.Context, in CreateCampaignInput) (CreateCampaignResult, error)

	// DeactivateCampaign stops new placements. In-flight orders are untouched.
	DeactivateCampaign(ctx context.Context, in DeactivateCampaignInput) error

	// BeginProcessing moves every PENDING order of a target-reached campaign to PROCESSING.
	BeginProcessing(ctx context.Context, in BeginProcessingInput) (BeginProcessingResult, error)
}

type CreateCampaignInput struct {
	Organizer        groupbuy.Actor
	Name             string
	Description      string
	UnitPrice        int64
	MinOrderQuantity int64
	MaxOrderQuantity int64
	Category         groupbuy.Category
	Deadline         time.Time
}

type CreateCampaignResult struct {
	CampaignID uint64
	CreatedAt  time.Time
}

type DeactivateCampaignInput struct {
	Organizer  groupbuy.Actor
	CampaignID uint64
}

type BeginProcessingInput struct {
	Organizer  groupbuy.Actor
	CampaignID uint64
}

type BeginProcessingResult struct {
	CampaignID uint64
	// Transitioned lists the order ids moved in this invocation only.
	Transitioned []uint64
}
