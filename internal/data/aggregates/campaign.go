package aggregates

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/groupbuy-settlement/internal/audit"
	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy/guard"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/dbctx"
)

type campaignAggregate struct {
	deps SettlementDeps
}

func NewCampaignAggregate(deps SettlementDeps) domainagg.CampaignAggregate {
	return &campaignAggregate{deps: deps.withDefaults()}
}

func (a *campaignAggregate) Contract() domainagg.Contract {
	return domainagg.CampaignAggregateContract
}

func validateCampaignInput(op string, in domainagg.CreateCampaignInput, deps SettlementDeps) error {
	if err := guard.Identity(op, in.Organizer.Identity); err != nil {
		return err
	}
	if err := guard.Text(op, "name", in.Name, types.MaxNameLength); err != nil {
		return err
	}
	if err := guard.Text(op, "description", in.Description, types.MaxDescriptionLength); err != nil {
		return err
	}
	if err := guard.Positive(op, "unit_price", in.UnitPrice); err != nil {
		return err
	}
	if err := guard.Range(op, "min_order_quantity", in.MinOrderQuantity, 1, types.MaxOrderQuantityCeiling); err != nil {
		return err
	}
	if err := guard.Range(op, "max_order_quantity", in.MaxOrderQuantity, in.MinOrderQuantity, types.MaxOrderQuantityCeiling); err != nil {
		return err
	}
	if _, err := guard.MulNoOverflow(op, in.UnitPrice, in.MaxOrderQuantity); err != nil {
		return err
	}
	if !in.Category.Valid() {
		return domainagg.Errorf(domainagg.CodeInvalidParameter, op, "unknown category %q", in.Category)
	}
	return guard.FutureDeadline(op, in.Deadline, deps.now(), types.MaxCampaignDuration)
}

func (a *campaignAggregate) CreateCampaign(ctx context.Context, in domainagg.CreateCampaignInput) (domainagg.CreateCampaignResult, error) {
	const op = "GroupBuy.Campaign.Create"
	var out domainagg.CreateCampaignResult
	if err := a.deps.validate(op); err != nil {
		return out, err
	}
	if err := validateCampaignInput(op, in, a.deps); err != nil {
		return out, err
	}
	if a.deps.Boundary == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "confidential boundary not configured", nil)
	}
	qtyZero, err := a.deps.Boundary.Wrap(ctx, 0)
	if err != nil {
		return out, domainagg.Wrap(domainagg.CodeRetryable, op, err)
	}
	amtZero, err := a.deps.Boundary.Wrap(ctx, 0)
	if err != nil {
		return out, domainagg.Wrap(domainagg.CodeRetryable, op, err)
	}

	var events []*types.AuditEvent
	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		now := a.deps.now()
		c := &types.Campaign{
			Organizer:        types.NormalizeIdentity(in.Organizer.Identity),
			Name:             strings.TrimSpace(in.Name),
			Description:      strings.TrimSpace(in.Description),
			UnitPrice:        in.UnitPrice,
			MinOrderQuantity: in.MinOrderQuantity,
			MaxOrderQuantity: in.MaxOrderQuantity,
			Category:         in.Category,
			Deadline:         in.Deadline.UTC(),
			Active:           true,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := a.deps.Repos.Campaign.Create(dbc, c); err != nil {
			return err
		}
		if err := a.deps.Repos.Stats.Create(dbc, &types.AggregateStats{
			CampaignID:     c.ID,
			QuantityHandle: qtyZero.String(),
			AmountHandle:   amtZero.String(),
			UpdatedAt:      now,
		}); err != nil {
			return err
		}
		ev, err := a.deps.Audit.Write(dbc, now, audit.Record{
			Action:     types.AuditCampaignCreated,
			Actor:      c.Organizer,
			EntityType: types.EntityCampaign,
			EntityID:   strconv.FormatUint(c.ID, 10),
			CampaignID: c.ID,
			Detail:     c.Name,
			Metadata: map[string]any{
				"unit_price":         c.UnitPrice,
				"min_order_quantity": c.MinOrderQuantity,
				"max_order_quantity": c.MaxOrderQuantity,
				"deadline":           c.Deadline,
			},
		})
		if err != nil {
			return err
		}
		events = ev
		out = domainagg.CreateCampaignResult{CampaignID: c.ID, CreatedAt: now}
		return nil
	})
	if err != nil {
		return domainagg.CreateCampaignResult{}, err
	}
	a.deps.Audit.Publish(ctx, events)
	return out, nil
}

func (a *campaignAggregate) DeactivateCampaign(ctx context.Context, in domainagg.DeactivateCampaignInput) error {
	const op = "GroupBuy.Campaign.Deactivate"
	if err := a.deps.validate(op); err != nil {
		return err
	}
	if err := guard.Identity(op, in.Organizer.Identity); err != nil {
		return err
	}

	var events []*types.AuditEvent
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		c, err := a.deps.Repos.Campaign.LockByID(dbc, in.CampaignID)
		if err != nil {
			return err
		}
		if err := guard.CampaignExists(op, c); err != nil {
			return err
		}
		if err := guard.Organizer(op, in.Organizer, c); err != nil {
			return err
		}
		if !c.Active {
			return nil
		}
		now := a.deps.now()
		if err := a.deps.Repos.Campaign.UpdateFields(dbc, c.ID, map[string]interface{}{
			"active":     false,
			"updated_at": now,
		}); err != nil {
			return err
		}
		ev, err := a.deps.Audit.Write(dbc, now, audit.Record{
			Action:     types.AuditCampaignDeactivated,
			Actor:      c.Organizer,
			EntityType: types.EntityCampaign,
			EntityID:   strconv.FormatUint(c.ID, 10),
			CampaignID: c.ID,
		})
		events = ev
		return err
	})
	if err != nil {
		return err
	}
	a.deps.Audit.Publish(ctx, events)
	return nil
}

func (a *campaignAggregate) BeginProcessing(ctx context.Context, in domainagg.BeginProcessingInput) (domainagg.BeginProcessingResult, error) {
	const op = "GroupBuy.Campaign.BeginProcessing"
	out := domainagg.BeginProcessingResult{CampaignID: in.CampaignID}
	if err := a.deps.validate(op); err != nil {
		return out, err
	}
	if err := guard.Identity(op, in.Organizer.Identity); err != nil {
		return out, err
	}

	var events []*types.AuditEvent
	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		c, err := a.deps.Repos.Campaign.LockByID(dbc, in.CampaignID)
		if err != nil {
			return err
		}
		if err := guard.CampaignExists(op, c); err != nil {
			return err
		}
		if err := guard.Organizer(op, in.Organizer, c); err != nil {
			return err
		}
		if !c.Active {
			return domainagg.NewError(domainagg.CodeCampaignNotEligible, op, "campaign inactive", nil)
		}
		if !c.IsTargetMet() {
			return domainagg.Errorf(domainagg.CodeInvalidState, op, "target not reached: %d of %d orders", c.CurrentOrders, c.MinOrderQuantity)
		}

		pending, err := a.deps.Repos.Order.LockByCampaignAndStatus(dbc, c.ID, types.OrderPending)
		if err != nil {
			return err
		}
		now := a.deps.now()
		moved := make([]uint64, 0, len(pending))
		for _, o := range pending {
			if !o.Status.CanTransition(types.OrderProcessing) {
				continue
			}
			ok, err := a.deps.Repos.Order.UpdateStatusWhere(dbc, o.ID, types.OrderPending, map[string]interface{}{
				"status":     types.OrderProcessing,
				"updated_at": now,
			})
			if err != nil {
				return err
			}
			if ok {
				moved = append(moved, o.ID)
			}
		}

		if !c.TargetReached {
			if err := a.deps.Repos.Campaign.UpdateFields(dbc, c.ID, map[string]interface{}{
				"target_reached": true,
				"updated_at":     now,
			}); err != nil {
				return err
			}
			if err := a.deps.Repos.Stats.UpdateFields(dbc, c.ID, map[string]interface{}{
				"target_reached": true,
				"updated_at":     now,
			}); err != nil {
				return err
			}
		}

		ev, err := a.deps.Audit.Write(dbc, now, audit.Record{
			Action:     types.AuditProcessingStarted,
			Actor:      c.Organizer,
			EntityType: types.EntityCampaign,
			EntityID:   strconv.FormatUint(c.ID, 10),
			CampaignID: c.ID,
			Detail:     fmt.Sprintf("%d orders moved to processing", len(moved)),
			Metadata:   map[string]any{"order_ids": moved},
		})
		if err != nil {
			return err
		}
		events = ev
		out.Transitioned = moved
		return nil
	})
	if err != nil {
		return domainagg.BeginProcessingResult{CampaignID: in.CampaignID}, err
	}
	a.deps.Audit.Publish(ctx, events)
	return out, nil
}
