// Package guard holds the stateless predicates every mutating operation runs before touching
// the ledger. A failing predicate aborts the whole operation.
package guard

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	"github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
)

// Text requires a non-empty value of at most max runes.
func Text(op, field, value string, max int) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return aggregates.Errorf(aggregates.CodeInvalidParameter, op, "%s is required", field)
	}
	if utf8.RuneCountInString(v) > max {
		return aggregates.Errorf(aggregates.CodeInvalidParameter, op, "%s exceeds %d characters", field, max)
	}
	return nil
}

// Positive requires v > 0.
func Positive(op, field string, v int64) error {
	if v <= 0 {
		return aggregates.Errorf(aggregates.CodeInvalidParameter, op, "%s must be positive", field)
	}
	return nil
}

// Range requires lo <= v <= hi.
func Range(op, field string, v, lo, hi int64) error {
	if v < lo || v > hi {
		return aggregates.Errorf(aggregates.CodeInvalidParameter, op, "%s must be within [%d, %d]", field, lo, hi)
	}
	return nil
}

// MulNoOverflow returns a*b, failing when the product leaves the monetary range.
func MulNoOverflow(op string, a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, aggregates.Errorf(aggregates.CodeInvalidParameter, op, "negative operand")
	}
	if a != 0 && b > math.MaxInt64/a {
		return 0, aggregates.Errorf(aggregates.CodeInvalidParameter, op, "amount overflow")
	}
	return a * b, nil
}

// AddNoOverflow returns a+b for non-negative operands.
func AddNoOverflow(op string, a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, aggregates.Errorf(aggregates.CodeInvalidParameter, op, "negative operand")
	}
	if a > math.MaxInt64-b {
		return 0, aggregates.Errorf(aggregates.CodeInvalidParameter, op, "amount overflow")
	}
	return a + b, nil
}

// Identity rejects the null identity.
func Identity(op string, id string) error {
	if groupbuy.IsNullIdentity(id) {
		return aggregates.NewError(aggregates.CodeInvalidParameter, op, "null identity", nil)
	}
	return nil
}

// FutureDeadline requires now < deadline <= now+max.
func FutureDeadline(op string, deadline, now time.Time, max time.Duration) error {
	if deadline.IsZero() || !deadline.After(now) {
		return aggregates.NewError(aggregates.CodeInvalidParameter, op, "deadline must be in the future", nil)
	}
	if max > 0 && deadline.After(now.Add(max)) {
		return aggregates.NewError(aggregates.CodeInvalidParameter, op, "deadline too far in the future", nil)
	}
	return nil
}

// CampaignExists fails with not_found when the lookup returned nothing.
func CampaignExists(op string, c *groupbuy.Campaign) error {
	if c == nil || c.ID == 0 {
		return aggregates.NewError(aggregates.CodeNotFound, op, "campaign not found", nil)
	}
	return nil
}

// CampaignOpen requires an existing, active, unexpired campaign.
func CampaignOpen(op string, c *groupbuy.Campaign, now time.Time) error {
	if err := CampaignExists(op, c); err != nil {
		return err
	}
	if c.AcceptsOrdersAt(now) {
		return nil
	}
	if !c.Active {
		return aggregates.NewError(aggregates.CodeCampaignNotEligible, op, "campaign inactive", nil)
	}
	if !now.Before(c.Deadline) {
		return aggregates.NewError(aggregates.CodeCampaignNotEligible, op, "campaign expired", nil)
	}
	return nil
}

// OrderExists fails with not_found when the lookup returned nothing.
func OrderExists(op string, o *groupbuy.Order) error {
	if o == nil || o.ID == 0 {
		return aggregates.NewError(aggregates.CodeNotFound, op, "order not found", nil)
	}
	return nil
}

// Organizer requires the actor to be the campaign's organizer.
func Organizer(op string, actor groupbuy.Actor, c *groupbuy.Campaign) error {
	if c == nil || groupbuy.NormalizeIdentity(actor.Identity) != c.Organizer {
		return aggregates.NewError(aggregates.CodeUnauthorized, op, "caller is not the campaign organizer", nil)
	}
	return nil
}

// OrganizerOrAdmin admits the campaign organizer or an administrator.
func OrganizerOrAdmin(op string, actor groupbuy.Actor, c *groupbuy.Campaign) error {
	if actor.IsAdmin() {
		return nil
	}
	return Organizer(op, actor, c)
}

// OrderParticipant requires the actor to own the order.
func OrderParticipant(op string, actor groupbuy.Actor, o *groupbuy.Order) error {
	if o == nil || groupbuy.NormalizeIdentity(actor.Identity) != o.Participant {
		return aggregates.NewError(aggregates.CodeUnauthorized, op, "caller is not the order participant", nil)
	}
	return nil
}

// ParticipantOrAdmin admits the order's participant or an administrator.
func ParticipantOrAdmin(op string, actor groupbuy.Actor, o *groupbuy.Order) error {
	if actor.IsAdmin() {
		return nil
	}
	return OrderParticipant(op, actor, o)
}

// SelfOrAdmin admits the identity itself or an administrator.
func SelfOrAdmin(op string, actor groupbuy.Actor, identity string) error {
	if actor.IsAdmin() || groupbuy.NormalizeIdentity(actor.Identity) == groupbuy.NormalizeIdentity(identity) {
		return nil
	}
	return aggregates.NewError(aggregates.CodeUnauthorized, op, "caller may not read this identity", nil)
}

// Admin requires the global administrator role.
func Admin(op string, actor groupbuy.Actor) error {
	if !actor.IsAdmin() {
		return aggregates.NewError(aggregates.CodeUnauthorized, op, "administrator role required", nil)
	}
	return nil
}

// Transition requires the order state machine to allow moving o to the target status.
func Transition(op string, o *groupbuy.Order, to groupbuy.OrderStatus) error {
	if o.Status.CanTransition(to) {
		return nil
	}
	if o.Status.Terminal() {
		return aggregates.Errorf(aggregates.CodeInvalidState, op, "order %d is already %s", o.ID, o.Status)
	}
	return aggregates.Errorf(aggregates.CodeInvalidState, op, "order %d cannot move from %s to %s", o.ID, o.Status, to)
}

// OrderStatus requires the order to be in one of the allowed statuses.
func OrderStatus(op string, o *groupbuy.Order, allowed ...groupbuy.OrderStatus) error {
	for _, s := range allowed {
		if o.Status == s {
			return nil
		}
	}
	return aggregates.Errorf(aggregates.CodeInvalidState, op, "order %d is %s", o.ID, o.Status)
}
