package disclosurewatch

import (
	"context"
	"fmt"

	"go.temporal.io/sdk/temporal"

	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	types "github.com/yungbote/groupbuy-settlement/internal/domain/groupbuy"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

type Activities struct {
	Log        *logger.Logger
	Disclosure domainagg.DisclosureAggregate
}

// Expire applies the disclosure timeout as the system administrator. Orders the callback already
// completed, or that another path already refunded, are skipped.
func (a *Activities) Expire(ctx context.Context, in Input) (Result, error) {
	res := Result{OrderID: in.OrderID}
	if a == nil || a.Disclosure == nil {
		return res, temporal.NewNonRetryableApplicationError("disclosurewatch: activity not configured", "config", nil)
	}
	out, err := a.Disclosure.OnDisclosureTimeout(ctx, domainagg.DisclosureTimeoutInput{
		Administrator: types.SystemAdmin(),
		OrderID:       in.OrderID,
	})
	switch domainagg.CodeOf(err) {
	case "":
		if err != nil {
			return res, err
		}
	case domainagg.CodeInvalidState, domainagg.CodeNotFound:
		a.Log.Debug("disclosure deadline: nothing to do", "order_id", in.OrderID, "reason", err)
		res.Outcome = OutcomeSkipped
		return res, nil
	case domainagg.CodeRetryable, domainagg.CodeConflict:
		return res, err
	default:
		return res, temporal.NewNonRetryableApplicationError(
			fmt.Sprintf("disclosure timeout for order %d failed", in.OrderID), string(domainagg.CodeOf(err)), err)
	}

	res.Refund = out.Refund.Amount
	res.Outcome = OutcomeRefunded
	if out.Refund.Transferred {
		res.Outcome = OutcomeTransferred
	}
	a.Log.Info("disclosure deadline applied", "order_id", in.OrderID, "request_id", in.RequestID, "outcome", res.Outcome, "refund", res.Refund)
	return res, nil
}
