package disclosurewatch

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// maxSleep bounds each timer so very long deadlines do not pin a single timer for days.
const maxSleep = 24 * time.Hour

func Workflow(ctx workflow.Context, in Input) (Result, error) {
	if in.OrderID == 0 || in.Deadline.IsZero() {
		return Result{}, fmt.Errorf("disclosurewatch: missing order id or deadline")
	}

	for {
		now := workflow.Now(ctx)
		if !now.Before(in.Deadline) {
			break
		}
		d := in.Deadline.Sub(now)
		if d > maxSleep {
			d = maxSleep
		}
		if err := workflow.Sleep(ctx, d); err != nil {
			return Result{}, err
		}
	}

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: time.Minute,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2,
			MaximumInterval:    time.Minute,
			MaximumAttempts:    20,
		},
	})
	var out Result
	if err := workflow.ExecuteActivity(ctx, ActivityExpire, in).Get(ctx, &out); err != nil {
		return Result{}, err
	}
	workflow.GetLogger(ctx).Info("disclosure deadline handled", "order_id", in.OrderID, "outcome", out.Outcome)
	return out, nil
}
