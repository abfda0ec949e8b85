package disclosurewatch

import (
	"context"
	"errors"
	"time"

	"go.temporal.io/api/enums/v1"
	"go.temporal.io/api/serviceerror"
	temporalsdkclient "go.temporal.io/sdk/client"

	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
)

// Watcher starts the deadline workflow for a freshly requested disclosure.
type Watcher struct {
	Client    temporalsdkclient.Client
	TaskQueue string
	Log       *logger.Logger
}

func (w *Watcher) Watch(ctx context.Context, orderID uint64, requestID string, deadline time.Time) error {
	if w == nil || w.Client == nil {
		return errors.New("disclosurewatch: temporal client not configured")
	}
	run, err := w.Client.ExecuteWorkflow(ctx, temporalsdkclient.StartWorkflowOptions{
		ID:                    WorkflowID(orderID),
		TaskQueue:             w.TaskQueue,
		WorkflowIDReusePolicy: enums.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE_FAILED_ONLY,
	}, WorkflowName, Input{OrderID: orderID, RequestID: requestID, Deadline: deadline.UTC()})
	if err != nil {
		var started *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &started) {
			return nil
		}
		return err
	}
	w.Log.Debug("disclosure deadline watch started", "order_id", orderID, "workflow_id", run.GetID(), "run_id", run.GetRunID())
	return nil
}
