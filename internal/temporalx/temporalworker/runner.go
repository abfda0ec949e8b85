package temporalworker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/activity"
	temporalsdkclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	domainagg "github.com/yungbote/groupbuy-settlement/internal/domain/aggregates"
	"github.com/yungbote/groupbuy-settlement/internal/pkg/logger"
	"github.com/yungbote/groupbuy-settlement/internal/temporalx"
	"github.com/yungbote/groupbuy-settlement/internal/temporalx/disclosurewatch"
)

// Runner hosts the disclosure-deadline workflow and its activity.
type Runner struct {
	log *logger.Logger
	tc  temporalsdkclient.Client
	cfg temporalx.Config

	disclosure domainagg.DisclosureAggregate
}

func NewRunner(log *logger.Logger, tc temporalsdkclient.Client, cfg temporalx.Config, disclosure domainagg.DisclosureAggregate) (*Runner, error) {
	if tc == nil {
		return nil, fmt.Errorf("temporal client is not configured")
	}
	if disclosure == nil {
		return nil, fmt.Errorf("temporal worker missing disclosure aggregate")
	}
	return &Runner{log: log.With("component", "TemporalWorker"), tc: tc, cfg: cfg, disclosure: disclosure}, nil
}

// Start begins polling and stops the worker when ctx is cancelled. Start failures are retried
// until 60s have passed.
func (r *Runner) Start(ctx context.Context) error {
	if r == nil || r.tc == nil {
		return fmt.Errorf("temporal worker not initialized")
	}
	r.log.Info("Starting Temporal worker", "namespace", r.cfg.Namespace, "task_queue", r.cfg.TaskQueue)

	deadline := time.Now().Add(60 * time.Second)
	for attempt := 1; ; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		w := r.newWorker()
		startErr := w.Start()
		if startErr == nil {
			go func() {
				<-ctx.Done()
				w.Stop()
			}()
			r.log.Info("Temporal worker started", "task_queue", r.cfg.TaskQueue, "attempts", attempt)
			return nil
		}
		w.Stop()

		var nfe *serviceerror.NamespaceNotFound
		if errors.As(startErr, &nfe) && r.cfg.AutoRegisterNamespace {
			if err := temporalx.EnsureNamespace(ctx, r.cfg, r.log); err != nil {
				r.log.Warn("Temporal namespace ensure failed", "namespace", r.cfg.Namespace, "error", err)
			}
		}
		if time.Now().After(deadline) {
			if errors.As(startErr, &nfe) {
				return fmt.Errorf("temporal namespace not found (namespace=%s): %w", r.cfg.Namespace, startErr)
			}
			return startErr
		}
		r.log.Warn("Temporal worker failed to start; retrying", "attempt", attempt, "error", startErr)
		time.Sleep(time.Duration(attempt) * 250 * time.Millisecond)
	}
}

func (r *Runner) newWorker() worker.Worker {
	concurrency := r.cfg.WorkerConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	w := worker.New(r.tc, r.cfg.TaskQueue, worker.Options{
		MaxConcurrentActivityExecutionSize:     concurrency,
		MaxConcurrentWorkflowTaskExecutionSize: concurrency,
	})
	acts := &disclosurewatch.Activities{Log: r.log, Disclosure: r.disclosure}
	w.RegisterWorkflowWithOptions(disclosurewatch.Workflow, workflow.RegisterOptions{Name: disclosurewatch.WorkflowName})
	w.RegisterActivityWithOptions(acts.Expire, activity.RegisterOptions{Name: disclosurewatch.ActivityExpire})
	return w
}
