package sequences

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	woactivities "github.com/Apurer/go-gin-workorders/internal/platform/temporal/activities/workorders"
)

// RunTransitionFanoutSequence executes the post-commit side effects of one transition.
func RunTransitionFanoutSequence(ctx workflow.Context, event domain.TransitionCommitted) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("transition fan-out sequence started", "workOrderId", event.WorkOrderID, "event", event.Event)
	notifyOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    2 * time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    30 * time.Second,
			MaximumAttempts:    5,
		},
	}

	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, notifyOptions), woactivities.NotifyTransitionActivityName, event).Get(ctx, nil)
	if err != nil {
		logger.Error("transition fan-out sequence notify failed", "workOrderId", event.WorkOrderID, "error", err)
		return err
	}
	logger.Info("transition fan-out sequence notified", "workOrderId", event.WorkOrderID, "version", event.Version)
	return nil
}
