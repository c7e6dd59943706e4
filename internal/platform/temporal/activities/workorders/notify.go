package workorders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	woports "github.com/Apurer/go-gin-workorders/internal/domains/workorders/ports"
)

// NotifyTransitionActivityName delivers a committed transition to the notification webhook.
const NotifyTransitionActivityName = "workorders.activities.NotifyTransition"

// Activities groups the side effects fanned out after a work order transition commits.
type Activities struct {
	notifier woports.TransitionNotifier
}

// NewActivities wires the notifier into the Temporal activities bundle. A nil
// notifier makes every delivery a no-op.
func NewActivities(notifier woports.TransitionNotifier) *Activities {
	return &Activities{notifier: notifier}
}

// NotifyTransition pushes the event to the configured notifier. Retried attempts
// resend the same event; the webhook deduplicates on the idempotency key.
func (a *Activities) NotifyTransition(ctx context.Context, event domain.TransitionCommitted) error {
	logger := activity.GetLogger(ctx)
	if a == nil {
		logger.Error("notify activity not initialized", "workOrderId", event.WorkOrderID)
		return errors.New("notify activity not initialized")
	}
	if a.notifier == nil {
		logger.Info("notifier not configured; skipping", "workOrderId", event.WorkOrderID, "event", event.Event)
		return nil
	}

	logger.Info("NotifyTransition activity started", "workOrderId", event.WorkOrderID, "event", event.Event, "version", event.Version)
	if err := a.notifier.Notify(ctx, event); err != nil {
		logger.Error("NotifyTransition failed", "workOrderId", event.WorkOrderID, "error", err)
		return err
	}
	logger.Info("NotifyTransition activity completed", "workOrderId", event.WorkOrderID)
	return nil
}
