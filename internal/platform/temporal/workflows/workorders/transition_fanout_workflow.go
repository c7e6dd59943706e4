package workorders

import (
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	"github.com/Apurer/go-gin-workorders/internal/platform/temporal/sequences"
)

const (
	// TransitionFanoutWorkflowName is the public identifier for registering the workflow.
	TransitionFanoutWorkflowName = "workorders.workflows.TransitionFanout"
	// TransitionFanoutTaskQueue is the queue consumed by the worker processing transition side effects.
	TransitionFanoutTaskQueue = "WORK_ORDER_TRANSITIONS"
)

// TransitionFanoutWorkflowInput captures a committed transition and the trace it was raised in.
type TransitionFanoutWorkflowInput struct {
	Event   domain.TransitionCommitted
	TraceID string
}

// TransitionFanoutWorkflow delivers the downstream side effects of a committed transition.
func TransitionFanoutWorkflow(ctx workflow.Context, input TransitionFanoutWorkflowInput) error {
	logger := workflow.GetLogger(ctx)
	orderID := input.Event.WorkOrderID
	logger.Info("TransitionFanoutWorkflow started", withTraceID(input.TraceID, "workOrderId", orderID, "event", input.Event.Event)...)
	if err := sequences.RunTransitionFanoutSequence(ctx, input.Event); err != nil {
		logger.Error("TransitionFanoutWorkflow failed", withTraceID(input.TraceID, "workOrderId", orderID, "error", err)...)
		return err
	}
	logger.Info("TransitionFanoutWorkflow completed", withTraceID(input.TraceID, "workOrderId", orderID)...)
	return nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
