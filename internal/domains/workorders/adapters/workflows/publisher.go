package workflows

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/ports"
	woworkflows "github.com/Apurer/go-gin-workorders/internal/platform/temporal/workflows/workorders"
)

var (
	_ ports.TransitionPublisher = (*TemporalPublisher)(nil)
	_ ports.TransitionPublisher = (*InlinePublisher)(nil)
)

// WorkflowStarter is the slice of the Temporal client the publisher needs.
type WorkflowStarter interface {
	ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error)
}

// TemporalPublisher starts one fan-out workflow per committed transition. The
// start RPC runs off the request path on a detached, time-bounded context.
type TemporalPublisher struct {
	client       WorkflowStarter
	taskQueue    string
	logger       *slog.Logger
	startTimeout time.Duration
}

// TemporalOption customises the Temporal publisher.
type TemporalOption func(*TemporalPublisher)

// WithStartLogger sets the logger used for failed workflow starts.
func WithStartLogger(logger *slog.Logger) TemporalOption {
	return func(p *TemporalPublisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithStartTimeout bounds each workflow start RPC.
func WithStartTimeout(d time.Duration) TemporalOption {
	return func(p *TemporalPublisher) {
		if d > 0 {
			p.startTimeout = d
		}
	}
}

// NewTemporalPublisher wires a Temporal client into the publisher.
func NewTemporalPublisher(c WorkflowStarter, opts ...TemporalOption) *TemporalPublisher {
	p := &TemporalPublisher{
		client:       c,
		taskQueue:    woworkflows.TransitionFanoutTaskQueue,
		logger:       slog.Default(),
		startTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish hands the workflow start to a goroutine and returns immediately.
// Cancelling ctx after Publish returns does not abort the start.
func (p *TemporalPublisher) Publish(ctx context.Context, event domain.TransitionCommitted) error {
	if p == nil || p.client == nil {
		return errors.New("temporal transition publisher not configured")
	}
	detached := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(detached, p.startTimeout)
		defer cancel()
		if err := p.start(ctx, event); err != nil {
			p.logger.Warn("transition fan-out start failed",
				slog.String("workOrderId", event.WorkOrderID),
				slog.Int64("version", event.Version),
				slog.String("error", err.Error()),
			)
		}
	}()
	return nil
}

// start runs the workflow start RPC. The workflow ID is derived from the order
// and its committed version, so a duplicate start is absorbed.
func (p *TemporalPublisher) start(ctx context.Context, event domain.TransitionCommitted) error {
	options := client.StartWorkflowOptions{
		ID:        FanoutWorkflowID(event),
		TaskQueue: p.taskQueue,
	}
	input := woworkflows.TransitionFanoutWorkflowInput{Event: event, TraceID: workflowTraceID(ctx)}
	_, err := p.client.ExecuteWorkflow(ctx, options, woworkflows.TransitionFanoutWorkflowName, input)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) {
			return nil
		}
		return fmt.Errorf("start transition fan-out: %w", err)
	}
	return nil
}

// InlinePublisher logs committed transitions and, when a notifier is set,
// delivers them on a detached goroutine. Useful for tests or dev fallbacks.
type InlinePublisher struct {
	logger   *slog.Logger
	notifier ports.TransitionNotifier
	timeout  time.Duration
}

// InlineOption customises the inline publisher.
type InlineOption func(*InlinePublisher)

// WithNotifier delivers events through n after logging them.
func WithNotifier(n ports.TransitionNotifier) InlineOption {
	return func(p *InlinePublisher) {
		p.notifier = n
	}
}

// WithDeliveryTimeout bounds each detached delivery.
func WithDeliveryTimeout(d time.Duration) InlineOption {
	return func(p *InlinePublisher) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewInlinePublisher builds a publisher that never blocks the caller.
func NewInlinePublisher(logger *slog.Logger, opts ...InlineOption) *InlinePublisher {
	if logger == nil {
		logger = slog.Default()
	}
	p := &InlinePublisher{logger: logger, timeout: 10 * time.Second}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Publish records the event and hands it to the notifier without waiting.
func (p *InlinePublisher) Publish(ctx context.Context, event domain.TransitionCommitted) error {
	if p == nil {
		return errors.New("inline transition publisher not configured")
	}
	p.logger.InfoContext(ctx, "work order transition committed",
		slog.String("workOrderId", event.WorkOrderID),
		slog.String("event", string(event.Event)),
		slog.String("from", string(event.From)),
		slog.String("to", string(event.To)),
		slog.Int64("version", event.Version),
	)
	if p.notifier == nil {
		return nil
	}
	deliveryCtx := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(deliveryCtx, p.timeout)
		defer cancel()
		if err := p.notifier.Notify(ctx, event); err != nil {
			p.logger.Warn("transition notification failed",
				slog.String("workOrderId", event.WorkOrderID),
				slog.Int64("version", event.Version),
				slog.String("error", err.Error()),
			)
		}
	}()
	return nil
}

// FanoutWorkflowID is unique per committed version of a work order.
func FanoutWorkflowID(event domain.TransitionCommitted) string {
	return fmt.Sprintf("workorder-transition-%s-v%d", event.WorkOrderID, event.Version)
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
