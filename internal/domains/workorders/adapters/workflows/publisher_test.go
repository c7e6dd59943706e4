package workflows

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	woworkflows "github.com/Apurer/go-gin-workorders/internal/platform/temporal/workflows/workorders"
)

type fakeStarter struct {
	options  []client.StartWorkflowOptions
	workflow []interface{}
	args     [][]interface{}
	err      error
}

func (f *fakeStarter) ExecuteWorkflow(_ context.Context, options client.StartWorkflowOptions, workflow interface{}, args ...interface{}) (client.WorkflowRun, error) {
	f.options = append(f.options, options)
	f.workflow = append(f.workflow, workflow)
	f.args = append(f.args, args)
	return nil, f.err
}

type channelNotifier struct {
	delivered chan domain.TransitionCommitted
	err       error
}

func (n *channelNotifier) Notify(_ context.Context, event domain.TransitionCommitted) error {
	n.delivered <- event
	return n.err
}

func committed() domain.TransitionCommitted {
	return domain.TransitionCommitted{
		WorkOrderID: "wo-9",
		Event:       domain.EventComplete,
		From:        domain.StatusInProgress,
		To:          domain.StatusCompleted,
		ActorID:     "bob",
		ActorRole:   domain.RoleTechnician,
		Version:     4,
		Timestamp:   time.Now().UTC(),
	}
}

func TestTemporalPublisherStartsFanout(t *testing.T) {
	starter := &fakeStarter{}
	publisher := NewTemporalPublisher(starter)

	require.NoError(t, publisher.start(context.Background(), committed()))

	require.Len(t, starter.options, 1)
	require.Equal(t, "workorder-transition-wo-9-v4", starter.options[0].ID)
	require.Equal(t, woworkflows.TransitionFanoutTaskQueue, starter.options[0].TaskQueue)
	require.Equal(t, woworkflows.TransitionFanoutWorkflowName, starter.workflow[0])
	input, ok := starter.args[0][0].(woworkflows.TransitionFanoutWorkflowInput)
	require.True(t, ok)
	require.Equal(t, domain.StatusCompleted, input.Event.To)
}

func TestTemporalPublisherAbsorbsDuplicates(t *testing.T) {
	starter := &fakeStarter{err: serviceerror.NewWorkflowExecutionAlreadyStarted("started", "req", "run")}
	require.NoError(t, NewTemporalPublisher(starter).start(context.Background(), committed()))
}

func TestTemporalPublisherReportsStartFailure(t *testing.T) {
	starter := &fakeStarter{err: errors.New("frontend unavailable")}
	err := NewTemporalPublisher(starter).start(context.Background(), committed())
	require.ErrorContains(t, err, "frontend unavailable")
}

type startCall struct {
	err         error
	hasDeadline bool
	workflowID  string
}

// gatedStarter holds every start until release is closed, or until its context
// ends when waitForDone is set.
type gatedStarter struct {
	release     chan struct{}
	waitForDone bool
	calls       chan startCall
}

func (g *gatedStarter) ExecuteWorkflow(ctx context.Context, options client.StartWorkflowOptions, _ interface{}, _ ...interface{}) (client.WorkflowRun, error) {
	if g.waitForDone {
		<-ctx.Done()
	} else {
		<-g.release
	}
	_, hasDeadline := ctx.Deadline()
	g.calls <- startCall{err: ctx.Err(), hasDeadline: hasDeadline, workflowID: options.ID}
	return nil, ctx.Err()
}

func TestTemporalPublisherReturnsBeforeStartCompletes(t *testing.T) {
	starter := &gatedStarter{release: make(chan struct{}), calls: make(chan startCall, 1)}
	publisher := NewTemporalPublisher(starter, WithStartLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))

	ctx, cancel := context.WithCancel(context.Background())
	returned := make(chan error, 1)
	go func() { returned <- publisher.Publish(ctx, committed()) }()

	select {
	case err := <-returned:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Publish waited for the workflow start")
	}

	cancel()
	close(starter.release)

	select {
	case call := <-starter.calls:
		require.NoError(t, call.err)
		require.True(t, call.hasDeadline)
		require.Equal(t, "workorder-transition-wo-9-v4", call.workflowID)
	case <-time.After(2 * time.Second):
		t.Fatal("workflow start never ran")
	}
}

func TestTemporalPublisherBoundsSlowStart(t *testing.T) {
	starter := &gatedStarter{waitForDone: true, calls: make(chan startCall, 1)}
	var buf bytes.Buffer
	publisher := NewTemporalPublisher(starter,
		WithStartTimeout(20*time.Millisecond),
		WithStartLogger(slog.New(slog.NewTextHandler(&buf, nil))),
	)

	require.NoError(t, publisher.Publish(context.Background(), committed()))

	select {
	case call := <-starter.calls:
		require.ErrorIs(t, call.err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("slow workflow start was not cut off")
	}
}

func TestInlinePublisherLogsAndNotifiesAsync(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	notifier := &channelNotifier{delivered: make(chan domain.TransitionCommitted, 1)}
	publisher := NewInlinePublisher(logger, WithNotifier(notifier))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, publisher.Publish(ctx, committed()))
	cancel()

	select {
	case event := <-notifier.delivered:
		require.Equal(t, "wo-9", event.WorkOrderID)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}
	require.Contains(t, buf.String(), `"msg":"work order transition committed"`)
	require.Contains(t, buf.String(), `"workOrderId":"wo-9"`)
}

func TestInlinePublisherWithoutNotifier(t *testing.T) {
	publisher := NewInlinePublisher(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	require.NoError(t, publisher.Publish(context.Background(), committed()))
}
