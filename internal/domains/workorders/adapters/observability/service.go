package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	wotypes "github.com/Apurer/go-gin-workorders/internal/domains/workorders/application/types"
	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/ports"
)

const tracerName = "github.com/Apurer/go-gin-workorders/internal/domains/workorders/adapters/observability/service"

// Service decorates the work order application port with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithTracer injects a tracer implementation.
func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

// WithMeter injects the meter used to create service metrics instruments.
func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wires a decorator around the core service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  defaultLogger(),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	if s.logger == nil {
		s.logger = defaultLogger()
	}
	return s
}

// Create stores a new work order with instrumentation.
func (s *Service) Create(ctx context.Context, input wotypes.CreateWorkOrderInput) (*wotypes.WorkOrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.Create", actorAttrs(input.Actor)...)
	defer span.End()

	s.logInfo(ctx, "creating work order", slog.String("actor.id", input.Actor.ID), slog.String("vehicle.make", input.Vehicle.Make))
	result, err := s.inner.Create(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create work order", slog.String("actor.id", input.Actor.ID))
	}
	if result != nil && result.WorkOrder != nil {
		span.SetAttributes(attribute.String("work_order.id", result.WorkOrder.ID))
		s.metrics.recordCreated(ctx, input.Actor.Role)
		s.logInfo(ctx, "work order created", slog.String("work_order.id", result.WorkOrder.ID))
	}
	return result, nil
}

// GetByID loads a single work order.
func (s *Service) GetByID(ctx context.Context, input wotypes.WorkOrderIdentifier) (*wotypes.WorkOrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.GetByID", attribute.String("work_order.id", input.ID))
	defer span.End()

	result, err := s.inner.GetByID(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to get work order", slog.String("work_order.id", input.ID))
	}
	return result, nil
}

// List returns work orders matching the supplied filters.
func (s *Service) List(ctx context.Context, input wotypes.ListWorkOrdersInput) ([]*wotypes.WorkOrderProjection, error) {
	statuses := make([]string, 0, len(input.Statuses))
	for _, status := range input.Statuses {
		statuses = append(statuses, string(status))
	}
	ctx, span := s.startSpan(ctx, "Service.List",
		attribute.StringSlice("work_order.statuses.requested", statuses),
		attribute.String("work_order.accepted_by", input.AcceptedBy),
	)
	defer span.End()

	result, err := s.inner.List(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to list work orders", slog.Any("statuses", statuses))
	}
	span.SetAttributes(attribute.Int("work_order.result.count", len(result)))
	s.logInfo(ctx, "listed work orders", slog.Int("count", len(result)))
	return result, nil
}

// Transition applies a lifecycle event with instrumentation.
func (s *Service) Transition(ctx context.Context, input wotypes.TransitionInput) (*wotypes.WorkOrderProjection, error) {
	attrs := append(actorAttrs(input.Actor),
		attribute.String("work_order.id", input.ID),
		attribute.String("work_order.event", string(input.Event)),
	)
	ctx, span := s.startSpan(ctx, "Service.Transition", attrs...)
	defer span.End()

	logAttrs := []slog.Attr{
		slog.String("work_order.id", input.ID),
		slog.String("event", string(input.Event)),
		slog.String("actor.id", input.Actor.ID),
		slog.String("actor.role", string(input.Actor.Role)),
	}
	s.logInfo(ctx, "applying transition", logAttrs...)
	result, err := s.inner.Transition(ctx, input)
	if err != nil {
		if isRejection(err) {
			s.metrics.recordRejected(ctx, input.Event)
		}
		return nil, s.handleError(ctx, span, err, "transition rejected", logAttrs...)
	}
	if result != nil && result.WorkOrder != nil {
		span.SetAttributes(attribute.Int64("work_order.version", result.Metadata.Version))
		s.metrics.recordTransition(ctx, input.Event, result.WorkOrder.Status)
		s.logInfo(ctx, "transition committed", append(logAttrs,
			slog.String("status", string(result.WorkOrder.Status)),
			slog.Int64("version", result.Metadata.Version),
		)...)
	}
	return result, nil
}

// AddItem attaches a priced line item with instrumentation.
func (s *Service) AddItem(ctx context.Context, input wotypes.AddItemInput) (*wotypes.WorkOrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.AddItem", attribute.String("work_order.id", input.ID))
	defer span.End()

	s.logInfo(ctx, "adding line item", slog.String("work_order.id", input.ID), slog.String("kind", string(input.Kind)))
	result, err := s.inner.AddItem(ctx, input)
	if err != nil {
		if isRejection(err) {
			s.metrics.recordRejected(ctx, "add_item")
		}
		return nil, s.handleError(ctx, span, err, "failed to add line item", slog.String("work_order.id", input.ID))
	}
	if result != nil && result.WorkOrder != nil {
		s.metrics.recordItemAdded(ctx, input.Kind)
		s.logInfo(ctx, "line item added",
			slog.String("work_order.id", input.ID),
			slog.String("quote.total", result.WorkOrder.Quote.Total.StringFixed(2)),
		)
	}
	return result, nil
}

// AddPaintCode attaches paint metadata with instrumentation.
func (s *Service) AddPaintCode(ctx context.Context, input wotypes.AddPaintCodeInput) (*wotypes.WorkOrderProjection, error) {
	ctx, span := s.startSpan(ctx, "Service.AddPaintCode", attribute.String("work_order.id", input.ID))
	defer span.End()

	result, err := s.inner.AddPaintCode(ctx, input)
	if err != nil {
		if isRejection(err) {
			s.metrics.recordRejected(ctx, "add_paint_code")
		}
		return nil, s.handleError(ctx, span, err, "failed to add paint code", slog.String("work_order.id", input.ID))
	}
	s.logInfo(ctx, "paint code added", slog.String("work_order.id", input.ID), slog.String("code", input.Code))
	return result, nil
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := s.tracer
	if tracer == nil {
		tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, level slog.Level, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, level, msg, attrs...)
}

// handleError records err on the span. Business rejections are logged at warn,
// everything else at error.
func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if err == nil {
		return nil
	}
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	level := slog.LevelError
	if isRejection(err) || errors.Is(err, ports.ErrNotFound) {
		level = slog.LevelWarn
	}
	s.logError(ctx, level, msg, err, attrs...)
	return err
}

func isRejection(err error) bool {
	return errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrAlreadyClaimed) ||
		errors.Is(err, domain.ErrOrderLocked)
}

func actorAttrs(actor domain.Actor) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("actor.id", actor.ID),
		attribute.String("actor.role", string(actor.Role)),
	}
}

func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type serviceMetrics struct {
	created     metric.Int64Counter
	transitions metric.Int64Counter
	itemsAdded  metric.Int64Counter
	rejected    metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("workorders.service.created", metric.WithDescription("Number of work orders created"))
	transitions, _ := m.Int64Counter("workorders.service.transitions", metric.WithDescription("Number of committed lifecycle transitions"))
	itemsAdded, _ := m.Int64Counter("workorders.service.items_added", metric.WithDescription("Number of line items attached"))
	rejected, _ := m.Int64Counter("workorders.service.rejected", metric.WithDescription("Number of operations rejected by the state machine"))
	return serviceMetrics{
		created:     created,
		transitions: transitions,
		itemsAdded:  itemsAdded,
		rejected:    rejected,
	}
}

func (m serviceMetrics) recordCreated(ctx context.Context, role domain.Role) {
	addCounter(ctx, m.created, 1, attribute.String("actor.role", string(role)))
}

func (m serviceMetrics) recordTransition(ctx context.Context, event domain.Event, status domain.Status) {
	addCounter(ctx, m.transitions, 1,
		attribute.String("work_order.event", string(event)),
		attribute.String("work_order.status", string(status)),
	)
}

func (m serviceMetrics) recordItemAdded(ctx context.Context, kind domain.ItemKind) {
	if kind == "" {
		kind = domain.ItemPart
	}
	addCounter(ctx, m.itemsAdded, 1, attribute.String("item.kind", string(kind)))
}

func (m serviceMetrics) recordRejected(ctx context.Context, operation domain.Event) {
	addCounter(ctx, m.rejected, 1, attribute.String("operation", string(operation)))
}

func addCounter(ctx context.Context, counter metric.Int64Counter, value int64, attrs ...attribute.KeyValue) {
	if counter == nil {
		return
	}
	counter.Add(ctx, value, metric.WithAttributes(attrs...))
}

var _ ports.Service = (*Service)(nil)
