package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	wotypes "github.com/Apurer/go-gin-workorders/internal/domains/workorders/application/types"
	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/ports"
	"github.com/Apurer/go-gin-workorders/internal/shared/projection"
)

// DefaultMaxAttempts bounds how often a write is retried after losing a compare-and-swap race.
const DefaultMaxAttempts = 3

// Service is the lifecycle state machine. Every mutation is a read, an in-memory
// transition on a clone, and a single compare-and-swap write.
type Service struct {
	repo        ports.Repository
	publisher   ports.TransitionPublisher
	logger      *slog.Logger
	now         func() time.Time
	newID       func() string
	taxRate     decimal.Decimal
	maxAttempts int
}

// Option customises the service.
type Option func(*Service)

// WithPublisher registers the collaborator that receives committed transitions.
func WithPublisher(p ports.TransitionPublisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithLogger injects the logger used for swallowed publisher failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for referral and approval stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides how new work order identifiers are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		s.newID = gen
	}
}

// WithTaxRate sets the rate applied by the quote calculator.
func WithTaxRate(rate decimal.Decimal) Option {
	return func(s *Service) {
		s.taxRate = rate
	}
}

// WithMaxAttempts bounds compare-and-swap retries. Values below 1 are ignored.
func WithMaxAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// NewService wires the work order service with its dependencies.
func NewService(repo ports.Repository, opts ...Option) *Service {
	s := &Service{
		repo:        repo,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
		taxRate:     domain.DefaultTaxRate,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Create validates the intake form and stores a pending work order.
func (s *Service) Create(ctx context.Context, input wotypes.CreateWorkOrderInput) (*wotypes.WorkOrderProjection, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, mapError(err)
	}
	if input.Actor.Role != domain.RoleContractor && input.Actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: %s cannot create work orders", ErrForbidden, input.Actor.Role)
	}
	order, err := domain.NewWorkOrder(s.newID(), input.Actor.ID, input.Customer, input.Vehicle, input.Activity)
	if err != nil {
		return nil, mapError(err)
	}
	for _, item := range input.Items {
		if err := order.AddItem(item, s.taxRate); err != nil {
			return nil, mapError(err)
		}
	}
	order.Quote = domain.CalculateQuote(order.Items, s.taxRate)
	if err := order.CheckInvariants(s.taxRate); err != nil {
		return nil, err
	}
	saved, err := s.repo.Create(ctx, order)
	if err != nil {
		return nil, mapError(err)
	}
	s.publish(ctx, domain.TransitionCommitted{
		WorkOrderID: saved.Entity.ID,
		Event:       domain.EventCreate,
		To:          saved.Entity.Status,
		ActorID:     input.Actor.ID,
		ActorRole:   input.Actor.Role,
		Version:     saved.Metadata.Version,
		Timestamp:   saved.Metadata.UpdatedAt,
	})
	return toProjection(saved), nil
}

// GetByID loads a single work order with its items.
func (s *Service) GetByID(ctx context.Context, input wotypes.WorkOrderIdentifier) (*wotypes.WorkOrderProjection, error) {
	found, err := s.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, mapError(err)
	}
	return toProjection(found), nil
}

// List returns work orders matching the optional status and acceptor filters.
func (s *Service) List(ctx context.Context, input wotypes.ListWorkOrdersInput) ([]*wotypes.WorkOrderProjection, error) {
	for _, status := range input.Statuses {
		if !status.Valid() {
			return nil, mapError(fmt.Errorf("%w: %q", domain.ErrUnknownStatus, status))
		}
	}
	var (
		found []*projection.Projection[*domain.WorkOrder]
		err   error
	)
	switch {
	case input.AcceptedBy != "":
		found, err = s.repo.ListByAcceptor(ctx, input.AcceptedBy)
	case len(input.Statuses) > 0:
		found, err = s.repo.ListByStatus(ctx, input.Statuses)
	default:
		found, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, mapError(err)
	}
	result := make([]*wotypes.WorkOrderProjection, 0, len(found))
	for _, p := range found {
		if input.AcceptedBy != "" && len(input.Statuses) > 0 && !containsStatus(input.Statuses, p.Entity.Status) {
			continue
		}
		result = append(result, toProjection(p))
	}
	return result, nil
}

// Transition applies a lifecycle event. Rejected attempts never write.
func (s *Service) Transition(ctx context.Context, input wotypes.TransitionInput) (*wotypes.WorkOrderProjection, error) {
	req := domain.TransitionRequest{
		Event:           input.Event,
		Actor:           input.Actor,
		SupplyItem:      input.SupplyItem,
		ItemDescription: input.ItemDescription,
	}
	var from domain.Status
	saved, err := s.mutate(ctx, input.ID, func(order *domain.WorkOrder) error {
		from = order.Status
		return order.Apply(req, s.now())
	})
	if err != nil {
		if errors.Is(err, ports.ErrConcurrentModification) && input.Event == domain.EventAccept {
			return nil, fmt.Errorf("%w: %w", domain.ErrAlreadyClaimed, ports.ErrConcurrentModification)
		}
		return nil, err
	}
	s.publish(ctx, domain.TransitionCommitted{
		WorkOrderID: saved.Entity.ID,
		Event:       input.Event,
		From:        from,
		To:          saved.Entity.Status,
		ActorID:     input.Actor.ID,
		ActorRole:   input.Actor.Role,
		Version:     saved.Metadata.Version,
		Timestamp:   saved.Metadata.UpdatedAt,
	})
	return toProjection(saved), nil
}

// AddItem attaches a line item and recomputes the quote in the same write.
func (s *Service) AddItem(ctx context.Context, input wotypes.AddItemInput) (*wotypes.WorkOrderProjection, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, mapError(err)
	}
	item := domain.LineItem{
		Kind:        input.Kind,
		WorkType:    input.WorkType,
		Description: input.Description,
		Quantity:    input.Quantity,
		UnitPrice:   input.UnitPrice,
	}
	saved, err := s.mutate(ctx, input.ID, func(order *domain.WorkOrder) error {
		return order.AddItem(item, s.taxRate)
	})
	if err != nil {
		return nil, err
	}
	return toProjection(saved), nil
}

// AddPaintCode attaches paint metadata while the order is still editable.
func (s *Service) AddPaintCode(ctx context.Context, input wotypes.AddPaintCodeInput) (*wotypes.WorkOrderProjection, error) {
	if err := input.Actor.Validate(); err != nil {
		return nil, mapError(err)
	}
	code := domain.PaintCode{Code: input.Code, Quantity: input.Quantity, TriStage: input.TriStage}
	saved, err := s.mutate(ctx, input.ID, func(order *domain.WorkOrder) error {
		return order.AddPaintCode(code)
	})
	if err != nil {
		return nil, err
	}
	return toProjection(saved), nil
}

// mutate runs change against a fresh clone and commits it with compare-and-swap,
// re-reading and retrying when another writer got there first.
func (s *Service) mutate(ctx context.Context, id string, change func(*domain.WorkOrder) error) (*projection.Projection[*domain.WorkOrder], error) {
	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, mapError(err)
		}
		order := current.Entity.Clone()
		if err := change(order); err != nil {
			return nil, mapError(err)
		}
		if err := order.CheckInvariants(s.taxRate); err != nil {
			return nil, err
		}
		saved, err := s.repo.CompareAndSwap(ctx, current.Metadata.Version, order)
		if errors.Is(err, ports.ErrConcurrentModification) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, mapError(err)
		}
		return saved, nil
	}
	return nil, fmt.Errorf("%w: gave up after %d attempts: %w", domain.ErrInvalidTransition, s.maxAttempts, lastErr)
}

func (s *Service) publish(ctx context.Context, event domain.TransitionCommitted) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "transition publish failed",
			slog.String("work_order.id", event.WorkOrderID),
			slog.String("event", string(event.Event)),
			slog.String("error", err.Error()),
		)
	}
}

func toProjection(p *projection.Projection[*domain.WorkOrder]) *wotypes.WorkOrderProjection {
	if p == nil {
		return nil
	}
	return wotypes.NewWorkOrderProjection(p.Entity, p.Metadata.CreatedAt, p.Metadata.UpdatedAt, p.Metadata.Version)
}

func containsStatus(statuses []domain.Status, status domain.Status) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

var _ ports.Service = (*Service)(nil)
