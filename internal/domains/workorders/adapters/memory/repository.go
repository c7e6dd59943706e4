package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/ports"
	"github.com/Apurer/go-gin-workorders/internal/shared/projection"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory work order store. It is the default backend and
// the one used by tests.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]*storedOrder
	now    func() time.Time
}

type storedOrder struct {
	order    *domain.WorkOrder
	metadata projection.Metadata
}

// NewRepository constructs an empty in-memory store.
func NewRepository() *Repository {
	return &Repository{
		orders: map[string]*storedOrder{},
		now:    time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (r *Repository) WithClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if now == nil {
		now = time.Now
	}
	r.now = now
}

// Create stores a new work order at version 1.
func (r *Repository) Create(_ context.Context, order *domain.WorkOrder) (*projection.Projection[*domain.WorkOrder], error) {
	if order == nil {
		return nil, errors.New("cannot create nil work order")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.ID]; exists {
		return nil, ports.ErrAlreadyExists
	}
	stored := &storedOrder{order: order.Clone(), metadata: projection.Initial(r.now().UTC())}
	r.orders[order.ID] = stored
	return projectionCopy(stored), nil
}

// GetByID fetches a work order if present.
func (r *Repository) GetByID(_ context.Context, id string) (*projection.Projection[*domain.WorkOrder], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return projectionCopy(entry), nil
}

// CompareAndSwap replaces the stored order when its version matches expectedVersion.
func (r *Repository) CompareAndSwap(_ context.Context, expectedVersion int64, order *domain.WorkOrder) (*projection.Projection[*domain.WorkOrder], error) {
	if order == nil {
		return nil, errors.New("cannot store nil work order")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.orders[order.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if entry.metadata.Version != expectedVersion {
		return nil, ports.ErrConcurrentModification
	}
	stored := &storedOrder{order: order.Clone(), metadata: entry.metadata.Next(r.now().UTC())}
	r.orders[order.ID] = stored
	return projectionCopy(stored), nil
}

// ListByStatus returns orders in any of the given statuses.
func (r *Repository) ListByStatus(_ context.Context, statuses []domain.Status) ([]*projection.Projection[*domain.WorkOrder], error) {
	set := map[domain.Status]struct{}{}
	for _, s := range statuses {
		set[s] = struct{}{}
	}
	return r.filter(func(o *domain.WorkOrder) bool {
		_, ok := set[o.Status]
		return ok
	}), nil
}

// ListByAcceptor returns orders currently claimed by the technician.
func (r *Repository) ListByAcceptor(_ context.Context, technicianID string) ([]*projection.Projection[*domain.WorkOrder], error) {
	return r.filter(func(o *domain.WorkOrder) bool {
		return o.AcceptedBy == technicianID
	}), nil
}

// List returns all orders, oldest first.
func (r *Repository) List(_ context.Context) ([]*projection.Projection[*domain.WorkOrder], error) {
	return r.filter(func(*domain.WorkOrder) bool { return true }), nil
}

func (r *Repository) filter(keep func(*domain.WorkOrder) bool) []*projection.Projection[*domain.WorkOrder] {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := make([]*projection.Projection[*domain.WorkOrder], 0, len(r.orders))
	for _, entry := range r.orders {
		if keep(entry.order) {
			list = append(list, projectionCopy(entry))
		}
	}
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].Metadata.CreatedAt, list[j].Metadata.CreatedAt
		if a.Equal(b) {
			return list[i].Entity.ID < list[j].Entity.ID
		}
		return a.Before(b)
	})
	return list
}

func projectionCopy(entry *storedOrder) *projection.Projection[*domain.WorkOrder] {
	return &projection.Projection[*domain.WorkOrder]{
		Entity:   entry.order.Clone(),
		Metadata: entry.metadata,
	}
}
