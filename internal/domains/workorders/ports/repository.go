package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	"github.com/Apurer/go-gin-workorders/internal/shared/projection"
)

var (
	ErrNotFound = errors.New("work order not found")
	// ErrConcurrentModification signals the stored version moved since it was read.
	ErrConcurrentModification = errors.New("work order was modified concurrently")
	ErrAlreadyExists          = errors.New("work order already exists")
)

// Repository is the entity store for work orders. After Create, CompareAndSwap
// is the only mutation path.
type Repository interface {
	Create(ctx context.Context, order *domain.WorkOrder) (*projection.Projection[*domain.WorkOrder], error)
	GetByID(ctx context.Context, id string) (*projection.Projection[*domain.WorkOrder], error)
	// CompareAndSwap replaces the stored order only while its version still equals
	// expectedVersion and returns ErrConcurrentModification otherwise.
	CompareAndSwap(ctx context.Context, expectedVersion int64, order *domain.WorkOrder) (*projection.Projection[*domain.WorkOrder], error)
	ListByStatus(ctx context.Context, statuses []domain.Status) ([]*projection.Projection[*domain.WorkOrder], error)
	ListByAcceptor(ctx context.Context, technicianID string) ([]*projection.Projection[*domain.WorkOrder], error)
	List(ctx context.Context) ([]*projection.Projection[*domain.WorkOrder], error)
}
