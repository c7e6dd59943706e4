package ports

import (
	"context"

	wotypes "github.com/Apurer/go-gin-workorders/internal/domains/workorders/application/types"
)

// Service defines the work order use cases exposed to adapters (inbound/driving port).
type Service interface {
	Create(ctx context.Context, input wotypes.CreateWorkOrderInput) (*wotypes.WorkOrderProjection, error)
	GetByID(ctx context.Context, input wotypes.WorkOrderIdentifier) (*wotypes.WorkOrderProjection, error)
	List(ctx context.Context, input wotypes.ListWorkOrdersInput) ([]*wotypes.WorkOrderProjection, error)
	Transition(ctx context.Context, input wotypes.TransitionInput) (*wotypes.WorkOrderProjection, error)
	AddItem(ctx context.Context, input wotypes.AddItemInput) (*wotypes.WorkOrderProjection, error)
	AddPaintCode(ctx context.Context, input wotypes.AddPaintCodeInput) (*wotypes.WorkOrderProjection, error)
}
