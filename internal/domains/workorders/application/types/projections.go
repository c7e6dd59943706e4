package types

import (
	"time"

	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
)

// WorkOrderMetadata captures infrastructure timestamps and the store version.
type WorkOrderMetadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int64
}

// WorkOrderProjection transports a domain aggregate together with its persistence metadata.
type WorkOrderProjection struct {
	WorkOrder *domain.WorkOrder
	Metadata  WorkOrderMetadata
}

// NewWorkOrderProjection wraps an aggregate with persistence metadata.
func NewWorkOrderProjection(order *domain.WorkOrder, createdAt, updatedAt time.Time, version int64) *WorkOrderProjection {
	if order == nil {
		return nil
	}
	return &WorkOrderProjection{
		WorkOrder: order,
		Metadata: WorkOrderMetadata{
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
			Version:   version,
		},
	}
}
