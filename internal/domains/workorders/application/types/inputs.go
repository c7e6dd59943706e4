package types

import (
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
)

// WorkOrderIdentifier addresses a single work order.
type WorkOrderIdentifier struct {
	ID string
}

// CreateWorkOrderInput carries a contractor's intake form.
type CreateWorkOrderInput struct {
	Actor    domain.Actor
	Customer domain.Customer
	Vehicle  domain.Vehicle
	Activity domain.Activity
	// Items are optional initial line items priced into the first quote.
	Items []domain.LineItem
}

// ListWorkOrdersInput narrows a listing. Empty fields mean no filter.
type ListWorkOrdersInput struct {
	Statuses   []domain.Status
	AcceptedBy string
}

// TransitionInput requests a lifecycle event against one work order.
type TransitionInput struct {
	ID              string
	Event           domain.Event
	Actor           domain.Actor
	SupplyItem      string
	ItemDescription string
}

// AddItemInput attaches one priced line item.
type AddItemInput struct {
	ID          string
	Actor       domain.Actor
	Kind        domain.ItemKind
	WorkType    string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// AddPaintCodeInput attaches cosmetic paint metadata.
type AddPaintCodeInput struct {
	ID       string
	Actor    domain.Actor
	Code     string
	Quantity int
	TriStage bool
}
