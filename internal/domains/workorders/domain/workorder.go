package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ActivityType classifies the job requested by the contractor.
type ActivityType string

const (
	ActivityInspection  ActivityType = "inspection"
	ActivityRepair      ActivityType = "repair"
	ActivityMaintenance ActivityType = "maintenance"
	ActivityDiagnostics ActivityType = "diagnostics"
)

// ItemKind distinguishes parts, labour billed per work type, and flat-rate repairs.
type ItemKind string

const (
	ItemPart   ItemKind = "part"
	ItemLabour ItemKind = "labour"
	ItemRepair ItemKind = "repair"
)

var (
	ErrActorRequired          = errors.New("actor identity is required")
	ErrCustomerNameRequired   = errors.New("customer name is required")
	ErrCustomerPhoneRequired  = errors.New("customer phone is required")
	ErrVehicleMakeRequired    = errors.New("vehicle make is required")
	ErrVehicleModelRequired   = errors.New("vehicle model is required")
	ErrInvalidVehicleYear     = errors.New("vehicle year must not be negative")
	ErrInvalidOdometer        = errors.New("vehicle odometer must not be negative")
	ErrInvalidActivityType    = errors.New("activity type must be inspection, repair, maintenance or diagnostics")
	ErrItemDescriptionMissing = errors.New("line item description is required")
	ErrInvalidQuantity        = errors.New("line item quantity must be at least 1")
	ErrNegativeUnitPrice      = errors.New("line item unit price must not be negative")
	ErrUnitPricePrecision     = errors.New("line item unit price must be expressed in whole cents")
	ErrInvalidItemKind        = errors.New("line item kind must be part, labour or repair")
	ErrPaintCodeRequired      = errors.New("paint code is required")
	ErrSupplyItemRequired     = errors.New("supply item is required to refer a work order")
)

// Customer is the vehicle owner the job is performed for.
type Customer struct {
	Name  string
	Phone string
	Email string
}

// Vehicle describes the car being worked on.
type Vehicle struct {
	Make     string
	Model    string
	Year     int
	VIN      string
	Odometer int
	Trim     string
}

// Activity captures what the contractor asked for.
type Activity struct {
	Type        ActivityType
	Description string
	RepairTypes []string
}

// LineItem is a priced entry attached to a single work order.
type LineItem struct {
	Kind        ItemKind
	WorkType    string
	Description string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Validate enforces the line item invariants.
func (i LineItem) Validate() error {
	if strings.TrimSpace(i.Description) == "" {
		return ErrItemDescriptionMissing
	}
	if i.Quantity < 1 {
		return ErrInvalidQuantity
	}
	if i.UnitPrice.IsNegative() {
		return ErrNegativeUnitPrice
	}
	if !i.UnitPrice.Equal(i.UnitPrice.Round(2)) {
		return ErrUnitPricePrecision
	}
	switch i.Kind {
	case ItemPart, ItemLabour, ItemRepair:
	default:
		return ErrInvalidItemKind
	}
	return nil
}

// PaintCode is cosmetic metadata priced outside the lifecycle engine.
type PaintCode struct {
	Code     string
	Quantity int
	TriStage bool
}

// Referral records a technician's request to source a part externally.
type Referral struct {
	SupplyItem      string
	ItemDescription string
	RequestedBy     string
	RequestedAt     time.Time
}

// Approval stamps who passed an approval gate and when.
type Approval struct {
	Identity   string
	ApprovedAt time.Time
}

// WorkOrder is the aggregate root of the lifecycle bounded context.
type WorkOrder struct {
	ID                 string
	Status             Status
	CreatedBy          string
	AcceptedBy         string
	Customer           Customer
	Vehicle            Vehicle
	Activity           Activity
	Items              []LineItem
	PaintCodes         []PaintCode
	Quote              Quote
	Referral           *Referral
	ConsultantApproval *Approval
	SupplierApproval   *Approval
}

// NewWorkOrder validates creation input and builds a pending work order.
func NewWorkOrder(id, createdBy string, customer Customer, vehicle Vehicle, activity Activity) (*WorkOrder, error) {
	if strings.TrimSpace(createdBy) == "" {
		return nil, ErrActorRequired
	}
	customer.Name = strings.TrimSpace(customer.Name)
	customer.Phone = strings.TrimSpace(customer.Phone)
	customer.Email = strings.TrimSpace(customer.Email)
	if customer.Name == "" {
		return nil, ErrCustomerNameRequired
	}
	if customer.Phone == "" {
		return nil, ErrCustomerPhoneRequired
	}
	vehicle.Make = strings.TrimSpace(vehicle.Make)
	vehicle.Model = strings.TrimSpace(vehicle.Model)
	vehicle.VIN = strings.ToUpper(strings.TrimSpace(vehicle.VIN))
	if vehicle.Make == "" {
		return nil, ErrVehicleMakeRequired
	}
	if vehicle.Model == "" {
		return nil, ErrVehicleModelRequired
	}
	if vehicle.Year < 0 {
		return nil, ErrInvalidVehicleYear
	}
	if vehicle.Odometer < 0 {
		return nil, ErrInvalidOdometer
	}
	switch activity.Type {
	case "", ActivityInspection, ActivityRepair, ActivityMaintenance, ActivityDiagnostics:
	default:
		return nil, ErrInvalidActivityType
	}
	activity.RepairTypes = append([]string(nil), activity.RepairTypes...)
	return &WorkOrder{
		ID:        id,
		Status:    StatusPending,
		CreatedBy: createdBy,
		Customer:  customer,
		Vehicle:   vehicle,
		Activity:  activity,
		Quote:     CalculateQuote(nil, DefaultTaxRate),
	}, nil
}

// Clone returns a deep copy so callers can mutate without affecting stored state.
func (w *WorkOrder) Clone() *WorkOrder {
	if w == nil {
		return nil
	}
	clone := *w
	clone.Activity.RepairTypes = append([]string(nil), w.Activity.RepairTypes...)
	clone.Items = append([]LineItem(nil), w.Items...)
	clone.PaintCodes = append([]PaintCode(nil), w.PaintCodes...)
	if w.Referral != nil {
		ref := *w.Referral
		clone.Referral = &ref
	}
	if w.ConsultantApproval != nil {
		approval := *w.ConsultantApproval
		clone.ConsultantApproval = &approval
	}
	if w.SupplierApproval != nil {
		approval := *w.SupplierApproval
		clone.SupplierApproval = &approval
	}
	return &clone
}

// CheckInvariants verifies the relationships between status, acceptor, referral,
// approvals and quote that must hold for every committed state.
func (w *WorkOrder) CheckInvariants(taxRate decimal.Decimal) error {
	if !w.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, w.Status)
	}
	if hasAcceptor := w.AcceptedBy != ""; hasAcceptor != w.Status.requiresAcceptor() {
		return fmt.Errorf("invariant violated: acceptedBy=%q with status %s", w.AcceptedBy, w.Status)
	}
	if hasReferral := w.Referral != nil; hasReferral != w.Status.requiresReferral() {
		return fmt.Errorf("invariant violated: referral presence %t with status %s", hasReferral, w.Status)
	}
	switch w.Status {
	case StatusSupplierApproved:
		if w.SupplierApproval == nil {
			return fmt.Errorf("invariant violated: status %s without supplier approval", w.Status)
		}
	case StatusCompleted:
	default:
		if w.SupplierApproval != nil {
			return fmt.Errorf("invariant violated: supplier approval present with status %s", w.Status)
		}
	}
	if !w.Quote.Equal(CalculateQuote(w.Items, taxRate)) {
		return errors.New("invariant violated: quote is stale relative to items")
	}
	return nil
}
