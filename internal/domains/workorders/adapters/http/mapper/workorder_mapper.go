package mapper

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	wotypes "github.com/Apurer/go-gin-workorders/internal/domains/workorders/application/types"
	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
)

// ErrInvalidDecision is returned for approval decisions other than approve or reject.
var ErrInvalidDecision = errors.New("decision must be approve or reject")

// ErrUnsupportedStatus is returned when a status update targets a state that is
// only reachable through the refer or approve endpoints.
var ErrUnsupportedStatus = errors.New("status cannot be set directly")

// Customer is the HTTP representation of the vehicle owner.
type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

// Vehicle is the HTTP representation of the car being serviced.
type Vehicle struct {
	Make     string `json:"make"`
	Model    string `json:"model"`
	Year     int    `json:"year,omitempty"`
	VIN      string `json:"vin,omitempty"`
	Odometer int    `json:"odometer,omitempty"`
	Trim     string `json:"trim,omitempty"`
}

// Activity is the requested job.
type Activity struct {
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
	RepairTypes []string `json:"repair_types,omitempty"`
}

// LineItemRequest is the payload for attaching a line item. unit_price accepts
// a JSON number or a decimal string.
type LineItemRequest struct {
	Kind        string          `json:"kind,omitempty"`
	WorkType    string          `json:"work_type,omitempty"`
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreateWorkOrderRequest is the contractor intake form.
type CreateWorkOrderRequest struct {
	Customer Customer          `json:"customer"`
	Vehicle  Vehicle           `json:"vehicle"`
	Activity Activity          `json:"activity"`
	Items    []LineItemRequest `json:"items,omitempty"`
}

// StatusRequest targets one of in_progress, rejected, completed or cancelled.
type StatusRequest struct {
	Status string `json:"status"`
}

// ReferRequest asks for a part to be sourced externally.
type ReferRequest struct {
	SupplyItem      string `json:"supply_item"`
	ItemDescription string `json:"item_description,omitempty"`
}

// ApproveRequest carries a consultant or supplier decision. Decision defaults to approve.
type ApproveRequest struct {
	Decision string `json:"decision,omitempty"`
}

// PaintCodeRequest attaches cosmetic paint metadata.
type PaintCodeRequest struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
	TriStage bool   `json:"tri_stage,omitempty"`
}

// LineItem is a priced entry in responses.
type LineItem struct {
	Kind        string `json:"kind"`
	WorkType    string `json:"work_type,omitempty"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	LineTotal   string `json:"line_total"`
}

// PaintCode is cosmetic metadata in responses.
type PaintCode struct {
	Code     string `json:"code"`
	Quantity int    `json:"quantity"`
	TriStage bool   `json:"tri_stage"`
}

// Quote carries money as fixed two-decimal strings.
type Quote struct {
	Subtotal string `json:"subtotal"`
	Tax      string `json:"tax"`
	Total    string `json:"total"`
}

// Referral describes the active sourcing request.
type Referral struct {
	SupplyItem      string    `json:"supply_item"`
	ItemDescription string    `json:"item_description,omitempty"`
	RequestedBy     string    `json:"requested_by"`
	RequestedAt     time.Time `json:"requested_at"`
}

// ConsultantApproval records who forwarded the referral to suppliers.
type ConsultantApproval struct {
	ConsultantIdentity string    `json:"consultant_identity"`
	ApprovedAt         time.Time `json:"approved_at"`
}

// SupplierApproval records who confirmed the supply.
type SupplierApproval struct {
	SupplierIdentity string    `json:"supplier_identity"`
	ApprovedAt       time.Time `json:"approved_at"`
}

// WorkOrder is the server-authoritative snapshot returned by every endpoint.
type WorkOrder struct {
	ID                 string              `json:"id"`
	Status             string              `json:"status"`
	CreatedBy          string              `json:"created_by"`
	AcceptedBy         string              `json:"accepted_by,omitempty"`
	Customer           Customer            `json:"customer"`
	Vehicle            Vehicle             `json:"vehicle"`
	Activity           Activity            `json:"activity"`
	Items              []LineItem          `json:"items"`
	PaintCodes         []PaintCode         `json:"paint_codes"`
	Quote              Quote               `json:"quote"`
	Referral           *Referral           `json:"referral,omitempty"`
	ConsultantApproval *ConsultantApproval `json:"consultant_approval,omitempty"`
	SupplierApproval   *SupplierApproval   `json:"supplier_approval,omitempty"`
	AllowedActions     []string            `json:"allowed_actions"`
	Version            int64               `json:"version"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
}

// ToCreateInput maps the intake payload into the application input.
func ToCreateInput(actor domain.Actor, req CreateWorkOrderRequest) wotypes.CreateWorkOrderInput {
	input := wotypes.CreateWorkOrderInput{
		Actor:    actor,
		Customer: domain.Customer{Name: req.Customer.Name, Phone: req.Customer.Phone, Email: req.Customer.Email},
		Vehicle: domain.Vehicle{
			Make:     req.Vehicle.Make,
			Model:    req.Vehicle.Model,
			Year:     req.Vehicle.Year,
			VIN:      req.Vehicle.VIN,
			Odometer: req.Vehicle.Odometer,
			Trim:     req.Vehicle.Trim,
		},
		Activity: domain.Activity{
			Type:        domain.ActivityType(strings.ToLower(strings.TrimSpace(req.Activity.Type))),
			Description: req.Activity.Description,
			RepairTypes: req.Activity.RepairTypes,
		},
	}
	for _, item := range req.Items {
		input.Items = append(input.Items, domain.LineItem{
			Kind:        domain.ItemKind(strings.ToLower(strings.TrimSpace(item.Kind))),
			WorkType:    item.WorkType,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		})
	}
	return input
}

// ToAddItemInput maps a line item payload.
func ToAddItemInput(id string, actor domain.Actor, req LineItemRequest) wotypes.AddItemInput {
	return wotypes.AddItemInput{
		ID:          id,
		Actor:       actor,
		Kind:        domain.ItemKind(strings.ToLower(strings.TrimSpace(req.Kind))),
		WorkType:    req.WorkType,
		Description: req.Description,
		Quantity:    req.Quantity,
		UnitPrice:   req.UnitPrice,
	}
}

// ToAddPaintCodeInput maps a paint code payload.
func ToAddPaintCodeInput(id string, actor domain.Actor, req PaintCodeRequest) wotypes.AddPaintCodeInput {
	return wotypes.AddPaintCodeInput{ID: id, Actor: actor, Code: req.Code, Quantity: req.Quantity, TriStage: req.TriStage}
}

// StatusEvent resolves the lifecycle event a status update stands for. The raw
// status is normalised first, so "In Progress" and "accepted" both mean accept.
func StatusEvent(raw string) (domain.Event, error) {
	status, err := domain.ParseStatus(raw)
	if err != nil {
		return "", err
	}
	switch status {
	case domain.StatusInProgress:
		return domain.EventAccept, nil
	case domain.StatusRejected:
		return domain.EventDecline, nil
	case domain.StatusCompleted:
		return domain.EventComplete, nil
	case domain.StatusCancelled:
		return domain.EventCancel, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedStatus, status)
	}
}

// ApprovalEvent resolves the gate event for the acting role. Roles other than
// supplier are routed to the consultant gate and rejected there if not permitted.
func ApprovalEvent(role domain.Role, decision string) (domain.Event, error) {
	decision = strings.ToLower(strings.TrimSpace(decision))
	if decision == "" {
		decision = "approve"
	}
	if decision != "approve" && decision != "reject" {
		return "", fmt.Errorf("%w: %q", ErrInvalidDecision, decision)
	}
	if role == domain.RoleSupplier {
		if decision == "reject" {
			return "", fmt.Errorf("%w: suppliers cannot reject a referral", domain.ErrInvalidTransition)
		}
		return domain.EventSupplierApprove, nil
	}
	if decision == "reject" {
		return domain.EventConsultantReject, nil
	}
	return domain.EventConsultantApprove, nil
}

// ParseStatusFilters normalises repeated or comma separated status query values.
func ParseStatusFilters(values []string) ([]domain.Status, error) {
	var statuses []domain.Status
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			status, err := domain.ParseStatus(part)
			if err != nil {
				return nil, err
			}
			statuses = append(statuses, status)
		}
	}
	return statuses, nil
}

// FromProjection maps the committed snapshot into its HTTP representation.
// allowed_actions is computed for the requesting actor.
func FromProjection(p *wotypes.WorkOrderProjection, viewer domain.Actor) WorkOrder {
	if p == nil || p.WorkOrder == nil {
		return WorkOrder{}
	}
	order := p.WorkOrder
	out := WorkOrder{
		ID:         order.ID,
		Status:     string(order.Status),
		CreatedBy:  order.CreatedBy,
		AcceptedBy: order.AcceptedBy,
		Customer:   Customer{Name: order.Customer.Name, Phone: order.Customer.Phone, Email: order.Customer.Email},
		Vehicle: Vehicle{
			Make:     order.Vehicle.Make,
			Model:    order.Vehicle.Model,
			Year:     order.Vehicle.Year,
			VIN:      order.Vehicle.VIN,
			Odometer: order.Vehicle.Odometer,
			Trim:     order.Vehicle.Trim,
		},
		Activity: Activity{
			Type:        string(order.Activity.Type),
			Description: order.Activity.Description,
			RepairTypes: append([]string(nil), order.Activity.RepairTypes...),
		},
		Items:      make([]LineItem, 0, len(order.Items)),
		PaintCodes: make([]PaintCode, 0, len(order.PaintCodes)),
		Quote: Quote{
			Subtotal: order.Quote.Subtotal.StringFixed(2),
			Tax:      order.Quote.Tax.StringFixed(2),
			Total:    order.Quote.Total.StringFixed(2),
		},
		AllowedActions: []string{},
		Version:        p.Metadata.Version,
		CreatedAt:      p.Metadata.CreatedAt,
		UpdatedAt:      p.Metadata.UpdatedAt,
	}
	for _, item := range order.Items {
		out.Items = append(out.Items, LineItem{
			Kind:        string(item.Kind),
			WorkType:    item.WorkType,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
			LineTotal:   item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))).StringFixed(2),
		})
	}
	for _, pc := range order.PaintCodes {
		out.PaintCodes = append(out.PaintCodes, PaintCode{Code: pc.Code, Quantity: pc.Quantity, TriStage: pc.TriStage})
	}
	if ref := order.Referral; ref != nil {
		out.Referral = &Referral{
			SupplyItem:      ref.SupplyItem,
			ItemDescription: ref.ItemDescription,
			RequestedBy:     ref.RequestedBy,
			RequestedAt:     ref.RequestedAt,
		}
	}
	if a := order.ConsultantApproval; a != nil {
		out.ConsultantApproval = &ConsultantApproval{ConsultantIdentity: a.Identity, ApprovedAt: a.ApprovedAt}
	}
	if a := order.SupplierApproval; a != nil {
		out.SupplierApproval = &SupplierApproval{SupplierIdentity: a.Identity, ApprovedAt: a.ApprovedAt}
	}
	if viewer.Validate() == nil {
		for _, event := range order.AllowedEvents(viewer) {
			out.AllowedActions = append(out.AllowedActions, string(event))
		}
	}
	return out
}

// FromProjectionList maps a list of snapshots.
func FromProjectionList(list []*wotypes.WorkOrderProjection, viewer domain.Actor) []WorkOrder {
	result := make([]WorkOrder, 0, len(list))
	for _, p := range list {
		result = append(result, FromProjection(p, viewer))
	}
	return result
}
