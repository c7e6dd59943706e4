package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidTransition = errors.New("invalid work order transition")
	ErrAlreadyClaimed    = errors.New("work order already claimed by another technician")
	ErrOrderLocked       = errors.New("work order items are frozen")
)

// TransitionRequest carries everything an event needs to be applied.
type TransitionRequest struct {
	Event           Event
	Actor           Actor
	SupplyItem      string
	ItemDescription string
}

type transitionRule struct {
	from    []Status
	roles   []Role
	to      Status
	mustOwn bool
	guard   func(w *WorkOrder, req TransitionRequest) error
	effect  func(w *WorkOrder, req TransitionRequest, now time.Time)
}

var transitionTable = map[Event]transitionRule{
	EventAccept: {
		from:  []Status{StatusPending},
		roles: []Role{RoleTechnician},
		to:    StatusInProgress,
		effect: func(w *WorkOrder, req TransitionRequest, _ time.Time) {
			w.AcceptedBy = req.Actor.ID
		},
	},
	EventDecline: {
		from:  []Status{StatusPending},
		roles: []Role{RoleTechnician},
		to:    StatusRejected,
	},
	EventRefer: {
		from:    []Status{StatusInProgress},
		roles:   []Role{RoleTechnician},
		to:      StatusReferredConsultant,
		mustOwn: true,
		effect: func(w *WorkOrder, req TransitionRequest, now time.Time) {
			w.Referral = &Referral{
				SupplyItem:      strings.TrimSpace(req.SupplyItem),
				ItemDescription: strings.TrimSpace(req.ItemDescription),
				RequestedBy:     req.Actor.ID,
				RequestedAt:     now,
			}
		},
	},
	EventConsultantApprove: {
		from:  []Status{StatusReferredConsultant},
		roles: []Role{RoleConsultant},
		to:    StatusReferredSupplier,
		guard: requireReferral,
		effect: func(w *WorkOrder, req TransitionRequest, now time.Time) {
			w.ConsultantApproval = &Approval{Identity: req.Actor.ID, ApprovedAt: now}
		},
	},
	EventConsultantReject: {
		from:  []Status{StatusReferredConsultant},
		roles: []Role{RoleConsultant},
		to:    StatusInProgress,
		guard: requireReferral,
		effect: func(w *WorkOrder, _ TransitionRequest, _ time.Time) {
			w.Referral = nil
			w.ConsultantApproval = nil
		},
	},
	EventSupplierApprove: {
		from:  []Status{StatusReferredSupplier},
		roles: []Role{RoleSupplier},
		to:    StatusSupplierApproved,
		guard: func(w *WorkOrder, req TransitionRequest) error {
			if err := requireReferral(w, req); err != nil {
				return err
			}
			if w.SupplierApproval != nil {
				return fmt.Errorf("%w: supplier approval already recorded", ErrInvalidTransition)
			}
			return nil
		},
		effect: func(w *WorkOrder, req TransitionRequest, now time.Time) {
			w.SupplierApproval = &Approval{Identity: req.Actor.ID, ApprovedAt: now}
		},
	},
	EventComplete: {
		from:    []Status{StatusInProgress, StatusSupplierApproved},
		roles:   []Role{RoleTechnician},
		to:      StatusCompleted,
		mustOwn: true,
		effect: func(w *WorkOrder, _ TransitionRequest, _ time.Time) {
			w.Referral = nil
		},
	},
	EventCancel: {
		from: []Status{
			StatusPending, StatusInProgress, StatusReferredConsultant,
			StatusReferredSupplier, StatusSupplierApproved,
		},
		roles: []Role{RoleContractor, RoleAdmin},
		to:    StatusCancelled,
		effect: func(w *WorkOrder, _ TransitionRequest, _ time.Time) {
			w.AcceptedBy = ""
			w.Referral = nil
			w.ConsultantApproval = nil
			w.SupplierApproval = nil
		},
	},
}

// Apply performs a lifecycle transition in place. The receiver is left untouched
// when an error is returned.
func (w *WorkOrder) Apply(req TransitionRequest, now time.Time) error {
	rule, ok := transitionTable[req.Event]
	if !ok {
		return fmt.Errorf("%w: unknown event %q", ErrInvalidTransition, req.Event)
	}
	if err := req.Actor.Validate(); err != nil {
		return err
	}
	if req.Event == EventRefer && strings.TrimSpace(req.SupplyItem) == "" {
		return ErrSupplyItemRequired
	}
	if !containsRole(rule.roles, req.Actor.Role) {
		return w.invalid(req, "role not permitted")
	}
	if req.Event == EventAccept && w.AcceptedBy != "" {
		return fmt.Errorf("%w: held by %s", ErrAlreadyClaimed, w.AcceptedBy)
	}
	if !containsStatus(rule.from, w.Status) {
		return w.invalid(req, "not allowed from current status")
	}
	if rule.mustOwn && w.AcceptedBy != req.Actor.ID {
		return w.invalid(req, "only the assigned technician may act")
	}
	if rule.guard != nil {
		if err := rule.guard(w, req); err != nil {
			return err
		}
	}
	if rule.effect != nil {
		rule.effect(w, req, now)
	}
	w.Status = rule.to
	return nil
}

// AddItem attaches a line item and recomputes the quote in the same step.
func (w *WorkOrder) AddItem(item LineItem, taxRate decimal.Decimal) error {
	if !w.Status.Unlocked() {
		return fmt.Errorf("%w: status %s", ErrOrderLocked, w.Status)
	}
	item.Description = strings.TrimSpace(item.Description)
	item.WorkType = strings.TrimSpace(item.WorkType)
	if item.Kind == "" {
		item.Kind = ItemPart
	}
	if err := item.Validate(); err != nil {
		return err
	}
	w.Items = append(w.Items, item)
	w.Quote = CalculateQuote(w.Items, taxRate)
	return nil
}

// AddPaintCode attaches cosmetic paint metadata while items are still editable.
func (w *WorkOrder) AddPaintCode(code PaintCode) error {
	if !w.Status.Unlocked() {
		return fmt.Errorf("%w: status %s", ErrOrderLocked, w.Status)
	}
	code.Code = strings.ToUpper(strings.TrimSpace(code.Code))
	if code.Code == "" {
		return ErrPaintCodeRequired
	}
	if code.Quantity < 1 {
		return ErrInvalidQuantity
	}
	w.PaintCodes = append(w.PaintCodes, code)
	return nil
}

// AllowedEvents lists the events the actor could legally fire against the order right now.
func (w *WorkOrder) AllowedEvents(actor Actor) []Event {
	var events []Event
	for _, event := range eventOrder {
		probe := w.Clone()
		req := TransitionRequest{Event: event, Actor: actor, SupplyItem: "probe"}
		if err := probe.Apply(req, time.Time{}); err == nil {
			events = append(events, event)
		}
	}
	return events
}

var eventOrder = []Event{
	EventAccept, EventDecline, EventRefer, EventConsultantApprove,
	EventConsultantReject, EventSupplierApprove, EventComplete, EventCancel,
}

func (w *WorkOrder) invalid(req TransitionRequest, reason string) error {
	return fmt.Errorf("%w: %s from %s as %s (%s)", ErrInvalidTransition, req.Event, w.Status, req.Actor.Role, reason)
}

func requireReferral(w *WorkOrder, _ TransitionRequest) error {
	if w.Referral == nil {
		return fmt.Errorf("%w: no active referral", ErrInvalidTransition)
	}
	return nil
}

func containsRole(roles []Role, role Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func containsStatus(statuses []Status, status Status) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
