package domain

import (
	"errors"
	"strings"
)

// Status represents the lifecycle state of a work order.
type Status string

const (
	StatusPending            Status = "pending"
	StatusInProgress         Status = "in_progress"
	StatusReferredConsultant Status = "referred_consultant"
	StatusReferredSupplier   Status = "referred_supplier"
	StatusSupplierApproved   Status = "supplier_approved"
	StatusCompleted          Status = "completed"
	StatusCancelled          Status = "cancelled"
	StatusRejected           Status = "rejected"
)

// Role identifies which dashboard an actor operates from.
type Role string

const (
	RoleContractor Role = "contractor"
	RoleTechnician Role = "technician"
	RoleConsultant Role = "consultant"
	RoleSupplier   Role = "supplier"
	RoleAdmin      Role = "admin"
)

// Event names a lifecycle transition.
type Event string

const (
	EventCreate            Event = "create"
	EventAccept            Event = "accept"
	EventDecline           Event = "decline"
	EventRefer             Event = "refer"
	EventConsultantApprove Event = "consultant_approve"
	EventConsultantReject  Event = "consultant_reject"
	EventSupplierApprove   Event = "supplier_approve"
	EventComplete          Event = "complete"
	EventCancel            Event = "cancel"
)

var (
	ErrUnknownStatus = errors.New("unknown work order status")
	ErrUnknownRole   = errors.New("unknown actor role")
)

var statusAliases = map[string]Status{
	"pending":             StatusPending,
	"new":                 StatusPending,
	"in_progress":         StatusInProgress,
	"inprogress":          StatusInProgress,
	"accepted":            StatusInProgress,
	"referred_consultant": StatusReferredConsultant,
	"referred":            StatusReferredConsultant,
	"referred_supplier":   StatusReferredSupplier,
	"supplier_approved":   StatusSupplierApproved,
	"approved":            StatusSupplierApproved,
	"completed":           StatusCompleted,
	"complete":            StatusCompleted,
	"done":                StatusCompleted,
	"cancelled":           StatusCancelled,
	"canceled":            StatusCancelled,
	"rejected":            StatusRejected,
	"declined":            StatusRejected,
}

// ParseStatus normalizes the loosely formatted status strings sent by dashboards
// ("In Progress", "in-progress", "in_progress") into the canonical enum.
func ParseStatus(raw string) (Status, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	if status, ok := statusAliases[key]; ok {
		return status, nil
	}
	return "", ErrUnknownStatus
}

// IsTerminal reports whether no further transition can leave the status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusReferredConsultant, StatusReferredSupplier,
		StatusSupplierApproved, StatusCompleted, StatusCancelled, StatusRejected:
		return true
	default:
		return false
	}
}

// Unlocked reports whether items may still be attached.
func (s Status) Unlocked() bool {
	return s == StatusPending || s == StatusInProgress
}

func (s Status) requiresAcceptor() bool {
	switch s {
	case StatusInProgress, StatusReferredConsultant, StatusReferredSupplier, StatusSupplierApproved, StatusCompleted:
		return true
	default:
		return false
	}
}

func (s Status) requiresReferral() bool {
	switch s {
	case StatusReferredConsultant, StatusReferredSupplier, StatusSupplierApproved:
		return true
	default:
		return false
	}
}

// ParseRole normalizes a role name supplied by the identity collaborator.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch role {
	case RoleContractor, RoleTechnician, RoleConsultant, RoleSupplier, RoleAdmin:
		return role, nil
	default:
		return "", ErrUnknownRole
	}
}

// Actor is the identity performing an operation, as resolved by the auth collaborator.
type Actor struct {
	ID   string
	Role Role
}

// Validate checks that the actor carries an identity and a known role.
func (a Actor) Validate() error {
	if strings.TrimSpace(a.ID) == "" {
		return ErrActorRequired
	}
	if _, err := ParseRole(string(a.Role)); err != nil {
		return err
	}
	return nil
}
