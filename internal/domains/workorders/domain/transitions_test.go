package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var (
	contractor = Actor{ID: "carla", Role: RoleContractor}
	alice      = Actor{ID: "alice", Role: RoleTechnician}
	bob        = Actor{ID: "bob", Role: RoleTechnician}
	consultant = Actor{ID: "connie", Role: RoleConsultant}
	supplier   = Actor{ID: "sam", Role: RoleSupplier}
	admin      = Actor{ID: "root", Role: RoleAdmin}
)

func newPendingOrder(t *testing.T) *WorkOrder {
	t.Helper()
	order, err := NewWorkOrder("wo-1", contractor.ID,
		Customer{Name: "Jane", Phone: "555-0100"},
		Vehicle{Make: "Honda", Model: "Civic"},
		Activity{Type: ActivityRepair},
	)
	require.NoError(t, err)
	return order
}

func apply(t *testing.T, order *WorkOrder, event Event, actor Actor) {
	t.Helper()
	req := TransitionRequest{Event: event, Actor: actor}
	if event == EventRefer {
		req.SupplyItem = "Front Bumper"
	}
	require.NoError(t, order.Apply(req, time.Now()))
	require.NoError(t, order.CheckInvariants(DefaultTaxRate))
}

func TestNewWorkOrder_Validation(t *testing.T) {
	cases := map[string]struct {
		customer Customer
		vehicle  Vehicle
		activity Activity
		want     error
	}{
		"missing name":     {Customer{Phone: "1"}, Vehicle{Make: "a", Model: "b"}, Activity{}, ErrCustomerNameRequired},
		"missing phone":    {Customer{Name: "x"}, Vehicle{Make: "a", Model: "b"}, Activity{}, ErrCustomerPhoneRequired},
		"missing make":     {Customer{Name: "x", Phone: "1"}, Vehicle{Model: "b"}, Activity{}, ErrVehicleMakeRequired},
		"missing model":    {Customer{Name: "x", Phone: "1"}, Vehicle{Make: "a", Model: "  "}, Activity{}, ErrVehicleModelRequired},
		"unknown activity": {Customer{Name: "x", Phone: "1"}, Vehicle{Make: "a", Model: "b"}, Activity{Type: "paint"}, ErrInvalidActivityType},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewWorkOrder("id", "carla", tc.customer, tc.vehicle, tc.activity)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestApply_HappyPathThroughReferralChain(t *testing.T) {
	order := newPendingOrder(t)
	apply(t, order, EventAccept, bob)
	apply(t, order, EventRefer, bob)
	require.Equal(t, StatusReferredConsultant, order.Status)
	require.Equal(t, "Front Bumper", order.Referral.SupplyItem)

	apply(t, order, EventConsultantReject, consultant)
	require.Equal(t, StatusInProgress, order.Status)
	require.Nil(t, order.Referral)

	apply(t, order, EventRefer, bob)
	apply(t, order, EventConsultantApprove, consultant)
	require.Equal(t, StatusReferredSupplier, order.Status)
	require.Equal(t, consultant.ID, order.ConsultantApproval.Identity)

	apply(t, order, EventSupplierApprove, supplier)
	require.Equal(t, StatusSupplierApproved, order.Status)
	require.Equal(t, supplier.ID, order.SupplierApproval.Identity)

	apply(t, order, EventComplete, bob)
	require.Equal(t, StatusCompleted, order.Status)
	require.Nil(t, order.Referral)
	require.NotNil(t, order.SupplierApproval)
}

func TestApply_RejectsIllegalEdgesWithoutMutation(t *testing.T) {
	cases := []struct {
		name  string
		setup []struct {
			event Event
			actor Actor
		}
		event Event
		actor Actor
		want  error
	}{
		{name: "complete pending", event: EventComplete, actor: alice, want: ErrInvalidTransition},
		{name: "contractor accepts", event: EventAccept, actor: contractor, want: ErrInvalidTransition},
		{name: "consultant approves without referral", event: EventConsultantApprove, actor: consultant, want: ErrInvalidTransition},
		{name: "supplier approves pending", event: EventSupplierApprove, actor: supplier, want: ErrInvalidTransition},
		{name: "technician cancels", event: EventCancel, actor: alice, want: ErrInvalidTransition},
		{
			name: "second accept",
			setup: []struct {
				event Event
				actor Actor
			}{{EventAccept, alice}},
			event: EventAccept, actor: bob, want: ErrAlreadyClaimed,
		},
		{
			name: "other technician completes",
			setup: []struct {
				event Event
				actor Actor
			}{{EventAccept, alice}},
			event: EventComplete, actor: bob, want: ErrInvalidTransition,
		},
		{
			name: "supplier skips consultant gate",
			setup: []struct {
				event Event
				actor Actor
			}{{EventAccept, alice}, {EventRefer, alice}},
			event: EventSupplierApprove, actor: supplier, want: ErrInvalidTransition,
		},
		{
			name: "cancel after completion",
			setup: []struct {
				event Event
				actor Actor
			}{{EventAccept, alice}, {EventComplete, alice}},
			event: EventCancel, actor: admin, want: ErrInvalidTransition,
		},
		{
			name: "decline claimed order",
			setup: []struct {
				event Event
				actor Actor
			}{{EventAccept, alice}},
			event: EventDecline, actor: bob, want: ErrInvalidTransition,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			order := newPendingOrder(t)
			for _, step := range tc.setup {
				apply(t, order, step.event, step.actor)
			}
			before := order.Clone()
			req := TransitionRequest{Event: tc.event, Actor: tc.actor, SupplyItem: "Mirror"}
			err := order.Apply(req, time.Now())
			require.ErrorIs(t, err, tc.want)
			require.Equal(t, before, order)
		})
	}
}

func TestApply_ReferRequiresSupplyItem(t *testing.T) {
	order := newPendingOrder(t)
	apply(t, order, EventAccept, alice)

	err := order.Apply(TransitionRequest{Event: EventRefer, Actor: alice, SupplyItem: "   "}, time.Now())
	require.ErrorIs(t, err, ErrSupplyItemRequired)
	require.Equal(t, StatusInProgress, order.Status)
	require.Nil(t, order.Referral)
}

func TestApply_CancelClearsClaimAndReferral(t *testing.T) {
	order := newPendingOrder(t)
	apply(t, order, EventAccept, alice)
	apply(t, order, EventRefer, alice)
	apply(t, order, EventCancel, contractor)

	require.Equal(t, StatusCancelled, order.Status)
	require.Empty(t, order.AcceptedBy)
	require.Nil(t, order.Referral)
}

func TestAddItem_FreezesOutsideEditableWindow(t *testing.T) {
	order := newPendingOrder(t)
	item := LineItem{Description: "Oil Filter", Quantity: 2, UnitPrice: decimal.RequireFromString("12.50")}
	require.NoError(t, order.AddItem(item, DefaultTaxRate))

	apply(t, order, EventAccept, alice)
	require.NoError(t, order.AddItem(item, DefaultTaxRate))

	apply(t, order, EventRefer, alice)
	require.ErrorIs(t, order.AddItem(item, DefaultTaxRate), ErrOrderLocked)
	require.ErrorIs(t, order.AddPaintCode(PaintCode{Code: "nh-731p", Quantity: 1}), ErrOrderLocked)
	require.Len(t, order.Items, 2)
}

func TestAddItem_ValidatesItem(t *testing.T) {
	order := newPendingOrder(t)
	require.ErrorIs(t, order.AddItem(LineItem{Quantity: 1}, DefaultTaxRate), ErrItemDescriptionMissing)
	require.ErrorIs(t, order.AddItem(LineItem{Description: "x"}, DefaultTaxRate), ErrInvalidQuantity)
	require.ErrorIs(t, order.AddItem(LineItem{Description: "x", Quantity: 1, UnitPrice: decimal.NewFromInt(-1)}, DefaultTaxRate), ErrNegativeUnitPrice)
	require.ErrorIs(t, order.AddItem(LineItem{Description: "x", Quantity: 1, Kind: "gift"}, DefaultTaxRate), ErrInvalidItemKind)
	require.Empty(t, order.Items)
}

func TestAllowedEvents(t *testing.T) {
	order := newPendingOrder(t)
	require.Equal(t, []Event{EventAccept, EventDecline}, order.AllowedEvents(alice))
	require.Equal(t, []Event{EventCancel}, order.AllowedEvents(contractor))

	apply(t, order, EventAccept, alice)
	require.Equal(t, []Event{EventRefer, EventComplete}, order.AllowedEvents(alice))
	require.Empty(t, order.AllowedEvents(bob))
}

func TestParseStatus_NormalizesDashboardSpellings(t *testing.T) {
	for _, raw := range []string{"in_progress", "in-progress", "In Progress", " ACCEPTED "} {
		status, err := ParseStatus(raw)
		require.NoError(t, err, raw)
		require.Equal(t, StatusInProgress, status, raw)
	}
	status, err := ParseStatus("Canceled")
	require.NoError(t, err)
	require.Equal(t, StatusCancelled, status)

	_, err = ParseStatus("archived")
	require.ErrorIs(t, err, ErrUnknownStatus)
}
