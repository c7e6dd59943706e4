package mapper

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	wotypes "github.com/Apurer/go-gin-workorders/internal/domains/workorders/application/types"
	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
)

func TestStatusEvent(t *testing.T) {
	cases := map[string]domain.Event{
		"in_progress": domain.EventAccept,
		"In Progress": domain.EventAccept,
		"accepted":    domain.EventAccept,
		"declined":    domain.EventDecline,
		"done":        domain.EventComplete,
		"canceled":    domain.EventCancel,
	}
	for raw, want := range cases {
		got, err := StatusEvent(raw)
		require.NoError(t, err, raw)
		require.Equal(t, want, got, raw)
	}

	_, err := StatusEvent("referred_supplier")
	require.ErrorIs(t, err, ErrUnsupportedStatus)
	_, err = StatusEvent("archived")
	require.ErrorIs(t, err, domain.ErrUnknownStatus)
}

func TestApprovalEvent(t *testing.T) {
	event, err := ApprovalEvent(domain.RoleConsultant, "")
	require.NoError(t, err)
	require.Equal(t, domain.EventConsultantApprove, event)

	event, err = ApprovalEvent(domain.RoleConsultant, "Reject")
	require.NoError(t, err)
	require.Equal(t, domain.EventConsultantReject, event)

	event, err = ApprovalEvent(domain.RoleSupplier, "approve")
	require.NoError(t, err)
	require.Equal(t, domain.EventSupplierApprove, event)

	_, err = ApprovalEvent(domain.RoleSupplier, "reject")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = ApprovalEvent(domain.RoleConsultant, "maybe")
	require.ErrorIs(t, err, ErrInvalidDecision)
}

func TestParseStatusFilters(t *testing.T) {
	statuses, err := ParseStatusFilters([]string{"pending,in-progress", "Completed", ""})
	require.NoError(t, err)
	require.Equal(t, []domain.Status{domain.StatusPending, domain.StatusInProgress, domain.StatusCompleted}, statuses)

	_, err = ParseStatusFilters([]string{"bogus"})
	require.ErrorIs(t, err, domain.ErrUnknownStatus)
}

func TestFromProjection(t *testing.T) {
	order, err := domain.NewWorkOrder("wo-1", "carla",
		domain.Customer{Name: "Jane", Phone: "555"},
		domain.Vehicle{Make: "Honda", Model: "Civic"},
		domain.Activity{Type: domain.ActivityRepair},
	)
	require.NoError(t, err)
	require.NoError(t, order.AddItem(domain.LineItem{Description: "Oil Filter", Quantity: 2, UnitPrice: decimal.RequireFromString("12.5")}, domain.DefaultTaxRate))
	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	out := FromProjection(wotypes.NewWorkOrderProjection(order, now, now, 3), domain.Actor{ID: "alice", Role: domain.RoleTechnician})
	require.Equal(t, "pending", out.Status)
	require.Equal(t, Quote{Subtotal: "25.00", Tax: "3.00", Total: "28.00"}, out.Quote)
	require.Equal(t, "12.50", out.Items[0].UnitPrice)
	require.Equal(t, "25.00", out.Items[0].LineTotal)
	require.Equal(t, []string{"accept", "decline"}, out.AllowedActions)
	require.Equal(t, int64(3), out.Version)
	require.Empty(t, out.PaintCodes)
	require.Nil(t, out.Referral)
}
