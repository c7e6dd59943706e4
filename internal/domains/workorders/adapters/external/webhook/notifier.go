package webhook

import (
	"context"
	"errors"
	"fmt"
	"time"

	webhookclient "github.com/Apurer/go-gin-workorders/internal/clients/http/webhook"
	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/ports"
)

var _ ports.TransitionNotifier = (*Notifier)(nil)

// Payload is the body posted for every committed transition.
type Payload struct {
	Type        string    `json:"type"`
	WorkOrderID string    `json:"work_order_id"`
	Event       string    `json:"event"`
	From        string    `json:"from,omitempty"`
	To          string    `json:"to"`
	ActorID     string    `json:"actor_id"`
	ActorRole   string    `json:"actor_role"`
	Version     int64     `json:"version"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Notifier forwards committed transitions to the notification webhook.
type Notifier struct {
	client *webhookclient.Client
}

// NewNotifier wraps a webhook client.
func NewNotifier(client *webhookclient.Client) *Notifier {
	return &Notifier{client: client}
}

// Notify posts the event. The idempotency key is stable per order version so
// retried deliveries can be deduplicated by the receiver.
func (n *Notifier) Notify(ctx context.Context, event domain.TransitionCommitted) error {
	if n == nil || n.client == nil {
		return errors.New("webhook notifier not configured")
	}
	return n.client.Deliver(ctx, ToPayload(event), webhookclient.WithIdempotencyKey(IdempotencyKey(event)))
}

// ToPayload maps the domain event into its wire shape.
func ToPayload(event domain.TransitionCommitted) Payload {
	return Payload{
		Type:        event.EventName(),
		WorkOrderID: event.WorkOrderID,
		Event:       string(event.Event),
		From:        string(event.From),
		To:          string(event.To),
		ActorID:     event.ActorID,
		ActorRole:   string(event.ActorRole),
		Version:     event.Version,
		OccurredAt:  event.OccurredAt().UTC(),
	}
}

// IdempotencyKey identifies one committed version of one work order.
func IdempotencyKey(event domain.TransitionCommitted) string {
	return fmt.Sprintf("%s-v%d", event.WorkOrderID, event.Version)
}
