package ports

import (
	"context"

	"github.com/Apurer/go-gin-workorders/internal/domains/workorders/domain"
)

// TransitionPublisher hands committed transitions to downstream collaborators
// (notifications, reports). Implementations must not block on delivery.
type TransitionPublisher interface {
	Publish(ctx context.Context, event domain.TransitionCommitted) error
}

// TransitionNotifier delivers a committed transition to an external party.
type TransitionNotifier interface {
	Notify(ctx context.Context, event domain.TransitionCommitted) error
}
