package domain

import "time"

// TransitionCommittedEventName identifies the event published after every committed change.
const TransitionCommittedEventName = "workorders.transition.committed"

// TransitionCommitted is raised once a lifecycle change has been durably stored.
// Downstream notification and report collaborators subscribe to it; they are never awaited.
type TransitionCommitted struct {
	WorkOrderID string    `json:"workOrderId"`
	Event       Event     `json:"event"`
	From        Status    `json:"from"`
	To          Status    `json:"to"`
	ActorID     string    `json:"actorId"`
	ActorRole   Role      `json:"actorRole"`
	Version     int64     `json:"version"`
	Timestamp   time.Time `json:"occurredAt"`
}

// EventName returns the event type identifier.
func (e TransitionCommitted) EventName() string {
	return TransitionCommittedEventName
}

// OccurredAt returns when the transition was committed.
func (e TransitionCommitted) OccurredAt() time.Time {
	return e.Timestamp
}
