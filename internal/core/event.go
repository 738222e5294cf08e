package core

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
)

// EventType names a domain event emitted after a successful state change.
type EventType string

const (
	EventOrderCreated        EventType = "orderCreated"
	EventOrderStatusUpdated  EventType = "orderStatusUpdated"
	EventTaskAssigned        EventType = "taskAssigned"
	EventTaskStatusUpdated   EventType = "taskStatusUpdated"
	EventReturnCreated       EventType = "returnCreated"
	EventReturnStatusUpdated EventType = "returnStatusUpdated"
)

// Event is a fire-and-forget notification of a completed state change.
// ID is the idempotency key: the engine emits each logical event exactly once,
// and downstream consumers deduplicate on it.
type Event struct {
	ID         uuid.UUID `json:"event_id"`
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// NewEvent builds an event with a fresh idempotency key and a UTC timestamp.
func NewEvent(t EventType, payload any) Event {
	return Event{
		ID:         newUUID(),
		Type:       t,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// OrderEventPayload accompanies orderCreated and orderStatusUpdated.
type OrderEventPayload struct {
	OrderNo   string    `json:"order_no"`
	BranchID  uuid.UUID `json:"branch_id"`
	Status    string    `json:"status"`
	ChangedBy uuid.UUID `json:"changed_by"`
}

// TaskEventPayload accompanies taskAssigned and taskStatusUpdated.
type TaskEventPayload struct {
	OrderNo   string    `json:"order_no"`
	ItemID    uuid.UUID `json:"item_id"`
	ProductID uuid.UUID `json:"product_id"`
	ChefID    uuid.UUID `json:"chef_id"`
	Status    string    `json:"status"`
}

// ReturnEventPayload accompanies returnCreated and returnStatusUpdated.
type ReturnEventPayload struct {
	ReturnNo  string    `json:"return_no"`
	OrderNo   string    `json:"order_no"`
	BranchID  uuid.UUID `json:"branch_id"`
	Status    string    `json:"status"`
	ChangedBy uuid.UUID `json:"changed_by"`
}

// EventPublisher fans events out to other subsystems. Delivery guarantees,
// retries, and topic routing are the publisher's concern; the engine only
// hands it fully-formed events after commit and never blocks a command on
// delivery success.
type EventPublisher interface {
	Publish(ctx context.Context, ev Event) error
}
