package core

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is an order's position in its lifecycle.
type OrderStatus string

const (
	OrderPending      OrderStatus = "pending"
	OrderApproved     OrderStatus = "approved"
	OrderInProduction OrderStatus = "in_production"
	OrderCompleted    OrderStatus = "completed"
	OrderInTransit    OrderStatus = "in_transit"
	OrderDelivered    OrderStatus = "delivered"
	OrderCancelled    OrderStatus = "cancelled"
)

func (s OrderStatus) String() string { return string(s) }

// orderTransitions is the authoritative order status graph. Cancellation is
// reachable from pending or approved only; delivered and cancelled are terminal.
var orderTransitions = map[OrderStatus]map[OrderStatus]bool{
	OrderPending:      {OrderApproved: true, OrderCancelled: true},
	OrderApproved:     {OrderInProduction: true, OrderCancelled: true},
	OrderInProduction: {OrderCompleted: true},
	OrderCompleted:    {OrderInTransit: true},
	OrderInTransit:    {OrderDelivered: true},
	OrderDelivered:    {},
	OrderCancelled:    {},
}

// CanTransitionTo reports whether the status graph allows s → next.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return orderTransitions[s][next]
}

// Terminal reports whether no further transitions are possible.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// ItemStatus is one order line's production status.
type ItemStatus string

const (
	ItemPending    ItemStatus = "pending"
	ItemAssigned   ItemStatus = "assigned"
	ItemInProgress ItemStatus = "in_progress"
	ItemCompleted  ItemStatus = "completed"
)

func (s ItemStatus) String() string { return string(s) }

var itemTransitions = map[ItemStatus]map[ItemStatus]bool{
	ItemPending:    {ItemAssigned: true},
	ItemAssigned:   {ItemInProgress: true},
	ItemInProgress: {ItemCompleted: true},
	ItemCompleted:  {},
}

func (s ItemStatus) CanTransitionTo(next ItemStatus) bool {
	return itemTransitions[s][next]
}

func (s ItemStatus) Valid() bool {
	_, ok := itemTransitions[s]
	return ok
}

// Priority orders the production queue; it carries no lifecycle semantics.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// OrderItem is one product line within an order.
type OrderItem struct {
	ID               uuid.UUID       `json:"id"`
	OrderID          uuid.UUID       `json:"order_id"`
	ProductID        uuid.UUID       `json:"product_id"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Unit             Unit            `json:"unit"`
	Status           ItemStatus      `json:"status"`
	ChefID           *uuid.UUID      `json:"chef_id,omitempty"`
	StartedAt        *time.Time      `json:"started_at,omitempty"`
	CompletedAt      *time.Time      `json:"completed_at,omitempty"`
	ReturnedQuantity decimal.Decimal `json:"returned_quantity"`
	ReturnReason     string          `json:"return_reason,omitempty"`
}

// ReturnableQuantity is how much of this line may still be returned.
func (i OrderItem) ReturnableQuantity() decimal.Decimal {
	return i.Quantity.Sub(i.ReturnedQuantity)
}

// LineTotal is quantity × unit price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// Order is a branch's request for products, tracked to delivery.
// TotalAmount is always Σ item line totals; AdjustedTotal is TotalAmount minus
// the value of approved returns, floored at zero.
type Order struct {
	ID            uuid.UUID       `json:"id"`
	OrderNo       string          `json:"order_no"`
	BranchID      uuid.UUID       `json:"branch_id"`
	OrderedBy     uuid.UUID       `json:"ordered_by"`
	Status        OrderStatus     `json:"status"`
	Priority      Priority        `json:"priority"`
	RequestedDate time.Time       `json:"requested_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	AdjustedTotal decimal.Decimal `json:"adjusted_total"`
	Notes         string          `json:"notes,omitempty"`
	DeliveredAt   *time.Time      `json:"delivered_at,omitempty"`
	Items         []OrderItem     `json:"items"`
	History       []StatusChange  `json:"status_history,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ComputeTotal sums the line totals of all items.
func (o *Order) ComputeTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ComputeAdjustedTotal subtracts the value of returned quantities from the
// order total, floored at zero.
func (o *Order) ComputeAdjustedTotal() decimal.Decimal {
	returned := decimal.Zero
	for _, item := range o.Items {
		returned = returned.Add(item.ReturnedQuantity.Mul(item.UnitPrice))
	}
	adjusted := o.TotalAmount.Sub(returned)
	if adjusted.IsNegative() {
		return decimal.Zero
	}
	return adjusted
}

// AllItemsCompleted reports whether every line has finished production.
func (o *Order) AllItemsCompleted() bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, item := range o.Items {
		if item.Status != ItemCompleted {
			return false
		}
	}
	return true
}

// Item returns the line with the given id, or nil.
func (o *Order) Item(itemID uuid.UUID) *OrderItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}
