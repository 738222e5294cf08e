package core_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"bakehouse/internal/core"
)

func TestOrderStatus_Transitions(t *testing.T) {
	tests := []struct {
		from core.OrderStatus
		to   core.OrderStatus
		want bool
	}{
		{core.OrderPending, core.OrderApproved, true},
		{core.OrderPending, core.OrderCancelled, true},
		{core.OrderPending, core.OrderInProduction, false},
		{core.OrderApproved, core.OrderInProduction, true},
		{core.OrderApproved, core.OrderCancelled, true},
		{core.OrderInProduction, core.OrderCancelled, false},
		{core.OrderInProduction, core.OrderCompleted, true},
		{core.OrderCompleted, core.OrderInTransit, true},
		{core.OrderInTransit, core.OrderDelivered, true},
		{core.OrderDelivered, core.OrderInTransit, false},
		{core.OrderCancelled, core.OrderPending, false},
		{core.OrderPending, core.OrderPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.True(t, core.OrderDelivered.Terminal())
	assert.True(t, core.OrderCancelled.Terminal())
	assert.False(t, core.OrderPending.Terminal())
	assert.False(t, core.OrderInTransit.Terminal())
}

func TestItemStatus_Transitions(t *testing.T) {
	assert.True(t, core.ItemPending.CanTransitionTo(core.ItemAssigned))
	assert.True(t, core.ItemAssigned.CanTransitionTo(core.ItemInProgress))
	assert.True(t, core.ItemInProgress.CanTransitionTo(core.ItemCompleted))
	assert.False(t, core.ItemPending.CanTransitionTo(core.ItemInProgress))
	assert.False(t, core.ItemCompleted.CanTransitionTo(core.ItemInProgress))
}

func TestOrder_ComputeTotal(t *testing.T) {
	order := &core.Order{
		Items: []core.OrderItem{
			{Quantity: decimal.NewFromInt(10), UnitPrice: decimal.RequireFromString("2.50")},
			{Quantity: decimal.RequireFromString("1.5"), UnitPrice: decimal.NewFromInt(8)},
		},
	}
	assert.True(t, order.ComputeTotal().Equal(decimal.RequireFromString("37")),
		"got %s", order.ComputeTotal())
}

func TestOrder_ComputeAdjustedTotal(t *testing.T) {
	order := &core.Order{
		TotalAmount: decimal.NewFromInt(100),
		Items: []core.OrderItem{
			{
				Quantity:         decimal.NewFromInt(10),
				UnitPrice:        decimal.NewFromInt(10),
				ReturnedQuantity: decimal.NewFromInt(3),
			},
		},
	}
	assert.True(t, order.ComputeAdjustedTotal().Equal(decimal.NewFromInt(70)),
		"got %s", order.ComputeAdjustedTotal())
}

func TestOrder_ComputeAdjustedTotal_FlooredAtZero(t *testing.T) {
	order := &core.Order{
		TotalAmount: decimal.NewFromInt(20),
		Items: []core.OrderItem{
			{
				Quantity:         decimal.NewFromInt(10),
				UnitPrice:        decimal.NewFromInt(10),
				ReturnedQuantity: decimal.NewFromInt(10),
			},
		},
	}
	assert.True(t, order.ComputeAdjustedTotal().IsZero())
}

func TestOrder_AllItemsCompleted(t *testing.T) {
	order := &core.Order{Items: []core.OrderItem{
		{Status: core.ItemCompleted},
		{Status: core.ItemInProgress},
	}}
	assert.False(t, order.AllItemsCompleted())

	order.Items[1].Status = core.ItemCompleted
	assert.True(t, order.AllItemsCompleted())

	empty := &core.Order{}
	assert.False(t, empty.AllItemsCompleted())
}

func TestOrderItem_ReturnableQuantity(t *testing.T) {
	item := core.OrderItem{
		Quantity:         decimal.NewFromInt(10),
		ReturnedQuantity: decimal.NewFromInt(4),
	}
	assert.True(t, item.ReturnableQuantity().Equal(decimal.NewFromInt(6)))
}
