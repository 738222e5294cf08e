package app

import "bakehouse/internal/core"

type OrderResult struct {
	Order *core.Order `json:"order"`
}

type OrderListResult struct {
	Orders []core.Order `json:"orders"`
}

type ReturnResult struct {
	Return *core.Return `json:"return"`
}

type ReturnListResult struct {
	Returns []core.Return `json:"returns"`
}

type StockResult struct {
	Records []core.InventoryRecord `json:"records"`
}

type StockAdjustResult struct {
	Record *core.InventoryRecord `json:"record"`
}

type MovementListResult struct {
	Movements []core.InventoryMovement `json:"movements"`
	// HasMore reports whether the ledger holds older movements beyond Limit.
	HasMore bool `json:"has_more"`
}

type AssignmentListResult struct {
	Assignments []core.ProductionAssignment `json:"assignments"`
}
