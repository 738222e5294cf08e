package app

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"

	"bakehouse/internal/core"
)

type OrderItemRequest struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	// UnitPrice zero (or omitted) means the line is priced from the catalog.
	// Free line items are not supported; the lowest explicit price is the
	// catalog price of a zero-priced product.
	UnitPrice decimal.Decimal `json:"unit_price"`
	Unit      string          `json:"unit"`
}

type CreateOrderRequest struct {
	BranchID      uuid.UUID          `json:"branch_id"`
	Priority      string             `json:"priority"`
	RequestedDate time.Time          `json:"requested_date"`
	Notes         string             `json:"notes"`
	Items         []OrderItemRequest `json:"items"`
}

type ListOrdersRequest struct {
	BranchID *uuid.UUID
	Status   *core.OrderStatus
}

type AssignChefRequest struct {
	OrderNo string
	ItemID  uuid.UUID
	ChefID  uuid.UUID `json:"chef_id"`
}

type UpdateItemStatusRequest struct {
	OrderNo string
	ItemID  uuid.UUID
	Status  string `json:"status"`
}

type UpdateOrderStatusRequest struct {
	OrderNo string
	Status  string `json:"status"`
	Note    string `json:"note"`
}

type ReturnItemRequest struct {
	OrderItemID uuid.UUID       `json:"order_item_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      string          `json:"reason"`
}

type CreateReturnRequest struct {
	OrderNo string              `json:"order_no"`
	Reason  string              `json:"reason"`
	Items   []ReturnItemRequest `json:"items"`
}

type ReviewReturnRequest struct {
	ReturnNo string
	Approve  bool   `json:"approve"`
	Notes    string `json:"notes"`
}

type ListReturnsRequest struct {
	BranchID *uuid.UUID
	OrderNo  *string
	Status   *core.ReturnStatus
}

type AdjustStockRequest struct {
	BranchID  uuid.UUID       `json:"branch_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Delta     decimal.Decimal `json:"delta"`
	Note      string          `json:"note"`
}

type MovementHistoryRequest struct {
	BranchID  *uuid.UUID
	ProductID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Limit     int
}
