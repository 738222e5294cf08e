package app

import (
	"context"

	"github.com/gofrs/uuid"

	"bakehouse/internal/core"
)

// ApplicationService is the single interface all transport adapters call.
// It decouples presentation from business logic: implementations carry no
// HTTP types and no display logic of any kind.
type ApplicationService interface {
	// CreateOrder places a new order in pending status.
	CreateOrder(ctx context.Context, caller core.Caller, req CreateOrderRequest) (*OrderResult, error)

	// GetOrder returns a single order by its document number.
	GetOrder(ctx context.Context, orderNo string) (*OrderResult, error)

	// ListOrders returns orders, optionally narrowed by branch and status.
	ListOrders(ctx context.Context, req ListOrdersRequest) (*OrderListResult, error)

	// AssignChef assigns a production task for one order item to a chef.
	AssignChef(ctx context.Context, caller core.Caller, req AssignChefRequest) (*OrderResult, error)

	// UpdateItemStatus advances one item's production status as the assigned chef.
	UpdateItemStatus(ctx context.Context, caller core.Caller, req UpdateItemStatusRequest) (*OrderResult, error)

	// UpdateOrderStatus moves the order along its lifecycle graph.
	UpdateOrderStatus(ctx context.Context, caller core.Caller, req UpdateOrderStatusRequest) (*OrderResult, error)

	// ConfirmDelivery marks an in-transit order delivered and books its
	// quantities out of branch stock.
	ConfirmDelivery(ctx context.Context, caller core.Caller, orderNo string) (*OrderResult, error)

	// CreateReturn files a return against a delivered order.
	CreateReturn(ctx context.Context, caller core.Caller, req CreateReturnRequest) (*ReturnResult, error)

	// ReviewReturn approves or rejects a pending return.
	ReviewReturn(ctx context.Context, caller core.Caller, req ReviewReturnRequest) (*ReturnResult, error)

	// GetReturn returns a single return by its document number.
	GetReturn(ctx context.Context, returnNo string) (*ReturnResult, error)

	// ListReturns returns return requests, optionally narrowed.
	ListReturns(ctx context.Context, req ListReturnsRequest) (*ReturnListResult, error)

	// StockLevels returns current inventory records, optionally for one branch.
	StockLevels(ctx context.Context, branchID *uuid.UUID) (*StockResult, error)

	// AdjustStock applies a signed manual stock correction.
	AdjustStock(ctx context.Context, caller core.Caller, req AdjustStockRequest) (*StockAdjustResult, error)

	// MovementHistory pages through the movement ledger, newest first.
	MovementHistory(ctx context.Context, req MovementHistoryRequest) (*MovementListResult, error)

	// RecomputeStock cross-checks a stock level against its movement ledger.
	RecomputeStock(ctx context.Context, branchID, productID uuid.UUID) (*core.RecomputeResult, error)

	// ChefAssignments lists a chef's active production assignments.
	ChefAssignments(ctx context.Context, chefID uuid.UUID) (*AssignmentListResult, error)
}
