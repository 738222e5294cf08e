package app

import (
	"context"

	"github.com/gofrs/uuid"

	"bakehouse/internal/core"
)

const defaultMovementLimit = 50

type appService struct {
	orders      core.OrderService
	returns     core.ReturnService
	inventory   core.InventoryService
	assignments core.AssignmentService
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	orders core.OrderService,
	returns core.ReturnService,
	inventory core.InventoryService,
	assignments core.AssignmentService,
) ApplicationService {
	return &appService{
		orders:      orders,
		returns:     returns,
		inventory:   inventory,
		assignments: assignments,
	}
}

func (s *appService) CreateOrder(ctx context.Context, caller core.Caller, req CreateOrderRequest) (*OrderResult, error) {
	items := make([]core.OrderItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = core.OrderItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Unit:      core.Unit(it.Unit),
		}
	}
	order, err := s.orders.CreateOrder(ctx, caller, core.CreateOrderInput{
		BranchID:      req.BranchID,
		Priority:      core.Priority(req.Priority),
		RequestedDate: req.RequestedDate,
		Notes:         req.Notes,
		Items:         items,
	})
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) GetOrder(ctx context.Context, orderNo string) (*OrderResult, error) {
	order, err := s.orders.GetOrder(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) ListOrders(ctx context.Context, req ListOrdersRequest) (*OrderListResult, error) {
	orders, err := s.orders.ListOrders(ctx, core.OrderFilter{BranchID: req.BranchID, Status: req.Status})
	if err != nil {
		return nil, err
	}
	return &OrderListResult{Orders: orders}, nil
}

func (s *appService) AssignChef(ctx context.Context, caller core.Caller, req AssignChefRequest) (*OrderResult, error) {
	order, err := s.orders.AssignChef(ctx, caller, req.OrderNo, req.ItemID, req.ChefID)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) UpdateItemStatus(ctx context.Context, caller core.Caller, req UpdateItemStatusRequest) (*OrderResult, error) {
	order, err := s.orders.UpdateItemStatus(ctx, caller, req.OrderNo, req.ItemID, core.ItemStatus(req.Status))
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) UpdateOrderStatus(ctx context.Context, caller core.Caller, req UpdateOrderStatusRequest) (*OrderResult, error) {
	order, err := s.orders.UpdateOrderStatus(ctx, caller, req.OrderNo, core.OrderStatus(req.Status), req.Note)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) ConfirmDelivery(ctx context.Context, caller core.Caller, orderNo string) (*OrderResult, error) {
	order, err := s.orders.ConfirmDelivery(ctx, caller, orderNo)
	if err != nil {
		return nil, err
	}
	return &OrderResult{Order: order}, nil
}

func (s *appService) CreateReturn(ctx context.Context, caller core.Caller, req CreateReturnRequest) (*ReturnResult, error) {
	items := make([]core.ReturnItemInput, len(req.Items))
	for i, it := range req.Items {
		items[i] = core.ReturnItemInput{
			OrderItemID: it.OrderItemID,
			Quantity:    it.Quantity,
			Reason:      it.Reason,
		}
	}
	ret, err := s.returns.CreateReturn(ctx, caller, core.CreateReturnInput{
		OrderNo: req.OrderNo,
		Reason:  req.Reason,
		Items:   items,
	})
	if err != nil {
		return nil, err
	}
	return &ReturnResult{Return: ret}, nil
}

func (s *appService) ReviewReturn(ctx context.Context, caller core.Caller, req ReviewReturnRequest) (*ReturnResult, error) {
	ret, err := s.returns.ReviewReturn(ctx, caller, req.ReturnNo, req.Approve, req.Notes)
	if err != nil {
		return nil, err
	}
	return &ReturnResult{Return: ret}, nil
}

func (s *appService) GetReturn(ctx context.Context, returnNo string) (*ReturnResult, error) {
	ret, err := s.returns.GetReturn(ctx, returnNo)
	if err != nil {
		return nil, err
	}
	return &ReturnResult{Return: ret}, nil
}

func (s *appService) ListReturns(ctx context.Context, req ListReturnsRequest) (*ReturnListResult, error) {
	returns, err := s.returns.ListReturns(ctx, core.ReturnFilter{
		BranchID: req.BranchID,
		OrderNo:  req.OrderNo,
		Status:   req.Status,
	})
	if err != nil {
		return nil, err
	}
	return &ReturnListResult{Returns: returns}, nil
}

func (s *appService) StockLevels(ctx context.Context, branchID *uuid.UUID) (*StockResult, error) {
	records, err := s.inventory.StockLevels(ctx, branchID)
	if err != nil {
		return nil, err
	}
	return &StockResult{Records: records}, nil
}

func (s *appService) AdjustStock(ctx context.Context, caller core.Caller, req AdjustStockRequest) (*StockAdjustResult, error) {
	record, err := s.inventory.AdjustStock(ctx, caller, req.BranchID, req.ProductID, req.Delta, req.Note)
	if err != nil {
		return nil, err
	}
	return &StockAdjustResult{Record: record}, nil
}

func (s *appService) MovementHistory(ctx context.Context, req MovementHistoryRequest) (*MovementListResult, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultMovementLimit
	}

	it := s.inventory.History(core.MovementFilter{
		BranchID:  req.BranchID,
		ProductID: req.ProductID,
		From:      req.From,
		To:        req.To,
	})

	result := &MovementListResult{Movements: make([]core.InventoryMovement, 0, limit)}
	for len(result.Movements) < limit {
		m, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if m == nil {
			return result, nil
		}
		result.Movements = append(result.Movements, *m)
	}
	if m, err := it.Next(ctx); err != nil {
		return nil, err
	} else if m != nil {
		result.HasMore = true
	}
	return result, nil
}

func (s *appService) RecomputeStock(ctx context.Context, branchID, productID uuid.UUID) (*core.RecomputeResult, error) {
	return s.inventory.Recompute(ctx, branchID, productID)
}

func (s *appService) ChefAssignments(ctx context.Context, chefID uuid.UUID) (*AssignmentListResult, error) {
	assignments, err := s.assignments.ListByChef(ctx, chefID)
	if err != nil {
		return nil, err
	}
	return &AssignmentListResult{Assignments: assignments}, nil
}
