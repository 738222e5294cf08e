package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// OrderItemInput is one requested product line in a new order.
type OrderItemInput struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
	UnitPrice decimal.Decimal // zero means "use the catalog price"
	Unit      Unit
}

// CreateOrderInput is the input for placing a new order.
type CreateOrderInput struct {
	BranchID      uuid.UUID
	Priority      Priority
	RequestedDate time.Time
	Notes         string
	Items         []OrderItemInput
}

// OrderFilter narrows ListOrders. Nil fields match everything.
type OrderFilter struct {
	BranchID *uuid.UUID
	Status   *OrderStatus
}

// OrderService owns order and order-item status: it validates commands,
// aggregates item statuses into the order status, computes totals, and emits
// the resulting events. Every command runs through the coordinator as one
// atomic unit, with the order row locked for the duration.
type OrderService interface {
	CreateOrder(ctx context.Context, caller Caller, input CreateOrderInput) (*Order, error)
	AssignChef(ctx context.Context, caller Caller, orderNo string, itemID, chefID uuid.UUID) (*Order, error)
	UpdateItemStatus(ctx context.Context, caller Caller, orderNo string, itemID uuid.UUID, newStatus ItemStatus) (*Order, error)
	UpdateOrderStatus(ctx context.Context, caller Caller, orderNo string, newStatus OrderStatus, note string) (*Order, error)
	ConfirmDelivery(ctx context.Context, caller Caller, orderNo string) (*Order, error)

	GetOrder(ctx context.Context, orderNo string) (*Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error)
}

type orderService struct {
	pool        *pgxpool.Pool
	co          *Coordinator
	inventory   InventoryService
	assignments AssignmentService
}

func NewOrderService(pool *pgxpool.Pool, co *Coordinator, inventory InventoryService, assignments AssignmentService) OrderService {
	return &orderService{pool: pool, co: co, inventory: inventory, assignments: assignments}
}

func (s *orderService) CreateOrder(ctx context.Context, caller Caller, input CreateOrderInput) (*Order, error) {
	if !caller.HasRole(RoleBranch, RoleAdmin) {
		return nil, AuthorizationErr("role %s may not create orders", caller.Role)
	}
	if len(input.Items) == 0 {
		return nil, ValidationErr("order must contain at least one item")
	}
	if input.Priority == "" {
		input.Priority = PriorityNormal
	}
	if !input.Priority.Valid() {
		return nil, ValidationErr("unknown priority %q", input.Priority)
	}

	var created *Order
	err := s.co.Run(ctx, func(ctx context.Context, uow *UnitOfWork) error {
		branch, err := branchByID(ctx, uow.Tx, input.BranchID)
		if err != nil {
			return err
		}
		if !branch.IsActive {
			return ValidationErr("branch %s is not active", branch.Code)
		}

		order := &Order{
			ID:            newUUID(),
			BranchID:      input.BranchID,
			OrderedBy:     caller.ID,
			Status:        OrderPending,
			Priority:      input.Priority,
			RequestedDate: input.RequestedDate,
			Notes:         input.Notes,
		}

		for i, in := range input.Items {
			product, err := productByID(ctx, uow.Tx, in.ProductID)
			if err != nil {
				return err
			}
			if !product.IsActive {
				return ValidationErr("item %d: product %s is not active", i+1, product.Code)
			}
			if in.Unit != product.Unit {
				return ValidationErr("item %d: unit %q does not match catalog unit %q for product %s",
					i+1, in.Unit, product.Unit, product.Code)
			}
			if !product.Unit.ValidQuantity(in.Quantity) {
				return ValidationErr("item %d: quantity %s is not valid for unit %q",
					i+1, in.Quantity.String(), product.Unit)
			}
			price := in.UnitPrice
			if price.IsZero() {
				price = product.Price
			}
			if price.IsNegative() {
				return ValidationErr("item %d: unit price cannot be negative", i+1)
			}

			order.Items = append(order.Items, OrderItem{
				ID:               newUUID(),
				OrderID:          order.ID,
				ProductID:        product.ID,
				Quantity:         in.Quantity,
				UnitPrice:        price,
				Unit:             product.Unit,
				Status:           ItemPending,
				ReturnedQuantity: decimal.Zero,
			})
		}

		order.TotalAmount = order.ComputeTotal()
		order.AdjustedTotal = order.TotalAmount

		orderNo, err := nextDocNumberTx(ctx, uow.Tx, "order_sequences", "ORD", time.Now().UTC())
		if err != nil {
			return err
		}
		order.OrderNo = orderNo

		err = uow.Tx.QueryRow(ctx, `
			INSERT INTO orders
				(id, order_no, branch_id, ordered_by, status, priority, requested_date, total_amount, adjusted_total, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			RETURNING created_at, updated_at
		`, order.ID, order.OrderNo, order.BranchID, order.OrderedBy, string(order.Status),
			string(order.Priority), order.RequestedDate, order.TotalAmount, order.AdjustedTotal, order.Notes).
			Scan(&order.CreatedAt, &order.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}

		for _, item := range order.Items {
			if _, err := uow.Tx.Exec(ctx, `
				INSERT INTO order_items
					(id, order_id, product_id, quantity, unit_price, unit, status, returned_quantity)
				VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
			`, item.ID, item.OrderID, item.ProductID, item.Quantity, item.UnitPrice,
				string(item.Unit), string(item.Status)); err != nil {
				return fmt.Errorf("failed to insert order item: %w", err)
			}
		}

		if err := appendOrderHistoryTx(ctx, uow.Tx, order.ID, string(OrderPending), caller.ID, "order created"); err != nil {
			return err
		}

		uow.Emit(NewEvent(EventOrderCreated, OrderEventPayload{
			OrderNo:   order.OrderNo,
			BranchID:  order.BranchID,
			Status:    string(order.Status),
			ChangedBy: caller.ID,
		}))
		created = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("order_no", created.OrderNo).Str("branch_id", created.BranchID.String()).
		Str("total", created.TotalAmount.String()).Msg("order created")
	return s.GetOrder(ctx, created.OrderNo)
}

func (s *orderService) AssignChef(ctx context.Context, caller Caller, orderNo string, itemID, chefID uuid.UUID) (*Order, error) {
	if !caller.HasRole(RoleProduction, RoleAdmin) {
		return nil, AuthorizationErr("role %s may not assign chefs", caller.Role)
	}

	err := s.co.Run(ctx, func(ctx context.Context, uow *UnitOfWork) error {
		order, err := getOrderForUpdateTx(ctx, uow.Tx, orderNo)
		if err != nil {
			return err
		}
		// Production work starts only after approval.
		switch order.Status {
		case OrderApproved, OrderInProduction:
		default:
			return ConflictErr("order %s is %s: items can only be assigned after approval", orderNo, order.Status)
		}

		item := order.Item(itemID)
		if item == nil {
			return NotFoundErr("item %s not found on order %s", itemID, orderNo)
		}
		if item.Status != ItemPending && item.Status != ItemAssigned {
			return ConflictErr("item %s is %s and cannot be re-assigned", itemID, item.Status)
		}

		chef, err := chefByID(ctx, uow.Tx, chefID)
		if err != nil {
			return err
		}
		if !chef.IsActive {
			return ValidationErr("chef %s is not active", chefID)
		}
		product, err := productByID(ctx, uow.Tx, item.ProductID)
		if err != nil {
			return err
		}
		if !DepartmentCompatible(*chef, *product) {
			return ValidationErr("chef %s is not in the department producing %s", chefID, product.Code)
		}

		if _, err := uow.Tx.Exec(ctx, `
			UPDATE order_items SET chef_id = $1, status = $2 WHERE id = $3
		`, chefID, string(ItemAssigned), itemID); err != nil {
			return fmt.Errorf("failed to assign item: %w", err)
		}

		if _, err := s.assignments.AssignTx(ctx, uow.Tx, ProductionAssignment{
			OrderID:     order.ID,
			OrderItemID: itemID,
			ProductID:   item.ProductID,
			ChefID:      chefID,
			Quantity:    item.Quantity,
		}); err != nil {
			return err
		}

		uow.Emit(NewEvent(EventTaskAssigned, TaskEventPayload{
			OrderNo:   order.OrderNo,
			ItemID:    itemID,
			ProductID: item.ProductID,
			ChefID:    chefID,
			Status:    string(ItemAssigned),
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderNo)
}

func (s *orderService) UpdateItemStatus(ctx context.Context, caller Caller, orderNo string, itemID uuid.UUID, newStatus ItemStatus) (*Order, error) {
	if !caller.HasRole(RoleChef) {
		return nil, AuthorizationErr("role %s may not update task status", caller.Role)
	}
	if newStatus != ItemInProgress && newStatus != ItemCompleted {
		return nil, ValidationErr("item status %q cannot be set by a chef", newStatus)
	}

	err := s.co.Run(ctx, func(ctx context.Context, uow *UnitOfWork) error {
		order, err := getOrderForUpdateTx(ctx, uow.Tx, orderNo)
		if err != nil {
			return err
		}
		item := order.Item(itemID)
		if item == nil {
			return NotFoundErr("item %s not found on order %s", itemID, orderNo)
		}
		if item.ChefID == nil || *item.ChefID != caller.ID {
			return AuthorizationErr("only the assigned chef may update item %s", itemID)
		}
		if !item.Status.CanTransitionTo(newStatus) {
			return ConflictErr("item %s cannot move from %s to %s", itemID, item.Status, newStatus)
		}

		now := time.Now().UTC()
		var startedAt, completedAt *time.Time
		switch newStatus {
		case ItemInProgress:
			startedAt = &now
		case ItemCompleted:
			completedAt = &now
		}

		if _, err := uow.Tx.Exec(ctx, `
			UPDATE order_items
			SET status = $1,
			    started_at = COALESCE($2, started_at),
			    completed_at = COALESCE($3, completed_at)
			WHERE id = $4
		`, string(newStatus), startedAt, completedAt, itemID); err != nil {
			return fmt.Errorf("failed to update item status: %w", err)
		}
		item.Status = newStatus

		if err := s.assignments.SyncStatusTx(ctx, uow.Tx, itemID, newStatus, startedAt, completedAt); err != nil {
			return err
		}

		uow.Emit(NewEvent(EventTaskStatusUpdated, TaskEventPayload{
			OrderNo:   order.OrderNo,
			ItemID:    itemID,
			ProductID: item.ProductID,
			ChefID:    caller.ID,
			Status:    string(newStatus),
		}))

		// Derive the order status from the combined item view, still under the
		// order row lock so concurrent item updates cannot race this read.
		switch {
		case newStatus == ItemInProgress && order.Status == OrderApproved:
			return s.transitionOrderTx(ctx, uow, order, OrderInProduction, caller.ID, "production started")
		case newStatus == ItemCompleted && order.AllItemsCompleted():
			switch order.Status {
			case OrderCompleted, OrderInTransit, OrderDelivered, OrderCancelled:
				return nil
			}
			return s.transitionOrderTx(ctx, uow, order, OrderCompleted, caller.ID, "all items completed")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderNo)
}

func (s *orderService) UpdateOrderStatus(ctx context.Context, caller Caller, orderNo string, newStatus OrderStatus, note string) (*Order, error) {
	if !caller.HasRole(RoleProduction, RoleAdmin) {
		return nil, AuthorizationErr("role %s may not update order status", caller.Role)
	}
	switch newStatus {
	case OrderApproved, OrderInTransit, OrderCancelled:
	default:
		return nil, ValidationErr("order status %q cannot be set directly", newStatus)
	}

	err := s.co.Run(ctx, func(ctx context.Context, uow *UnitOfWork) error {
		order, err := getOrderForUpdateTx(ctx, uow.Tx, orderNo)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(newStatus) {
			return ConflictErr("order %s cannot move from %s to %s", orderNo, order.Status, newStatus)
		}
		return s.transitionOrderTx(ctx, uow, order, newStatus, caller.ID, note)
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderNo)
}

func (s *orderService) ConfirmDelivery(ctx context.Context, caller Caller, orderNo string) (*Order, error) {
	if !caller.HasRole(RoleBranch, RoleAdmin) {
		return nil, AuthorizationErr("role %s may not confirm delivery", caller.Role)
	}

	err := s.co.Run(ctx, func(ctx context.Context, uow *UnitOfWork) error {
		order, err := getOrderForUpdateTx(ctx, uow.Tx, orderNo)
		if err != nil {
			return err
		}
		if order.Status != OrderInTransit {
			return ConflictErr("order %s cannot be delivered: status is %s (must be %s)",
				orderNo, order.Status, OrderInTransit)
		}

		// All-or-nothing: one short line aborts the whole confirmation.
		refs := StockRefs{
			Reference:     order.OrderNo,
			ReferenceType: "order",
			ReferenceID:   order.ID,
			ActorID:       caller.ID,
		}
		for _, item := range order.Items {
			if err := s.inventory.ReserveTx(ctx, uow.Tx, order.BranchID, item.ProductID, item.Quantity, ActionDelivery, refs); err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		if _, err := uow.Tx.Exec(ctx, `
			UPDATE orders SET delivered_at = $1 WHERE id = $2
		`, now, order.ID); err != nil {
			return fmt.Errorf("failed to set delivery timestamp: %w", err)
		}
		return s.transitionOrderTx(ctx, uow, order, OrderDelivered, caller.ID, "delivery confirmed")
	})
	if err != nil {
		return nil, err
	}
	return s.GetOrder(ctx, orderNo)
}

// transitionOrderTx writes the new status, appends the history entry, and
// emits orderStatusUpdated. The caller has already validated the transition.
func (s *orderService) transitionOrderTx(ctx context.Context, uow *UnitOfWork, order *Order, newStatus OrderStatus, changedBy uuid.UUID, note string) error {
	if _, err := uow.Tx.Exec(ctx, `
		UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2
	`, string(newStatus), order.ID); err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	if err := appendOrderHistoryTx(ctx, uow.Tx, order.ID, string(newStatus), changedBy, note); err != nil {
		return err
	}
	log.Info().Str("order_no", order.OrderNo).
		Str("from", string(order.Status)).Str("to", string(newStatus)).
		Msg("order status updated")
	order.Status = newStatus

	uow.Emit(NewEvent(EventOrderStatusUpdated, OrderEventPayload{
		OrderNo:   order.OrderNo,
		BranchID:  order.BranchID,
		Status:    string(newStatus),
		ChangedBy: changedBy,
	}))
	return nil
}

func appendOrderHistoryTx(ctx context.Context, tx pgx.Tx, orderID uuid.UUID, status string, changedBy uuid.UUID, note string) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO order_status_history (id, order_id, status, changed_by, note)
		VALUES ($1, $2, $3, $4, $5)
	`, newUUID(), orderID, status, changedBy, note); err != nil {
		return fmt.Errorf("failed to append order status history: %w", err)
	}
	return nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *orderService) GetOrder(ctx context.Context, orderNo string) (*Order, error) {
	return getOrderByNo(ctx, s.pool, orderNo, false)
}

func (s *orderService) ListOrders(ctx context.Context, filter OrderFilter) ([]Order, error) {
	query := orderSelect
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	query += " WHERE 1=1"
	if filter.BranchID != nil {
		query += " AND branch_id = " + arg(*filter.BranchID)
	}
	if filter.Status != nil {
		query += " AND status = " + arg(string(*filter.Status))
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating orders: %w", err)
	}

	for i := range orders {
		if err := loadOrderChildren(ctx, s.pool, &orders[i], false); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

const orderSelect = `
	SELECT id, order_no, branch_id, ordered_by, status, priority, requested_date,
	       total_amount, adjusted_total, notes, delivered_at, created_at, updated_at
	FROM orders
`

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OrderNo, &o.BranchID, &o.OrderedBy, &o.Status, &o.Priority,
		&o.RequestedDate, &o.TotalAmount, &o.AdjustedTotal, &o.Notes, &o.DeliveredAt,
		&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// getOrderForUpdateTx locks the order header row for the rest of the
// transaction, serializing every concurrent command against this order.
func getOrderForUpdateTx(ctx context.Context, tx pgx.Tx, orderNo string) (*Order, error) {
	return getOrderByNo(ctx, tx, orderNo, true)
}

func getOrderByNo(ctx context.Context, q querier, orderNo string, forUpdate bool) (*Order, error) {
	query := orderSelect + " WHERE order_no = $1"
	if forUpdate {
		query += " FOR UPDATE"
	}
	o, err := scanOrder(q.QueryRow(ctx, query, orderNo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundErr("order %s not found", orderNo)
		}
		return nil, fmt.Errorf("failed to fetch order %s: %w", orderNo, err)
	}
	if err := loadOrderChildren(ctx, q, o, true); err != nil {
		return nil, err
	}
	return o, nil
}

func loadOrderChildren(ctx context.Context, q querier, o *Order, withHistory bool) error {
	rows, err := q.Query(ctx, `
		SELECT id, order_id, product_id, quantity, unit_price, unit, status, chef_id,
		       started_at, completed_at, returned_quantity, return_reason
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at, id
	`, o.ID)
	if err != nil {
		return fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	o.Items = o.Items[:0]
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &item.UnitPrice,
			&item.Unit, &item.Status, &item.ChefID, &item.StartedAt, &item.CompletedAt,
			&item.ReturnedQuantity, &item.ReturnReason); err != nil {
			return fmt.Errorf("failed to scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed iterating order items: %w", err)
	}

	if !withHistory {
		return nil
	}
	hrows, err := q.Query(ctx, `
		SELECT status, changed_by, note, changed_at
		FROM order_status_history
		WHERE order_id = $1
		ORDER BY changed_at, id
	`, o.ID)
	if err != nil {
		return fmt.Errorf("failed to query order history: %w", err)
	}
	defer hrows.Close()

	o.History = o.History[:0]
	for hrows.Next() {
		var h StatusChange
		if err := hrows.Scan(&h.Status, &h.ChangedBy, &h.Note, &h.ChangedAt); err != nil {
			return fmt.Errorf("failed to scan order history entry: %w", err)
		}
		o.History = append(o.History, h)
	}
	return hrows.Err()
}
