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

// ReturnItemInput is one line of a return request.
type ReturnItemInput struct {
	OrderItemID uuid.UUID
	Quantity    decimal.Decimal
	Reason      string
}

// CreateReturnInput is the input for filing a return against a delivered order.
type CreateReturnInput struct {
	OrderNo string
	Reason  string
	Items   []ReturnItemInput
}

// ReturnFilter narrows ListReturns. Nil fields match everything.
type ReturnFilter struct {
	BranchID *uuid.UUID
	OrderNo  *string
	Status   *ReturnStatus
}

// ReturnService handles the return lifecycle: a branch files a return against
// a delivered order inside the return window, and production reviews it.
// Filing puts the quantities on hold in the ledger; review releases the hold
// with an action recording the outcome, so stock always equals the running sum
// of movement deltas. Approval additionally books the returned quantity onto
// the order and recomputes its adjusted total.
type ReturnService interface {
	CreateReturn(ctx context.Context, caller Caller, input CreateReturnInput) (*Return, error)
	ReviewReturn(ctx context.Context, caller Caller, returnNo string, approve bool, notes string) (*Return, error)

	GetReturn(ctx context.Context, returnNo string) (*Return, error)
	ListReturns(ctx context.Context, filter ReturnFilter) ([]Return, error)
}

type returnService struct {
	pool      *pgxpool.Pool
	co        *Coordinator
	inventory InventoryService
}

func NewReturnService(pool *pgxpool.Pool, co *Coordinator, inventory InventoryService) ReturnService {
	return &returnService{pool: pool, co: co, inventory: inventory}
}

func (s *returnService) CreateReturn(ctx context.Context, caller Caller, input CreateReturnInput) (*Return, error) {
	if !caller.HasRole(RoleBranch, RoleAdmin) {
		return nil, AuthorizationErr("role %s may not file returns", caller.Role)
	}
	if len(input.Items) == 0 {
		return nil, ValidationErr("return must contain at least one item")
	}

	var returnNo string
	err := s.co.Run(ctx, func(ctx context.Context, uow *UnitOfWork) error {
		order, err := getOrderForUpdateTx(ctx, uow.Tx, input.OrderNo)
		if err != nil {
			return err
		}
		if order.Status != OrderDelivered || order.DeliveredAt == nil {
			return ConflictErr("order %s is %s: only delivered orders accept returns", order.OrderNo, order.Status)
		}
		now := time.Now().UTC()
		if !WithinReturnWindow(*order.DeliveredAt, now) {
			return ConflictErr("return window for order %s closed at %s",
				order.OrderNo, order.DeliveredAt.Add(ReturnWindow).Format(time.RFC3339))
		}

		ret := &Return{
			ID:       newUUID(),
			OrderID:  order.ID,
			OrderNo:  order.OrderNo,
			BranchID: order.BranchID,
			Reason:   input.Reason,
			Status:   ReturnPendingReview,
		}

		seen := make(map[uuid.UUID]bool, len(input.Items))
		for i, in := range input.Items {
			if seen[in.OrderItemID] {
				return ValidationErr("item %d: order item %s listed twice", i+1, in.OrderItemID)
			}
			seen[in.OrderItemID] = true

			item := order.Item(in.OrderItemID)
			if item == nil {
				return NotFoundErr("order item %s not found on order %s", in.OrderItemID, order.OrderNo)
			}
			if !in.Quantity.IsPositive() {
				return ValidationErr("item %d: return quantity must be positive", i+1)
			}
			if !item.Unit.ValidQuantity(in.Quantity) {
				return ValidationErr("item %d: quantity %s is not valid for unit %q",
					i+1, in.Quantity.String(), item.Unit)
			}

			pending, err := pendingReturnQuantityTx(ctx, uow.Tx, in.OrderItemID)
			if err != nil {
				return err
			}
			available := item.ReturnableQuantity().Sub(pending)
			if in.Quantity.GreaterThan(available) {
				return ConflictErr("item %d: quantity %s exceeds returnable %s (delivered %s, returned %s, pending %s)",
					i+1, in.Quantity.String(), available.String(),
					item.Quantity.String(), item.ReturnedQuantity.String(), pending.String())
			}

			ret.Items = append(ret.Items, ReturnItem{
				ID:          newUUID(),
				ReturnID:    ret.ID,
				OrderItemID: item.ID,
				ProductID:   item.ProductID,
				Quantity:    in.Quantity,
				Reason:      in.Reason,
			})
		}

		ret.ReturnNo, err = nextDocNumberTx(ctx, uow.Tx, "return_sequences", "RET", now)
		if err != nil {
			return err
		}

		err = uow.Tx.QueryRow(ctx, `
			INSERT INTO returns (id, return_no, order_id, branch_id, reason, status)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at, updated_at
		`, ret.ID, ret.ReturnNo, ret.OrderID, ret.BranchID, ret.Reason, string(ret.Status)).
			Scan(&ret.CreatedAt, &ret.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert return: %w", err)
		}

		refs := StockRefs{
			Reference:     ret.ReturnNo,
			ReferenceType: "return",
			ReferenceID:   ret.ID,
			ActorID:       caller.ID,
		}
		for _, item := range ret.Items {
			if _, err := uow.Tx.Exec(ctx, `
				INSERT INTO return_items (id, return_id, order_item_id, product_id, quantity, reason)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, item.ID, item.ReturnID, item.OrderItemID, item.ProductID, item.Quantity, item.Reason); err != nil {
				return fmt.Errorf("failed to insert return item: %w", err)
			}
			// Hold the quantity in the ledger until review decides its fate.
			if err := s.inventory.ReserveTx(ctx, uow.Tx, ret.BranchID, item.ProductID, item.Quantity, ActionReturnPending, refs); err != nil {
				return err
			}
		}

		if err := appendReturnHistoryTx(ctx, uow.Tx, ret.ID, string(ReturnPendingReview), caller.ID, "return filed"); err != nil {
			return err
		}

		uow.Emit(NewEvent(EventReturnCreated, ReturnEventPayload{
			ReturnNo:  ret.ReturnNo,
			OrderNo:   ret.OrderNo,
			BranchID:  ret.BranchID,
			Status:    string(ret.Status),
			ChangedBy: caller.ID,
		}))
		returnNo = ret.ReturnNo
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("return_no", returnNo).Str("order_no", input.OrderNo).Msg("return filed")
	return s.GetReturn(ctx, returnNo)
}

func (s *returnService) ReviewReturn(ctx context.Context, caller Caller, returnNo string, approve bool, notes string) (*Return, error) {
	if !caller.HasRole(RoleProduction, RoleAdmin) {
		return nil, AuthorizationErr("role %s may not review returns", caller.Role)
	}

	err := s.co.Run(ctx, func(ctx context.Context, uow *UnitOfWork) error {
		ret, err := getReturnForUpdateTx(ctx, uow.Tx, returnNo)
		if err != nil {
			return err
		}
		if ret.Status.Terminal() {
			return ConflictErr("return %s already reviewed: status is %s", returnNo, ret.Status)
		}

		order, err := getOrderForUpdateTx(ctx, uow.Tx, ret.OrderNo)
		if err != nil {
			return err
		}

		newStatus := ReturnRejected
		action := ActionReturnRejected
		if approve {
			newStatus = ReturnApproved
			action = ActionReturnApproved
		}

		refs := StockRefs{
			Reference:     ret.ReturnNo,
			ReferenceType: "return",
			ReferenceID:   ret.ID,
			ActorID:       caller.ID,
		}
		for _, item := range ret.Items {
			// The hold taken at filing time comes off either way; only the
			// movement action records whether the goods went back to the
			// factory or back onto the branch shelf.
			if err := s.inventory.ReleaseTx(ctx, uow.Tx, ret.BranchID, item.ProductID, item.Quantity, action, refs); err != nil {
				return err
			}

			if !approve {
				continue
			}
			orderItem := order.Item(item.OrderItemID)
			if orderItem == nil {
				return NotFoundErr("order item %s not found on order %s", item.OrderItemID, order.OrderNo)
			}
			if item.Quantity.GreaterThan(orderItem.ReturnableQuantity()) {
				return ConflictErr("item %s: quantity %s exceeds remaining returnable %s",
					item.OrderItemID, item.Quantity.String(), orderItem.ReturnableQuantity().String())
			}
			orderItem.ReturnedQuantity = orderItem.ReturnedQuantity.Add(item.Quantity)
			if _, err := uow.Tx.Exec(ctx, `
				UPDATE order_items SET returned_quantity = $1, return_reason = $2 WHERE id = $3
			`, orderItem.ReturnedQuantity, item.Reason, orderItem.ID); err != nil {
				return fmt.Errorf("failed to book returned quantity: %w", err)
			}
		}

		if approve {
			order.AdjustedTotal = order.ComputeAdjustedTotal()
			if _, err := uow.Tx.Exec(ctx, `
				UPDATE orders SET adjusted_total = $1, updated_at = NOW() WHERE id = $2
			`, order.AdjustedTotal, order.ID); err != nil {
				return fmt.Errorf("failed to update adjusted total: %w", err)
			}
		}

		now := time.Now().UTC()
		if _, err := uow.Tx.Exec(ctx, `
			UPDATE returns
			SET status = $1, review_notes = $2, reviewed_by = $3, reviewed_at = $4, updated_at = NOW()
			WHERE id = $5
		`, string(newStatus), notes, caller.ID, now, ret.ID); err != nil {
			return fmt.Errorf("failed to update return status: %w", err)
		}
		if err := appendReturnHistoryTx(ctx, uow.Tx, ret.ID, string(newStatus), caller.ID, notes); err != nil {
			return err
		}

		log.Info().Str("return_no", ret.ReturnNo).Str("status", string(newStatus)).Msg("return reviewed")

		uow.Emit(NewEvent(EventReturnStatusUpdated, ReturnEventPayload{
			ReturnNo:  ret.ReturnNo,
			OrderNo:   ret.OrderNo,
			BranchID:  ret.BranchID,
			Status:    string(newStatus),
			ChangedBy: caller.ID,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetReturn(ctx, returnNo)
}

// pendingReturnQuantityTx sums quantities of this order item held by returns
// still awaiting review.
func pendingReturnQuantityTx(ctx context.Context, tx pgx.Tx, orderItemID uuid.UUID) (decimal.Decimal, error) {
	var pending decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(ri.quantity), 0)
		FROM return_items ri
		JOIN returns r ON r.id = ri.return_id
		WHERE ri.order_item_id = $1 AND r.status = $2
	`, orderItemID, string(ReturnPendingReview)).Scan(&pending)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum pending returns: %w", err)
	}
	return pending, nil
}

func appendReturnHistoryTx(ctx context.Context, tx pgx.Tx, returnID uuid.UUID, status string, changedBy uuid.UUID, note string) error {
	if _, err := tx.Exec(ctx, `
		INSERT INTO return_status_history (id, return_id, status, changed_by, note)
		VALUES ($1, $2, $3, $4, $5)
	`, newUUID(), returnID, status, changedBy, note); err != nil {
		return fmt.Errorf("failed to append return status history: %w", err)
	}
	return nil
}

// ── Reads ─────────────────────────────────────────────────────────────────────

func (s *returnService) GetReturn(ctx context.Context, returnNo string) (*Return, error) {
	return getReturnByNo(ctx, s.pool, returnNo, false)
}

func (s *returnService) ListReturns(ctx context.Context, filter ReturnFilter) ([]Return, error) {
	query := returnSelect
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	query += " WHERE 1=1"
	if filter.BranchID != nil {
		query += " AND r.branch_id = " + arg(*filter.BranchID)
	}
	if filter.OrderNo != nil {
		query += " AND o.order_no = " + arg(*filter.OrderNo)
	}
	if filter.Status != nil {
		query += " AND r.status = " + arg(string(*filter.Status))
	}
	query += " ORDER BY r.created_at DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query returns: %w", err)
	}
	defer rows.Close()

	var returns []Return
	for rows.Next() {
		r, err := scanReturn(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan return: %w", err)
		}
		returns = append(returns, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating returns: %w", err)
	}

	for i := range returns {
		if err := loadReturnChildren(ctx, s.pool, &returns[i], false); err != nil {
			return nil, err
		}
	}
	return returns, nil
}

const returnSelect = `
	SELECT r.id, r.return_no, r.order_id, o.order_no, r.branch_id, r.reason, r.status,
	       r.review_notes, r.reviewed_by, r.reviewed_at, r.created_at, r.updated_at
	FROM returns r
	JOIN orders o ON o.id = r.order_id
`

func scanReturn(row pgx.Row) (*Return, error) {
	var r Return
	err := row.Scan(&r.ID, &r.ReturnNo, &r.OrderID, &r.OrderNo, &r.BranchID, &r.Reason, &r.Status,
		&r.ReviewNotes, &r.ReviewedBy, &r.ReviewedAt, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func getReturnForUpdateTx(ctx context.Context, tx pgx.Tx, returnNo string) (*Return, error) {
	return getReturnByNo(ctx, tx, returnNo, true)
}

func getReturnByNo(ctx context.Context, q querier, returnNo string, forUpdate bool) (*Return, error) {
	query := returnSelect + " WHERE r.return_no = $1"
	if forUpdate {
		query += " FOR UPDATE OF r"
	}
	r, err := scanReturn(q.QueryRow(ctx, query, returnNo))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundErr("return %s not found", returnNo)
		}
		return nil, fmt.Errorf("failed to fetch return %s: %w", returnNo, err)
	}
	if err := loadReturnChildren(ctx, q, r, true); err != nil {
		return nil, err
	}
	return r, nil
}

func loadReturnChildren(ctx context.Context, q querier, r *Return, withHistory bool) error {
	rows, err := q.Query(ctx, `
		SELECT id, return_id, order_item_id, product_id, quantity, reason
		FROM return_items
		WHERE return_id = $1
		ORDER BY id
	`, r.ID)
	if err != nil {
		return fmt.Errorf("failed to query return items: %w", err)
	}
	defer rows.Close()

	r.Items = r.Items[:0]
	for rows.Next() {
		var item ReturnItem
		if err := rows.Scan(&item.ID, &item.ReturnID, &item.OrderItemID, &item.ProductID,
			&item.Quantity, &item.Reason); err != nil {
			return fmt.Errorf("failed to scan return item: %w", err)
		}
		r.Items = append(r.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed iterating return items: %w", err)
	}

	if !withHistory {
		return nil
	}
	hrows, err := q.Query(ctx, `
		SELECT status, changed_by, note, changed_at
		FROM return_status_history
		WHERE return_id = $1
		ORDER BY changed_at, id
	`, r.ID)
	if err != nil {
		return fmt.Errorf("failed to query return history: %w", err)
	}
	defer hrows.Close()

	r.History = r.History[:0]
	for hrows.Next() {
		var h StatusChange
		if err := hrows.Scan(&h.Status, &h.ChangedBy, &h.Note, &h.ChangedAt); err != nil {
			return fmt.Errorf("failed to scan return history entry: %w", err)
		}
		r.History = append(r.History, h)
	}
	return hrows.Err()
}
