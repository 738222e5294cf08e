package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AssignmentService records chef-to-item production assignments. One
// assignment per item is active; re-assignment supersedes the prior record
// without deleting it.
type AssignmentService interface {
	// AssignTx deactivates any active assignment for the item and inserts a
	// new active one, within the caller's transaction.
	AssignTx(ctx context.Context, tx pgx.Tx, a ProductionAssignment) (*ProductionAssignment, error)
	// SyncStatusTx mirrors an item status change onto its active assignment.
	SyncStatusTx(ctx context.Context, tx pgx.Tx, orderItemID uuid.UUID, status ItemStatus, startedAt, completedAt *time.Time) error

	ActiveAssignment(ctx context.Context, orderItemID uuid.UUID) (*ProductionAssignment, error)
	ListByChef(ctx context.Context, chefID uuid.UUID) ([]ProductionAssignment, error)
}

type assignmentService struct {
	pool *pgxpool.Pool
}

func NewAssignmentService(pool *pgxpool.Pool) AssignmentService {
	return &assignmentService{pool: pool}
}

func (s *assignmentService) AssignTx(ctx context.Context, tx pgx.Tx, a ProductionAssignment) (*ProductionAssignment, error) {
	if _, err := tx.Exec(ctx, `
		UPDATE production_assignments
		SET active = false, updated_at = NOW()
		WHERE order_item_id = $1 AND active
	`, a.OrderItemID); err != nil {
		return nil, fmt.Errorf("failed to supersede prior assignment: %w", err)
	}

	a.ID = newUUID()
	a.Active = true
	a.Status = ItemAssigned
	err := tx.QueryRow(ctx, `
		INSERT INTO production_assignments
			(id, order_id, order_item_id, product_id, chef_id, quantity, status, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
		RETURNING created_at, updated_at
	`, a.ID, a.OrderID, a.OrderItemID, a.ProductID, a.ChefID, a.Quantity, string(a.Status)).
		Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert assignment: %w", err)
	}
	return &a, nil
}

func (s *assignmentService) SyncStatusTx(ctx context.Context, tx pgx.Tx, orderItemID uuid.UUID, status ItemStatus, startedAt, completedAt *time.Time) error {
	tag, err := tx.Exec(ctx, `
		UPDATE production_assignments
		SET status = $1,
		    started_at = COALESCE($2, started_at),
		    completed_at = COALESCE($3, completed_at),
		    updated_at = NOW()
		WHERE order_item_id = $4 AND active
	`, string(status), startedAt, completedAt, orderItemID)
	if err != nil {
		return fmt.Errorf("failed to sync assignment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return NotFoundErr("no active assignment for item %s", orderItemID)
	}
	return nil
}

func (s *assignmentService) ActiveAssignment(ctx context.Context, orderItemID uuid.UUID) (*ProductionAssignment, error) {
	a, err := scanAssignment(s.pool.QueryRow(ctx, assignmentSelect+`
		WHERE order_item_id = $1 AND active
	`, orderItemID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundErr("no active assignment for item %s", orderItemID)
		}
		return nil, fmt.Errorf("failed to fetch active assignment: %w", err)
	}
	return a, nil
}

func (s *assignmentService) ListByChef(ctx context.Context, chefID uuid.UUID) ([]ProductionAssignment, error) {
	rows, err := s.pool.Query(ctx, assignmentSelect+`
		WHERE chef_id = $1 AND active
		ORDER BY created_at DESC
	`, chefID)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments for chef %s: %w", chefID, err)
	}
	defer rows.Close()

	var out []ProductionAssignment
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

const assignmentSelect = `
	SELECT id, order_id, order_item_id, product_id, chef_id, quantity, status, active,
	       started_at, completed_at, created_at, updated_at
	FROM production_assignments
`

func scanAssignment(row pgx.Row) (*ProductionAssignment, error) {
	var a ProductionAssignment
	err := row.Scan(&a.ID, &a.OrderID, &a.OrderItemID, &a.ProductID, &a.ChefID, &a.Quantity,
		&a.Status, &a.Active, &a.StartedAt, &a.CompletedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}
