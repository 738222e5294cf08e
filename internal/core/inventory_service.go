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

// historyBatchSize is how many movements one iterator fetch pulls.
const historyBatchSize = 100

// InventoryService is the ledger owning per-(branch, product) stock levels and
// their append-only movement history.
//
// Stock mutations are TX-scoped: ReserveTx and ReleaseTx run inside the
// caller's transaction so the stock change commits atomically with the order
// or return mutation that caused it. Every mutation appends exactly one
// movement record.
type InventoryService interface {
	// ReserveTx decrements stock and appends an out movement. Fails with a
	// conflict if the resulting stock would go negative.
	ReserveTx(ctx context.Context, tx pgx.Tx, branchID, productID uuid.UUID, qty decimal.Decimal, action MovementAction, refs StockRefs) error
	// ReleaseTx increments stock and appends an in movement, creating the
	// inventory record on first entry for the (branch, product) pair.
	ReleaseTx(ctx context.Context, tx pgx.Tx, branchID, productID uuid.UUID, qty decimal.Decimal, action MovementAction, refs StockRefs) error

	// AdjustStock applies a signed manual correction in its own transaction.
	// Production or admin only.
	AdjustStock(ctx context.Context, caller Caller, branchID, productID uuid.UUID, delta decimal.Decimal, note string) (*InventoryRecord, error)

	// StockLevels lists inventory records, optionally narrowed to one branch.
	StockLevels(ctx context.Context, branchID *uuid.UUID) ([]InventoryRecord, error)
	// History returns a lazy, restartable iterator over movements matching the
	// filter, newest first.
	History(filter MovementFilter) *MovementIterator
	// Recompute checks that a record's stock equals the running sum of its
	// movement deltas.
	Recompute(ctx context.Context, branchID, productID uuid.UUID) (*RecomputeResult, error)
}

type inventoryService struct {
	pool *pgxpool.Pool
}

func NewInventoryService(pool *pgxpool.Pool) InventoryService {
	return &inventoryService{pool: pool}
}

func (s *inventoryService) ReserveTx(ctx context.Context, tx pgx.Tx, branchID, productID uuid.UUID, qty decimal.Decimal, action MovementAction, refs StockRefs) error {
	if !qty.IsPositive() {
		return ValidationErr("movement quantity must be positive, got %s", qty)
	}

	var recordID uuid.UUID
	var current decimal.Decimal
	err := tx.QueryRow(ctx, `
		SELECT id, current_stock
		FROM inventory_records
		WHERE branch_id = $1 AND product_id = $2
		FOR UPDATE
	`, branchID, productID).Scan(&recordID, &current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ConflictErr("insufficient stock for product %s at branch %s: no stock on record", productID, branchID)
		}
		return fmt.Errorf("failed to lock inventory record: %w", err)
	}

	remaining := current.Sub(qty)
	if remaining.IsNegative() {
		return ConflictErr("insufficient stock for product %s at branch %s: have %s, need %s",
			productID, branchID, current.String(), qty.String())
	}

	if _, err := tx.Exec(ctx, `
		UPDATE inventory_records SET current_stock = $1, updated_at = NOW() WHERE id = $2
	`, remaining, recordID); err != nil {
		return fmt.Errorf("failed to update stock level: %w", err)
	}

	return appendMovementTx(ctx, tx, recordID, branchID, productID, MovementOut, qty, action, refs)
}

func (s *inventoryService) ReleaseTx(ctx context.Context, tx pgx.Tx, branchID, productID uuid.UUID, qty decimal.Decimal, action MovementAction, refs StockRefs) error {
	if !qty.IsPositive() {
		return ValidationErr("movement quantity must be positive, got %s", qty)
	}

	recordID, err := lockOrCreateRecordTx(ctx, tx, branchID, productID)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `
		UPDATE inventory_records SET current_stock = current_stock + $1, updated_at = NOW() WHERE id = $2
	`, qty, recordID); err != nil {
		return fmt.Errorf("failed to update stock level: %w", err)
	}

	return appendMovementTx(ctx, tx, recordID, branchID, productID, MovementIn, qty, action, refs)
}

// lockOrCreateRecordTx returns the record id for (branch, product) with its
// row locked, inserting a zero-stock record on first entry.
func lockOrCreateRecordTx(ctx context.Context, tx pgx.Tx, branchID, productID uuid.UUID) (uuid.UUID, error) {
	var recordID uuid.UUID
	err := tx.QueryRow(ctx, `
		INSERT INTO inventory_records (id, branch_id, product_id, current_stock, min_stock, max_stock)
		VALUES ($1, $2, $3, 0, 0, 0)
		ON CONFLICT (branch_id, product_id) DO UPDATE SET updated_at = NOW()
		RETURNING id
	`, newUUID(), branchID, productID).Scan(&recordID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to upsert inventory record: %w", err)
	}

	// Upsert alone does not hold the lock we need for the read-modify-write.
	if err := tx.QueryRow(ctx,
		"SELECT id FROM inventory_records WHERE id = $1 FOR UPDATE", recordID,
	).Scan(&recordID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to lock inventory record: %w", err)
	}
	return recordID, nil
}

func appendMovementTx(ctx context.Context, tx pgx.Tx, recordID, branchID, productID uuid.UUID, direction MovementDirection, qty decimal.Decimal, action MovementAction, refs StockRefs) error {
	var refID *uuid.UUID
	if refs.ReferenceID != uuid.Nil {
		refID = &refs.ReferenceID
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO inventory_movements
			(id, record_id, branch_id, product_id, direction, quantity, action, reference, reference_type, reference_id, actor_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, newUUID(), recordID, branchID, productID, string(direction), qty, string(action),
		refs.Reference, refs.ReferenceType, refID, refs.ActorID)
	if err != nil {
		return fmt.Errorf("failed to append inventory movement: %w", err)
	}
	return nil
}

func (s *inventoryService) AdjustStock(ctx context.Context, caller Caller, branchID, productID uuid.UUID, delta decimal.Decimal, note string) (*InventoryRecord, error) {
	if !caller.HasRole(RoleProduction, RoleAdmin) {
		return nil, AuthorizationErr("role %s may not adjust stock", caller.Role)
	}
	if delta.IsZero() {
		return nil, ValidationErr("adjustment delta must be non-zero")
	}
	if _, err := productByID(ctx, s.pool, productID); err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	refs := StockRefs{Reference: note, ReferenceType: "adjustment", ActorID: caller.ID}
	if delta.IsPositive() {
		err = s.ReleaseTx(ctx, tx, branchID, productID, delta, ActionAdjustment, refs)
	} else {
		err = s.ReserveTx(ctx, tx, branchID, productID, delta.Neg(), ActionAdjustment, refs)
	}
	if err != nil {
		return nil, err
	}

	var rec InventoryRecord
	err = tx.QueryRow(ctx, `
		SELECT id, branch_id, product_id, current_stock, min_stock, max_stock, created_at, updated_at
		FROM inventory_records
		WHERE branch_id = $1 AND product_id = $2
	`, branchID, productID).Scan(&rec.ID, &rec.BranchID, &rec.ProductID, &rec.CurrentStock,
		&rec.MinStock, &rec.MaxStock, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read adjusted record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit stock adjustment: %w", err)
	}

	log.Info().
		Str("branch_id", branchID.String()).
		Str("product_id", productID.String()).
		Str("delta", delta.String()).
		Msg("stock adjusted")
	return &rec, nil
}

func (s *inventoryService) StockLevels(ctx context.Context, branchID *uuid.UUID) ([]InventoryRecord, error) {
	query := `
		SELECT id, branch_id, product_id, current_stock, min_stock, max_stock, created_at, updated_at
		FROM inventory_records
	`
	args := []any{}
	if branchID != nil {
		query += " WHERE branch_id = $1"
		args = append(args, *branchID)
	}
	query += " ORDER BY branch_id, product_id"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock levels: %w", err)
	}
	defer rows.Close()

	var records []InventoryRecord
	for rows.Next() {
		var rec InventoryRecord
		if err := rows.Scan(&rec.ID, &rec.BranchID, &rec.ProductID, &rec.CurrentStock,
			&rec.MinStock, &rec.MaxStock, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan inventory record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *inventoryService) History(filter MovementFilter) *MovementIterator {
	return &MovementIterator{pool: s.pool, filter: filter}
}

func (s *inventoryService) Recompute(ctx context.Context, branchID, productID uuid.UUID) (*RecomputeResult, error) {
	var res RecomputeResult
	err := s.pool.QueryRow(ctx, `
		SELECT r.id, r.current_stock,
		       COALESCE(SUM(CASE WHEN m.direction = 'in' THEN m.quantity ELSE -m.quantity END), 0)
		FROM inventory_records r
		LEFT JOIN inventory_movements m ON m.record_id = r.id
		WHERE r.branch_id = $1 AND r.product_id = $2
		GROUP BY r.id, r.current_stock
	`, branchID, productID).Scan(&res.RecordID, &res.CurrentStock, &res.MovementTotal)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundErr("no inventory record for product %s at branch %s", productID, branchID)
		}
		return nil, fmt.Errorf("failed to recompute stock: %w", err)
	}
	res.Consistent = res.CurrentStock.Equal(res.MovementTotal)
	return &res, nil
}

// MovementIterator pulls movement history lazily in keyset-paginated batches,
// newest first. It is restartable: Reset rewinds to the beginning.
type MovementIterator struct {
	pool   *pgxpool.Pool
	filter MovementFilter

	batch       []InventoryMovement
	idx         int
	lastCreated time.Time
	lastID      uuid.UUID
	started     bool
	done        bool
}

// Next returns the next movement, or nil when the sequence is exhausted.
func (it *MovementIterator) Next(ctx context.Context) (*InventoryMovement, error) {
	if it.idx >= len(it.batch) {
		if it.done {
			return nil, nil
		}
		if err := it.fetch(ctx); err != nil {
			return nil, err
		}
		if len(it.batch) == 0 {
			return nil, nil
		}
	}
	// Copy out: fetch reuses the batch backing array, so a pointer into it
	// would be overwritten at the next batch boundary.
	m := it.batch[it.idx]
	it.idx++
	return &m, nil
}

// Reset rewinds the iterator so the sequence can be replayed.
func (it *MovementIterator) Reset() {
	it.batch = nil
	it.idx = 0
	it.started = false
	it.done = false
}

func (it *MovementIterator) fetch(ctx context.Context) error {
	query := `
		SELECT id, record_id, branch_id, product_id, direction, quantity, action,
		       reference, reference_type, reference_id, actor_id, created_at
		FROM inventory_movements
		WHERE 1=1
	`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if it.filter.BranchID != nil {
		query += " AND branch_id = " + arg(*it.filter.BranchID)
	}
	if it.filter.ProductID != nil {
		query += " AND product_id = " + arg(*it.filter.ProductID)
	}
	if it.filter.From != nil {
		query += " AND created_at >= " + arg(*it.filter.From)
	}
	if it.filter.To != nil {
		query += " AND created_at <= " + arg(*it.filter.To)
	}
	if it.started {
		query += fmt.Sprintf(" AND (created_at, id) < (%s, %s)", arg(it.lastCreated), arg(it.lastID))
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT %d", historyBatchSize)

	rows, err := it.pool.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to query movement history: %w", err)
	}
	defer rows.Close()

	it.batch = it.batch[:0]
	it.idx = 0
	for rows.Next() {
		var m InventoryMovement
		if err := rows.Scan(&m.ID, &m.RecordID, &m.BranchID, &m.ProductID, &m.Direction, &m.Quantity,
			&m.Action, &m.Reference, &m.ReferenceType, &m.ReferenceID, &m.ActorID, &m.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan movement: %w", err)
		}
		it.batch = append(it.batch, m)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed iterating movements: %w", err)
	}

	if n := len(it.batch); n > 0 {
		it.started = true
		it.lastCreated = it.batch[n-1].CreatedAt
		it.lastID = it.batch[n-1].ID
	}
	if len(it.batch) < historyBatchSize {
		it.done = true
	}
	return nil
}
