package core_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"bakehouse/internal/core"
)

func TestAdjustStock(t *testing.T) {
	e, ctx := setupEngine(t)

	rec, err := e.inventory.AdjustStock(ctx, prodCaller, branchMain, prodCroissant, decimal.NewFromInt(25), "opening count")
	if err != nil {
		t.Fatalf("AdjustStock failed: %v", err)
	}
	if !rec.CurrentStock.Equal(decimal.NewFromInt(25)) {
		t.Errorf("Expected stock 25, got %s", rec.CurrentStock)
	}

	rec, err = e.inventory.AdjustStock(ctx, prodCaller, branchMain, prodCroissant, decimal.NewFromInt(-10), "damage write-off")
	if err != nil {
		t.Fatalf("AdjustStock failed: %v", err)
	}
	if !rec.CurrentStock.Equal(decimal.NewFromInt(15)) {
		t.Errorf("Expected stock 15, got %s", rec.CurrentStock)
	}

	// stock never goes negative
	_, err = e.inventory.AdjustStock(ctx, prodCaller, branchMain, prodCroissant, decimal.NewFromInt(-20), "bad count")
	if !core.IsKind(err, core.KindConflict) {
		t.Errorf("Expected conflict for negative stock, got %v", err)
	}

	// zero delta is meaningless
	_, err = e.inventory.AdjustStock(ctx, prodCaller, branchMain, prodCroissant, decimal.Zero, "noop")
	if !core.IsKind(err, core.KindValidation) {
		t.Errorf("Expected validation error for zero delta, got %v", err)
	}

	// branches cannot touch stock directly
	_, err = e.inventory.AdjustStock(ctx, branchCaller, branchMain, prodCroissant, decimal.NewFromInt(5), "")
	if !core.IsKind(err, core.KindAuthorization) {
		t.Errorf("Expected authorization error for branch caller, got %v", err)
	}

	res, err := e.inventory.Recompute(ctx, branchMain, prodCroissant)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if !res.Consistent {
		t.Errorf("Stock inconsistent: level %s, movement sum %s", res.CurrentStock, res.MovementTotal)
	}
}

func TestMovementIterator(t *testing.T) {
	e, ctx := setupEngine(t)

	// seven adjustments, one movement each
	for i := 1; i <= 7; i++ {
		e.seedStock(t, ctx, prodCroissant, int64(i))
	}

	it := e.inventory.History(core.MovementFilter{BranchID: &branchMain, ProductID: &prodCroissant})
	var count int
	var prev *core.InventoryMovement
	for {
		m, err := it.Next(ctx)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if m == nil {
			break
		}
		if prev != nil && m.CreatedAt.After(prev.CreatedAt) {
			t.Errorf("Expected newest-first ordering")
		}
		prev = m
		count++
	}
	if count != 7 {
		t.Errorf("Expected 7 movements, got %d", count)
	}

	// Reset replays the sequence from the start
	it.Reset()
	m, err := it.Next(ctx)
	if err != nil {
		t.Fatalf("Next after Reset failed: %v", err)
	}
	if m == nil {
		t.Fatal("Expected a movement after Reset")
	}
	if !m.Quantity.Equal(decimal.NewFromInt(7)) {
		t.Errorf("Expected newest movement quantity 7, got %s", m.Quantity)
	}
}

func TestMovementIterator_BatchBoundary(t *testing.T) {
	e, ctx := setupEngine(t)
	e.seedStock(t, ctx, prodCroissant, 1)

	// enough ledger rows to span more than one fetch batch
	if _, err := e.pool.Exec(ctx, `
		INSERT INTO inventory_movements
			(id, record_id, branch_id, product_id, direction, quantity, action, actor_id, created_at)
		SELECT gen_random_uuid(), r.id, r.branch_id, r.product_id, 'in', gs, 'adjustment', $1,
		       NOW() - (gs * interval '1 second')
		FROM inventory_records r, generate_series(1, 119) gs
		WHERE r.branch_id = $2 AND r.product_id = $3
	`, adminCaller.ID, branchMain, prodCroissant); err != nil {
		t.Fatalf("Failed to seed movements: %v", err)
	}

	it := e.inventory.History(core.MovementFilter{BranchID: &branchMain, ProductID: &prodCroissant})
	var held []*core.InventoryMovement
	for {
		m, err := it.Next(ctx)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		if m == nil {
			break
		}
		held = append(held, m)
	}
	if len(held) != 120 {
		t.Fatalf("Expected 120 movements, got %d", len(held))
	}

	// pointers handed out before a batch refill must keep their values
	seen := make(map[string]bool, len(held))
	for _, m := range held {
		if seen[m.ID.String()] {
			t.Fatalf("Movement %s returned twice: an earlier result was overwritten", m.ID)
		}
		seen[m.ID.String()] = true
	}
}

func TestRecompute_UnknownRecord(t *testing.T) {
	e, ctx := setupEngine(t)

	_, err := e.inventory.Recompute(ctx, branchMain, prodCroissant)
	if !core.IsKind(err, core.KindNotFound) {
		t.Errorf("Expected not found for missing record, got %v", err)
	}
}
