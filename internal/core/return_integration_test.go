package core_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bakehouse/internal/core"
)

func TestReturnLifecycle_Approve(t *testing.T) {
	e, ctx := setupEngine(t)
	e.seedStock(t, ctx, prodCroissant, 100)

	order := e.deliverOrder(t, ctx, croissants(10))
	// delivery took 10 croissants out of branch stock
	if got := e.stockOf(t, ctx, prodCroissant); !got.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("Expected stock 90 after delivery, got %s", got)
	}

	ret, err := e.returns.CreateReturn(ctx, branchCaller, core.CreateReturnInput{
		OrderNo: order.OrderNo,
		Reason:  "over-delivered",
		Items: []core.ReturnItemInput{{
			OrderItemID: order.Items[0].ID,
			Quantity:    decimal.NewFromInt(4),
			Reason:      "surplus",
		}},
	})
	if err != nil {
		t.Fatalf("CreateReturn failed: %v", err)
	}
	if ret.Status != core.ReturnPendingReview {
		t.Errorf("Expected pending, got %s", ret.Status)
	}
	if !strings.HasPrefix(ret.ReturnNo, "RET-") {
		t.Errorf("Expected RET- prefix, got %q", ret.ReturnNo)
	}
	// the filed quantity is held out of stock until review
	if got := e.stockOf(t, ctx, prodCroissant); !got.Equal(decimal.NewFromInt(86)) {
		t.Errorf("Expected stock 86 while pending, got %s", got)
	}

	ret, err = e.returns.ReviewReturn(ctx, prodCaller, ret.ReturnNo, true, "accepted back")
	if err != nil {
		t.Fatalf("ReviewReturn failed: %v", err)
	}
	if ret.Status != core.ReturnApproved {
		t.Errorf("Expected approved, got %s", ret.Status)
	}
	if ret.ReviewedBy == nil || *ret.ReviewedBy != prodCaller.ID {
		t.Errorf("Expected reviewed_by %s, got %+v", prodCaller.ID, ret.ReviewedBy)
	}
	if ret.ReviewedAt == nil {
		t.Error("approved return must have reviewed_at")
	}

	// the hold comes off on approval
	if got := e.stockOf(t, ctx, prodCroissant); !got.Equal(decimal.NewFromInt(90)) {
		t.Errorf("Expected stock 90 after approval, got %s", got)
	}

	order = e.mustGet(t, ctx, order.OrderNo)
	if !order.Items[0].ReturnedQuantity.Equal(decimal.NewFromInt(4)) {
		t.Errorf("Expected returned quantity 4, got %s", order.Items[0].ReturnedQuantity)
	}
	// 10 × 2.50 = 25.00 total, minus 4 × 2.50 returned
	if !order.AdjustedTotal.Equal(decimal.RequireFromString("15.00")) {
		t.Errorf("Expected adjusted total 15.00, got %s", order.AdjustedTotal)
	}
	if !order.TotalAmount.Equal(decimal.RequireFromString("25.00")) {
		t.Errorf("Original total must not change, got %s", order.TotalAmount)
	}

	// the ledger records the hold and its release under distinct actions
	it := e.inventory.History(core.MovementFilter{BranchID: &branchMain, ProductID: &prodCroissant})
	var sawPending, sawApproved bool
	for {
		m, err := it.Next(ctx)
		if err != nil {
			t.Fatalf("History failed: %v", err)
		}
		if m == nil {
			break
		}
		switch m.Action {
		case core.ActionReturnPending:
			sawPending = true
			if m.Direction != core.MovementOut {
				t.Errorf("return-pending must be an out movement")
			}
		case core.ActionReturnApproved:
			sawApproved = true
			if m.Direction != core.MovementIn {
				t.Errorf("return-approved must be an in movement")
			}
			if m.Reference != ret.ReturnNo {
				t.Errorf("Expected movement reference %s, got %s", ret.ReturnNo, m.Reference)
			}
		}
	}
	if !sawPending || !sawApproved {
		t.Error("Expected both return-pending and return-approved movements")
	}

	res, err := e.inventory.Recompute(ctx, branchMain, prodCroissant)
	if err != nil {
		t.Fatalf("Recompute failed: %v", err)
	}
	if !res.Consistent {
		t.Errorf("Stock inconsistent: level %s, movement sum %s", res.CurrentStock, res.MovementTotal)
	}

	// reviews are final
	_, err = e.returns.ReviewReturn(ctx, prodCaller, ret.ReturnNo, false, "changed my mind")
	if !core.IsKind(err, core.KindConflict) {
		t.Errorf("Expected conflict for double review, got %v", err)
	}
}

func TestReturnLifecycle_Reject(t *testing.T) {
	e, ctx := setupEngine(t)
	e.seedStock(t, ctx, prodCroissant, 50)

	order := e.deliverOrder(t, ctx, croissants(8))

	ret, err := e.returns.CreateReturn(ctx, branchCaller, core.CreateReturnInput{
		OrderNo: order.OrderNo,
		Items: []core.ReturnItemInput{{
			OrderItemID: order.Items[0].ID,
			Quantity:    decimal.NewFromInt(3),
			Reason:      "claimed stale",
		}},
	})
	if err != nil {
		t.Fatalf("CreateReturn failed: %v", err)
	}

	ret, err = e.returns.ReviewReturn(ctx, prodCaller, ret.ReturnNo, false, "goods are fine")
	if err != nil {
		t.Fatalf("ReviewReturn failed: %v", err)
	}
	if ret.Status != core.ReturnRejected {
		t.Errorf("Expected rejected, got %s", ret.Status)
	}

	// stock back where it was after delivery: 50 - 8 = 42
	if got := e.stockOf(t, ctx, prodCroissant); !got.Equal(decimal.NewFromInt(42)) {
		t.Errorf("Expected stock 42 after rejection, got %s", got)
	}

	// a rejected return leaves the order untouched
	order = e.mustGet(t, ctx, order.OrderNo)
	if !order.Items[0].ReturnedQuantity.IsZero() {
		t.Errorf("Rejected return must not book returned quantity, got %s", order.Items[0].ReturnedQuantity)
	}
	if !order.AdjustedTotal.Equal(order.TotalAmount) {
		t.Errorf("Rejected return must not adjust the total, got %s", order.AdjustedTotal)
	}
}

func TestCreateReturn_Guards(t *testing.T) {
	e, ctx := setupEngine(t)
	e.seedStock(t, ctx, prodCroissant, 50)

	// only delivered orders accept returns
	pendingOrder, err := e.orders.CreateOrder(ctx, branchCaller, core.CreateOrderInput{
		BranchID:      branchMain,
		RequestedDate: time.Now().UTC(),
		Items:         croissants(5),
	})
	if err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}
	_, err = e.returns.CreateReturn(ctx, branchCaller, core.CreateReturnInput{
		OrderNo: pendingOrder.OrderNo,
		Items: []core.ReturnItemInput{{
			OrderItemID: pendingOrder.Items[0].ID,
			Quantity:    decimal.NewFromInt(1),
		}},
	})
	if !core.IsKind(err, core.KindConflict) {
		t.Errorf("Expected conflict for undelivered order, got %v", err)
	}

	order := e.deliverOrder(t, ctx, croissants(10))
	item := order.Items[0]

	// more than was delivered
	_, err = e.returns.CreateReturn(ctx, branchCaller, core.CreateReturnInput{
		OrderNo: order.OrderNo,
		Items:   []core.ReturnItemInput{{OrderItemID: item.ID, Quantity: decimal.NewFromInt(11)}},
	})
	if !core.IsKind(err, core.KindConflict) {
		t.Errorf("Expected conflict for excess quantity, got %v", err)
	}

	// fractional pieces
	_, err = e.returns.CreateReturn(ctx, branchCaller, core.CreateReturnInput{
		OrderNo: order.OrderNo,
		Items:   []core.ReturnItemInput{{OrderItemID: item.ID, Quantity: decimal.RequireFromString("1.5")}},
	})
	if !core.IsKind(err, core.KindValidation) {
		t.Errorf("Expected validation error for fractional pieces, got %v", err)
	}

	// chefs cannot file returns
	_, err = e.returns.CreateReturn(ctx, chefAmalCaller, core.CreateReturnInput{
		OrderNo: order.OrderNo,
		Items:   []core.ReturnItemInput{{OrderItemID: item.ID, Quantity: decimal.NewFromInt(1)}},
	})
	if !core.IsKind(err, core.KindAuthorization) {
		t.Errorf("Expected authorization error for chef, got %v", err)
	}

	// pending returns count against the returnable balance
	if _, err := e.returns.CreateReturn(ctx, branchCaller, core.CreateReturnInput{
		OrderNo: order.OrderNo,
		Items:   []core.ReturnItemInput{{OrderItemID: item.ID, Quantity: decimal.NewFromInt(7)}},
	}); err != nil {
		t.Fatalf("CreateReturn failed: %v", err)
	}
	_, err = e.returns.CreateReturn(ctx, branchCaller, core.CreateReturnInput{
		OrderNo: order.OrderNo,
		Items:   []core.ReturnItemInput{{OrderItemID: item.ID, Quantity: decimal.NewFromInt(4)}},
	})
	if !core.IsKind(err, core.KindConflict) {
		t.Errorf("Expected conflict for over-committed quantity, got %v", err)
	}
}

func TestCreateReturn_WindowClosed(t *testing.T) {
	e, ctx := setupEngine(t)
	e.seedStock(t, ctx, prodCroissant, 50)

	order := e.deliverOrder(t, ctx, croissants(5))

	// push the delivery beyond the 72-hour window
	if _, err := e.pool.Exec(ctx,
		"UPDATE orders SET delivered_at = NOW() - INTERVAL '80 hours' WHERE order_no = $1",
		order.OrderNo,
	); err != nil {
		t.Fatalf("Failed to age the delivery: %v", err)
	}

	_, err := e.returns.CreateReturn(ctx, branchCaller, core.CreateReturnInput{
		OrderNo: order.OrderNo,
		Items: []core.ReturnItemInput{{
			OrderItemID: order.Items[0].ID,
			Quantity:    decimal.NewFromInt(1),
		}},
	})
	if !core.IsKind(err, core.KindConflict) {
		t.Errorf("Expected conflict for closed window, got %v", err)
	}
}

func TestListReturns_Filter(t *testing.T) {
	e, ctx := setupEngine(t)
	e.seedStock(t, ctx, prodCroissant, 100)

	order := e.deliverOrder(t, ctx, croissants(10))
	ret, err := e.returns.CreateReturn(ctx, branchCaller, core.CreateReturnInput{
		OrderNo: order.OrderNo,
		Items:   []core.ReturnItemInput{{OrderItemID: order.Items[0].ID, Quantity: decimal.NewFromInt(2)}},
	})
	if err != nil {
		t.Fatalf("CreateReturn failed: %v", err)
	}

	pending := core.ReturnPendingReview
	list, err := e.returns.ListReturns(ctx, core.ReturnFilter{BranchID: &branchMain, Status: &pending})
	if err != nil {
		t.Fatalf("ListReturns failed: %v", err)
	}
	if len(list) != 1 || list[0].ReturnNo != ret.ReturnNo {
		t.Errorf("Expected one pending return %s, got %+v", ret.ReturnNo, list)
	}

	approved := core.ReturnApproved
	list, err = e.returns.ListReturns(ctx, core.ReturnFilter{Status: &approved})
	if err != nil {
		t.Fatalf("ListReturns failed: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("Expected no approved returns yet, got %d", len(list))
	}
}
