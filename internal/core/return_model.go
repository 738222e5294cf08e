package core

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// ReturnWindow is how long after delivery a branch may still file a return.
// Compared against server-UTC timestamps only.
const ReturnWindow = 72 * time.Hour

// ReturnStatus is a return request's review state. Approved and rejected are
// terminal: a return is immutable once reviewed.
type ReturnStatus string

const (
	ReturnPendingReview ReturnStatus = "pending"
	ReturnApproved      ReturnStatus = "approved"
	ReturnRejected      ReturnStatus = "rejected"
)

func (s ReturnStatus) String() string { return string(s) }

func (s ReturnStatus) Terminal() bool {
	return s == ReturnApproved || s == ReturnRejected
}

// ReturnItem is one product line within a return request. Its quantity never
// exceeds the originating order item's remaining returnable quantity; the
// bound is re-validated at approval time to guard against concurrent returns.
type ReturnItem struct {
	ID          uuid.UUID       `json:"id"`
	ReturnID    uuid.UUID       `json:"return_id"`
	OrderItemID uuid.UUID       `json:"order_item_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Reason      string          `json:"reason,omitempty"`
}

// Return is a branch-initiated request to send back delivered items within
// the return window.
type Return struct {
	ID          uuid.UUID      `json:"id"`
	ReturnNo    string         `json:"return_no"`
	OrderID     uuid.UUID      `json:"order_id"`
	OrderNo     string         `json:"order_no"`
	BranchID    uuid.UUID      `json:"branch_id"`
	Reason      string         `json:"reason,omitempty"`
	Status      ReturnStatus   `json:"status"`
	ReviewNotes string         `json:"review_notes,omitempty"`
	ReviewedBy  *uuid.UUID     `json:"reviewed_by,omitempty"`
	ReviewedAt  *time.Time     `json:"reviewed_at,omitempty"`
	Items       []ReturnItem   `json:"items"`
	History     []StatusChange `json:"status_history,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// WithinReturnWindow reports whether a return filed at now is still inside
// the window for an order delivered at deliveredAt. Both instants are UTC.
func WithinReturnWindow(deliveredAt, now time.Time) bool {
	return now.Sub(deliveredAt) <= ReturnWindow
}
