package core

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// MovementDirection is the sign of a stock change: in adds, out removes.
type MovementDirection string

const (
	MovementIn  MovementDirection = "in"
	MovementOut MovementDirection = "out"
)

// MovementAction names the business cause of a stock change.
type MovementAction string

const (
	ActionDelivery       MovementAction = "delivery"
	ActionReturnPending  MovementAction = "return-pending"
	ActionReturnApproved MovementAction = "return-approved"
	ActionReturnRejected MovementAction = "return-rejected"
	ActionAdjustment     MovementAction = "adjustment"
	ActionInitial        MovementAction = "initial"
)

// InventoryRecord is the stock level for one (branch, product) pair.
// CurrentStock never goes negative; every mutation appends exactly one movement,
// so the level is always recomputable as the running sum of movement deltas.
type InventoryRecord struct {
	ID           uuid.UUID       `json:"id"`
	BranchID     uuid.UUID       `json:"branch_id"`
	ProductID    uuid.UUID       `json:"product_id"`
	CurrentStock decimal.Decimal `json:"current_stock"`
	MinStock     decimal.Decimal `json:"min_stock"`
	MaxStock     decimal.Decimal `json:"max_stock"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// InventoryMovement is an immutable ledger entry recording one stock change
// and its cause. Movements are append-only: never updated, never deleted.
type InventoryMovement struct {
	ID            uuid.UUID         `json:"id"`
	RecordID      uuid.UUID         `json:"record_id"`
	BranchID      uuid.UUID         `json:"branch_id"`
	ProductID     uuid.UUID         `json:"product_id"`
	Direction     MovementDirection `json:"direction"`
	Quantity      decimal.Decimal   `json:"quantity"`
	Action        MovementAction    `json:"action"`
	Reference     string            `json:"reference,omitempty"`
	ReferenceType string            `json:"reference_type,omitempty"`
	ReferenceID   *uuid.UUID        `json:"reference_id,omitempty"`
	ActorID       uuid.UUID         `json:"actor_id"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Delta is the signed stock effect of the movement.
func (m InventoryMovement) Delta() decimal.Decimal {
	if m.Direction == MovementOut {
		return m.Quantity.Neg()
	}
	return m.Quantity
}

// StockRefs links a movement back to the order, return, or adjustment that
// caused it.
type StockRefs struct {
	Reference     string
	ReferenceType string
	ReferenceID   uuid.UUID
	ActorID       uuid.UUID
}

// MovementFilter narrows a movement history query. Nil fields match everything.
type MovementFilter struct {
	BranchID  *uuid.UUID
	ProductID *uuid.UUID
	From      *time.Time
	To        *time.Time
}

// RecomputeResult reports a stock consistency check for one record.
type RecomputeResult struct {
	RecordID      uuid.UUID       `json:"record_id"`
	CurrentStock  decimal.Decimal `json:"current_stock"`
	MovementTotal decimal.Decimal `json:"movement_total"`
	Consistent    bool            `json:"consistent"`
}
