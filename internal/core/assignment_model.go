package core

import (
	"time"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// ProductionAssignment binds a chef to one order item. Exactly one assignment
// per item is active at a time; re-assignment deactivates the prior record
// instead of deleting it, so the assignment history survives.
type ProductionAssignment struct {
	ID          uuid.UUID       `json:"id"`
	OrderID     uuid.UUID       `json:"order_id"`
	OrderItemID uuid.UUID       `json:"order_item_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ChefID      uuid.UUID       `json:"chef_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	Status      ItemStatus      `json:"status"`
	Active      bool            `json:"active"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DepartmentCompatible reports whether a chef may produce a product.
// A product with no department is unconstrained, as is a chef with no
// department affiliations; otherwise the chef's department set must contain
// the product's department.
func DepartmentCompatible(chef Chef, product Product) bool {
	if product.DepartmentID == nil {
		return true
	}
	if len(chef.DepartmentIDs) == 0 {
		return true
	}
	for _, d := range chef.DepartmentIDs {
		if d == *product.DepartmentID {
			return true
		}
	}
	return false
}
