package core

import (
	"context"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Role is the caller's role as established by the external auth collaborator.
// The engine trusts the role it is handed; it never authenticates.
type Role string

const (
	RoleBranch     Role = "branch"
	RoleChef       Role = "chef"
	RoleProduction Role = "production"
	RoleAdmin      Role = "admin"
)

// Caller identifies who is executing a command.
type Caller struct {
	ID   uuid.UUID
	Role Role
}

// HasRole reports whether the caller holds one of the given roles.
func (c Caller) HasRole(roles ...Role) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}

// BilingualText is a display name carried in two languages. Secondary is
// optional; Display falls back to Primary when it is empty.
type BilingualText struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary,omitempty"`
}

func (t BilingualText) Display(secondary bool) string {
	if secondary && t.Secondary != "" {
		return t.Secondary
	}
	return t.Primary
}

// Unit is a product's unit of measure. Counted units require whole-number
// quantities; weight units allow fractions.
type Unit string

const (
	UnitPiece Unit = "piece"
	UnitPack  Unit = "pack"
	UnitTray  Unit = "tray"
	UnitKilo  Unit = "kilo"
)

func (u Unit) Valid() bool {
	switch u {
	case UnitPiece, UnitPack, UnitTray, UnitKilo:
		return true
	}
	return false
}

// Counted reports whether quantities in this unit must be integers.
func (u Unit) Counted() bool {
	return u != UnitKilo
}

// ValidQuantity checks that qty is positive and, for counted units, integral.
func (u Unit) ValidQuantity(qty decimal.Decimal) bool {
	if !qty.IsPositive() {
		return false
	}
	if u.Counted() && !qty.Equal(qty.Truncate(0)) {
		return false
	}
	return true
}

// ── Catalog read models ───────────────────────────────────────────────────────
//
// Branches, departments, chefs, and products are owned by an external catalog
// subsystem. The engine reads them and never writes them.

type Branch struct {
	ID       uuid.UUID
	Code     string
	Name     BilingualText
	IsActive bool
}

type Department struct {
	ID   uuid.UUID
	Code string
	Name BilingualText
}

// Chef is a production worker. An empty DepartmentIDs set means the chef is
// unconstrained and may produce any product.
type Chef struct {
	ID            uuid.UUID
	Name          string
	DepartmentIDs []uuid.UUID
	IsActive      bool
}

// Product carries the catalog facts the engine validates against: the declared
// unit of measure, the owning department (nil means unconstrained), and the
// list price.
type Product struct {
	ID           uuid.UUID
	Code         string
	Name         BilingualText
	Unit         Unit
	DepartmentID *uuid.UUID
	Price        decimal.Decimal
	IsActive     bool
}

// StatusChange is one entry in an order's or return's append-only status history.
type StatusChange struct {
	Status    string    `json:"status"`
	ChangedBy uuid.UUID `json:"changed_by"`
	Note      string    `json:"note,omitempty"`
	ChangedAt time.Time `json:"changed_at"`
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx, enabling shared
// lookup helpers inside and outside a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func newUUID() uuid.UUID {
	return uuid.Must(uuid.NewV4())
}
