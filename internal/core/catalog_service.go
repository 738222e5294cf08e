package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CatalogService exposes the read-only catalog lookups the engine depends on.
// Branch, chef, department, and product records are maintained elsewhere.
type CatalogService interface {
	ProductByID(ctx context.Context, id uuid.UUID) (*Product, error)
	ChefByID(ctx context.Context, id uuid.UUID) (*Chef, error)
	BranchByID(ctx context.Context, id uuid.UUID) (*Branch, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) ProductByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	return productByID(ctx, s.pool, id)
}

func (s *catalogService) ChefByID(ctx context.Context, id uuid.UUID) (*Chef, error) {
	return chefByID(ctx, s.pool, id)
}

func (s *catalogService) BranchByID(ctx context.Context, id uuid.UUID) (*Branch, error) {
	return branchByID(ctx, s.pool, id)
}

// productByID works on the pool or inside a transaction, so commands can read
// catalog facts under the same snapshot as their writes.
func productByID(ctx context.Context, q querier, id uuid.UUID) (*Product, error) {
	var p Product
	err := q.QueryRow(ctx, `
		SELECT id, code, name_primary, name_secondary, unit, department_id, price, is_active
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Code, &p.Name.Primary, &p.Name.Secondary, &p.Unit, &p.DepartmentID, &p.Price, &p.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundErr("product %s not found", id)
		}
		return nil, fmt.Errorf("failed to fetch product %s: %w", id, err)
	}
	return &p, nil
}

func chefByID(ctx context.Context, q querier, id uuid.UUID) (*Chef, error) {
	var c Chef
	err := q.QueryRow(ctx, `
		SELECT id, name, is_active
		FROM chefs
		WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundErr("chef %s not found", id)
		}
		return nil, fmt.Errorf("failed to fetch chef %s: %w", id, err)
	}

	rows, err := q.Query(ctx, `
		SELECT department_id FROM chef_departments WHERE chef_id = $1 ORDER BY department_id
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch departments for chef %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var d uuid.UUID
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan chef department: %w", err)
		}
		c.DepartmentIDs = append(c.DepartmentIDs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating chef departments: %w", err)
	}
	return &c, nil
}

func branchByID(ctx context.Context, q querier, id uuid.UUID) (*Branch, error) {
	var b Branch
	err := q.QueryRow(ctx, `
		SELECT id, code, name_primary, name_secondary, is_active
		FROM branches
		WHERE id = $1
	`, id).Scan(&b.ID, &b.Code, &b.Name.Primary, &b.Name.Secondary, &b.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, NotFoundErr("branch %s not found", id)
		}
		return nil, fmt.Errorf("failed to fetch branch %s: %w", id, err)
	}
	return &b, nil
}
