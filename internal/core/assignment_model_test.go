package core_test

import (
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"

	"bakehouse/internal/core"
)

func TestDepartmentCompatible(t *testing.T) {
	pastry := uuid.Must(uuid.NewV4())
	bread := uuid.Must(uuid.NewV4())

	tests := []struct {
		name    string
		chef    core.Chef
		product core.Product
		want    bool
	}{
		{
			name:    "product without department is open to everyone",
			chef:    core.Chef{DepartmentIDs: []uuid.UUID{bread}},
			product: core.Product{},
			want:    true,
		},
		{
			name:    "unaffiliated chef may produce anything",
			chef:    core.Chef{},
			product: core.Product{DepartmentID: &pastry},
			want:    true,
		},
		{
			name:    "matching department",
			chef:    core.Chef{DepartmentIDs: []uuid.UUID{bread, pastry}},
			product: core.Product{DepartmentID: &pastry},
			want:    true,
		},
		{
			name:    "department mismatch",
			chef:    core.Chef{DepartmentIDs: []uuid.UUID{bread}},
			product: core.Product{DepartmentID: &pastry},
			want:    false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.DepartmentCompatible(tt.chef, tt.product))
		})
	}
}
