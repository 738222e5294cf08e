package core_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"bakehouse/internal/core"
)

func TestUnit_ValidQuantity(t *testing.T) {
	tests := []struct {
		name string
		unit core.Unit
		qty  string
		want bool
	}{
		{"whole pieces", core.UnitPiece, "12", true},
		{"fractional pieces", core.UnitPiece, "2.5", false},
		{"fractional kilos", core.UnitKilo, "1.25", true},
		{"whole kilos", core.UnitKilo, "3", true},
		{"zero", core.UnitPiece, "0", false},
		{"negative", core.UnitKilo, "-1.5", false},
		{"fractional trays", core.UnitTray, "0.5", false},
		{"whole packs", core.UnitPack, "4", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			qty := decimal.RequireFromString(tt.qty)
			assert.Equal(t, tt.want, tt.unit.ValidQuantity(qty))
		})
	}
}

func TestUnit_Counted(t *testing.T) {
	assert.True(t, core.UnitPiece.Counted())
	assert.True(t, core.UnitPack.Counted())
	assert.True(t, core.UnitTray.Counted())
	assert.False(t, core.UnitKilo.Counted())
}

func TestCaller_HasRole(t *testing.T) {
	c := core.Caller{Role: core.RoleBranch}
	assert.True(t, c.HasRole(core.RoleBranch))
	assert.True(t, c.HasRole(core.RoleAdmin, core.RoleBranch))
	assert.False(t, c.HasRole(core.RoleChef))
	assert.False(t, c.HasRole())
}

func TestBilingualText_Display(t *testing.T) {
	full := core.BilingualText{Primary: "Croissant", Secondary: "كرواسون"}
	assert.Equal(t, "Croissant", full.Display(false))
	assert.Equal(t, "كرواسون", full.Display(true))

	primaryOnly := core.BilingualText{Primary: "Baguette"}
	assert.Equal(t, "Baguette", primaryOnly.Display(true))
}
