package core_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"bakehouse/internal/core"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind core.Kind
	}{
		{core.ValidationErr("bad quantity %d", 3), core.KindValidation},
		{core.NotFoundErr("order %s not found", "ORD-1"), core.KindNotFound},
		{core.AuthorizationErr("nope"), core.KindAuthorization},
		{core.ConflictErr("stock too low"), core.KindConflict},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.kind, core.KindOf(tt.err))
		assert.True(t, core.IsKind(tt.err, tt.kind))
	}
}

func TestKindOf_WrappedError(t *testing.T) {
	err := fmt.Errorf("command failed: %w", core.ConflictErr("insufficient stock"))
	assert.Equal(t, core.KindConflict, core.KindOf(err))
	assert.True(t, core.IsKind(err, core.KindConflict))
	assert.False(t, core.IsKind(err, core.KindNotFound))
}

func TestKindOf_ForeignError(t *testing.T) {
	assert.Equal(t, core.Kind(""), core.KindOf(errors.New("plain")))
	assert.Equal(t, core.Kind(""), core.KindOf(nil))
}

func TestErrorMessage(t *testing.T) {
	err := core.ValidationErr("quantity %s is not valid for unit %q", "2.5", "piece")
	assert.Equal(t, `quantity 2.5 is not valid for unit "piece"`, err.Error())
}
