package core_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"bakehouse/internal/core"
)

func TestWithinReturnWindow(t *testing.T) {
	delivered := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"immediately after delivery", delivered.Add(time.Minute), true},
		{"just inside the window", delivered.Add(72*time.Hour - time.Second), true},
		{"exactly at the window edge", delivered.Add(72 * time.Hour), true},
		{"just past the window", delivered.Add(72*time.Hour + time.Second), false},
		{"days later", delivered.Add(10 * 24 * time.Hour), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, core.WithinReturnWindow(delivered, tt.now))
		})
	}
}

func TestReturnStatus_Terminal(t *testing.T) {
	assert.False(t, core.ReturnPendingReview.Terminal())
	assert.True(t, core.ReturnApproved.Terminal())
	assert.True(t, core.ReturnRejected.Terminal())
}
