package caching

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AtRiskMedia/brandpulse-go/internal/domain/metrics"
)

func TestWarmingLock(t *testing.T) {
	l := NewWarmingLock()

	assert.True(t, l.TryLock("ACME"))
	assert.False(t, l.TryLock("ACME"))
	assert.True(t, l.TryLock("GLOBEX"))
	assert.Equal(t, []metrics.TenantKey{"ACME", "GLOBEX"}, l.Held())

	l.Unlock("ACME")
	assert.True(t, l.TryLock("ACME"))
}
