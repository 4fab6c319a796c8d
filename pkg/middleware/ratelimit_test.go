package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTenantRateLimiter_PerTenantBuckets(t *testing.T) {
	l := NewTenantRateLimiter(1, 2)
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return start }

	assert.True(t, l.Allow("acme"))
	assert.True(t, l.Allow("acme"))
	assert.False(t, l.Allow("acme"), "burst exhausted")
	assert.True(t, l.Allow("globex"), "other tenants keep their own bucket")

	l.now = func() time.Time { return start.Add(time.Second) }
	assert.True(t, l.Allow("acme"), "one token refilled")
}

func TestTenantRateLimiter_EvictsIdleTenants(t *testing.T) {
	l := NewTenantRateLimiter(5, 5)
	start := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return start }

	l.Allow("acme")
	l.Allow("globex")
	assert.Equal(t, 2, l.Len())

	l.now = func() time.Time { return start.Add(2 * idleLimiterTTL) }
	l.Allow("initech")
	assert.Equal(t, 1, l.Len())
}

func TestTenantRateLimiter_Disabled(t *testing.T) {
	l := NewTenantRateLimiter(0, 10)
	assert.Nil(t, l)
	for i := 0; i < 100; i++ {
		assert.True(t, l.Allow("acme"))
	}
	assert.Equal(t, 0, l.Len())
}
