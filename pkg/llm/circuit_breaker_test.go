package llm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_TripsAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 3, ResetAfter: time.Minute})

	for i := 0; i < 2; i++ {
		cb.RecordFailure()
		allowed, err := cb.Allow()
		require.True(t, allowed)
		require.NoError(t, err)
	}

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State())
	allowed, err := cb.Allow()
	assert.False(t, allowed)
	assert.Error(t, err)
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 1, ResetAfter: 10 * time.Second})
	cb.now = func() time.Time { return now }

	cb.RecordFailure()
	require.Equal(t, CircuitOpen, cb.State())

	now = now.Add(11 * time.Second)
	allowed, _ := cb.Allow()
	require.True(t, allowed, "one probe after the reset period")
	assert.Equal(t, CircuitHalfOpen, cb.State())

	allowed, _ = cb.Allow()
	assert.False(t, allowed, "only one probe at a time")

	cb.RecordFailure()
	assert.Equal(t, CircuitOpen, cb.State(), "failed probe reopens")

	now = now.Add(11 * time.Second)
	allowed, _ = cb.Allow()
	require.True(t, allowed)
	cb.RecordSuccess()
	assert.Equal(t, CircuitClosed, cb.State())
	assert.Equal(t, 0, cb.ConsecutiveFailures())
}

func TestCircuitBreaker_DisabledWithZeroThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	for i := 0; i < 100; i++ {
		cb.RecordFailure()
	}
	allowed, err := cb.Allow()
	assert.True(t, allowed)
	assert.NoError(t, err)
}

func TestCircuitState_String(t *testing.T) {
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(9).String())
}
