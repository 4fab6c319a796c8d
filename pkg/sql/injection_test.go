package sql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-assist/pkg/apperrors"
)

func TestCheckParameterForInjection(t *testing.T) {
	tests := []struct {
		name            string
		value           any
		expectInjection bool
	}{
		{name: "person name", value: "juan perez", expectInjection: false},
		{name: "single word", value: "gonzalez", expectInjection: false},
		{name: "non string value", value: 42, expectInjection: false},
		{name: "nil value", value: nil, expectInjection: false},
		{name: "tautology", value: "' OR '1'='1", expectInjection: true},
		{name: "stacked drop", value: "'; DROP TABLE users--", expectInjection: true},
		{name: "union select", value: "1 UNION SELECT * FROM passwords", expectInjection: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckParameterForInjection("entity", tt.value)
			if !tt.expectInjection {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.True(t, result.IsSQLi)
			assert.Equal(t, "entity", result.ParamName)
			assert.NotEmpty(t, result.Fingerprint)
		})
	}
}

func TestScreenParameters(t *testing.T) {
	t.Run("clean values", func(t *testing.T) {
		err := ScreenParameters(map[string]any{
			"tenant_id": "acme",
			"entity":    "juan perez",
			"limit":     10,
		})
		assert.NoError(t, err)
	})

	t.Run("injection attempt", func(t *testing.T) {
		err := ScreenParameters(map[string]any{
			"tenant_id": "acme",
			"entity":    "'; DROP TABLE users--",
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, apperrors.ErrSecurityViolation))

		var violation *SecurityViolationError
		require.True(t, errors.As(err, &violation))
		assert.Contains(t, violation.Reason, "entity")
	})
}
