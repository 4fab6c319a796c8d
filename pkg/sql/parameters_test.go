package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractParameters(t *testing.T) {
	tests := []struct {
		name     string
		sql      string
		expected []string
	}{
		{
			name:     "no parameters",
			sql:      "SELECT * FROM projects",
			expected: nil,
		},
		{
			name:     "single parameter",
			sql:      "SELECT * FROM projects WHERE tenant_id = {{tenant_id}}",
			expected: []string{"tenant_id"},
		},
		{
			name:     "multiple parameters",
			sql:      "SELECT * FROM staff WHERE tenant_id = {{tenant_id}} AND LOWER(st_name) LIKE {{entity}}",
			expected: []string{"tenant_id", "entity"},
		},
		{
			name:     "duplicate parameter appears once",
			sql:      "SELECT * FROM a WHERE x = {{tenant_id}} OR y = {{tenant_id}}",
			expected: []string{"tenant_id"},
		},
		{
			name:     "parameter starting with underscore",
			sql:      "SELECT * FROM temp WHERE value = {{_private}}",
			expected: []string{"_private"},
		},
		{
			name:     "invalid names are ignored",
			sql:      "SELECT '{{1abc}}', '{{ spaced }}', {{ok}}",
			expected: []string{"ok"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractParameters(tt.sql))
		})
	}
}

func TestSubstituteParameters(t *testing.T) {
	const template = "SELECT * FROM attendance_marks WHERE tenant_id = {{tenant_id}} AND st_id = {{staff_id}} OR tenant_id = {{tenant_id}}"
	values := map[string]any{"tenant_id": "acme", "staff_id": 7}

	tests := []struct {
		name     string
		style    PlaceholderStyle
		expected string
	}{
		{
			name:     "postgres",
			style:    DollarPlaceholders,
			expected: "SELECT * FROM attendance_marks WHERE tenant_id = $1 AND st_id = $2 OR tenant_id = $1",
		},
		{
			name:     "sqlite",
			style:    QuestionPlaceholders,
			expected: "SELECT * FROM attendance_marks WHERE tenant_id = ?1 AND st_id = ?2 OR tenant_id = ?1",
		},
		{
			name:     "sql server",
			style:    AtPlaceholders,
			expected: "SELECT * FROM attendance_marks WHERE tenant_id = @p1 AND st_id = @p2 OR tenant_id = @p1",
		},
		{
			name:     "nil style defaults to postgres",
			style:    nil,
			expected: "SELECT * FROM attendance_marks WHERE tenant_id = $1 AND st_id = $2 OR tenant_id = $1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prepared, args, err := SubstituteParameters(template, values, tt.style)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, prepared)
			assert.Equal(t, []any{"acme", 7}, args)
		})
	}
}

func TestSubstituteParameters_MissingValue(t *testing.T) {
	_, _, err := SubstituteParameters("SELECT 1 WHERE a = {{a}} AND b = {{b}}", map[string]any{"a": 1}, DollarPlaceholders)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{{b}}")
}

func TestSubstituteParameters_ValuesNeverInterpolated(t *testing.T) {
	prepared, args, err := SubstituteParameters("SELECT 1 WHERE name = {{name}}", map[string]any{"name": "' OR 1=1 --"}, DollarPlaceholders)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1 WHERE name = $1", prepared)
	assert.Equal(t, []any{"' OR 1=1 --"}, args)
}
