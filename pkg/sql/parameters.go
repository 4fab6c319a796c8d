package sql

import (
	"fmt"
	"regexp"
)

// parameterRegex matches {{parameter_name}} placeholders in SQL templates.
// Parameter names must start with a letter or underscore, followed by any
// number of alphanumeric characters or underscores.
var parameterRegex = regexp.MustCompile(`\{\{([a-zA-Z_]\w*)\}\}`)

// PlaceholderStyle renders the N-th (1-based) positional placeholder of a driver.
type PlaceholderStyle func(position int) string

var (
	// DollarPlaceholders is the PostgreSQL style: $1, $2.
	DollarPlaceholders PlaceholderStyle = func(n int) string { return fmt.Sprintf("$%d", n) }
	// QuestionPlaceholders is the SQLite numbered style: ?1, ?2.
	QuestionPlaceholders PlaceholderStyle = func(n int) string { return fmt.Sprintf("?%d", n) }
	// AtPlaceholders is the SQL Server style: @p1, @p2.
	AtPlaceholders PlaceholderStyle = func(n int) string { return fmt.Sprintf("@p%d", n) }
)

// ExtractParameters finds all {{param}} placeholders in SQL and returns
// a deduplicated list of parameter names in order of first appearance.
//
// Example:
//
//	sql := "SELECT * FROM staff WHERE tenant_id = {{tenant_id}} AND st_name LIKE {{name}}"
//	params := ExtractParameters(sql)
//	// params == []string{"tenant_id", "name"}
func ExtractParameters(sqlQuery string) []string {
	matches := parameterRegex.FindAllStringSubmatch(sqlQuery, -1)
	seen := make(map[string]bool)
	var params []string

	for _, match := range matches {
		name := match[1]
		if !seen[name] {
			seen[name] = true
			params = append(params, name)
		}
	}

	return params
}

// SubstituteParameters replaces {{param}} placeholders with positional
// placeholders in the given style and returns the values in binding order.
// A parameter used several times reuses its first position. Every placeholder
// must have a value in values; values are never interpolated into the text.
//
// Example:
//
//	sql := "SELECT * FROM attendance_marks WHERE tenant_id = {{tenant_id}} AND st_id = {{staff_id}}"
//	prepared, args, err := SubstituteParameters(sql, map[string]any{"tenant_id": "t1", "staff_id": 7}, DollarPlaceholders)
//	// prepared == "SELECT * FROM attendance_marks WHERE tenant_id = $1 AND st_id = $2"
//	// args == []any{"t1", 7}
func SubstituteParameters(sqlQuery string, values map[string]any, style PlaceholderStyle) (string, []any, error) {
	if style == nil {
		style = DollarPlaceholders
	}

	for _, name := range ExtractParameters(sqlQuery) {
		if _, ok := values[name]; !ok {
			return "", nil, fmt.Errorf("parameter {{%s}} used in SQL but no value supplied", name)
		}
	}

	var ordered []any
	positions := make(map[string]int)

	result := parameterRegex.ReplaceAllStringFunc(sqlQuery, func(match string) string {
		name := parameterRegex.FindStringSubmatch(match)[1]
		if pos, exists := positions[name]; exists {
			return style(pos)
		}
		ordered = append(ordered, values[name])
		positions[name] = len(ordered)
		return style(len(ordered))
	})

	return result, ordered, nil
}
