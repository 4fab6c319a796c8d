package sql

import (
	"regexp"
	"strings"
)

var tableTokenRegex = regexp.MustCompile("[\\w.\"`\\[\\]$]+|,|\\(|\\)")

// fromTerminators end the FROM clause of the current query level.
var fromTerminators = map[string]bool{
	"SELECT": true, "WHERE": true, "GROUP": true, "ORDER": true, "HAVING": true,
	"LIMIT": true, "OFFSET": true, "FETCH": true, "UNION": true, "EXCEPT": true,
	"INTERSECT": true, "WINDOW": true, "FOR": true, "RETURNING": true,
}

// tableModifiers may sit between FROM/JOIN and the table or subquery.
var tableModifiers = map[string]bool{"ONLY": true, "LATERAL": true}

// subqueryStarts open a derived table rather than a parenthesized join.
var subqueryStarts = map[string]bool{"SELECT": true, "WITH": true, "VALUES": true}

// ReferencedTables returns the tables named after FROM and JOIN and in FROM
// lists, in order of first appearance, without duplicates. Literals and
// comments are ignored and ONLY and LATERAL are skipped. Subqueries contribute
// their own targets; parenthesized joins contribute every table inside them.
func ReferencedTables(sqlQuery string) []string {
	tokens := tableTokenRegex.FindAllString(maskLiteralsAndComments(sqlQuery), -1)

	seen := make(map[string]bool)
	var tables []string
	add := func(tok string) {
		key := strings.ToLower(tok)
		if !seen[key] {
			seen[key] = true
			tables = append(tables, tok)
		}
	}

	// inFrom[d] is true while paren depth d is inside a FROM clause.
	inFrom := []bool{false}
	expectTable := false

	for i, tok := range tokens {
		upper := strings.ToUpper(tok)
		top := len(inFrom) - 1

		switch {
		case tok == "(":
			// a parenthesized join keeps expecting a table; anything else
			// opens a plain level
			join := expectTable && !(i+1 < len(tokens) && subqueryStarts[strings.ToUpper(tokens[i+1])])
			inFrom = append(inFrom, join)
			expectTable = join
		case tok == ")":
			if top > 0 {
				inFrom = inFrom[:top]
			}
			expectTable = false
		case tok == ",":
			expectTable = inFrom[top]
		case fromTerminators[upper]:
			inFrom[top] = false
			expectTable = false
		case upper == "FROM", upper == "JOIN":
			inFrom[top] = true
			expectTable = true
		case tableModifiers[upper]:
			// FROM ONLY t, JOIN LATERAL (...): the target follows
		case expectTable:
			add(tok)
			expectTable = false
		}
	}

	return tables
}
