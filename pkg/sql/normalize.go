package sql

import (
	"strings"
)

// ValidationResult contains the normalized SQL and any validation errors.
type ValidationResult struct {
	NormalizedSQL string
	Error         error
}

// ValidateAndNormalize trims the statement, strips one trailing semicolon and
// rejects any remaining semicolon outside literals, identifiers and comments.
func ValidateAndNormalize(sqlQuery string) ValidationResult {
	sqlQuery = strings.TrimSpace(sqlQuery)
	if sqlQuery == "" {
		return ValidationResult{NormalizedSQL: sqlQuery}
	}

	normalized := stripTrailingSemicolon(sqlQuery)
	if hasSemicolonOutsideStrings(maskLiteralsAndComments(normalized)) {
		return ValidationResult{Error: ErrMultipleStatements}
	}

	return ValidationResult{NormalizedSQL: normalized}
}

// hasSemicolonOutsideStrings expects comments to be masked already. Double-quoted
// identifiers are skipped; single-quoted literals were blanked by the mask.
func hasSemicolonOutsideStrings(sqlQuery string) bool {
	inIdent := false
	for _, ch := range sqlQuery {
		switch {
		case ch == '"':
			inIdent = !inIdent
		case ch == ';' && !inIdent:
			return true
		}
	}
	return false
}

func stripTrailingSemicolon(sqlQuery string) string {
	sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	if strings.HasSuffix(sqlQuery, ";") {
		sqlQuery = strings.TrimSuffix(sqlQuery, ";")
		sqlQuery = strings.TrimRight(sqlQuery, " \t\n\r")
	}
	return sqlQuery
}

// maskLiteralsAndComments replaces the contents of single-quoted literals and
// of -- and /* */ comments with spaces. Quote characters are kept so offsets
// and token boundaries do not move.
func maskLiteralsAndComments(sqlQuery string) string {
	const (
		stateNormal = iota
		stateLiteral
		stateLineComment
		stateBlockComment
	)

	src := []rune(sqlQuery)
	out := make([]rune, len(src))
	state := stateNormal

	for i := 0; i < len(src); i++ {
		ch := src[i]
		next := rune(0)
		if i+1 < len(src) {
			next = src[i+1]
		}

		switch state {
		case stateNormal:
			switch {
			case ch == '\'':
				state = stateLiteral
				out[i] = ch
			case ch == '-' && next == '-':
				state = stateLineComment
				out[i] = ' '
			case ch == '/' && next == '*':
				state = stateBlockComment
				out[i], out[i+1] = ' ', ' '
				i++
			default:
				out[i] = ch
			}
		case stateLiteral:
			switch {
			case ch == '\'' && next == '\'':
				// SQL standard escaped quote
				out[i], out[i+1] = ' ', ' '
				i++
			case ch == '\'' && (i == 0 || src[i-1] != '\\'):
				state = stateNormal
				out[i] = ch
			default:
				out[i] = ' '
			}
		case stateLineComment:
			if ch == '\n' {
				state = stateNormal
				out[i] = ch
			} else {
				out[i] = ' '
			}
		case stateBlockComment:
			if ch == '*' && next == '/' {
				state = stateNormal
				out[i], out[i+1] = ' ', ' '
				i++
			} else {
				out[i] = ' '
			}
		}
	}

	return string(out)
}
