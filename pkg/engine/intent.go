package engine

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

var (
	projectTerms = []string{"proyecto", "proyectos", "obra", "obras"}

	attendanceTerms = []string{
		"asistencia", "marcó", "marco", "marcaron", "marcación", "marcacion",
		"llegó", "llego", "llegaron", "entrada", "ingresó", "ingreso",
	}

	countTerms = []string{"cuantos", "cuántos", "cuantas", "cuántas", "cantidad", "total", "numero", "número"}

	// topic-only plurals; when present no entity is extracted
	pluralTopicTerms = []string{"proyectos", "activos", "activas"}

	stopWords = toSet(
		"a", "al", "el", "la", "los", "las", "lo", "un", "una", "unos", "unas",
		"de", "del", "en", "con", "por", "para", "y", "o", "que", "qué", "se", "su", "sus",
		"me", "mi", "hoy", "ayer", "hora", "horas", "cuando", "cuándo", "quien", "quién",
		"dime", "muestra", "muestrame", "muéstrame", "mostrar", "ver", "hay", "fue", "era",
		"registro", "registró", "registra", "trabajador", "trabajadora", "persona", "personas",
		"asistencia", "marcó", "marco", "marcaron", "marcación", "marcacion",
		"llegó", "llego", "llegaron", "entrada", "ingresó", "ingreso",
		"proyecto", "proyectos", "obra", "obras", "activos", "activas",
	)
)

const entityTrimChars = "¿?¡!.,;:\"'()"

// DetectIntent classifies an utterance with keyword families. It is pure:
// the same text always yields the same Intent.
//
// Precedence: project vocabulary, then attendance with an entity, then
// attendance or count vocabulary, otherwise UNKNOWN.
func DetectIntent(text string) models.Intent {
	lower := cases.Lower(language.Spanish).String(text)

	isProject := containsAny(lower, projectTerms)
	isAttendance := containsAny(lower, attendanceTerms)
	isCount := containsAny(lower, countTerms)

	entity := ""
	if !isCount && !containsAny(lower, pluralTopicTerms) {
		entity = extractEntity(lower)
	}

	switch {
	case isProject:
		return models.Intent{Type: models.IntentProjects, Entity: entity}
	case isAttendance && entity != "":
		return models.Intent{Type: models.IntentAttendanceIndividual, Entity: entity}
	case isAttendance || isCount:
		return models.Intent{Type: models.IntentAttendanceCount}
	default:
		return models.Intent{Type: models.IntentUnknown}
	}
}

// extractEntity drops stop words and short tokens and joins what is left.
func extractEntity(lower string) string {
	var kept []string
	for _, tok := range strings.Fields(lower) {
		tok = strings.Trim(tok, entityTrimChars)
		if stopWords[tok] || len([]rune(tok)) <= 2 {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}

func toSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
