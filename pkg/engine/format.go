package engine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

// User-facing messages of the local path.
const (
	NoRecordsMessage       = "No se encontraron registros para tu consulta."
	UnclassifiedMessage    = "Por ahora solo puedo responder sobre proyectos activos y asistencia del personal. ¿Podrías reformular tu pregunta?"
	projectsHeader         = "Proyectos activos:"
	markedAtUnknownMessage = "%s registró su entrada (%v)."
)

var markedAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// FormatResponse renders rows for intent. Empty rows always yield NoRecordsMessage.
// Rows whose shape does not match the intent are dumped as JSON.
func (e *Engine) FormatResponse(intent models.Intent, rows models.Rows) string {
	if len(rows) == 0 {
		return NoRecordsMessage
	}

	switch intent.Type {
	case models.IntentProjects:
		if out, ok := formatProjects(rows); ok {
			return out
		}
	case models.IntentAttendanceIndividual:
		if out, ok := e.formatEntrance(rows[0]); ok {
			return out
		}
	case models.IntentAttendanceCount:
		if out, ok := formatCount(rows[0]); ok {
			return out
		}
	}

	return dumpRows(rows)
}

func formatProjects(rows models.Rows) (string, bool) {
	var b strings.Builder
	b.WriteString(projectsHeader)
	for _, row := range rows {
		title, ok := row[colProjectTitle]
		if !ok || title == nil {
			return "", false
		}
		b.WriteString("\n• ")
		b.WriteString(fmt.Sprint(title))
		if code, ok := row[colProjectCode]; ok && code != nil {
			fmt.Fprintf(&b, " (%v)", code)
		}
	}
	return b.String(), true
}

func (e *Engine) formatEntrance(row models.Row) (string, bool) {
	name, ok := row[colPersonName]
	if !ok || name == nil {
		return "", false
	}
	raw, ok := row[colMarkedAt]
	if !ok || raw == nil {
		return "", false
	}

	markedAt, ok := parseMarkedAt(raw)
	if !ok {
		return fmt.Sprintf(markedAtUnknownMessage, name, raw), true
	}
	local := markedAt.In(e.location)
	return fmt.Sprintf("%v registró su entrada el %s a las %s.",
		name, local.Format("02/01/2006"), local.Format("15:04")), true
}

func formatCount(row models.Row) (string, bool) {
	n, ok := toInt64(row[colTotal])
	if !ok {
		return "", false
	}
	p := message.NewPrinter(language.Spanish)
	if n == 1 {
		return p.Sprintf("Hoy marcó entrada %d persona.", n), true
	}
	return p.Sprintf("Hoy marcaron entrada %d personas.", n), true
}

func parseMarkedAt(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		for _, layout := range markedAtLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed, true
			}
		}
	}
	return time.Time{}, false
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	case string:
		parsed, err := strconv.ParseInt(n, 10, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

func dumpRows(rows models.Rows) string {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return fmt.Sprint(rows)
	}
	return string(data)
}
