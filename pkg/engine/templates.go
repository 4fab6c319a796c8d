package engine

import (
	"strings"

	"github.com/ekaya-inc/ekaya-assist/pkg/datastore"
	"github.com/ekaya-inc/ekaya-assist/pkg/models"
)

// Template parameters. Values are bound positionally, never interpolated.
const (
	paramTenantID = "tenant_id"
	paramEntity   = "entity"
)

// likeEscape is the ESCAPE character of the entity LIKE clauses.
const likeEscape = "!"

// likeEscaper neutralizes LIKE wildcards in a bound value. '[' is a set
// wildcard on SQL Server.
var likeEscaper = strings.NewReplacer(
	likeEscape, likeEscape+likeEscape,
	"%", likeEscape+"%",
	"_", likeEscape+"_",
	"[", likeEscape+"[",
)

// containsPattern builds a LIKE pattern matching value anywhere, literally.
func containsPattern(value string) string {
	return "%" + likeEscaper.Replace(value) + "%"
}

// Result column aliases shared by the templates and the formatter.
const (
	colProjectTitle = "pjTitle"
	colProjectCode  = "pjCode"
	colPersonName   = "personName"
	colMarkedAt     = "markedAt"
	colTotal        = "total"
)

var postgresTemplates = map[models.IntentType]string{
	models.IntentProjects: `SELECT pj_title AS "pjTitle", pj_code AS "pjCode"
FROM projects
WHERE tenant_id = {{tenant_id}} AND pj_status = 'ACTIVE'
ORDER BY pj_title`,

	models.IntentAttendanceIndividual: `SELECT s.st_name AS "personName", a.marked_at AS "markedAt"
FROM attendance_marks a
JOIN staff s ON s.st_id = a.st_id AND s.tenant_id = a.tenant_id
WHERE a.tenant_id = {{tenant_id}} AND a.mark_type = 'ENTRADA' AND LOWER(s.st_name) LIKE {{entity}} ESCAPE '!'
ORDER BY a.marked_at DESC
LIMIT 1`,

	models.IntentAttendanceCount: `SELECT COUNT(DISTINCT st_id) AS "total"
FROM attendance_marks
WHERE tenant_id = {{tenant_id}} AND mark_type = 'ENTRADA' AND marked_at >= CURRENT_DATE`,
}

var sqliteTemplates = map[models.IntentType]string{
	models.IntentProjects: postgresTemplates[models.IntentProjects],

	models.IntentAttendanceIndividual: postgresTemplates[models.IntentAttendanceIndividual],

	models.IntentAttendanceCount: `SELECT COUNT(DISTINCT st_id) AS "total"
FROM attendance_marks
WHERE tenant_id = {{tenant_id}} AND mark_type = 'ENTRADA' AND date(marked_at) = date('now', 'localtime')`,
}

var mssqlTemplates = map[models.IntentType]string{
	models.IntentProjects: postgresTemplates[models.IntentProjects],

	models.IntentAttendanceIndividual: `SELECT TOP 1 s.st_name AS "personName", a.marked_at AS "markedAt"
FROM attendance_marks a
JOIN staff s ON s.st_id = a.st_id AND s.tenant_id = a.tenant_id
WHERE a.tenant_id = {{tenant_id}} AND a.mark_type = 'ENTRADA' AND LOWER(s.st_name) LIKE {{entity}} ESCAPE '!'
ORDER BY a.marked_at DESC`,

	models.IntentAttendanceCount: `SELECT COUNT(DISTINCT st_id) AS "total"
FROM attendance_marks
WHERE tenant_id = {{tenant_id}} AND mark_type = 'ENTRADA' AND CAST(marked_at AS date) = CAST(GETDATE() AS date)`,
}

func templatesFor(d datastore.Dialect) map[models.IntentType]string {
	switch d {
	case datastore.DialectSQLite:
		return sqliteTemplates
	case datastore.DialectMSSQL:
		return mssqlTemplates
	default:
		return postgresTemplates
	}
}
