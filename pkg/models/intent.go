package models

// IntentType is the classified purpose of an utterance.
type IntentType string

const (
	IntentProjects             IntentType = "PROJECTS"
	IntentAttendanceIndividual IntentType = "ATTENDANCE_INDIVIDUAL"
	IntentAttendanceCount      IntentType = "ATTENDANCE_COUNT"
	IntentUnknown              IntentType = "UNKNOWN"
)

// Intent is produced by classification and is never mutated afterwards.
// An empty Entity means no entity was extracted.
type Intent struct {
	Type   IntentType `json:"type"`
	Entity string     `json:"entity,omitempty"`
}

// IsKnown reports whether the intent can be answered with a SQL template.
func (i Intent) IsKnown() bool {
	switch i.Type {
	case IntentProjects, IntentAttendanceIndividual, IntentAttendanceCount:
		return true
	default:
		return false
	}
}

// HasEntity reports whether a free-text entity was extracted.
func (i Intent) HasEntity() bool {
	return i.Entity != ""
}
