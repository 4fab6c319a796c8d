package models

// PlanSource records which path produced a QueryPlan.
type PlanSource string

const (
	PlanSourceRemote PlanSource = "remote"
	PlanSourceLocal  PlanSource = "local"
)

// QueryPlan is SQL scoped to a single tenant. It lives for one request.
type QueryPlan struct {
	SQL      string
	Params   []any
	TenantID string
	Source   PlanSource
}

// Row is one result row keyed by column name.
type Row = map[string]any

// Rows is an ordered result set.
type Rows []Row
