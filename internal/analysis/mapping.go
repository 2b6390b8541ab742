package analysis

import (
	"net/url"

	"github.com/vigil-health/vigil/pkg/query"
	"github.com/vigil-health/vigil/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "analyses", "a").
	Project("id", "ID").
	Project("org_id", "OrgID").
	Project("requested_by", "RequestedBy").
	Project("query", "Query").
	Project("condition", "Condition").
	Project("status", "Status").
	Project("result", "Result").
	Project("model_name", "ModelName").
	Project("created_at", "CreatedAt").
	Join("public", "org_admins", "oa", "LEFT JOIN", "a.requested_by = oa.id").
	ProjectJoined("oa", "email", "RequestedByEmail")

var defaultSort = query.SortField{
	Field:      "CreatedAt",
	Descending: true,
}

// Filters contains optional filtering criteria for analysis history queries.
type Filters struct {
	Status    *string `json:"status,omitempty"`
	Condition *string `json:"condition,omitempty"`
}

// Apply adds filter conditions to a query builder.
func (f Filters) Apply(b *query.Builder) *query.Builder {
	return b.
		WhereEquals("Status", f.Status).
		WhereContains("Condition", f.Condition)
}

// FiltersFromQuery extracts filter values from URL query parameters.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters

	if s := values.Get("status"); s != "" {
		f.Status = &s
	}

	if c := values.Get("condition"); c != "" {
		f.Condition = &c
	}

	return f
}

func scanAnalysis(s repository.Scanner) (Analysis, error) {
	var a Analysis
	err := s.Scan(
		&a.ID,
		&a.OrgID,
		&a.RequestedBy,
		&a.Query,
		&a.Condition,
		&a.Status,
		&a.Result,
		&a.ModelName,
		&a.CreatedAt,
		&a.RequestedByEmail,
	)
	return a, err
}
