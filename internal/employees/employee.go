// Package employees implements the employee health record domain for Vigil.
// It provides types, attribute-filtered queries, and the org-scoped summary
// fetch the analysis pipeline consumes.
package employees

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Employee represents a workforce member with demographic attributes, a
// structured health indicator document, and a pre-computed natural-language
// health narrative.
type Employee struct {
	EmployeeID    string          `json:"employee_id"`
	OrgID         uuid.UUID       `json:"org_id"`
	Name          string          `json:"name"`
	Gender        string          `json:"gender"`
	DOB           *time.Time      `json:"dob"`
	Department    string          `json:"department"`
	JobLevel      string          `json:"job_level"`
	LocationCity  string          `json:"location_city"`
	MaritalStatus string          `json:"marital_status"`
	Health        json.RawMessage `json:"health"`
	Summary       *string         `json:"summary"`
}

// HealthSummary is the minimal shape the scoring stage consumes: an employee
// identifier paired with its health narrative. Summaries are fetched fresh
// per pipeline invocation and never cached.
type HealthSummary struct {
	EmployeeID string `json:"employee_id"`
	Summary    string `json:"summary"`
}
