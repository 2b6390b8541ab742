// Package analysis implements the two-stage health risk inference pipeline
// for Vigil. A gating classifier first decides whether a free-text query is
// in-domain; in-domain queries then flow through a condition-scoped risk
// scoring stage whose JSON output is validated and normalized before it
// reaches the caller. Completed runs are persisted as analysis history.
package analysis

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Confidence is the categorical certainty the model assigns to a score.
type Confidence string

// Confidence levels, ordered low to high.
const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ScoredEmployee is one entry in a scoring result. Evidence strings must be
// traceable to the employee's summary; the scoring instruction forbids the
// model from inventing facts, and validation rejects fabricated identifiers.
type ScoredEmployee struct {
	EmployeeID      string     `json:"employee_id"`
	RiskProbability float64    `json:"risk_probability"`
	Confidence      Confidence `json:"confidence"`
	Evidence        []string   `json:"evidence"`
}

// Result is the validated output of the scoring stage: scored employees in
// non-increasing risk order with no duplicate identifiers. An empty
// ScoredEmployees sequence is a legitimate result.
type Result struct {
	Condition       string           `json:"condition"`
	ScoredEmployees []ScoredEmployee `json:"scored_employees"`
}

// Verdict is the classification stage's decision. When InDomain is false,
// Message holds the literal text the model returned; the pipeline never
// substitutes its own refusal wording.
type Verdict struct {
	InDomain bool
	Message  string
}

// Outcome is the asymmetric result of a pipeline run: exactly one of Refusal
// or Result is set. Callers must branch on which.
type Outcome struct {
	Refusal string
	Result  *Result
}

// Run statuses for persisted analyses.
const (
	StatusScored  = "scored"
	StatusRefused = "refused"
)

// Analysis is a persisted record of a completed pipeline run. Failed runs are
// not recorded; only terminal REFUSED and DONE outcomes become history.
type Analysis struct {
	ID               uuid.UUID       `json:"id"`
	OrgID            uuid.UUID       `json:"org_id"`
	RequestedBy      uuid.UUID       `json:"requested_by"`
	RequestedByEmail *string         `json:"requested_by_email"`
	Query            string          `json:"query"`
	Condition        *string         `json:"condition"`
	Status           string          `json:"status"`
	Result           json.RawMessage `json:"result"`
	ModelName        string          `json:"model_name"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Options carries the pipeline's tunable behavior. The threshold and the
// filter switch exist because two historical scoring behaviors are both
// legitimate: condition-specific scoring that returns only employees strictly
// above the notable threshold, and general scoring that returns everyone.
type Options struct {
	ClassifyTimeout    time.Duration
	ScoreTimeout       time.Duration
	MaxRecords         int
	Threshold          float64
	FilterByThreshold  bool
	ConditionFromQuery bool
}
