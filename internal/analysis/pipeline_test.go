package analysis_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/vigil-health/vigil/internal/analysis"
	"github.com/vigil-health/vigil/internal/auth"
	"github.com/vigil-health/vigil/internal/employees"
	"github.com/vigil-health/vigil/pkg/gemini"
)

type scriptedGenerator struct {
	replies []string
	errs    []error
	calls   []generatorCall
}

type generatorCall struct {
	system  string
	message string
}

func (g *scriptedGenerator) Generate(_ context.Context, system, message string) (string, error) {
	i := len(g.calls)
	g.calls = append(g.calls, generatorCall{system: system, message: message})

	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.replies) {
		return g.replies[i], nil
	}
	return "", fmt.Errorf("unexpected generator call %d", i)
}

type staticSource struct {
	records []employees.HealthSummary
	err     error
	fetches int
	limit   int
}

func (s *staticSource) HealthSummaries(_ context.Context, _ uuid.UUID, limit int) ([]employees.HealthSummary, error) {
	s.fetches++
	s.limit = limit
	return s.records, s.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testAdmin() auth.OrgAdmin {
	return auth.OrgAdmin{ID: uuid.New(), OrgID: uuid.New(), Email: "admin@example.com"}
}

func defaultOptions() analysis.Options {
	return analysis.Options{
		Threshold:          0.65,
		FilterByThreshold:  true,
		ConditionFromQuery: true,
	}
}

func roster() []employees.HealthSummary {
	return []employees.HealthSummary{
		{EmployeeID: "CS-0001", Summary: "hypertension, smoker"},
		{EmployeeID: "CS-0002", Summary: "healthy"},
		{EmployeeID: "CS-0003", Summary: "prediabetic, sedentary"},
		{EmployeeID: "CS-0004", Summary: "type 2 diabetes"},
	}
}

func newPipeline(gen *scriptedGenerator, src *staticSource, opts analysis.Options) *analysis.Pipeline {
	return analysis.NewPipeline(gen, src, opts, nil, testLogger())
}

func TestRunForbiddenForMember(t *testing.T) {
	gen := &scriptedGenerator{}
	src := &staticSource{records: roster()}
	p := newPipeline(gen, src, defaultOptions())

	member := auth.Member{ID: uuid.New(), Username: "rguest"}

	_, err := p.Run(context.Background(), member, "diabetes")
	if !errors.Is(err, analysis.ErrForbidden) {
		t.Fatalf("Run() error = %v, want ErrForbidden", err)
	}
	if len(gen.calls) != 0 {
		t.Errorf("generator called %d times for unauthorized principal", len(gen.calls))
	}
	if src.fetches != 0 {
		t.Errorf("source fetched %d times for unauthorized principal", src.fetches)
	}
}

func TestRunRefusal(t *testing.T) {
	refusal := "I'm sorry I cannot help you with that"
	gen := &scriptedGenerator{replies: []string{refusal}}
	src := &staticSource{records: roster()}
	p := newPipeline(gen, src, defaultOptions())

	outcome, err := p.Run(context.Background(), testAdmin(), "write me a poem")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome.Refusal != refusal {
		t.Errorf("Refusal = %q, want %q", outcome.Refusal, refusal)
	}
	if outcome.Result != nil {
		t.Error("Result set alongside refusal")
	}
	if src.fetches != 0 {
		t.Errorf("source fetched %d times for refused query", src.fetches)
	}
	if len(gen.calls) != 1 {
		t.Fatalf("generator calls = %d, want 1", len(gen.calls))
	}
}

func TestRunRefusalPreservesModelText(t *testing.T) {
	// anything other than the exact affirmation is a refusal, and the
	// caller sees the model's literal wording
	reply := "Yes, I can help with that"
	gen := &scriptedGenerator{replies: []string{reply}}
	src := &staticSource{records: roster()}
	p := newPipeline(gen, src, defaultOptions())

	outcome, err := p.Run(context.Background(), testAdmin(), "diabetes")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome.Refusal != reply {
		t.Errorf("Refusal = %q, want %q", outcome.Refusal, reply)
	}
}

func TestRunScored(t *testing.T) {
	scoringReply := "```json\n" + `{
		"condition": "something the model made up",
		"scored_employees": [
			{"employee_id": "CS-0002", "risk_probability": 0.7, "confidence": "low", "evidence": null},
			{"employee_id": "CS-0004", "risk_probability": 0.913, "confidence": "high", "evidence": ["type 2 diabetes"]},
			{"employee_id": "CS-0003", "risk_probability": 0.7, "confidence": "medium", "evidence": ["prediabetic"]},
			{"employee_id": "CS-0001", "risk_probability": 0.42, "confidence": "low", "evidence": ["smoker"]}
		]
	}` + "\n```"

	gen := &scriptedGenerator{replies: []string{"Yes", scoringReply}}
	src := &staticSource{records: roster()}
	opts := defaultOptions()
	opts.MaxRecords = 50
	p := newPipeline(gen, src, opts)

	outcome, err := p.Run(context.Background(), testAdmin(), "diabetes")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome.Refusal != "" {
		t.Fatalf("Refusal = %q, want empty", outcome.Refusal)
	}

	result := outcome.Result
	if result == nil {
		t.Fatal("Result = nil")
	}

	// the condition reflects the caller's query, not the model's invention
	if result.Condition != "diabetes" {
		t.Errorf("Condition = %q, want %q", result.Condition, "diabetes")
	}

	// CS-0001 is filtered (0.42 <= 0.65); remaining sorted by probability
	// descending with the CS-0002/CS-0003 tie broken by input order
	wantIDs := []string{"CS-0004", "CS-0002", "CS-0003"}
	if len(result.ScoredEmployees) != len(wantIDs) {
		t.Fatalf("scored %d employees, want %d", len(result.ScoredEmployees), len(wantIDs))
	}
	for i, want := range wantIDs {
		if got := result.ScoredEmployees[i].EmployeeID; got != want {
			t.Errorf("ScoredEmployees[%d] = %q, want %q", i, got, want)
		}
	}

	// probabilities normalized to two decimals
	if got := result.ScoredEmployees[0].RiskProbability; got != 0.91 {
		t.Errorf("top RiskProbability = %v, want 0.91", got)
	}

	// null evidence becomes an empty array, never nil
	if result.ScoredEmployees[1].Evidence == nil {
		t.Error("Evidence = nil, want empty slice")
	}

	if src.limit != 50 {
		t.Errorf("fetch limit = %d, want 50", src.limit)
	}
}

func TestRunScoringMessageConditioned(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"Yes", `{"condition":"flu","scored_employees":[]}`}}
	src := &staticSource{records: roster()}
	p := newPipeline(gen, src, defaultOptions())

	if _, err := p.Run(context.Background(), testAdmin(), "flu"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(gen.calls) != 2 {
		t.Fatalf("generator calls = %d, want 2", len(gen.calls))
	}

	msg := gen.calls[1].message
	if !strings.HasPrefix(msg, "Condition: flu\n\n") {
		t.Errorf("scoring message = %q, want Condition: prefix", msg)
	}
	if !strings.Contains(msg, `"employee_id":"CS-0001"`) {
		t.Errorf("scoring message missing employee records: %q", msg)
	}
	if !strings.Contains(gen.calls[1].system, "0.65") {
		t.Error("scoring instructions missing rendered threshold")
	}
}

func TestRunScoringMessageKeepsRawSummaryText(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"Yes", `{"condition":"stress","scored_employees":[]}`}}
	src := &staticSource{records: []employees.HealthSummary{
		{EmployeeID: "CS-0001", Summary: "works in R&D, reports stress <3 nights sleep>"},
	}}
	p := newPipeline(gen, src, defaultOptions())

	if _, err := p.Run(context.Background(), testAdmin(), "stress"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	msg := gen.calls[1].message
	if !strings.Contains(msg, "R&D, reports stress <3 nights sleep>") {
		t.Errorf("scoring message escaped summary text: %q", msg)
	}
	if strings.Contains(msg, `&`) || strings.Contains(msg, `<`) {
		t.Errorf("scoring message contains escaped HTML characters: %q", msg)
	}
}

func TestRunScoredRepeatable(t *testing.T) {
	reply := `{
		"condition": "diabetes",
		"scored_employees": [
			{"employee_id": "CS-0004", "risk_probability": 0.91, "confidence": "high", "evidence": ["type 2 diabetes"]},
			{"employee_id": "CS-0003", "risk_probability": 0.72, "confidence": "medium", "evidence": ["prediabetic", "sedentary"]}
		]
	}`

	run := func() []byte {
		gen := &scriptedGenerator{replies: []string{"Yes", reply}}
		src := &staticSource{records: roster()}
		p := newPipeline(gen, src, defaultOptions())

		outcome, err := p.Run(context.Background(), testAdmin(), "diabetes")
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}

		encoded, err := json.Marshal(outcome.Result)
		if err != nil {
			t.Fatalf("encode result: %v", err)
		}
		return encoded
	}

	first := run()
	second := run()

	if !bytes.Equal(first, second) {
		t.Errorf("repeated runs diverged:\n%s\n%s", first, second)
	}
}

func TestRunGeneralScoringMode(t *testing.T) {
	reply := `{"condition":"x","scored_employees":[
		{"employee_id":"CS-0001","risk_probability":0.3,"confidence":"low","evidence":[]},
		{"employee_id":"CS-0002","risk_probability":0.1,"confidence":"low","evidence":[]}
	]}`

	gen := &scriptedGenerator{replies: []string{"Yes", reply}}
	src := &staticSource{records: roster()[:2]}
	opts := defaultOptions()
	opts.ConditionFromQuery = false
	opts.FilterByThreshold = false
	p := newPipeline(gen, src, opts)

	outcome, err := p.Run(context.Background(), testAdmin(), "overall wellness")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if outcome.Result.Condition != "general_health_risk" {
		t.Errorf("Condition = %q, want general_health_risk", outcome.Result.Condition)
	}
	// filter disabled: low scores survive
	if len(outcome.Result.ScoredEmployees) != 2 {
		t.Fatalf("scored %d employees, want 2", len(outcome.Result.ScoredEmployees))
	}
	if strings.HasPrefix(gen.calls[1].message, "Condition:") {
		t.Errorf("scoring message = %q, want bare JSON array", gen.calls[1].message)
	}
}

func TestRunEmptyScoredResult(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"Yes", `{"condition":"flu","scored_employees":[]}`}}
	src := &staticSource{records: roster()}
	p := newPipeline(gen, src, defaultOptions())

	outcome, err := p.Run(context.Background(), testAdmin(), "flu")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if outcome.Result.ScoredEmployees == nil {
		t.Fatal("ScoredEmployees = nil, want empty slice")
	}
	if len(outcome.Result.ScoredEmployees) != 0 {
		t.Errorf("scored %d employees, want 0", len(outcome.Result.ScoredEmployees))
	}
}

func TestRunThresholdIsExclusive(t *testing.T) {
	// a probability exactly at the threshold is filtered; strictly above survives
	reply := `{"condition":"flu","scored_employees":[
		{"employee_id":"CS-0001","risk_probability":0.65,"confidence":"medium","evidence":[]},
		{"employee_id":"CS-0002","risk_probability":0.66,"confidence":"medium","evidence":[]}
	]}`

	gen := &scriptedGenerator{replies: []string{"Yes", reply}}
	src := &staticSource{records: roster()}
	p := newPipeline(gen, src, defaultOptions())

	outcome, err := p.Run(context.Background(), testAdmin(), "flu")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(outcome.Result.ScoredEmployees) != 1 {
		t.Fatalf("scored %d employees, want 1", len(outcome.Result.ScoredEmployees))
	}
	if got := outcome.Result.ScoredEmployees[0].EmployeeID; got != "CS-0002" {
		t.Errorf("survivor = %q, want CS-0002", got)
	}
}

func TestRunNoEmployees(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"Yes"}}
	src := &staticSource{}
	p := newPipeline(gen, src, defaultOptions())

	_, err := p.Run(context.Background(), testAdmin(), "diabetes")
	if !errors.Is(err, analysis.ErrNoEmployees) {
		t.Fatalf("Run() error = %v, want ErrNoEmployees", err)
	}
	// scoring never runs without records
	if len(gen.calls) != 1 {
		t.Errorf("generator calls = %d, want 1", len(gen.calls))
	}
}

func TestRunContractViolations(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{
			"fabricated employee id",
			`{"condition":"flu","scored_employees":[{"employee_id":"CS-9999","risk_probability":0.9,"confidence":"high","evidence":[]}]}`,
		},
		{
			"duplicate employee id",
			`{"condition":"flu","scored_employees":[
				{"employee_id":"CS-0001","risk_probability":0.9,"confidence":"high","evidence":[]},
				{"employee_id":"CS-0001","risk_probability":0.8,"confidence":"high","evidence":[]}
			]}`,
		},
		{
			"probability above one",
			`{"condition":"flu","scored_employees":[{"employee_id":"CS-0001","risk_probability":1.2,"confidence":"high","evidence":[]}]}`,
		},
		{
			"negative probability",
			`{"condition":"flu","scored_employees":[{"employee_id":"CS-0001","risk_probability":-0.1,"confidence":"low","evidence":[]}]}`,
		},
		{
			"unknown confidence",
			`{"condition":"flu","scored_employees":[{"employee_id":"CS-0001","risk_probability":0.9,"confidence":"certain","evidence":[]}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &scriptedGenerator{replies: []string{"Yes", tt.reply}}
			src := &staticSource{records: roster()}
			p := newPipeline(gen, src, defaultOptions())

			_, err := p.Run(context.Background(), testAdmin(), "flu")
			if !errors.Is(err, analysis.ErrInvalidResult) {
				t.Fatalf("Run() error = %v, want ErrInvalidResult", err)
			}
		})
	}
}

func TestRunScoringNotJSON(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"Yes", "I would estimate the risks as follows..."}}
	src := &staticSource{records: roster()}
	p := newPipeline(gen, src, defaultOptions())

	_, err := p.Run(context.Background(), testAdmin(), "flu")
	if !errors.Is(err, gemini.ErrInvalidResponse) {
		t.Fatalf("Run() error = %v, want ErrInvalidResponse", err)
	}
}

func TestRunClassifierFailure(t *testing.T) {
	upstream := &gemini.UpstreamError{Status: 503, Body: "overloaded"}
	gen := &scriptedGenerator{errs: []error{upstream}, replies: []string{""}}
	src := &staticSource{records: roster()}
	p := newPipeline(gen, src, defaultOptions())

	_, err := p.Run(context.Background(), testAdmin(), "flu")

	var ue *gemini.UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("Run() error = %v, want *UpstreamError", err)
	}
	if src.fetches != 0 {
		t.Errorf("source fetched %d times after classifier failure", src.fetches)
	}
}

func TestRunNoRetries(t *testing.T) {
	gen := &scriptedGenerator{replies: []string{"Yes", "not json at all"}}
	src := &staticSource{records: roster()}
	p := newPipeline(gen, src, defaultOptions())

	p.Run(context.Background(), testAdmin(), "flu")

	// one classify call and one score call, never more
	if len(gen.calls) != 2 {
		t.Errorf("generator calls = %d, want 2", len(gen.calls))
	}
	if src.fetches != 1 {
		t.Errorf("source fetches = %d, want 1", src.fetches)
	}
}
