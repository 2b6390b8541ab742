package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vigil-health/vigil/internal/auth"
	"github.com/vigil-health/vigil/internal/employees"
	"github.com/vigil-health/vigil/pkg/metrics"
)

// Generator performs a single blocking text-generation exchange.
// *gemini.Client satisfies it; tests substitute scripted implementations.
type Generator interface {
	Generate(ctx context.Context, systemInstruction, userMessage string) (string, error)
}

// SummarySource supplies the org-scoped employee summaries to score.
// employees.System satisfies it.
type SummarySource interface {
	HealthSummaries(ctx context.Context, orgID uuid.UUID, limit int) ([]employees.HealthSummary, error)
}

// Pipeline sequences the two inference stages around the data fetch.
// Each Run is independent and shares no mutable state, so a single Pipeline
// serves concurrent callers without coordination.
type Pipeline struct {
	generator Generator
	source    SummarySource
	opts      Options
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewPipeline creates a Pipeline. A nil Metrics disables instrumentation.
func NewPipeline(
	generator Generator,
	source SummarySource,
	opts Options,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		generator: generator,
		source:    source,
		opts:      opts,
		metrics:   m,
		logger:    logger.With("system", "pipeline"),
	}
}

// Run executes one pipeline invocation: authorization gate, classification,
// data fetch, scoring, validation. The authorization check happens before any
// remote call so unauthorized callers never cost inference. Both remote waits
// honor ctx cancellation; a cancelled classify never starts the scoring stage.
func (p *Pipeline) Run(ctx context.Context, principal auth.Principal, query string) (*Outcome, error) {
	admin, ok := principal.(auth.OrgAdmin)
	if !ok {
		return nil, ErrForbidden
	}

	verdict, err := p.classify(ctx, query)
	if err != nil {
		return nil, p.fail(fmt.Errorf("classify query: %w", err))
	}

	if !verdict.InDomain {
		p.logger.Info("query refused", "org", admin.OrgID)
		p.metrics.RecordRun(metrics.OutcomeRefused)
		return &Outcome{Refusal: verdict.Message}, nil
	}

	records, err := p.source.HealthSummaries(ctx, admin.OrgID, p.opts.MaxRecords)
	if err != nil {
		return nil, p.fail(fmt.Errorf("fetch health summaries: %w", err))
	}

	if len(records) == 0 {
		return nil, p.fail(ErrNoEmployees)
	}

	result, err := p.score(ctx, query, records)
	if err != nil {
		return nil, p.fail(err)
	}

	p.logger.Info(
		"analysis complete",
		"org", admin.OrgID,
		"records", len(records),
		"scored", len(result.ScoredEmployees),
	)

	p.metrics.RecordRun(metrics.OutcomeScored)
	return &Outcome{Result: result}, nil
}

func (p *Pipeline) fail(err error) error {
	p.metrics.RecordRun(metrics.OutcomeFailed)
	return err
}
