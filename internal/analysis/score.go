package analysis

import (
	"context"
	"time"

	"github.com/vigil-health/vigil/internal/employees"
	"github.com/vigil-health/vigil/pkg/gemini"
	"github.com/vigil-health/vigil/pkg/metrics"
)

// score runs the risk scoring stage for the fetched records. In conditioned
// mode the caller's query names the condition and the instruction demands
// threshold-filtered output; otherwise the original fixed-condition,
// score-everyone behavior applies. The raw reply passes through the codec and
// the normalization pass before anything reaches the caller.
func (p *Pipeline) score(ctx context.Context, query string, records []employees.HealthSummary) (*Result, error) {
	condition := generalCondition
	instruction := generalScoringInstructions
	messageCondition := ""

	if p.opts.ConditionFromQuery {
		condition = query
		messageCondition = query
		instruction = conditionScoringInstructions(p.opts.Threshold)
	}

	message, err := buildScoringMessage(messageCondition, records)
	if err != nil {
		return nil, err
	}

	scoreCtx, cancel := stageContext(ctx, p.opts.ScoreTimeout)
	defer cancel()

	start := time.Now()
	text, err := p.generator.Generate(scoreCtx, instruction, message)
	p.metrics.ObserveInference(metrics.StageScore, err, time.Since(start))
	if err != nil {
		return nil, err
	}

	result, err := gemini.Parse[Result](text)
	if err != nil {
		return nil, err
	}

	if err := normalize(&result, condition, records, p.opts); err != nil {
		return nil, err
	}

	return &result, nil
}
