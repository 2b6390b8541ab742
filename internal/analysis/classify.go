package analysis

import (
	"context"
	"strings"
	"time"

	"github.com/vigil-health/vigil/pkg/metrics"
)

// classify gates the query behind the topical filter. The decision rule is
// exact string comparison after whitespace trimming: any output other than
// the affirmation literal, however close, is a refusal carrying the model's
// actual text. Ambiguous classifications are never retried.
func (p *Pipeline) classify(ctx context.Context, query string) (Verdict, error) {
	ctx, cancel := stageContext(ctx, p.opts.ClassifyTimeout)
	defer cancel()

	start := time.Now()
	text, err := p.generator.Generate(ctx, classifierInstructions, query)
	p.metrics.ObserveInference(metrics.StageClassify, err, time.Since(start))
	if err != nil {
		return Verdict{}, err
	}

	if strings.TrimSpace(text) == Affirmation {
		return Verdict{InDomain: true}, nil
	}

	return Verdict{Message: text}, nil
}

// stageContext bounds a stage with its configured timeout. A non-positive
// timeout leaves the caller's deadline in place: the scoring stage's output
// scales with the record count and may legitimately run unbounded.
func stageContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}
