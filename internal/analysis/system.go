package analysis

import (
	"context"

	"github.com/google/uuid"

	"github.com/vigil-health/vigil/internal/auth"
	"github.com/vigil-health/vigil/pkg/pagination"
)

// AnalyzeCommand carries the free-text query submitted to the pipeline.
type AnalyzeCommand struct {
	Query string `json:"query"`
}

// System defines the public contract for analysis domain operations.
type System interface {
	Handler() *Handler

	// Analyze runs the full pipeline for the principal and records the
	// terminal outcome as history.
	Analyze(ctx context.Context, principal auth.Principal, query string) (*Outcome, error)

	List(
		ctx context.Context,
		orgID uuid.UUID,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Analysis], error)

	Find(ctx context.Context, orgID, id uuid.UUID) (*Analysis, error)
}
