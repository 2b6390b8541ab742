package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vigil-health/vigil/internal/auth"
	"github.com/vigil-health/vigil/pkg/pagination"
	"github.com/vigil-health/vigil/pkg/query"
	"github.com/vigil-health/vigil/pkg/repository"
)

type repo struct {
	db         *sql.DB
	pipeline   *Pipeline
	model      string
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an analysis repository implementing the System interface.
// The model name is stored alongside each run so history stays attributable
// after model upgrades.
func New(
	db *sql.DB,
	pipeline *Pipeline,
	model string,
	logger *slog.Logger,
	pagination pagination.Config,
) System {
	return &repo{
		db:         db,
		pipeline:   pipeline,
		model:      model,
		logger:     logger.With("system", "analysis"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) Analyze(ctx context.Context, principal auth.Principal, q string) (*Outcome, error) {
	outcome, err := r.pipeline.Run(ctx, principal, q)
	if err != nil {
		return nil, err
	}

	// Run succeeded, so the principal is guaranteed to be an org admin.
	admin := principal.(auth.OrgAdmin)

	if err := r.record(ctx, admin, q, outcome); err != nil {
		// History is best-effort: a failed insert must not retract a
		// completed analysis from the caller.
		r.logger.Warn("failed to record analysis run", "org", admin.OrgID, "error", err)
	}

	return outcome, nil
}

func (r *repo) record(ctx context.Context, admin auth.OrgAdmin, q string, outcome *Outcome) error {
	var (
		status    string
		condition *string
		payload   []byte
		err       error
	)

	if outcome.Result != nil {
		status = StatusScored
		condition = &outcome.Result.Condition
		payload, err = json.Marshal(outcome.Result)
		if err != nil {
			return fmt.Errorf("encode result: %w", err)
		}
	} else {
		status = StatusRefused
		payload, err = json.Marshal(map[string]string{"result": outcome.Refusal})
		if err != nil {
			return fmt.Errorf("encode refusal: %w", err)
		}
	}

	insert := `
		INSERT INTO analyses(id, org_id, requested_by, query, condition, status, result, model_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.ExecContext(
		ctx, insert,
		uuid.New(), admin.OrgID, admin.ID, q, condition, status, payload, r.model,
	)
	return err
}

func (r *repo) List(
	ctx context.Context,
	orgID uuid.UUID,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Analysis], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("OrgID", orgID).
		WhereSearch(page.Search, "Query", "Condition")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count analyses: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanAnalysis)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, orgID, id uuid.UUID) (*Analysis, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("OrgID", orgID).
		WhereEquals("ID", id).
		BuildSingleOrNull()

	a, err := repository.QueryOne(ctx, r.db, q, args, scanAnalysis)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &a, nil
}
