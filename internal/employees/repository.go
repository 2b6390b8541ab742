package employees

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/vigil-health/vigil/pkg/pagination"
	"github.com/vigil-health/vigil/pkg/query"
	"github.com/vigil-health/vigil/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates an employee repository implementing the System interface.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "employees"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

func (r *repo) List(
	ctx context.Context,
	orgID uuid.UUID,
	page pagination.PageRequest,
	filters Filters,
) (*pagination.PageResult[Employee], error) {
	page.Normalize(r.pagination)

	qb := query.
		NewBuilder(projection, defaultSort).
		WhereEquals("OrgID", orgID).
		WhereSearch(page.Search, "Name", "Department", "Summary")

	filters.Apply(qb)

	if len(page.Sort) > 0 {
		qb.OrderByFields(page.Sort)
	}

	countSQL, countArgs := qb.BuildCount()
	var total int
	if err := r.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count employees: %w", err)
	}

	pageSQL, pageArgs := qb.BuildPage(page.Page, page.PageSize)
	items, err := repository.QueryMany(ctx, r.db, pageSQL, pageArgs, scanEmployee)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, orgID uuid.UUID, employeeID string) (*Employee, error) {
	q, args := query.
		NewBuilder(projection).
		WhereEquals("OrgID", orgID).
		WhereEquals("EmployeeID", employeeID).
		BuildSingleOrNull()

	e, err := repository.QueryOne(ctx, r.db, q, args, scanEmployee)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrDuplicate)
	}
	return &e, nil
}

func (r *repo) HealthSummaries(ctx context.Context, orgID uuid.UUID, limit int) ([]HealthSummary, error) {
	q := `
		SELECT employee_id, COALESCE(summary, '')
		FROM employees
		WHERE org_id = $1
		ORDER BY employee_id`

	args := []any{orgID}
	if limit > 0 {
		q += " LIMIT $2"
		args = append(args, limit)
	}

	summaries, err := repository.QueryMany(ctx, r.db, q, args, scanHealthSummary)
	if err != nil {
		return nil, fmt.Errorf("query health summaries: %w", err)
	}

	return summaries, nil
}

func scanHealthSummary(s repository.Scanner) (HealthSummary, error) {
	var hs HealthSummary
	err := s.Scan(&hs.EmployeeID, &hs.Summary)
	return hs, err
}
