package employees

import (
	"context"

	"github.com/google/uuid"

	"github.com/vigil-health/vigil/pkg/pagination"
)

// System defines the public contract for employee domain operations.
// Every operation is scoped to a single organization.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		orgID uuid.UUID,
		page pagination.PageRequest,
		filters Filters,
	) (*pagination.PageResult[Employee], error)

	Find(ctx context.Context, orgID uuid.UUID, employeeID string) (*Employee, error)

	// HealthSummaries returns the id/summary pairs for an organization in
	// stable employee id order. A limit of zero means unbounded.
	HealthSummaries(ctx context.Context, orgID uuid.UUID, limit int) ([]HealthSummary, error)
}
