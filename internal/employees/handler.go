package employees

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/vigil-health/vigil/internal/auth"
	"github.com/vigil-health/vigil/pkg/handlers"
	"github.com/vigil-health/vigil/pkg/pagination"
	"github.com/vigil-health/vigil/pkg/routes"
)

// Handler provides HTTP endpoints for employee record operations.
// All endpoints require an org admin principal; the organization scope is
// taken from the principal, never from the request.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "employees"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for employee endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/employees",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
		},
	}
}

// List returns a paginated, attribute-filtered list of the caller's employees.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	admin, ok := orgAdmin(r)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusForbidden, ErrForbidden)
		return
	}

	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), admin.OrgID, page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Find returns a single employee by its id path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	admin, ok := orgAdmin(r)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusForbidden, ErrForbidden)
		return
	}

	e, err := h.sys.Find(r.Context(), admin.OrgID, r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, e)
}

// Search accepts a JSON body with pagination and filter criteria and returns
// matching employees.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	admin, ok := orgAdmin(r)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusForbidden, ErrForbidden)
		return
	}

	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), admin.OrgID, req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func orgAdmin(r *http.Request) (auth.OrgAdmin, bool) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		return auth.OrgAdmin{}, false
	}

	admin, ok := principal.(auth.OrgAdmin)
	return admin, ok
}
