package analysis

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/vigil-health/vigil/internal/auth"
	"github.com/vigil-health/vigil/pkg/handlers"
	"github.com/vigil-health/vigil/pkg/pagination"
	"github.com/vigil-health/vigil/pkg/routes"
)

// Handler provides HTTP endpoints for running analyses and browsing history.
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
		logger:     logger.With("handler", "analysis"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for analysis endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/analysis",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Analyze},
			{Method: "GET", Pattern: "", Handler: h.List},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find},
			{Method: "POST", Pattern: "/search", Handler: h.Search},
		},
	}
}

// Analyze runs the two-stage pipeline for the caller's query. The response is
// asymmetric: refusals arrive as {"result": "<sentence>"}, in-domain queries
// as the full scored result. Both are 200s; the caller branches on shape.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusForbidden, ErrForbidden)
		return
	}

	var cmd AnalyzeCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if cmd.Query == "" {
		handlers.RespondError(
			w, h.logger,
			http.StatusBadRequest,
			errors.New("query required"),
		)
		return
	}

	outcome, err := h.sys.Analyze(r.Context(), principal, cmd.Query)
	if err != nil {
		h.respondPipelineError(w, err)
		return
	}

	if outcome.Result == nil {
		handlers.RespondJSON(w, http.StatusOK, map[string]string{"result": outcome.Refusal})
		return
	}

	handlers.RespondJSON(w, http.StatusOK, outcome.Result)
}

// List returns the caller organization's paginated analysis history.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	admin, ok := callerOrgAdmin(r)
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

// Find returns a single recorded analysis by its UUID path parameter.
func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	admin, ok := callerOrgAdmin(r)
	if !ok {
		handlers.RespondError(w, h.logger, http.StatusForbidden, ErrForbidden)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrNotFound)
		return
	}

	a, err := h.sys.Find(r.Context(), admin.OrgID, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, a)
}

// Search accepts a JSON body with pagination and filter criteria and returns
// matching recorded analyses.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	admin, ok := callerOrgAdmin(r)
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

// respondPipelineError keeps raw model text and upstream bodies out of the
// response: bad-gateway class failures surface an opaque message while the
// underlying detail goes to operator logs.
func (h *Handler) respondPipelineError(w http.ResponseWriter, err error) {
	status := MapHTTPStatus(err)

	if status == http.StatusBadGateway {
		h.logger.Error("pipeline upstream failure", "error", err)
		handlers.RespondError(w, h.logger, status, ErrUpstream)
		return
	}

	handlers.RespondError(w, h.logger, status, err)
}

func callerOrgAdmin(r *http.Request) (auth.OrgAdmin, bool) {
	principal, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		return auth.OrgAdmin{}, false
	}

	admin, ok := principal.(auth.OrgAdmin)
	return admin, ok
}
