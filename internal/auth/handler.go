package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/vigil-health/vigil/pkg/handlers"
	"github.com/vigil-health/vigil/pkg/routes"
)

// Handler provides HTTP endpoints for login and registration.
type Handler struct {
	sys    System
	logger *slog.Logger
}

// NewHandler creates a Handler with the given system and logger.
func NewHandler(sys System, logger *slog.Logger) *Handler {
	return &Handler{
		sys:    sys,
		logger: logger.With("handler", "auth"),
	}
}

// Routes returns the route group definition for auth endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/login", Handler: h.Login},
			{Method: "POST", Pattern: "/register", Handler: h.Register},
		},
	}
}

// Login exchanges credentials for a bearer token session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var cmd LoginCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if cmd.Identifier == "" || cmd.Password == "" {
		handlers.RespondError(
			w, h.logger,
			http.StatusBadRequest,
			errors.New("identifier and password required"),
		)
		return
	}

	session, err := h.sys.Login(r.Context(), cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, session)
}

// Register creates a new member account pending activation.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var cmd RegisterCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	if cmd.Username == "" || cmd.Email == "" || cmd.Password == "" {
		handlers.RespondError(
			w, h.logger,
			http.StatusBadRequest,
			errors.New("username, email, and password required"),
		)
		return
	}

	if err := h.sys.Register(r.Context(), cmd); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, map[string]string{
		"message": "account registered and pending activation",
	})
}
