// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"net/http"

	"github.com/vigil-health/vigil/internal/auth"
	"github.com/vigil-health/vigil/internal/config"
	"github.com/vigil-health/vigil/internal/infrastructure"
	"github.com/vigil-health/vigil/pkg/middleware"
	"github.com/vigil-health/vigil/pkg/module"
	"github.com/vigil-health/vigil/pkg/routes"
)

// NewModules creates the authentication and API modules. The auth module is
// mounted separately so login and registration stay reachable without a token,
// while every route under the API base path passes through RequireAuth.
func NewModules(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, *module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(cfg, runtime)

	apiMux := http.NewServeMux()
	registerRoutes(apiMux, domain)

	apiModule := module.New(cfg.API.BasePath, apiMux)
	apiModule.Use(middleware.CORS(&cfg.API.CORS))
	apiModule.Use(middleware.Logger(runtime.Logger))
	apiModule.Use(auth.RequireAuth(domain.Auth, runtime.Logger))

	authMux := http.NewServeMux()
	routes.Register(authMux, domain.Auth.Handler().Routes())

	authModule := module.New("/auth", authMux)
	authModule.Use(middleware.CORS(&cfg.API.CORS))
	authModule.Use(middleware.Logger(runtime.Logger))

	return apiModule, authModule, nil
}
