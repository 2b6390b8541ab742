package api

import (
	"net/http"

	"github.com/vigil-health/vigil/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
) {
	routes.Register(
		mux,
		domain.Employees.Handler().Routes(),
		domain.Analysis.Handler().Routes(),
	)
}
