package api

import (
	"github.com/vigil-health/vigil/internal/analysis"
	"github.com/vigil-health/vigil/internal/auth"
	"github.com/vigil-health/vigil/internal/config"
	"github.com/vigil-health/vigil/internal/employees"
	"github.com/vigil-health/vigil/pkg/gemini"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Auth      auth.System
	Employees employees.System
	Analysis  analysis.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	db := runtime.Database.Connection()

	tokens := auth.NewTokens(cfg.Auth.Secret, cfg.Auth.TokenTTLDuration())
	authSystem := auth.New(db, tokens, runtime.Logger)

	employeeSystem := employees.New(db, runtime.Logger, runtime.Pagination)

	generator := gemini.New(&cfg.Gemini, runtime.Logger)
	pipeline := analysis.NewPipeline(
		generator,
		employeeSystem,
		analysis.Options{
			ClassifyTimeout:    cfg.Pipeline.ClassifyTimeoutDuration(),
			ScoreTimeout:       cfg.Pipeline.ScoreTimeoutDuration(),
			MaxRecords:         cfg.Pipeline.MaxRecords,
			Threshold:          cfg.Pipeline.ScoreThreshold,
			FilterByThreshold:  cfg.Pipeline.FilterEnabled(),
			ConditionFromQuery: cfg.Pipeline.ConditionEnabled(),
		},
		runtime.Metrics,
		runtime.Logger,
	)

	analysisSystem := analysis.New(
		db,
		pipeline,
		cfg.Gemini.Model,
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Auth:      authSystem,
		Employees: employeeSystem,
		Analysis:  analysisSystem,
	}
}
