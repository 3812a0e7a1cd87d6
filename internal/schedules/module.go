// Package schedules provides the work-shift scheduling domain module.
package schedules

import (
	apphttp "dental_clinic_backend/internal/http"
	"dental_clinic_backend/internal/notification/intent"
	"dental_clinic_backend/internal/schedules/handler"
	"dental_clinic_backend/internal/schedules/repository"
	"dental_clinic_backend/internal/schedules/service"
	"dental_clinic_backend/platform/logger"
	"dental_clinic_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module represents the schedules domain module
type Module struct {
	handler *handler.Handler
	Service *service.Service
}

// NewModule creates a new schedules module with all dependencies wired
func NewModule(pool *pgxpool.Pool, val *validator.Validator, emitter intent.Emitter, cfg service.Config, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, emitter, cfg, log)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		Service: svc,
	}
}

// Name returns the module name for logging
func (m *Module) Name() string {
	return "schedules"
}

// RegisterRoutes registers the module's routes under /api/v1/schedules
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	schedules := ctx.Protected.Group("/schedules")
	m.handler.RegisterRoutes(schedules)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
