package appointments

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"dental_clinic_backend/internal/appointments/handler"
	"dental_clinic_backend/internal/appointments/repository"
	"dental_clinic_backend/internal/appointments/service"
	apphttp "dental_clinic_backend/internal/http"
	"dental_clinic_backend/internal/notification/intent"
	"dental_clinic_backend/platform/logger"
	"dental_clinic_backend/platform/validator"
)

// Module bundles the appointment ledger.
type Module struct {
	Service    *service.Service
	Repository *repository.Repository
	handler    *handler.Handler
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator, dir service.Directory, emitter intent.Emitter, reminders service.ReminderScheduler, cfg service.Config, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, dir, emitter, reminders, cfg, log)

	return &Module{
		Service:    svc,
		Repository: repo,
		handler:    handler.New(svc, val),
	}
}

func (m *Module) Name() string { return "appointments" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/appointments"))
}

var _ apphttp.Module = (*Module)(nil)
