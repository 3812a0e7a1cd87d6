package notification

import (
	"github.com/jackc/pgx/v5/pgxpool"

	apphttp "dental_clinic_backend/internal/http"
	"dental_clinic_backend/internal/notification/handler"
	"dental_clinic_backend/internal/notification/inapp"
	"dental_clinic_backend/internal/notification/outbox"
	"dental_clinic_backend/platform/logger"
)

// Module bundles in-app notifications and their delivery outbox. Its Emitter
// is handed to every module that announces state changes to users.
type Module struct {
	Emitter *inapp.Service
	Outbox  *outbox.Repository
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	out := outbox.New(pool)
	svc := inapp.NewService(inapp.NewRepository(pool), out, log)

	return &Module{
		Emitter: svc,
		Outbox:  out,
		handler: handler.New(svc),
	}
}

func (m *Module) Name() string { return "notification" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/notifications"))
}

var _ apphttp.Module = (*Module)(nil)
