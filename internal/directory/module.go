package directory

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"dental_clinic_backend/internal/directory/handler"
	"dental_clinic_backend/internal/directory/repository"
	"dental_clinic_backend/internal/directory/service"
	apphttp "dental_clinic_backend/internal/http"
)

// Module bundles the read-only clinic directory.
type Module struct {
	Service *service.Service
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool) *Module {
	repo := repository.New(pool)
	svc := service.New(repo)

	return &Module{
		Service: svc,
		handler: handler.New(svc),
	}
}

func (m *Module) Name() string { return "directory" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected.Group("/directory"))
}

var _ apphttp.Module = (*Module)(nil)
