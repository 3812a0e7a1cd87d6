package handler

import (
	"github.com/gin-gonic/gin"

	"dental_clinic_backend/internal/clinic"
	"dental_clinic_backend/internal/directory/repository"
	"dental_clinic_backend/internal/directory/service"
	"dental_clinic_backend/platform/httpkit"
)

type Handler struct {
	svc *service.Service
}

func New(svc *service.Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dentists", h.ListDentists)
}

// UserResponse is the public directory shape. Email stays internal.
type UserResponse struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

func toResponse(u repository.User) UserResponse {
	return UserResponse{ID: u.ID, FullName: u.FullName, Role: u.Role}
}

func (h *Handler) ListDentists(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}
	caller := clinic.Caller{Role: identity.Role(), ActorID: identity.ActorID()}

	users, err := h.svc.ListDentists(c.Request.Context(), caller)
	if err != nil {
		httpkit.HandleError(c, err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toResponse(u))
	}
	httpkit.OK(c, out)
}
