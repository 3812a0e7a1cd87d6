package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"dental_clinic_backend/internal/notification/inapp"
	"dental_clinic_backend/platform/httpkit"
)

// Handler handles HTTP requests for in-app notifications
type Handler struct {
	svc *inapp.Service
}

// New creates a new notification handler
func New(svc *inapp.Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the notification routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/unread-count", h.UnreadCount)
	rg.POST("/:id/read", h.MarkRead)
	rg.POST("/read-all", h.MarkAllRead)
}

// List handles GET /api/v1/notifications?page=&pageSize=
func (h *Handler) List(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))

	items, total, err := h.svc.List(c.Request.Context(), identity.ActorID(), page, pageSize)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{
		"items": items,
		"total": total,
	})
}

// UnreadCount handles GET /api/v1/notifications/unread-count
func (h *Handler) UnreadCount(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	count, err := h.svc.CountUnread(c.Request.Context(), identity.ActorID())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, gin.H{"count": count})
}

// MarkRead handles POST /api/v1/notifications/:id/read
func (h *Handler) MarkRead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	err := h.svc.MarkRead(c.Request.Context(), identity.ActorID(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

// MarkAllRead handles POST /api/v1/notifications/read-all
func (h *Handler) MarkAllRead(c *gin.Context) {
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	err := h.svc.MarkAllRead(c.Request.Context(), identity.ActorID())
	if httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}
