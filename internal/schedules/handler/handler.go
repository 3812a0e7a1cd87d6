package handler

import (
	"net/http"
	"strconv"
	"time"

	"dental_clinic_backend/internal/clinic"
	"dental_clinic_backend/internal/schedules/service"
	"dental_clinic_backend/internal/schedules/transport"
	"dental_clinic_backend/platform/httpkit"
	"dental_clinic_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidDate      = "invalid workDate format"
)

// Handler handles HTTP requests for schedules
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new schedules handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the schedule routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Register)
	rg.PUT("/:id", h.Edit)
	rg.POST("/decisions", h.Decide)
	rg.GET("/week", h.Week)
}

// callerFrom builds the explicit caller identity for service calls.
// Returns a zero caller when unauthenticated; services fail closed on it.
func callerFrom(identity httpkit.Identity) clinic.Caller {
	return clinic.Caller{Role: identity.Role(), ActorID: identity.ActorID()}
}

// Register handles POST /api/v1/schedules
func (h *Handler) Register(c *gin.Context) {
	var req transport.RegisterScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	workDate, err := time.Parse(clinic.DateFormat, req.WorkDate)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDate)
		return
	}

	sched, err := h.svc.Register(c.Request.Context(), callerFrom(identity), service.RegisterInput{
		WorkDate: workDate,
		Shift:    req.Shift,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToResponse(sched))
}

// Edit handles PUT /api/v1/schedules/:id
func (h *Handler) Edit(c *gin.Context) {
	scheduleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid schedule id")
		return
	}

	var req transport.EditScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	workDate, err := time.Parse(clinic.DateFormat, req.WorkDate)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDate)
		return
	}

	sched, err := h.svc.Edit(c.Request.Context(), callerFrom(identity), scheduleID, service.EditInput{
		WorkDate: workDate,
		Shift:    req.Shift,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToResponse(sched))
}

// Decide handles POST /api/v1/schedules/decisions
func (h *Handler) Decide(c *gin.Context) {
	var req transport.DecideSchedulesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed)
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	err := h.svc.ApplyDecision(c.Request.Context(), callerFrom(identity), req.ScheduleIDs, req.Decision)
	if httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

// Week handles GET /api/v1/schedules/week?dentistId=&date=
func (h *Handler) Week(c *gin.Context) {
	dentistID, err := strconv.ParseInt(c.Query("dentistId"), 10, 64)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid dentistId")
		return
	}

	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		day, err = time.Parse(clinic.DateFormat, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid date format")
			return
		}
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	week, err := h.svc.ListWeek(c.Request.Context(), callerFrom(identity), dentistID, day)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, week)
}
