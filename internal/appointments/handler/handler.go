package handler

import (
	"net/http"
	"strconv"
	"time"

	"dental_clinic_backend/internal/appointments/repository"
	"dental_clinic_backend/internal/appointments/service"
	"dental_clinic_backend/internal/appointments/transport"
	"dental_clinic_backend/internal/clinic"
	"dental_clinic_backend/platform/httpkit"
	"dental_clinic_backend/platform/validator"

	"github.com/gin-gonic/gin"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidDate      = "invalid visitDate format"
)

// Handler handles HTTP requests for appointments
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates a new appointments handler
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RegisterRoutes registers the appointment routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Book)
	rg.PUT("/:id", h.Edit)
	rg.POST("/:id/cancel", h.Cancel)
	rg.GET("", h.List)
}

// callerFrom builds the explicit caller identity for service calls.
func callerFrom(identity httpkit.Identity) clinic.Caller {
	return clinic.Caller{Role: identity.Role(), ActorID: identity.ActorID()}
}

// Book handles POST /api/v1/appointments
func (h *Handler) Book(c *gin.Context) {
	var req transport.BookAppointmentRequest
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

	visitDate, err := time.Parse(clinic.DateFormat, req.VisitDate)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDate)
		return
	}

	appt, err := h.svc.Book(c.Request.Context(), callerFrom(identity), service.BookInput{
		PatientID:    req.PatientID,
		DentistID:    req.DentistID,
		VisitDate:    visitDate,
		VisitTime:    req.VisitTime,
		Content:      req.Content,
		IsNewPatient: req.IsNewPatient,
		VisitType:    req.VisitType,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.ToResponse(appt))
}

// Edit handles PUT /api/v1/appointments/:id
func (h *Handler) Edit(c *gin.Context) {
	appointmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid appointment id")
		return
	}

	var req transport.EditAppointmentRequest
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

	visitDate, err := time.Parse(clinic.DateFormat, req.VisitDate)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidDate)
		return
	}

	appt, err := h.svc.Edit(c.Request.Context(), callerFrom(identity), appointmentID, service.EditInput{
		DentistID:    req.DentistID,
		VisitDate:    visitDate,
		VisitTime:    req.VisitTime,
		Content:      req.Content,
		IsNewPatient: req.IsNewPatient,
		VisitType:    req.VisitType,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToResponse(appt))
}

// Cancel handles POST /api/v1/appointments/:id/cancel
func (h *Handler) Cancel(c *gin.Context) {
	appointmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid appointment id")
		return
	}

	var req transport.CancelAppointmentRequest
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

	err = h.svc.Cancel(c.Request.Context(), callerFrom(identity), appointmentID, req.Reason)
	if httpkit.HandleError(c, err) {
		return
	}

	c.Status(http.StatusNoContent)
}

// List handles GET /api/v1/appointments?dentistId=&date=&status=
func (h *Handler) List(c *gin.Context) {
	var filter repository.ListFilter

	if raw := c.Query("dentistId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid dentistId")
			return
		}
		filter.DentistID = id
	}
	if raw := c.Query("date"); raw != "" {
		date, err := time.Parse(clinic.DateFormat, raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid date format")
			return
		}
		filter.VisitDate = &date
	}
	filter.Status = c.Query("status")

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	items, err := h.svc.List(c.Request.Context(), callerFrom(identity), filter)
	if httpkit.HandleError(c, err) {
		return
	}

	out := make([]transport.AppointmentResponse, len(items))
	for i := range items {
		out[i] = transport.ToResponse(&items[i])
	}
	httpkit.OK(c, out)
}
