package transport

import (
	"dental_clinic_backend/internal/appointments/repository"
	"dental_clinic_backend/internal/clinic"
)

// BookAppointmentRequest creates a confirmed appointment for a patient.
type BookAppointmentRequest struct {
	PatientID    int64  `json:"patientId" binding:"required" validate:"required,gt=0"`
	DentistID    int64  `json:"dentistId" binding:"required" validate:"required,gt=0"`
	VisitDate    string `json:"visitDate" binding:"required" validate:"required,datetime=2006-01-02"`
	VisitTime    string `json:"visitTime" binding:"required" validate:"required,datetime=15:04"`
	Content      string `json:"content" validate:"max=2000"`
	IsNewPatient bool   `json:"isNewPatient"`
	VisitType    string `json:"visitType" validate:"max=100"`
}

// EditAppointmentRequest rewrites the visit fields of a confirmed appointment.
type EditAppointmentRequest struct {
	DentistID    int64  `json:"dentistId" binding:"required" validate:"required,gt=0"`
	VisitDate    string `json:"visitDate" binding:"required" validate:"required,datetime=2006-01-02"`
	VisitTime    string `json:"visitTime" binding:"required" validate:"required,datetime=15:04"`
	Content      string `json:"content" validate:"max=2000"`
	IsNewPatient bool   `json:"isNewPatient"`
	VisitType    string `json:"visitType" validate:"max=100"`
}

// CancelAppointmentRequest records why the patient called off the visit.
type CancelAppointmentRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// AppointmentResponse is the API shape of an appointment.
type AppointmentResponse struct {
	ID           int64   `json:"id"`
	PatientID    int64   `json:"patientId"`
	DentistID    int64   `json:"dentistId"`
	VisitDate    string  `json:"visitDate"`
	VisitTime    string  `json:"visitTime"`
	Status       string  `json:"status"`
	Content      string  `json:"content"`
	CancelReason *string `json:"cancelReason,omitempty"`
	IsNewPatient bool    `json:"isNewPatient"`
	VisitType    string  `json:"visitType"`
	CreatedAt    string  `json:"createdAt"`
	UpdatedAt    string  `json:"updatedAt"`
}

// ToResponse converts a stored appointment to its API shape.
func ToResponse(a *repository.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:           a.ID,
		PatientID:    a.PatientID,
		DentistID:    a.DentistID,
		VisitDate:    a.VisitDate.Format(clinic.DateFormat),
		VisitTime:    a.VisitTime,
		Status:       a.Status,
		Content:      a.Content,
		CancelReason: a.CancelReason,
		IsNewPatient: a.IsNewPatient,
		VisitType:    a.VisitType,
		CreatedAt:    a.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:    a.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
