// Package transport defines the request/response DTOs for the schedules module.
package transport

import (
	"time"

	"dental_clinic_backend/internal/clinic"
	"dental_clinic_backend/internal/schedules/repository"
)

// Decision values accepted by the approval endpoint.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// RegisterScheduleRequest registers a dentist's availability for one slot.
type RegisterScheduleRequest struct {
	WorkDate string `json:"workDate" binding:"required" validate:"required"`
	Shift    string `json:"shift" binding:"required" validate:"required,shift"`
}

// EditScheduleRequest moves an existing registration to a new date/shift.
type EditScheduleRequest struct {
	WorkDate string `json:"workDate" binding:"required" validate:"required"`
	Shift    string `json:"shift" binding:"required" validate:"required,shift"`
}

// DecideSchedulesRequest applies one owner decision to a batch of pending
// schedules. The batch is all-or-nothing.
type DecideSchedulesRequest struct {
	ScheduleIDs []int64 `json:"scheduleIds" binding:"required" validate:"required,min=1"`
	Decision    string  `json:"decision" binding:"required" validate:"required,oneof=approve reject"`
}

// ScheduleResponse is the wire representation of a schedule.
type ScheduleResponse struct {
	ID        int64     `json:"id"`
	DentistID int64     `json:"dentistId"`
	WorkDate  string    `json:"workDate"`
	Shift     string    `json:"shift"`
	Status    string    `json:"status"`
	WeekStart string    `json:"weekStart"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ToResponse converts a repository schedule to its wire form.
func ToResponse(s *repository.Schedule) ScheduleResponse {
	return ScheduleResponse{
		ID:        s.ID,
		DentistID: s.DentistID,
		WorkDate:  s.WorkDate.Format(clinic.DateFormat),
		Shift:     s.Shift,
		Status:    s.Status,
		WeekStart: s.WeekStart.Format(clinic.DateFormat),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// WeekResponse groups one dentist's schedules for a calendar week.
type WeekResponse struct {
	DentistID int64              `json:"dentistId"`
	WeekStart string             `json:"weekStart"`
	Items     []ScheduleResponse `json:"items"`
}
