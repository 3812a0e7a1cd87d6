package service

import (
	"context"
	"fmt"
	"time"

	"dental_clinic_backend/internal/appointments/repository"
	"dental_clinic_backend/internal/clinic"
	directory "dental_clinic_backend/internal/directory/repository"
	"dental_clinic_backend/internal/notification/intent"
	"dental_clinic_backend/platform/apperr"
	"dental_clinic_backend/platform/config"
	"dental_clinic_backend/platform/logger"
)

// Error message constants shared across operations.
const (
	errNotEditable    = "appointment is not editable"
	errNotCancelable  = "appointment is not cancelable"
	errNotYours       = "appointment belongs to another patient"
	errPastVisit      = "visit must not be scheduled in the past"
	errPatientBooked  = "patient already has a confirmed appointment"
	errUnknownDentist = "dentist not found"
	errUnknownPatient = "patient not found"
)

// AppointmentStore is the persistence contract the ledger needs. The pgx
// repository satisfies it; tests use an in-memory fake.
type AppointmentStore interface {
	Create(ctx context.Context, a *repository.Appointment) (int64, error)
	GetByID(ctx context.Context, id int64) (*repository.Appointment, error)
	Update(ctx context.Context, a *repository.Appointment) error
	UpdateStatus(ctx context.Context, id int64, from, to string, reason *string, actorID int64) error
	FindConfirmedByPatient(ctx context.Context, patientID int64) (*repository.Appointment, error)
	List(ctx context.Context, f repository.ListFilter) ([]repository.Appointment, error)
}

// Directory resolves the people an appointment refers to.
type Directory interface {
	GetDentist(ctx context.Context, id int64) (*directory.User, error)
	GetPatient(ctx context.Context, id int64) (*directory.User, error)
	ListReceptionists(ctx context.Context) ([]directory.User, error)
}

// ReminderScheduler enqueues a delayed reminder for a booked visit.
// Scheduling is best-effort; a failure never blocks the booking.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, appointmentID int64, remindAt time.Time) error
}

// Config combines the config interfaces the appointments service needs.
type Config interface {
	config.ClinicConfig
	config.NotificationConfig
}

// Service owns the appointment lifecycle: booking, reception edits, and
// patient cancellation. Attendance and absence are driven elsewhere.
type Service struct {
	store     AppointmentStore
	dir       Directory
	emitter   intent.Emitter
	reminders ReminderScheduler
	log       *logger.Logger
	visitDur  time.Duration
	baseURL   string
	now       func() time.Time
}

// New creates a new appointments service
func New(store AppointmentStore, dir Directory, emitter intent.Emitter, reminders ReminderScheduler, cfg Config, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		dir:       dir,
		emitter:   emitter,
		reminders: reminders,
		log:       log,
		visitDur:  cfg.GetVisitDuration(),
		baseURL:   cfg.GetAppBaseURL(),
		now:       time.Now,
	}
}

// BookInput carries the validated fields for a new booking.
type BookInput struct {
	PatientID    int64
	DentistID    int64
	VisitDate    time.Time
	VisitTime    string
	Content      string
	IsNewPatient bool
	VisitType    string
}

// Book creates a confirmed appointment on behalf of a patient. Reception
// books; the patient may hold at most one confirmed appointment at a time.
func (s *Service) Book(ctx context.Context, caller clinic.Caller, in BookInput) (*repository.Appointment, error) {
	if err := caller.Require(clinic.RoleReceptionist); err != nil {
		return nil, err
	}

	dentist, err := s.dir.GetDentist(ctx, in.DentistID)
	if err != nil {
		return nil, err
	}
	if dentist == nil {
		return nil, apperr.NotFound(errUnknownDentist)
	}
	patient, err := s.dir.GetPatient(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if patient == nil {
		return nil, apperr.NotFound(errUnknownPatient)
	}

	visitDate, err := s.validateVisit(in.VisitDate, in.VisitTime, 0)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.FindConfirmedByPatient(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, apperr.Conflict(errPatientBooked)
	}

	now := s.now()
	appt := &repository.Appointment{
		PatientID:    in.PatientID,
		DentistID:    in.DentistID,
		VisitDate:    visitDate,
		VisitTime:    in.VisitTime,
		Status:       repository.StatusConfirmed,
		Content:      in.Content,
		IsNewPatient: in.IsNewPatient,
		VisitType:    in.VisitType,
		CreatedAt:    now,
		UpdatedAt:    now,
		CreatedBy:    caller.ActorID,
		UpdatedBy:    caller.ActorID,
	}
	id, err := s.store.Create(ctx, appt)
	if err != nil {
		return nil, err
	}
	appt.ID = id

	when := fmt.Sprintf("%s at %s", visitDate.Format(clinic.DateFormat), in.VisitTime)
	s.emit(ctx, intent.Intent{
		UserID:    in.PatientID,
		Title:     "Appointment confirmed",
		Message:   fmt.Sprintf("Your visit with %s is booked for %s.", dentist.FullName, when),
		Category:  intent.CategoryAppointment,
		RelatedID: id,
		Link:      s.appointmentLink(id),
	})
	s.emit(ctx, intent.Intent{
		UserID:    in.DentistID,
		Title:     "New appointment",
		Message:   fmt.Sprintf("%s is booked with you for %s.", patient.FullName, when),
		Category:  intent.CategoryAppointment,
		RelatedID: id,
		Link:      s.appointmentLink(id),
	})

	s.scheduleReminder(ctx, appt)

	return appt, nil
}

// EditInput carries the replacement visit fields for an existing appointment.
type EditInput struct {
	DentistID    int64
	VisitDate    time.Time
	VisitTime    string
	Content      string
	IsNewPatient bool
	VisitType    string
}

// Edit rewrites a confirmed appointment in place. Terminal appointments
// cannot be edited; a canceled visit is rebooked, not revived.
func (s *Service) Edit(ctx context.Context, caller clinic.Caller, id int64, in EditInput) (*repository.Appointment, error) {
	if err := caller.Require(clinic.RoleReceptionist); err != nil {
		return nil, err
	}

	appt, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dentist, err := s.dir.GetDentist(ctx, in.DentistID)
	if err != nil {
		return nil, err
	}
	if dentist == nil {
		return nil, apperr.NotFound(errUnknownDentist)
	}

	if appt.Status != repository.StatusConfirmed {
		return nil, apperr.Validation(errNotEditable)
	}

	visitDate, err := s.validateVisit(in.VisitDate, in.VisitTime, s.visitDur)
	if err != nil {
		return nil, err
	}

	previousDentist := appt.DentistID

	appt.DentistID = in.DentistID
	appt.VisitDate = visitDate
	appt.VisitTime = in.VisitTime
	appt.Content = in.Content
	appt.IsNewPatient = in.IsNewPatient
	appt.VisitType = in.VisitType
	appt.UpdatedAt = s.now()
	appt.UpdatedBy = caller.ActorID
	if err := s.store.Update(ctx, appt); err != nil {
		return nil, err
	}

	when := fmt.Sprintf("%s at %s", visitDate.Format(clinic.DateFormat), in.VisitTime)
	s.emit(ctx, intent.Intent{
		UserID:    appt.PatientID,
		Title:     "Appointment updated",
		Message:   fmt.Sprintf("Your visit has been moved to %s with %s.", when, dentist.FullName),
		Category:  intent.CategoryAppointment,
		RelatedID: appt.ID,
		Link:      s.appointmentLink(appt.ID),
	})
	s.emit(ctx, intent.Intent{
		UserID:    appt.DentistID,
		Title:     "Appointment updated",
		Message:   fmt.Sprintf("A visit on your calendar has been moved to %s.", when),
		Category:  intent.CategoryAppointment,
		RelatedID: appt.ID,
		Link:      s.appointmentLink(appt.ID),
	})
	if previousDentist != appt.DentistID {
		s.emit(ctx, intent.Intent{
			UserID:    previousDentist,
			Title:     "Appointment reassigned",
			Message:   fmt.Sprintf("The visit on %s has been reassigned to %s.", when, dentist.FullName),
			Category:  intent.CategoryAppointment,
			RelatedID: appt.ID,
			Link:      s.appointmentLink(appt.ID),
		})
	}

	s.scheduleReminder(ctx, appt)

	return appt, nil
}

// Cancel lets the owning patient call off a confirmed appointment.
func (s *Service) Cancel(ctx context.Context, caller clinic.Caller, id int64, reason string) error {
	if err := caller.Require(clinic.RolePatient); err != nil {
		return err
	}

	appt, err := s.store.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if appt.PatientID != caller.ActorID {
		return apperr.Forbidden(errNotYours)
	}
	if appt.Status != repository.StatusConfirmed {
		return apperr.Validation(errNotCancelable)
	}

	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	if err := s.store.UpdateStatus(ctx, id, repository.StatusConfirmed, repository.StatusCanceled, reasonPtr, caller.ActorID); err != nil {
		return err
	}

	when := fmt.Sprintf("%s at %s", appt.VisitDate.Format(clinic.DateFormat), appt.VisitTime)
	msg := fmt.Sprintf("The visit on %s has been canceled by the patient.", when)
	if reason != "" {
		msg = fmt.Sprintf("The visit on %s has been canceled by the patient: %s", when, reason)
	}

	s.emit(ctx, intent.Intent{
		UserID:    appt.DentistID,
		Title:     "Appointment canceled",
		Message:   msg,
		Category:  intent.CategoryAppointment,
		RelatedID: appt.ID,
		Link:      s.appointmentLink(appt.ID),
	})
	s.notifyReception(ctx, "Appointment canceled", msg, appt.ID)

	return nil
}

// List returns appointments for the reception desk, or a patient's own.
func (s *Service) List(ctx context.Context, caller clinic.Caller, f repository.ListFilter) ([]repository.Appointment, error) {
	if caller.IsZero() {
		return nil, apperr.Unauthorized("caller identity required")
	}
	switch caller.Role {
	case clinic.RoleReceptionist, clinic.RoleOwner:
	case clinic.RoleDentist:
		f.DentistID = caller.ActorID
	case clinic.RolePatient:
		f.PatientID = caller.ActorID
	default:
		return nil, apperr.Forbidden("role may not list appointments")
	}

	return s.store.List(ctx, f)
}

// validateVisit normalizes the visit date and rejects slots already in the
// past. Same-day slots must not have ended before now: grace is zero when
// booking (the visit must not have started) and the visit duration when
// editing (a visit still in progress may be corrected).
func (s *Service) validateVisit(visitDate time.Time, visitTime string, grace time.Duration) (time.Time, error) {
	date := clinic.DateOf(visitDate)
	now := s.now()
	today := clinic.DateOf(now)

	if date.Before(today) {
		return time.Time{}, apperr.Validation(errPastVisit)
	}
	if date.Equal(today) {
		clock, err := time.Parse(clinic.TimeFormat, visitTime)
		if err != nil {
			return time.Time{}, apperr.Validation("visit time must be HH:MM")
		}
		if clinic.At(date, clock).Add(grace).Before(now) {
			return time.Time{}, apperr.Validation(errPastVisit)
		}
	}

	return date, nil
}

// scheduleReminder enqueues a reminder 24 hours before the visit. Visits
// closer than that get no reminder. Failures are logged and discarded.
func (s *Service) scheduleReminder(ctx context.Context, appt *repository.Appointment) {
	if s.reminders == nil {
		return
	}
	remindAt := appt.StartsAt().Add(-24 * time.Hour)
	if !remindAt.After(s.now()) {
		return
	}
	if err := s.reminders.ScheduleReminder(ctx, appt.ID, remindAt); err != nil && s.log != nil {
		s.log.Error("failed to schedule appointment reminder", "appointmentId", appt.ID, "error", err)
	}
}

// notifyReception fans one intent out to every active receptionist.
func (s *Service) notifyReception(ctx context.Context, title, message string, relatedID int64) {
	staff, err := s.dir.ListReceptionists(ctx)
	if err != nil {
		if s.log != nil {
			s.log.Error("failed to resolve reception staff for notification", "error", err)
		}
		return
	}
	for _, u := range staff {
		s.emit(ctx, intent.Intent{
			UserID:    u.ID,
			Title:     title,
			Message:   message,
			Category:  intent.CategoryAppointment,
			RelatedID: relatedID,
			Link:      s.appointmentLink(relatedID),
		})
	}
}

// emit sends a notification intent best-effort. Failures are logged and
// discarded so they never affect the appointment state change.
func (s *Service) emit(ctx context.Context, in intent.Intent) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(ctx, in); err != nil && s.log != nil {
		s.log.IntentEmitFailed(in.UserID, in.Title, err)
	}
}

func (s *Service) appointmentLink(id int64) string {
	return fmt.Sprintf("%s/appointments/%d", s.baseURL, id)
}
