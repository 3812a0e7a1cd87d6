package scheduler

import (
	"context"
	"fmt"
	"time"

	"dental_clinic_backend/internal/appointments/repository"
	"dental_clinic_backend/internal/clinic"
	directory "dental_clinic_backend/internal/directory/repository"
	"dental_clinic_backend/internal/notification/intent"
	"dental_clinic_backend/platform/logger"
)

const defaultSweepInterval = 5 * time.Minute

// OverdueStore is the appointment storage surface the sweep needs.
type OverdueStore interface {
	ListConfirmedBefore(ctx context.Context, cutoff time.Time) ([]repository.Appointment, error)
	UpdateStatus(ctx context.Context, id int64, from, to string, reason *string, actorID int64) error
}

// ReceptionDirectory resolves the reception staff for absence notices.
type ReceptionDirectory interface {
	ListReceptionists(ctx context.Context) ([]directory.User, error)
}

// AbsenceSweeper periodically marks overdue confirmed appointments as
// absented. An appointment is overdue once its whole visit window has
// passed. Each row is settled independently, so one failing row never
// blocks the rest, and a rerun picks up only what is still confirmed.
type AbsenceSweeper struct {
	store    OverdueStore
	dir      ReceptionDirectory
	emitter  intent.Emitter
	log      *logger.Logger
	interval time.Duration
	visitDur time.Duration
	baseURL  string
	now      func() time.Time
}

func NewAbsenceSweeper(store OverdueStore, dir ReceptionDirectory, emitter intent.Emitter, log *logger.Logger, interval, visitDur time.Duration, baseURL string) *AbsenceSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	return &AbsenceSweeper{
		store:    store,
		dir:      dir,
		emitter:  emitter,
		log:      log,
		interval: interval,
		visitDur: visitDur,
		baseURL:  baseURL,
		now:      time.Now,
	}
}

// Run sweeps once immediately, then on every tick until ctx is canceled.
// Ticks run sequentially and never overlap.
func (s *AbsenceSweeper) Run(ctx context.Context) {
	if s == nil || s.store == nil {
		return
	}

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep pass.
func (s *AbsenceSweeper) RunOnce(ctx context.Context) {
	cutoff := s.now().Add(-s.visitDur)
	overdue, err := s.store.ListConfirmedBefore(ctx, cutoff)
	if err != nil {
		s.log.Warn("absence sweep list failed", "error", err)
		return
	}

	var absented, failed int
	for i := range overdue {
		if ctx.Err() != nil {
			break
		}
		appt := &overdue[i]

		err := s.store.UpdateStatus(ctx, appt.ID, repository.StatusConfirmed, repository.StatusAbsented, nil, 0)
		if err != nil {
			// The row may have been attended or canceled since the
			// list query; either way it is no longer ours to settle.
			failed++
			s.log.Warn("absence sweep row failed", "appointmentId", appt.ID, "error", err)
			continue
		}
		absented++

		s.notifyAbsence(ctx, appt)
	}

	s.log.SweepResult(len(overdue), absented, failed)
}

// notifyAbsence announces one absence to the dentist, the patient, and
// every receptionist. All emissions are best-effort.
func (s *AbsenceSweeper) notifyAbsence(ctx context.Context, appt *repository.Appointment) {
	when := fmt.Sprintf("%s at %s", appt.VisitDate.Format(clinic.DateFormat), appt.VisitTime)

	s.emit(ctx, intent.Intent{
		UserID:    appt.DentistID,
		Title:     "Patient absent",
		Message:   fmt.Sprintf("The patient did not attend the visit on %s.", when),
		Category:  intent.CategoryAppointment,
		RelatedID: appt.ID,
		Link:      s.appointmentLink(appt.ID),
	})
	s.emit(ctx, intent.Intent{
		UserID:    appt.PatientID,
		Title:     "Missed appointment",
		Message:   fmt.Sprintf("You missed your visit on %s. Please contact the clinic to rebook.", when),
		Category:  intent.CategoryAppointment,
		RelatedID: appt.ID,
		Link:      s.appointmentLink(appt.ID),
	})

	staff, err := s.dir.ListReceptionists(ctx)
	if err != nil {
		s.log.Warn("absence sweep could not resolve reception staff", "error", err)
		return
	}
	for _, u := range staff {
		s.emit(ctx, intent.Intent{
			UserID:    u.ID,
			Title:     "Patient absent",
			Message:   fmt.Sprintf("The visit on %s was marked absent.", when),
			Category:  intent.CategoryAppointment,
			RelatedID: appt.ID,
			Link:      s.appointmentLink(appt.ID),
		})
	}
}

func (s *AbsenceSweeper) emit(ctx context.Context, in intent.Intent) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(ctx, in); err != nil {
		s.log.IntentEmitFailed(in.UserID, in.Title, err)
	}
}

func (s *AbsenceSweeper) appointmentLink(id int64) string {
	return fmt.Sprintf("%s/appointments/%d", s.baseURL, id)
}
