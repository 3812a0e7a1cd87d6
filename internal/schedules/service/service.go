package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"dental_clinic_backend/internal/clinic"
	"dental_clinic_backend/internal/notification/intent"
	"dental_clinic_backend/internal/schedules/repository"
	"dental_clinic_backend/internal/schedules/transport"
	"dental_clinic_backend/platform/apperr"
	"dental_clinic_backend/platform/config"
	"dental_clinic_backend/platform/logger"
)

// Error message constants shared across operations.
const (
	errSlotTaken     = "an active schedule already exists for this slot"
	errPastWorkDate  = "work date must not be in the past"
	errNotOwner      = "schedule belongs to another dentist"
	errOnlyPending   = "only pending schedules may be decided"
	errUnknownShift  = "unknown shift label"
	errShiftRequired = "shift is required"
)

// ScheduleStore is the persistence contract the registry needs. The pgx
// repository satisfies it; tests use an in-memory fake.
type ScheduleStore interface {
	GetByID(ctx context.Context, id int64) (*repository.Schedule, error)
	Create(ctx context.Context, s *repository.Schedule) error
	Update(ctx context.Context, s *repository.Schedule) error
	UpdateStatusAll(ctx context.Context, ids []int64, status string, decidedBy int64) error
	SoftDelete(ctx context.Context, id int64, by int64) error
	FindActiveConflict(ctx context.Context, dentistID int64, workDate time.Time, shift string, excludeID int64) (*repository.Schedule, error)
	ListByIDs(ctx context.Context, ids []int64) ([]repository.Schedule, error)
	ListWeek(ctx context.Context, dentistID int64, weekStart time.Time) ([]repository.Schedule, error)
}

// Config combines the config interfaces the schedules service needs.
type Config interface {
	config.ClinicConfig
	config.NotificationConfig
}

// Service owns the schedule lifecycle: registration, conflict detection,
// conditional edit, and batch approval.
type Service struct {
	store     ScheduleStore
	emitter   intent.Emitter
	log       *logger.Logger
	weekStart time.Weekday
	baseURL   string
	now       func() time.Time
}

// New creates a new schedules service
func New(store ScheduleStore, emitter intent.Emitter, cfg Config, log *logger.Logger) *Service {
	return &Service{
		store:     store,
		emitter:   emitter,
		log:       log,
		weekStart: cfg.GetWeekStart(),
		baseURL:   cfg.GetAppBaseURL(),
		now:       time.Now,
	}
}

// RegisterInput carries the validated fields for a new registration.
type RegisterInput struct {
	WorkDate time.Time
	Shift    string
}

// Register creates a pending schedule for the calling dentist.
// Caller role check comes first, then input validation, then the write-time
// conflict check; a rejected conflict is reclaimed by retiring it.
func (s *Service) Register(ctx context.Context, caller clinic.Caller, in RegisterInput) (*repository.Schedule, error) {
	if err := caller.Require(clinic.RoleDentist); err != nil {
		return nil, err
	}

	workDate, shift, err := s.validateSlot(in.WorkDate, in.Shift)
	if err != nil {
		return nil, err
	}

	if err := s.resolveConflict(ctx, caller.ActorID, workDate, shift, 0); err != nil {
		return nil, err
	}

	now := s.now()
	sched := &repository.Schedule{
		DentistID: caller.ActorID,
		WorkDate:  workDate,
		Shift:     shift,
		Status:    repository.StatusPending,
		WeekStart: clinic.WeekStartOf(workDate, s.weekStart),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: caller.ActorID,
		UpdatedBy: caller.ActorID,
	}
	if err := s.store.Create(ctx, sched); err != nil {
		return nil, err
	}

	s.emit(ctx, intent.Intent{
		UserID:    caller.ActorID,
		Title:     "Work shift submitted",
		Message:   fmt.Sprintf("Your %s shift on %s is awaiting approval.", shift, workDate.Format(clinic.DateFormat)),
		Category:  intent.CategorySchedule,
		RelatedID: sched.ID,
		Link:      s.scheduleLink(sched.ID),
	})

	return sched, nil
}

// EditInput carries the replacement slot for an existing schedule.
type EditInput struct {
	WorkDate time.Time
	Shift    string
}

// Edit moves a schedule to a new date/shift. Pending and rejected schedules
// are updated in place (rejected ones re-enter the approval queue); an
// approved schedule is retired and replaced by a fresh pending row, so an
// approved slot can only change by going through approval again.
func (s *Service) Edit(ctx context.Context, caller clinic.Caller, scheduleID int64, in EditInput) (*repository.Schedule, error) {
	if err := caller.Require(clinic.RoleDentist); err != nil {
		return nil, err
	}

	sched, err := s.store.GetByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.DentistID != caller.ActorID {
		return nil, apperr.Forbidden(errNotOwner)
	}
	if !sched.IsActive {
		return nil, apperr.NotFound("schedule has been retired")
	}

	workDate, shift, err := s.validateSlot(in.WorkDate, in.Shift)
	if err != nil {
		return nil, err
	}

	if err := s.resolveConflict(ctx, caller.ActorID, workDate, shift, sched.ID); err != nil {
		return nil, err
	}

	now := s.now()

	if sched.Status == repository.StatusApproved {
		// Retire-and-recreate: the approved row keeps its history, the
		// replacement starts over in the approval queue.
		if err := s.store.SoftDelete(ctx, sched.ID, caller.ActorID); err != nil {
			return nil, err
		}
		replacement := &repository.Schedule{
			DentistID: caller.ActorID,
			WorkDate:  workDate,
			Shift:     shift,
			Status:    repository.StatusPending,
			WeekStart: clinic.WeekStartOf(workDate, s.weekStart),
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
			CreatedBy: caller.ActorID,
			UpdatedBy: caller.ActorID,
		}
		if err := s.store.Create(ctx, replacement); err != nil {
			return nil, err
		}
		return replacement, nil
	}

	sched.WorkDate = workDate
	sched.Shift = shift
	sched.WeekStart = clinic.WeekStartOf(workDate, s.weekStart)
	sched.Status = repository.StatusPending
	sched.UpdatedAt = now
	sched.UpdatedBy = caller.ActorID
	if err := s.store.Update(ctx, sched); err != nil {
		return nil, err
	}

	return sched, nil
}

// ApplyDecision applies one owner decision to a batch of pending schedules.
// The batch fails as a whole if any schedule is missing or not pending; no
// write happens before every row has been validated.
func (s *Service) ApplyDecision(ctx context.Context, caller clinic.Caller, scheduleIDs []int64, decision string) error {
	if err := caller.Require(clinic.RoleOwner); err != nil {
		return err
	}

	if len(scheduleIDs) == 0 {
		return apperr.Validation("scheduleIds must not be empty")
	}

	var status string
	switch decision {
	case transport.DecisionApprove:
		status = repository.StatusApproved
	case transport.DecisionReject:
		status = repository.StatusRejected
	default:
		return apperr.Validation("decision must be approve or reject")
	}

	ids := dedupe(scheduleIDs)
	scheds, err := s.store.ListByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if len(scheds) != len(ids) {
		return apperr.NotFound("schedule not found")
	}
	for i := range scheds {
		if scheds[i].Status != repository.StatusPending {
			return apperr.Conflict(errOnlyPending)
		}
	}

	if err := s.store.UpdateStatusAll(ctx, ids, status, caller.ActorID); err != nil {
		return err
	}

	s.notifyDecided(ctx, scheds, decision)
	return nil
}

// ListWeek returns a dentist's active schedules for the week containing the
// given date. Dentists may only view their own week.
func (s *Service) ListWeek(ctx context.Context, caller clinic.Caller, dentistID int64, anyDay time.Time) (*transport.WeekResponse, error) {
	if caller.IsZero() {
		return nil, apperr.Unauthorized("caller identity required")
	}
	if caller.Role == clinic.RoleDentist && caller.ActorID != dentistID {
		return nil, apperr.Forbidden("dentists may only view their own schedules")
	}

	weekStart := clinic.WeekStartOf(anyDay, s.weekStart)
	items, err := s.store.ListWeek(ctx, dentistID, weekStart)
	if err != nil {
		return nil, err
	}

	resp := &transport.WeekResponse{
		DentistID: dentistID,
		WeekStart: weekStart.Format(clinic.DateFormat),
		Items:     make([]transport.ScheduleResponse, len(items)),
	}
	for i := range items {
		resp.Items[i] = transport.ToResponse(&items[i])
	}
	return resp, nil
}

// validateSlot normalizes and validates a (date, shift) pair.
func (s *Service) validateSlot(workDate time.Time, shift string) (time.Time, string, error) {
	shift = strings.TrimSpace(shift)
	if shift == "" {
		return time.Time{}, "", apperr.Validation(errShiftRequired)
	}
	if !clinic.ValidShift(shift) {
		return time.Time{}, "", apperr.Validation(errUnknownShift)
	}

	date := clinic.DateOf(workDate)
	if date.Before(clinic.DateOf(s.now())) {
		return time.Time{}, "", apperr.Validation(errPastWorkDate)
	}

	return date, shift, nil
}

// resolveConflict runs the write-time conflict check for a slot. A rejected
// conflict carries no scheduling weight and is reclaimed by retiring it; a
// pending or approved conflict is a hard failure.
func (s *Service) resolveConflict(ctx context.Context, dentistID int64, workDate time.Time, shift string, excludeID int64) error {
	conflict, err := s.store.FindActiveConflict(ctx, dentistID, workDate, shift, excludeID)
	if err != nil {
		return err
	}
	if conflict == nil {
		return nil
	}
	if conflict.Status == repository.StatusRejected {
		return s.store.SoftDelete(ctx, conflict.ID, dentistID)
	}
	return apperr.Conflict(errSlotTaken)
}

// notifyDecided emits one aggregated intent per affected dentist listing the
// decided dates, instead of one intent per schedule.
func (s *Service) notifyDecided(ctx context.Context, scheds []repository.Schedule, decision string) {
	byDentist := make(map[int64][]repository.Schedule)
	for _, sched := range scheds {
		byDentist[sched.DentistID] = append(byDentist[sched.DentistID], sched)
	}

	verb := "approved"
	if decision == transport.DecisionReject {
		verb = "rejected"
	}

	for dentistID, items := range byDentist {
		dates := make([]string, len(items))
		for i, item := range items {
			dates[i] = fmt.Sprintf("%s %s", item.WorkDate.Format(clinic.DateFormat), item.Shift)
		}
		sort.Strings(dates)

		s.emit(ctx, intent.Intent{
			UserID:    dentistID,
			Title:     "Work shifts " + verb,
			Message:   fmt.Sprintf("Your shifts have been %s: %s", verb, strings.Join(dates, ", ")),
			Category:  intent.CategorySchedule,
			RelatedID: items[0].ID,
			Link:      s.scheduleLink(items[0].ID),
		})
	}
}

// emit sends a notification intent best-effort. Failures are logged and
// discarded so they never affect the scheduling state change.
func (s *Service) emit(ctx context.Context, in intent.Intent) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(ctx, in); err != nil && s.log != nil {
		s.log.IntentEmitFailed(in.UserID, in.Title, err)
	}
}

func (s *Service) scheduleLink(id int64) string {
	return fmt.Sprintf("%s/schedules/%d", s.baseURL, id)
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
