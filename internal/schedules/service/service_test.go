package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"dental_clinic_backend/internal/clinic"
	"dental_clinic_backend/internal/notification/intent"
	"dental_clinic_backend/internal/schedules/repository"
	"dental_clinic_backend/internal/schedules/transport"
	"dental_clinic_backend/platform/apperr"
)

type fakeStore struct {
	schedules map[int64]*repository.Schedule
	nextID    int64

	createErr error
	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{schedules: make(map[int64]*repository.Schedule), nextID: 1}
}

func (f *fakeStore) add(s repository.Schedule) *repository.Schedule {
	s.ID = f.nextID
	f.nextID++
	copied := s
	f.schedules[copied.ID] = &copied
	return &copied
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*repository.Schedule, error) {
	s, ok := f.schedules[id]
	if !ok {
		return nil, apperr.NotFound("schedule not found")
	}
	copied := *s
	return &copied, nil
}

func (f *fakeStore) Create(_ context.Context, s *repository.Schedule) error {
	if f.createErr != nil {
		return f.createErr
	}
	s.ID = f.nextID
	f.nextID++
	copied := *s
	f.schedules[s.ID] = &copied
	return nil
}

func (f *fakeStore) Update(_ context.Context, s *repository.Schedule) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.schedules[s.ID]; !ok {
		return apperr.NotFound("schedule not found")
	}
	copied := *s
	f.schedules[s.ID] = &copied
	return nil
}

func (f *fakeStore) UpdateStatusAll(_ context.Context, ids []int64, status string, decidedBy int64) error {
	for _, id := range ids {
		s, ok := f.schedules[id]
		if !ok {
			return apperr.NotFound("schedule not found")
		}
		s.Status = status
		s.UpdatedBy = decidedBy
	}
	return nil
}

func (f *fakeStore) SoftDelete(_ context.Context, id int64, by int64) error {
	s, ok := f.schedules[id]
	if !ok {
		return apperr.NotFound("schedule not found")
	}
	s.IsActive = false
	s.UpdatedBy = by
	return nil
}

func (f *fakeStore) FindActiveConflict(_ context.Context, dentistID int64, workDate time.Time, shift string, excludeID int64) (*repository.Schedule, error) {
	for _, s := range f.schedules {
		if !s.IsActive || s.ID == excludeID {
			continue
		}
		if s.DentistID == dentistID && s.WorkDate.Equal(workDate) && s.Shift == shift {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListByIDs(_ context.Context, ids []int64) ([]repository.Schedule, error) {
	out := make([]repository.Schedule, 0, len(ids))
	for _, id := range ids {
		if s, ok := f.schedules[id]; ok {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) ListWeek(_ context.Context, dentistID int64, weekStart time.Time) ([]repository.Schedule, error) {
	out := make([]repository.Schedule, 0)
	for _, s := range f.schedules {
		if s.IsActive && s.DentistID == dentistID && s.WeekStart.Equal(weekStart) {
			out = append(out, *s)
		}
	}
	return out, nil
}

type recordingEmitter struct {
	intents []intent.Intent
	err     error
}

func (r *recordingEmitter) Emit(_ context.Context, in intent.Intent) error {
	if r.err != nil {
		return r.err
	}
	r.intents = append(r.intents, in)
	return nil
}

type testConfig struct{}

func (testConfig) GetVisitDuration() time.Duration { return 3 * time.Hour }
func (testConfig) GetWeekStart() time.Weekday      { return time.Monday }
func (testConfig) GetAppBaseURL() string           { return "http://localhost:3000" }

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) // a Monday

func newTestService(store *fakeStore, emitter *recordingEmitter) *Service {
	svc := New(store, emitter, testConfig{}, nil)
	svc.now = func() time.Time { return testNow }
	return svc
}

func futureDate(days int) time.Time {
	return clinic.DateOf(testNow).AddDate(0, 0, days)
}

func TestRegisterCreatesPendingSchedule(t *testing.T) {
	store := newFakeStore()
	emitter := &recordingEmitter{}
	svc := newTestService(store, emitter)

	caller := clinic.Caller{Role: clinic.RoleDentist, ActorID: 7}
	sched, err := svc.Register(context.Background(), caller, RegisterInput{
		WorkDate: futureDate(1),
		Shift:    clinic.ShiftMorning,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sched.Status != repository.StatusPending {
		t.Errorf("status = %q, want %q", sched.Status, repository.StatusPending)
	}
	if sched.DentistID != 7 {
		t.Errorf("dentistID = %d, want 7", sched.DentistID)
	}
	if !sched.IsActive {
		t.Error("new schedule should be active")
	}
	if len(emitter.intents) != 1 || emitter.intents[0].UserID != 7 {
		t.Errorf("expected one intent to dentist 7, got %+v", emitter.intents)
	}
}

func TestRegisterRoleChecks(t *testing.T) {
	svc := newTestService(newFakeStore(), &recordingEmitter{})
	in := RegisterInput{WorkDate: futureDate(1), Shift: clinic.ShiftMorning}

	_, err := svc.Register(context.Background(), clinic.Caller{}, in)
	if apperr.GetKind(err) != apperr.KindUnauthorized {
		t.Errorf("zero caller: kind = %v, want unauthorized", apperr.GetKind(err))
	}

	_, err = svc.Register(context.Background(), clinic.Caller{Role: clinic.RolePatient, ActorID: 3}, in)
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Errorf("patient caller: kind = %v, want forbidden", apperr.GetKind(err))
	}
}

func TestRegisterRejectsPastDateAndBadShift(t *testing.T) {
	svc := newTestService(newFakeStore(), &recordingEmitter{})
	caller := clinic.Caller{Role: clinic.RoleDentist, ActorID: 7}

	_, err := svc.Register(context.Background(), caller, RegisterInput{WorkDate: futureDate(-1), Shift: clinic.ShiftMorning})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("past date: kind = %v, want validation", apperr.GetKind(err))
	}

	_, err = svc.Register(context.Background(), caller, RegisterInput{WorkDate: futureDate(1), Shift: "night"})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("bad shift: kind = %v, want validation", apperr.GetKind(err))
	}
}

func TestRegisterConflictOnActiveSlot(t *testing.T) {
	store := newFakeStore()
	store.add(repository.Schedule{
		DentistID: 7, WorkDate: futureDate(1), Shift: clinic.ShiftMorning,
		Status: repository.StatusApproved, IsActive: true,
	})
	svc := newTestService(store, &recordingEmitter{})
	caller := clinic.Caller{Role: clinic.RoleDentist, ActorID: 7}

	_, err := svc.Register(context.Background(), caller, RegisterInput{WorkDate: futureDate(1), Shift: clinic.ShiftMorning})
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Errorf("kind = %v, want conflict", apperr.GetKind(err))
	}
}

func TestRegisterReclaimsRejectedSlot(t *testing.T) {
	store := newFakeStore()
	rejected := store.add(repository.Schedule{
		DentistID: 7, WorkDate: futureDate(1), Shift: clinic.ShiftMorning,
		Status: repository.StatusRejected, IsActive: true,
	})
	svc := newTestService(store, &recordingEmitter{})
	caller := clinic.Caller{Role: clinic.RoleDentist, ActorID: 7}

	sched, err := svc.Register(context.Background(), caller, RegisterInput{WorkDate: futureDate(1), Shift: clinic.ShiftMorning})
	if err != nil {
		t.Fatalf("Register over rejected slot: %v", err)
	}
	if sched.Status != repository.StatusPending {
		t.Errorf("replacement status = %q, want pending", sched.Status)
	}
	if store.schedules[rejected.ID].IsActive {
		t.Error("rejected conflict should have been retired")
	}
}

func TestEditPendingUpdatesInPlace(t *testing.T) {
	store := newFakeStore()
	pending := store.add(repository.Schedule{
		DentistID: 7, WorkDate: futureDate(1), Shift: clinic.ShiftMorning,
		Status: repository.StatusPending, IsActive: true,
	})
	svc := newTestService(store, &recordingEmitter{})
	caller := clinic.Caller{Role: clinic.RoleDentist, ActorID: 7}

	got, err := svc.Edit(context.Background(), caller, pending.ID, EditInput{WorkDate: futureDate(2), Shift: clinic.ShiftEvening})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got.ID != pending.ID {
		t.Errorf("pending edit created a new row: got id %d, want %d", got.ID, pending.ID)
	}
	if got.Shift != clinic.ShiftEvening || got.Status != repository.StatusPending {
		t.Errorf("got shift=%q status=%q, want evening/pending", got.Shift, got.Status)
	}
}

func TestEditApprovedRetiresAndRecreates(t *testing.T) {
	store := newFakeStore()
	approved := store.add(repository.Schedule{
		DentistID: 7, WorkDate: futureDate(1), Shift: clinic.ShiftMorning,
		Status: repository.StatusApproved, IsActive: true,
	})
	svc := newTestService(store, &recordingEmitter{})
	caller := clinic.Caller{Role: clinic.RoleDentist, ActorID: 7}

	got, err := svc.Edit(context.Background(), caller, approved.ID, EditInput{WorkDate: futureDate(2), Shift: clinic.ShiftAfternoon})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got.ID == approved.ID {
		t.Error("approved edit should create a replacement row")
	}
	if got.Status != repository.StatusPending {
		t.Errorf("replacement status = %q, want pending", got.Status)
	}
	if store.schedules[approved.ID].IsActive {
		t.Error("approved original should have been retired")
	}
}

func TestEditApprovedOntoOwnSlot(t *testing.T) {
	store := newFakeStore()
	approved := store.add(repository.Schedule{
		DentistID: 7, WorkDate: futureDate(1), Shift: clinic.ShiftMorning,
		Status: repository.StatusApproved, IsActive: true,
	})
	svc := newTestService(store, &recordingEmitter{})
	caller := clinic.Caller{Role: clinic.RoleDentist, ActorID: 7}

	// Re-submitting the same slot must not conflict with the row being
	// replaced: the old row is excluded from the check and then retired.
	got, err := svc.Edit(context.Background(), caller, approved.ID, EditInput{WorkDate: futureDate(1), Shift: clinic.ShiftMorning})
	if err != nil {
		t.Fatalf("Edit onto own slot: %v", err)
	}
	if got.ID == approved.ID || got.Status != repository.StatusPending {
		t.Errorf("got id=%d status=%q, want fresh pending row", got.ID, got.Status)
	}

	conflict, err := store.FindActiveConflict(context.Background(), 7, futureDate(1), clinic.ShiftMorning, got.ID)
	if err != nil {
		t.Fatalf("FindActiveConflict: %v", err)
	}
	if conflict != nil {
		t.Errorf("retired row still reported as a conflict: %+v", conflict)
	}
}

func TestEditRejectedReentersQueue(t *testing.T) {
	store := newFakeStore()
	rejected := store.add(repository.Schedule{
		DentistID: 7, WorkDate: futureDate(1), Shift: clinic.ShiftMorning,
		Status: repository.StatusRejected, IsActive: true,
	})
	svc := newTestService(store, &recordingEmitter{})
	caller := clinic.Caller{Role: clinic.RoleDentist, ActorID: 7}

	got, err := svc.Edit(context.Background(), caller, rejected.ID, EditInput{WorkDate: futureDate(3), Shift: clinic.ShiftMorning})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if got.ID != rejected.ID || got.Status != repository.StatusPending {
		t.Errorf("rejected edit: got id=%d status=%q, want in-place pending", got.ID, got.Status)
	}
}

func TestEditForbiddenForOtherDentist(t *testing.T) {
	store := newFakeStore()
	sched := store.add(repository.Schedule{
		DentistID: 7, WorkDate: futureDate(1), Shift: clinic.ShiftMorning,
		Status: repository.StatusPending, IsActive: true,
	})
	svc := newTestService(store, &recordingEmitter{})
	caller := clinic.Caller{Role: clinic.RoleDentist, ActorID: 8}

	_, err := svc.Edit(context.Background(), caller, sched.ID, EditInput{WorkDate: futureDate(2), Shift: clinic.ShiftMorning})
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Errorf("kind = %v, want forbidden", apperr.GetKind(err))
	}
}

func TestEditRoleCheckedBeforeExistence(t *testing.T) {
	svc := newTestService(newFakeStore(), &recordingEmitter{})
	caller := clinic.Caller{Role: clinic.RolePatient, ActorID: 3}

	_, err := svc.Edit(context.Background(), caller, 999, EditInput{WorkDate: futureDate(1), Shift: clinic.ShiftMorning})
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Errorf("kind = %v, want forbidden before not-found", apperr.GetKind(err))
	}
}

func TestApplyDecisionApprovesBatch(t *testing.T) {
	store := newFakeStore()
	a := store.add(repository.Schedule{DentistID: 7, WorkDate: futureDate(1), Shift: clinic.ShiftMorning, Status: repository.StatusPending, IsActive: true})
	b := store.add(repository.Schedule{DentistID: 8, WorkDate: futureDate(2), Shift: clinic.ShiftEvening, Status: repository.StatusPending, IsActive: true})
	emitter := &recordingEmitter{}
	svc := newTestService(store, emitter)
	owner := clinic.Caller{Role: clinic.RoleOwner, ActorID: 1}

	if err := svc.ApplyDecision(context.Background(), owner, []int64{a.ID, b.ID}, transport.DecisionApprove); err != nil {
		t.Fatalf("ApplyDecision: %v", err)
	}
	if store.schedules[a.ID].Status != repository.StatusApproved || store.schedules[b.ID].Status != repository.StatusApproved {
		t.Error("both schedules should be approved")
	}
	if len(emitter.intents) != 2 {
		t.Errorf("expected one intent per dentist, got %d", len(emitter.intents))
	}
}

func TestApplyDecisionAllOrNothing(t *testing.T) {
	store := newFakeStore()
	pending := store.add(repository.Schedule{DentistID: 7, WorkDate: futureDate(1), Shift: clinic.ShiftMorning, Status: repository.StatusPending, IsActive: true})
	decided := store.add(repository.Schedule{DentistID: 7, WorkDate: futureDate(2), Shift: clinic.ShiftMorning, Status: repository.StatusApproved, IsActive: true})
	svc := newTestService(store, &recordingEmitter{})
	owner := clinic.Caller{Role: clinic.RoleOwner, ActorID: 1}

	err := svc.ApplyDecision(context.Background(), owner, []int64{pending.ID, decided.ID}, transport.DecisionReject)
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Fatalf("kind = %v, want conflict", apperr.GetKind(err))
	}
	if store.schedules[pending.ID].Status != repository.StatusPending {
		t.Error("pending schedule must be untouched when the batch fails")
	}
}

func TestApplyDecisionMissingScheduleFailsBatch(t *testing.T) {
	store := newFakeStore()
	pending := store.add(repository.Schedule{DentistID: 7, WorkDate: futureDate(1), Shift: clinic.ShiftMorning, Status: repository.StatusPending, IsActive: true})
	svc := newTestService(store, &recordingEmitter{})
	owner := clinic.Caller{Role: clinic.RoleOwner, ActorID: 1}

	err := svc.ApplyDecision(context.Background(), owner, []int64{pending.ID, 999}, transport.DecisionApprove)
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Fatalf("kind = %v, want not found", apperr.GetKind(err))
	}
	if store.schedules[pending.ID].Status != repository.StatusPending {
		t.Error("pending schedule must be untouched when the batch fails")
	}
}

func TestApplyDecisionValidation(t *testing.T) {
	svc := newTestService(newFakeStore(), &recordingEmitter{})
	owner := clinic.Caller{Role: clinic.RoleOwner, ActorID: 1}

	if err := svc.ApplyDecision(context.Background(), owner, nil, transport.DecisionApprove); apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("empty ids: kind = %v, want validation", apperr.GetKind(err))
	}
	if err := svc.ApplyDecision(context.Background(), owner, []int64{1}, "maybe"); apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("bad decision: kind = %v, want validation", apperr.GetKind(err))
	}

	dentist := clinic.Caller{Role: clinic.RoleDentist, ActorID: 7}
	if err := svc.ApplyDecision(context.Background(), dentist, []int64{1}, transport.DecisionApprove); apperr.GetKind(err) != apperr.KindForbidden {
		t.Errorf("dentist caller: kind = %v, want forbidden", apperr.GetKind(err))
	}
}

func TestEmitterFailureDoesNotFailOperation(t *testing.T) {
	store := newFakeStore()
	emitter := &recordingEmitter{err: errors.New("smtp down")}
	svc := newTestService(store, emitter)
	caller := clinic.Caller{Role: clinic.RoleDentist, ActorID: 7}

	sched, err := svc.Register(context.Background(), caller, RegisterInput{WorkDate: futureDate(1), Shift: clinic.ShiftMorning})
	if err != nil {
		t.Fatalf("Register should succeed despite emit failure: %v", err)
	}
	if store.schedules[sched.ID] == nil {
		t.Error("schedule should have been persisted")
	}
}

func TestListWeekScopesDentistToSelf(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, &recordingEmitter{})

	_, err := svc.ListWeek(context.Background(), clinic.Caller{Role: clinic.RoleDentist, ActorID: 7}, 8, testNow)
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Errorf("kind = %v, want forbidden", apperr.GetKind(err))
	}

	week, err := svc.ListWeek(context.Background(), clinic.Caller{Role: clinic.RoleOwner, ActorID: 1}, 7, testNow)
	if err != nil {
		t.Fatalf("owner ListWeek: %v", err)
	}
	if week.WeekStart != "2026-03-02" {
		t.Errorf("weekStart = %q, want 2026-03-02", week.WeekStart)
	}
}
