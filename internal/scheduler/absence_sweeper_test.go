package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"dental_clinic_backend/internal/appointments/repository"
	"dental_clinic_backend/internal/clinic"
	directory "dental_clinic_backend/internal/directory/repository"
	"dental_clinic_backend/internal/notification/intent"
	"dental_clinic_backend/platform/apperr"
	"dental_clinic_backend/platform/logger"
)

type fakeOverdueStore struct {
	appointments map[int64]*repository.Appointment
	failIDs      map[int64]bool
}

func newFakeOverdueStore() *fakeOverdueStore {
	return &fakeOverdueStore{
		appointments: make(map[int64]*repository.Appointment),
		failIDs:      make(map[int64]bool),
	}
}

func (f *fakeOverdueStore) add(id int64, a repository.Appointment) {
	a.ID = id
	copied := a
	f.appointments[id] = &copied
}

func (f *fakeOverdueStore) ListConfirmedBefore(_ context.Context, cutoff time.Time) ([]repository.Appointment, error) {
	out := make([]repository.Appointment, 0)
	for _, a := range f.appointments {
		if a.Status == repository.StatusConfirmed && a.StartsAt().Before(cutoff) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeOverdueStore) UpdateStatus(_ context.Context, id int64, from, to string, reason *string, actorID int64) error {
	if f.failIDs[id] {
		return errors.New("write failed")
	}
	a, ok := f.appointments[id]
	if !ok || a.Status != from {
		return apperr.NotFound("appointment not found or already transitioned")
	}
	a.Status = to
	a.CancelReason = reason
	a.UpdatedBy = actorID
	return nil
}

type fakeReception struct {
	staff []directory.User
}

func (f *fakeReception) ListReceptionists(_ context.Context) ([]directory.User, error) {
	return f.staff, nil
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

var sweepNow = time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC)

func newTestSweeper(store *fakeOverdueStore, emitter *recordingEmitter) *AbsenceSweeper {
	dir := &fakeReception{staff: []directory.User{
		{ID: 30, Role: clinic.RoleReceptionist},
		{ID: 31, Role: clinic.RoleReceptionist},
	}}
	s := NewAbsenceSweeper(store, dir, emitter, logger.New("test"), time.Minute, 3*time.Hour, "http://localhost:3000")
	s.now = func() time.Time { return sweepNow }
	return s
}

func confirmedAt(date time.Time, clock string) repository.Appointment {
	return repository.Appointment{
		PatientID: 20, DentistID: 10,
		VisitDate: date, VisitTime: clock,
		Status: repository.StatusConfirmed,
	}
}

func TestRunOnceAbsentsOverdueAppointments(t *testing.T) {
	store := newFakeOverdueStore()
	today := clinic.DateOf(sweepNow)
	// 09:00 visit: window ended at 12:00, overdue at 18:00.
	store.add(1, confirmedAt(today, "09:00"))
	// 16:00 visit: window runs to 19:00, still open.
	store.add(2, confirmedAt(today, "16:00"))

	emitter := &recordingEmitter{}
	newTestSweeper(store, emitter).RunOnce(context.Background())

	if got := store.appointments[1].Status; got != repository.StatusAbsented {
		t.Errorf("overdue appointment status = %q, want absented", got)
	}
	if got := store.appointments[2].Status; got != repository.StatusConfirmed {
		t.Errorf("in-window appointment status = %q, want confirmed", got)
	}
	// dentist + patient + two receptionists for the one absented row
	if len(emitter.intents) != 4 {
		t.Errorf("expected 4 intents, got %d", len(emitter.intents))
	}
}

func TestRunOnceIgnoresTerminalStatuses(t *testing.T) {
	store := newFakeOverdueStore()
	today := clinic.DateOf(sweepNow)
	for id, status := range map[int64]string{
		1: repository.StatusAttended,
		2: repository.StatusCanceled,
		3: repository.StatusAbsented,
	} {
		a := confirmedAt(today, "08:00")
		a.Status = status
		store.add(id, a)
	}

	emitter := &recordingEmitter{}
	newTestSweeper(store, emitter).RunOnce(context.Background())

	if store.appointments[1].Status != repository.StatusAttended ||
		store.appointments[2].Status != repository.StatusCanceled {
		t.Error("terminal appointments must not be touched")
	}
	if len(emitter.intents) != 0 {
		t.Errorf("expected no intents, got %d", len(emitter.intents))
	}
}

func TestRunOnceIsIdempotent(t *testing.T) {
	store := newFakeOverdueStore()
	store.add(1, confirmedAt(clinic.DateOf(sweepNow), "09:00"))

	emitter := &recordingEmitter{}
	sweeper := newTestSweeper(store, emitter)
	sweeper.RunOnce(context.Background())
	sweeper.RunOnce(context.Background())

	if len(emitter.intents) != 4 {
		t.Errorf("second sweep should find nothing: got %d intents, want 4", len(emitter.intents))
	}
}

func TestRunOnceContinuesAfterRowFailure(t *testing.T) {
	store := newFakeOverdueStore()
	today := clinic.DateOf(sweepNow)
	store.add(1, confirmedAt(today, "08:00"))
	store.add(2, confirmedAt(today, "09:00"))
	store.failIDs[1] = true

	emitter := &recordingEmitter{}
	newTestSweeper(store, emitter).RunOnce(context.Background())

	if store.appointments[2].Status != repository.StatusAbsented {
		t.Error("remaining rows must be swept after a row failure")
	}
	if store.appointments[1].Status != repository.StatusConfirmed {
		t.Error("failed row must keep its status for the next sweep")
	}
}

func TestRunOnceSwallowsEmitFailures(t *testing.T) {
	store := newFakeOverdueStore()
	store.add(1, confirmedAt(clinic.DateOf(sweepNow), "09:00"))

	emitter := &recordingEmitter{err: errors.New("delivery down")}
	newTestSweeper(store, emitter).RunOnce(context.Background())

	if store.appointments[1].Status != repository.StatusAbsented {
		t.Error("absence transition must not depend on notification delivery")
	}
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := newFakeOverdueStore()
	sweeper := newTestSweeper(store, &recordingEmitter{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
