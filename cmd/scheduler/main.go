package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	apptrepo "dental_clinic_backend/internal/appointments/repository"
	dirrepo "dental_clinic_backend/internal/directory/repository"
	dirservice "dental_clinic_backend/internal/directory/service"
	"dental_clinic_backend/internal/notification/inapp"
	"dental_clinic_backend/internal/notification/outbox"
	"dental_clinic_backend/internal/scheduler"
	"dental_clinic_backend/platform/config"
	"dental_clinic_backend/platform/db"
	"dental_clinic_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	emitter := inapp.NewService(inapp.NewRepository(pool), outbox.New(pool), log)
	dir := dirservice.New(dirrepo.New(pool))

	sweeper := scheduler.NewAbsenceSweeper(
		apptrepo.New(pool),
		dir,
		emitter,
		log,
		cfg.GetSweepInterval(),
		cfg.GetVisitDuration(),
		cfg.GetAppBaseURL(),
	)
	go sweeper.Run(ctx)

	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; running absence sweep only")
		<-ctx.Done()
		return
	}

	dispatcher, err := scheduler.NewIntentOutboxDispatcher(cfg, pool, log)
	if err != nil {
		log.Error("failed to initialize outbox dispatcher", "error", err)
		panic("failed to initialize outbox dispatcher: " + err.Error())
	}
	defer func() { _ = dispatcher.Close() }()
	go dispatcher.Run(ctx)

	worker, err := scheduler.NewWorker(cfg, cfg, pool, emitter, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
