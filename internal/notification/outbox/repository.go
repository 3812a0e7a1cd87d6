package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Status is the delivery lifecycle of one outbox row.
type Status string

const (
	StatusPending   Status = "pending"
	StatusEnqueued  Status = "enqueued"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Record is one staged external delivery of a notification.
type Record struct {
	ID             uuid.UUID
	NotificationID uuid.UUID
	UserID         int64
	Payload        json.RawMessage
	RunAt          time.Time
	Status         Status
	Attempts       int
}

// InsertParams stages a notification for delivery.
type InsertParams struct {
	NotificationID uuid.UUID
	UserID         int64
	Payload        any
	RunAt          time.Time
}

// Repository handles notification outbox persistence
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a new outbox repository
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Insert stages one delivery. RunAt defaults to now.
func (r *Repository) Insert(ctx context.Context, p InsertParams) (uuid.UUID, error) {
	if p.NotificationID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("notificationId is required")
	}
	if p.UserID == 0 {
		return uuid.Nil, fmt.Errorf("userId is required")
	}
	if p.RunAt.IsZero() {
		p.RunAt = time.Now().UTC()
	}

	payloadBytes, err := json.Marshal(p.Payload)
	if err != nil {
		return uuid.Nil, fmt.Errorf("marshal payload: %w", err)
	}

	var id uuid.UUID
	err = r.pool.QueryRow(ctx, `INSERT INTO notification_outbox
		(notification_id, user_id, payload, run_at, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		p.NotificationID, p.UserID, payloadBytes, p.RunAt, string(StatusPending),
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert outbox record: %w", err)
	}

	return id, nil
}

// ClaimPending atomically flips due pending rows to enqueued and returns
// them. SKIP LOCKED keeps concurrent dispatchers from claiming the same row.
func (r *Repository) ClaimPending(ctx context.Context, limit int) ([]Record, error) {
	if limit < 1 {
		limit = 50
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `WITH due AS (
		SELECT id
		FROM notification_outbox
		WHERE status = 'pending' AND run_at <= NOW()
		ORDER BY run_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	)
	UPDATE notification_outbox o
	SET status = 'enqueued', updated_at = NOW()
	FROM due
	WHERE o.id = due.id
	RETURNING o.id, o.notification_id, o.user_id, o.payload, o.run_at, o.status, o.attempts`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Record
	for rows.Next() {
		var rec Record
		var status string
		if err := rows.Scan(&rec.ID, &rec.NotificationID, &rec.UserID, &rec.Payload,
			&rec.RunAt, &status, &rec.Attempts); err != nil {
			return nil, err
		}
		rec.Status = Status(status)
		results = append(results, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return results, nil
}

// MarkPending returns a row to the pending pool after a transient failure.
func (r *Repository) MarkPending(ctx context.Context, id uuid.UUID, lastError *string) error {
	_, err := r.pool.Exec(ctx, `UPDATE notification_outbox
		SET status = 'pending', attempts = attempts + 1, last_error = $2, updated_at = NOW()
		WHERE id = $1`, id, lastError)
	return err
}

// MarkSucceeded finalizes a delivered row.
func (r *Repository) MarkSucceeded(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE notification_outbox
		SET status = 'succeeded', last_error = NULL, updated_at = NOW()
		WHERE id = $1`, id)
	return err
}

// MarkFailed parks a row that exhausted its delivery attempts.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, lastError string) error {
	_, err := r.pool.Exec(ctx, `UPDATE notification_outbox
		SET status = 'failed', last_error = $2, updated_at = NOW()
		WHERE id = $1`, id, lastError)
	return err
}
