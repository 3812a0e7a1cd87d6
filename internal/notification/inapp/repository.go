package inapp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dental_clinic_backend/platform/apperr"
)

// Notification is a persisted in-app notification derived from an intent.
type Notification struct {
	ID        uuid.UUID `json:"id"`
	UserID    int64     `json:"userId"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Category  string    `json:"category"`
	RelatedID int64     `json:"relatedId,omitempty"`
	Link      string    `json:"link,omitempty"`
	IsRead    bool      `json:"isRead"`
	CreatedAt time.Time `json:"createdAt"`
}

// Repository handles in-app notification persistence
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new in-app notification repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const notificationColumns = `id, user_id, title, message, category, related_id, link, is_read, created_at`

// Create persists one notification and returns the stored row.
func (r *Repository) Create(ctx context.Context, n Notification) (Notification, error) {
	if n.UserID == 0 {
		return Notification{}, apperr.Validation("userId is required")
	}
	if n.Title == "" || n.Message == "" {
		return Notification{}, apperr.Validation("title and message are required")
	}

	var out Notification
	err := r.pool.QueryRow(ctx, `INSERT INTO notification_intents
		(user_id, title, message, category, related_id, link)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+notificationColumns,
		n.UserID, n.Title, n.Message, n.Category, n.RelatedID, n.Link,
	).Scan(
		&out.ID, &out.UserID, &out.Title, &out.Message, &out.Category,
		&out.RelatedID, &out.Link, &out.IsRead, &out.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return Notification{}, apperr.Validation("unknown target user")
		}
		return Notification{}, fmt.Errorf("failed to create notification: %w", err)
	}

	return out, nil
}

// List retrieves a user's notifications, newest first.
func (r *Repository) List(ctx context.Context, userID int64, limit, offset int) ([]Notification, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notification_intents
		WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+notificationColumns+`
		FROM notification_intents
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	items := make([]Notification, 0, limit)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Category,
			&n.RelatedID, &n.Link, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate notifications: %w", err)
	}

	return items, total, nil
}

// CountUnread counts a user's unread notifications.
func (r *Repository) CountUnread(ctx context.Context, userID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notification_intents
		WHERE user_id = $1 AND is_read = FALSE`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	return count, nil
}

// MarkRead marks one of the user's notifications as read.
func (r *Repository) MarkRead(ctx context.Context, userID int64, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE notification_intents
		SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	return nil
}

// MarkAllRead marks all of the user's notifications as read.
func (r *Repository) MarkAllRead(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE notification_intents
		SET is_read = TRUE, read_at = NOW()
		WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	return nil
}
