package inapp

import (
	"context"

	"github.com/google/uuid"

	"dental_clinic_backend/internal/notification/intent"
	"dental_clinic_backend/internal/notification/outbox"
	"dental_clinic_backend/platform/apperr"
	"dental_clinic_backend/platform/logger"
)

// Service persists notification intents and stages them in the outbox for
// external delivery. It is the production intent.Emitter.
type Service struct {
	repo *Repository
	out  *outbox.Repository
	log  *logger.Logger
}

// NewService creates a new in-app notification service
func NewService(repo *Repository, out *outbox.Repository, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		out:  out,
		log:  log,
	}
}

// Emit stores the intent as an in-app notification and stages an outbox row
// for the external delivery channel. The in-app copy is the source of truth:
// a failed outbox insert is logged but does not fail the emit, the dispatcher
// has nothing to deliver and the user still sees the notification.
func (s *Service) Emit(ctx context.Context, in intent.Intent) error {
	n, err := s.repo.Create(ctx, Notification{
		UserID:    in.UserID,
		Title:     in.Title,
		Message:   in.Message,
		Category:  in.Category,
		RelatedID: in.RelatedID,
		Link:      in.Link,
	})
	if err != nil {
		return err
	}

	if s.out != nil {
		_, err := s.out.Insert(ctx, outbox.InsertParams{
			NotificationID: n.ID,
			UserID:         in.UserID,
			Payload:        n,
		})
		if err != nil && s.log != nil {
			s.log.Error("failed to stage notification for delivery", "notificationId", n.ID, "error", err)
		}
	}

	return nil
}

// List returns a page of the user's notifications plus the total count.
func (s *Service) List(ctx context.Context, userID int64, page, pageSize int) ([]Notification, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	offset := (page - 1) * pageSize
	return s.repo.List(ctx, userID, pageSize, offset)
}

func (s *Service) CountUnread(ctx context.Context, userID int64) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, userID int64, id string) error {
	parsed, err := parseID(id)
	if err != nil {
		return err
	}
	return s.repo.MarkRead(ctx, userID, parsed)
}

func (s *Service) MarkAllRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllRead(ctx, userID)
}

func parseID(raw string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid notification id")
	}
	return parsed, nil
}

var _ intent.Emitter = (*Service)(nil)
