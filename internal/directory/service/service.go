package service

import (
	"context"

	"dental_clinic_backend/internal/clinic"
	"dental_clinic_backend/internal/directory/repository"
	"dental_clinic_backend/platform/apperr"
)

// UserStore is the directory storage surface the service needs.
type UserStore interface {
	GetByRole(ctx context.Context, id int64, role string) (*repository.User, error)
	ListByRole(ctx context.Context, role string) ([]repository.User, error)
}

// Service exposes role-scoped directory lookups to the scheduling modules.
type Service struct {
	store UserStore
}

func New(store UserStore) *Service {
	return &Service{store: store}
}

// GetDentist resolves an active dentist by id.
func (s *Service) GetDentist(ctx context.Context, id int64) (*repository.User, error) {
	return s.store.GetByRole(ctx, id, clinic.RoleDentist)
}

// GetPatient resolves an active patient by id.
func (s *Service) GetPatient(ctx context.Context, id int64) (*repository.User, error) {
	return s.store.GetByRole(ctx, id, clinic.RolePatient)
}

// ListReceptionists returns all active reception staff.
func (s *Service) ListReceptionists(ctx context.Context) ([]repository.User, error) {
	return s.store.ListByRole(ctx, clinic.RoleReceptionist)
}

// ListDentists returns the active dentist roster for booking screens.
// Any authenticated caller may read it.
func (s *Service) ListDentists(ctx context.Context, caller clinic.Caller) ([]repository.User, error) {
	if caller.IsZero() {
		return nil, apperr.Unauthorized("authentication required")
	}

	return s.store.ListByRole(ctx, clinic.RoleDentist)
}
