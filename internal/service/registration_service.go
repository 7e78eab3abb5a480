package service

import (
	"context"
	"time"

	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/repository"
)

// RegistrationService manages sign-up records held by a RegistrationStore.
type RegistrationService struct {
	store  *repository.RegistrationStore
	logger *logging.Logger
}

func NewRegistrationService(store *repository.RegistrationStore) *RegistrationService {
	return &RegistrationService{
		store:  store,
		logger: logging.New("registration-service"),
	}
}

func (s *RegistrationService) List(ctx context.Context) ([]*models.Registration, error) {
	return s.store.List(ctx)
}

func (s *RegistrationService) Get(ctx context.Context, id int64) (*models.Registration, error) {
	return s.store.Get(ctx, id)
}

// Create stores a registration. A duplicate email is a conflict.
func (s *RegistrationService) Create(ctx context.Context, r *models.Registration) (*models.Registration, error) {
	if err := ValidateRegistration(r); err != nil {
		return nil, err
	}
	r.CreatedAt = time.Now().UTC()
	if err := s.store.Create(ctx, r); err != nil {
		return nil, apperrors.Internal("create registration", err)
	}

	s.logger.Info("Registration created", logging.Fields{"id": r.ID})
	return r, nil
}

func (s *RegistrationService) Update(ctx context.Context, id int64, r *models.Registration) error {
	r.ID = id
	if err := ValidateRegistration(r); err != nil {
		return err
	}
	return apperrors.Internal("update registration", s.store.Update(ctx, r))
}

func (s *RegistrationService) Delete(ctx context.Context, id int64) error {
	return apperrors.Internal("delete registration", s.store.Delete(ctx, id))
}
