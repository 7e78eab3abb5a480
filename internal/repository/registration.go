package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
)

// RegistrationStore keeps sign-up records in process memory. One instance is
// constructed per process and injected where needed; it is safe for
// concurrent use.
type RegistrationStore struct {
	mu     sync.RWMutex
	rows   map[int64]models.Registration
	lastID int64
}

func NewRegistrationStore() *RegistrationStore {
	return &RegistrationStore{rows: make(map[int64]models.Registration)}
}

func (s *RegistrationStore) List(ctx context.Context) ([]*models.Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Registration, 0, len(s.rows))
	for _, r := range s.rows {
		r := r
		out = append(out, &r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *RegistrationStore) Get(ctx context.Context, id int64) (*models.Registration, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.rows[id]
	if !ok {
		return nil, apperrors.NotFound("registration", id)
	}
	return &r, nil
}

// Create assigns the next id. Emails are unique case-insensitively.
func (s *RegistrationStore) Create(ctx context.Context, r *models.Registration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.emailTaken(r.Email, 0) {
		return apperrors.NewConflictError("email already registered", nil)
	}

	s.lastID++
	r.ID = s.lastID
	s.rows[r.ID] = *r
	return nil
}

func (s *RegistrationStore) Update(ctx context.Context, r *models.Registration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.rows[r.ID]
	if !ok {
		return apperrors.NotFound("registration", r.ID)
	}
	if s.emailTaken(r.Email, r.ID) {
		return apperrors.NewConflictError("email already registered", nil)
	}

	r.CreatedAt = existing.CreatedAt
	s.rows[r.ID] = *r
	return nil
}

func (s *RegistrationStore) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return apperrors.NotFound("registration", id)
	}
	delete(s.rows, id)
	return nil
}

func (s *RegistrationStore) emailTaken(email string, except int64) bool {
	if email == "" {
		return false
	}
	for id, r := range s.rows {
		if id != except && strings.EqualFold(r.Email, email) {
			return true
		}
	}
	return false
}
