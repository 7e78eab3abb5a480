package service

import (
	"context"
	"strings"
	"time"

	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/session"
)

var roleNames = map[int]string{
	models.RoleAdmin:    "Admin",
	models.RoleCustomer: "User",
}

// UserService handles accounts, login sessions and account removal.
type UserService struct {
	store    repository.Store
	orders   *OrderManager
	sessions session.Store
	verifier CredentialVerifier
	logger   *logging.Logger
}

// NewUserService creates a user service. A nil verifier defaults to
// PlaintextVerifier.
func NewUserService(store repository.Store, orders *OrderManager, sessions session.Store, verifier CredentialVerifier) *UserService {
	if verifier == nil {
		verifier = PlaintextVerifier{}
	}
	return &UserService{
		store:    store,
		orders:   orders,
		sessions: sessions,
		verifier: verifier,
		logger:   logging.New("user-service"),
	}
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("get user", err)
	}
	return user.Sanitized(), nil
}

// ListCustomers returns every user with the customer role.
func (s *UserService) ListCustomers(ctx context.Context) ([]*models.User, error) {
	users, err := s.store.Users().ListByRole(ctx, models.RoleCustomer)
	if err != nil {
		return nil, apperrors.Internal("list customers", err)
	}
	if len(users) == 0 {
		return nil, apperrors.NotFound("customers", "all")
	}

	out := make([]*models.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Sanitized())
	}
	return out, nil
}

// CreateUser stores a new account. A zero role becomes the customer role.
func (s *UserService) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	s.logger.Info("Creating user", logging.Fields{"username": user.Username})

	if user.RoleID == 0 {
		user.RoleID = models.RoleCustomer
	}
	if err := ValidateUser(user); err != nil {
		return nil, err
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		s.logger.Error("Failed to create user", logging.Fields{
			"username": user.Username,
			"error":    err.Error(),
		})
		return nil, apperrors.Internal("create user", err)
	}
	return user.Sanitized(), nil
}

// UpdateUser replaces an account. An empty password keeps the stored one.
func (s *UserService) UpdateUser(ctx context.Context, id int64, user *models.User) error {
	if user.ID != id {
		return apperrors.NewValidationError("user_id", "path id does not match body id")
	}
	if user.RoleID == 0 {
		user.RoleID = models.RoleCustomer
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if user.Password == "" {
			user.Password = current.Password
		}
		if err := ValidateUser(user); err != nil {
			return err
		}
		return tx.Users().Update(ctx, user)
	})
	return apperrors.Internal("update user", err)
}

// DeleteUser removes the account along with all of its orders.
func (s *UserService) DeleteUser(ctx context.Context, id int64) (models.CascadeResult, error) {
	return s.orders.DeleteUserCascade(ctx, id)
}

// Login verifies credentials and opens a session. It returns the response
// body and the id of the new session.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.LoginResponse, string, error) {
	s.logger.Info("Login attempt", logging.Fields{"username": username})

	user, err := s.store.Users().GetByUsername(ctx, username)
	if apperrors.IsNotFound(err) {
		return nil, "", apperrors.ErrUnauthorized
	}
	if err != nil {
		return nil, "", apperrors.Internal("login", err)
	}

	if !s.verifier.Verify(user.Password, password) {
		s.logger.Warn("Login failed", logging.Fields{"username": username})
		return nil, "", apperrors.ErrUnauthorized
	}

	role, ok := roleNames[user.RoleID]
	if !ok {
		return nil, "", apperrors.NewValidationError("role_id", "invalid role id")
	}

	sess := &session.Session{UserID: user.ID, Username: user.Username, RoleID: user.RoleID}
	if err := s.sessions.Create(ctx, sess); err != nil {
		s.logger.Error("Failed to create session", logging.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		return nil, "", apperrors.Internal("create session", err)
	}

	return &models.LoginResponse{
		Success: true,
		Message: "Login successful - " + role,
		Role:    role,
		User: models.LoginUser{
			ID:       user.ID,
			Username: user.Username,
			RoleID:   user.RoleID,
		},
	}, sess.ID, nil
}

// Logout ends a session. Unknown sessions are ignored.
func (s *UserService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	return apperrors.Internal("logout", s.sessions.Delete(ctx, sessionID))
}

// CurrentSession resolves a session id. A session whose user has since been
// deleted is dropped and reported as not found.
func (s *UserService) CurrentSession(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Internal("get session", err)
	}

	_, err = s.store.Users().GetByID(ctx, sess.UserID)
	if apperrors.IsNotFound(err) {
		if err := s.sessions.Delete(ctx, sessionID); err != nil {
			s.logger.Warn("Failed to drop orphaned session", logging.Fields{
				"user_id": sess.UserID,
				"error":   err.Error(),
			})
		}
		return nil, apperrors.NotFound("session", sessionID)
	}
	if err != nil {
		return nil, apperrors.Internal("get session user", err)
	}
	return sess, nil
}

// UpdatePassword replaces the password after checking the current one.
func (s *UserService) UpdatePassword(ctx context.Context, id int64, req *models.UpdatePasswordRequest) error {
	if strings.TrimSpace(req.CurrentPassword) == "" || strings.TrimSpace(req.NewPassword) == "" {
		return apperrors.NewValidationError("password", "current and new password are required")
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		user, err := tx.Users().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if !s.verifier.Verify(user.Password, req.CurrentPassword) {
			return apperrors.ErrUnauthorized
		}
		return tx.Users().UpdatePassword(ctx, id, req.NewPassword)
	})
	return apperrors.Internal("update password", err)
}
