package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
)

const userColumns = `id, username, email, password, phone, address, role_id, create_at`

type pgUsers struct{ s *PostgresStore }

func (r pgUsers) GetByID(ctx context.Context, id int64) (*models.User, error) {
	r.s.logger.Debug("Fetching user by ID", logging.Fields{"user_id": id})

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1` + r.s.forUpdate()

	user, err := scanUser(r.s.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user", id)
	}
	if err != nil {
		r.s.logger.Error("Failed to fetch user", logging.Fields{
			"user_id": id,
			"error":   err.Error(),
		})
		return nil, classify("get user", err)
	}
	return user, nil
}

func (r pgUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 ORDER BY id LIMIT 1`

	user, err := scanUser(r.s.q.QueryRowContext(ctx, query, username))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user", username)
	}
	if err != nil {
		return nil, classify("get user by username", err)
	}
	return user, nil
}

func (r pgUsers) ListByRole(ctx context.Context, roleID int) ([]*models.User, error) {
	rows, err := r.s.q.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE role_id = $1 ORDER BY id`, roleID)
	if err != nil {
		return nil, classify("list users", err)
	}
	defer rows.Close()

	users := make([]*models.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, classify("list users", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list users", err)
	}
	return users, nil
}

func (r pgUsers) Create(ctx context.Context, user *models.User) error {
	id, err := r.s.insert(ctx, "users", user.ID,
		[]string{"username", "email", "password", "phone", "address", "role_id", "create_at"},
		[]interface{}{user.Username, user.Email, user.Password, user.Phone, user.Address, user.RoleID, user.CreatedAt},
	)
	if err != nil {
		r.s.logger.Error("Failed to create user", logging.Fields{
			"username": user.Username,
			"error":    err.Error(),
		})
		return err
	}

	user.ID = id
	r.s.logger.Info("User created", logging.Fields{"user_id": id, "role_id": user.RoleID})
	return nil
}

func (r pgUsers) Update(ctx context.Context, user *models.User) error {
	return r.s.execAffecting(ctx, "update user", "user", user.ID,
		`UPDATE users SET username = $2, email = $3, password = $4, phone = $5, address = $6, role_id = $7
		WHERE id = $1`,
		user.ID, user.Username, user.Email, user.Password, user.Phone, user.Address, user.RoleID)
}

func (r pgUsers) UpdatePassword(ctx context.Context, id int64, password string) error {
	return r.s.execAffecting(ctx, "update password", "user", id,
		`UPDATE users SET password = $2 WHERE id = $1`, id, password)
}

func (r pgUsers) Delete(ctx context.Context, id int64) error {
	r.s.logger.Debug("Deleting user", logging.Fields{"user_id": id})
	return r.s.execAffecting(ctx, "delete user", "user", id, `DELETE FROM users WHERE id = $1`, id)
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password, &u.Phone, &u.Address, &u.RoleID, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
