package service

import (
	"strings"

	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
)

// ValidateOrder validates an order header for create and update.
func ValidateOrder(order *models.Order) error {
	if order.CustomerID <= 0 {
		return apperrors.NewValidationError("customer_id", "customer ID is required")
	}

	if order.Status == "" {
		return apperrors.NewValidationError("order_status", "status is required")
	}

	if order.CreatedAt.IsZero() {
		return apperrors.NewValidationError("create_at", "creation time is required")
	}

	if order.TotalAmount.IsNegative() {
		return apperrors.NewValidationError("total_amount", "total amount cannot be negative")
	}

	return nil
}

// ValidateOrderLine validates an order line for create and update.
func ValidateOrderLine(line *models.OrderLine) error {
	if line.OrderID <= 0 {
		return apperrors.NewValidationError("order_id", "order ID is required")
	}

	if line.ProductID <= 0 {
		return apperrors.NewValidationError("product_id", "product ID is required")
	}

	if line.Quantity <= 0 {
		return apperrors.NewValidationError("number_of_products", "quantity must be positive")
	}

	if line.Price.IsNegative() {
		return apperrors.NewValidationError("price", "price cannot be negative")
	}

	if line.TotalMoney.IsNegative() {
		return apperrors.NewValidationError("total_money", "total cannot be negative")
	}

	return nil
}

// ValidateUser validates the fields a stored user must carry.
func ValidateUser(user *models.User) error {
	if strings.TrimSpace(user.Username) == "" {
		return apperrors.NewValidationError("username", "username is required")
	}

	if user.Password == "" {
		return apperrors.NewValidationError("password", "password is required")
	}

	if user.RoleID != models.RoleAdmin && user.RoleID != models.RoleCustomer {
		return apperrors.NewValidationError("role_id", "unknown role")
	}

	return nil
}

// ValidateRegistration validates a sign-up record.
func ValidateRegistration(r *models.Registration) error {
	if strings.TrimSpace(r.Username) == "" {
		return apperrors.NewValidationError("username", "username is required")
	}

	if !strings.Contains(r.Email, "@") {
		return apperrors.NewValidationError("email", "a valid email is required")
	}

	if r.Password == "" {
		return apperrors.NewValidationError("password", "password is required")
	}

	return nil
}

func validateRating(rating int) error {
	if rating < models.MinRating || rating > models.MaxRating {
		return apperrors.NewValidationError("rating", "rating must be between 1 and 5")
	}
	return nil
}

func validateName(field, name string) error {
	if strings.TrimSpace(name) == "" {
		return apperrors.NewValidationError(field, "name is required")
	}
	return nil
}
