package service

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/repository"
)

// CreateOrderLine adds a line to an existing order. The order is locked for
// the duration of the insert so a concurrent cascade cannot orphan the line.
func (s *OrderManager) CreateOrderLine(ctx context.Context, line *models.OrderLine) (*models.OrderLine, error) {
	s.logger.Info("Creating order line", logging.Fields{
		"order_id":   line.OrderID,
		"product_id": line.ProductID,
	})

	if err := ValidateOrderLine(line); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if expected := line.ExpectedTotal(); !line.TotalMoney.Equal(expected) {
		s.logger.Warn("Order line total differs from price * quantity", logging.Fields{
			"order_id":    line.OrderID,
			"product_id":  line.ProductID,
			"total_money": line.TotalMoney.String(),
			"expected":    expected.String(),
		})
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Orders().GetByID(ctx, line.OrderID); err != nil {
			return err
		}
		return tx.OrderLines().Create(ctx, line)
	})
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Error("Failed to create order line", logging.Fields{
				"order_id": line.OrderID,
				"error":    err.Error(),
			})
		}
		return nil, apperrors.Internal("create order line", err)
	}
	return line, nil
}

func (s *OrderManager) GetOrderLine(ctx context.Context, id int64) (*models.OrderLine, error) {
	line, err := s.store.OrderLines().GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("get order line", err)
	}
	return line, nil
}

func (s *OrderManager) ListOrderLines(ctx context.Context) ([]*models.OrderLine, error) {
	lines, err := s.store.OrderLines().List(ctx)
	if err != nil {
		return nil, apperrors.Internal("list order lines", err)
	}
	return lines, nil
}

// ListOrderLinesByOrder returns the lines of one order. An order without
// lines, or no order at all, is reported as not found.
func (s *OrderManager) ListOrderLinesByOrder(ctx context.Context, orderID int64) ([]*models.OrderLine, error) {
	lines, err := s.store.OrderLines().ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperrors.Internal("list order lines", err)
	}
	if len(lines) == 0 {
		return nil, apperrors.NotFound("order lines for order", orderID)
	}
	return lines, nil
}

// UpdateOrderLine replaces a line. The line may move to another order only
// if that order exists.
func (s *OrderManager) UpdateOrderLine(ctx context.Context, id int64, line *models.OrderLine) error {
	if line.ID != id {
		return apperrors.NewValidationError("id", "path id does not match body id")
	}
	if err := ValidateOrderLine(line); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.OrderLines().GetByID(ctx, id); err != nil {
			return err
		}
		if _, err := tx.Orders().GetByID(ctx, line.OrderID); err != nil {
			return err
		}
		return tx.OrderLines().Update(ctx, line)
	})
	return apperrors.Internal("update order line", err)
}

// DeleteOrderLine removes a single line. The order header is untouched.
func (s *OrderManager) DeleteOrderLine(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return apperrors.Internal("delete order line", s.store.OrderLines().Delete(ctx, id))
}
