package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/repository"
)

const notificationTimeout = 10 * time.Second

// OrderManager owns the order aggregate: order headers, their lines, and the
// cascades that remove them together with a customer.
type OrderManager struct {
	store          repository.Store
	orderCache     repository.OrderCache
	eventPublisher events.Publisher
	notifier       clients.Notifier
	metrics        *metrics.Metrics
	features       config.FeatureConfig
	logger         *logging.Logger

	notifications sync.WaitGroup
}

// NewOrderManager creates a new order manager. Nil collaborators are
// replaced with no-op implementations.
func NewOrderManager(
	store repository.Store,
	orderCache repository.OrderCache,
	eventPublisher events.Publisher,
	notifier clients.Notifier,
	m *metrics.Metrics,
	features config.FeatureConfig,
) *OrderManager {
	if orderCache == nil {
		orderCache = repository.NopOrderCache{}
	}
	if eventPublisher == nil {
		eventPublisher = events.NopPublisher{}
	}
	if notifier == nil {
		notifier = clients.NopNotifier{}
	}
	return &OrderManager{
		store:          store,
		orderCache:     orderCache,
		eventPublisher: eventPublisher,
		notifier:       notifier,
		metrics:        m,
		features:       features,
		logger:         logging.New("order-manager"),
	}
}

// CreateOrder validates and persists a new order header.
func (s *OrderManager) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	s.logger.Info("Creating order", logging.Fields{
		"customer_id": order.CustomerID,
		"status":      order.Status,
	})

	if err := ValidateOrder(order); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.store.Orders().Create(ctx, order); err != nil {
		s.logger.Error("Failed to create order", logging.Fields{
			"customer_id": order.CustomerID,
			"error":       err.Error(),
		})
		return nil, apperrors.Internal("create order", err)
	}

	if s.features.EnableOrderCaching {
		if err := s.orderCache.Set(ctx, order); err != nil {
			s.logger.Error("Failed to cache order", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
		s.invalidateCustomer(ctx, order.CustomerID)
	}

	if s.features.EnableOrderEvents {
		if err := s.eventPublisher.PublishOrderCreated(ctx, order); err != nil {
			s.logger.Error("Failed to publish order created event", logging.Fields{
				"order_id": order.ID,
				"error":    err.Error(),
			})
		}
	}

	if s.features.EnableNotifications {
		placed := *order
		s.notify(func(ctx context.Context) { s.sendOrderPlacedNotification(ctx, &placed) })
	}

	s.logger.Info("Order created successfully", logging.Fields{
		"order_id": order.ID,
		"total":    order.TotalAmount.String(),
	})
	return order, nil
}

// GetOrder retrieves an order by ID.
func (s *OrderManager) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	s.logger.Debug("Getting order", logging.Fields{"order_id": id})

	var gen int64
	cacheable := false
	if s.features.EnableOrderCaching {
		if order, err := s.orderCache.Get(ctx, id); err == nil && order != nil {
			s.logger.Debug("Order found in cache", logging.Fields{"order_id": id})
			return order, nil
		}
		// Read before the store so an eviction racing this lookup wins.
		var err error
		gen, err = s.orderCache.Generation(ctx, id)
		cacheable = err == nil
	}

	order, err := s.store.Orders().GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("get order", err)
	}

	if cacheable {
		if err := s.orderCache.SetAtGeneration(ctx, order, gen); err != nil {
			s.logger.Warn("Failed to cache order", logging.Fields{
				"order_id": id,
				"error":    err.Error(),
			})
		}
	}
	return order, nil
}

// ListOrders returns every order. An empty table is reported as not found.
func (s *OrderManager) ListOrders(ctx context.Context) ([]*models.Order, error) {
	orders, err := s.store.Orders().List(ctx)
	if err != nil {
		return nil, apperrors.Internal("list orders", err)
	}
	if len(orders) == 0 {
		return nil, apperrors.NotFound("orders", "all")
	}
	return orders, nil
}

// ListCustomerOrders returns a customer's orders, possibly none.
func (s *OrderManager) ListCustomerOrders(ctx context.Context, customerID int64) ([]*models.Order, error) {
	if s.features.EnableOrderCaching {
		if orders, err := s.orderCache.GetByCustomer(ctx, customerID); err == nil && orders != nil {
			return orders, nil
		}
	}

	orders, err := s.store.Orders().ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperrors.Internal("list customer orders", err)
	}

	if s.features.EnableOrderCaching {
		if err := s.orderCache.SetByCustomer(ctx, customerID, orders); err != nil {
			s.logger.Warn("Failed to cache customer orders", logging.Fields{
				"customer_id": customerID,
				"error":       err.Error(),
			})
		}
	}
	return orders, nil
}

// LatestOrderForCustomer returns the customer's most recently created order.
func (s *OrderManager) LatestOrderForCustomer(ctx context.Context, customerID int64) (*models.Order, error) {
	order, err := s.store.Orders().LatestByCustomer(ctx, customerID)
	if err != nil {
		return nil, apperrors.Internal("latest order", err)
	}
	return order, nil
}

// UpdateOrder replaces an order header. The path id must match the body id.
func (s *OrderManager) UpdateOrder(ctx context.Context, id int64, order *models.Order) error {
	s.logger.Info("Updating order", logging.Fields{"order_id": id})

	if order.ID != id {
		return apperrors.NewValidationError("order_id", "path id does not match body id")
	}
	if err := ValidateOrder(order); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var previous models.Order
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		previous = *current
		return tx.Orders().Update(ctx, order)
	})
	if err != nil {
		s.logger.Error("Failed to update order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return apperrors.Internal("update order", err)
	}

	s.afterOrderChange(ctx, order, previous.CustomerID)
	if previous.Status != order.Status {
		s.publishStatusChanged(ctx, order, previous.Status)
	}
	return nil
}

// UpdateOrderStatusOnly changes the status of an order and nothing else.
// Any non-empty status is accepted; transitions are unconstrained.
func (s *OrderManager) UpdateOrderStatusOnly(ctx context.Context, id int64, status string) error {
	s.logger.Info("Updating order status", logging.Fields{
		"order_id":   id,
		"new_status": status,
	})

	if status == "" {
		return apperrors.NewValidationError("order_status", "status is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var updated models.Order
	var previousStatus string
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		current, err := tx.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		previousStatus = current.Status
		if err := tx.Orders().UpdateStatus(ctx, id, status); err != nil {
			return err
		}
		updated = *current
		updated.Status = status
		return nil
	})
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Error("Failed to update order status", logging.Fields{
				"order_id": id,
				"error":    err.Error(),
			})
		}
		return apperrors.Internal("update order status", err)
	}

	s.afterOrderChange(ctx, &updated, updated.CustomerID)
	s.publishStatusChanged(ctx, &updated, previousStatus)

	s.logger.Info("Order status updated", logging.Fields{
		"order_id":   id,
		"old_status": previousStatus,
		"new_status": status,
	})
	return nil
}

// DeleteOrderCascade removes an order and all of its lines in one
// transaction. The order row is locked before anything is deleted.
func (s *OrderManager) DeleteOrderCascade(ctx context.Context, id int64) error {
	s.logger.Info("Deleting order", logging.Fields{"order_id": id})

	if err := ctx.Err(); err != nil {
		return err
	}

	var deleted models.Order
	var lines int
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		order, err := tx.Orders().GetByID(ctx, id)
		if err != nil {
			return err
		}
		deleted = *order

		lines, err = tx.OrderLines().DeleteByOrders(ctx, []int64{id})
		if err != nil {
			return err
		}
		return tx.Orders().Delete(ctx, id)
	})
	s.metrics.CascadeCompleted("order", 1, lines, err)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Error("Failed to delete order", logging.Fields{
				"order_id": id,
				"error":    err.Error(),
			})
		}
		return apperrors.Internal("delete order", err)
	}

	if s.features.EnableOrderCaching {
		s.evictOrder(ctx, id)
		s.invalidateCustomer(ctx, deleted.CustomerID)
	}

	if s.features.EnableOrderEvents {
		if err := s.eventPublisher.PublishOrderDeleted(ctx, &deleted, lines); err != nil {
			s.logger.Error("Failed to publish order deleted event", logging.Fields{
				"order_id": id,
				"error":    err.Error(),
			})
		}
	}

	s.logger.Info("Order deleted", logging.Fields{
		"order_id":      id,
		"lines_deleted": lines,
	})
	return nil
}

// DeleteUserCascade removes a user together with every order they placed
// and every line of those orders, deepest first, in one transaction.
func (s *OrderManager) DeleteUserCascade(ctx context.Context, userID int64) (models.CascadeResult, error) {
	s.logger.Info("Deleting user", logging.Fields{"user_id": userID})

	var result models.CascadeResult
	if err := ctx.Err(); err != nil {
		return result, err
	}

	var orderIDs []int64
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, userID); err != nil {
			return err
		}

		orders, err := tx.Orders().ListByCustomer(ctx, userID)
		if err != nil {
			return err
		}
		orderIDs = make([]int64, 0, len(orders))
		for _, o := range orders {
			orderIDs = append(orderIDs, o.ID)
		}

		if len(orderIDs) > 0 {
			if result.LinesDeleted, err = tx.OrderLines().DeleteByOrders(ctx, orderIDs); err != nil {
				return err
			}
			if result.OrdersDeleted, err = tx.Orders().DeleteMany(ctx, orderIDs); err != nil {
				return err
			}
		}
		return tx.Users().Delete(ctx, userID)
	})
	s.metrics.CascadeCompleted("user", result.OrdersDeleted, result.LinesDeleted, err)
	if err != nil {
		if !apperrors.IsNotFound(err) {
			s.logger.Error("Failed to delete user", logging.Fields{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
		return models.CascadeResult{}, apperrors.Internal("delete user", err)
	}

	if s.features.EnableOrderCaching {
		for _, id := range orderIDs {
			s.evictOrder(ctx, id)
		}
		s.invalidateCustomer(ctx, userID)
	}

	if s.features.EnableOrderEvents {
		if err := s.eventPublisher.PublishUserDeleted(ctx, userID, result); err != nil {
			s.logger.Error("Failed to publish user deleted event", logging.Fields{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
	}

	if s.features.EnableNotifications {
		s.notify(func(ctx context.Context) { s.sendAccountClosedNotification(ctx, userID, result) })
	}

	s.logger.Info("User deleted", logging.Fields{
		"user_id":        userID,
		"orders_deleted": result.OrdersDeleted,
		"lines_deleted":  result.LinesDeleted,
	})
	return result, nil
}

// SearchOrdersByIdSubstring returns the orders whose decimal id contains
// text literally.
func (s *OrderManager) SearchOrdersByIdSubstring(ctx context.Context, text string) ([]*models.Order, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("text", "search text is required")
	}

	orders, err := s.store.Orders().SearchByID(ctx, text)
	if err != nil {
		s.logger.Error("Order search failed", logging.Fields{
			"text":  text,
			"error": err.Error(),
		})
		return nil, apperrors.Internal("search orders", err)
	}
	if len(orders) == 0 {
		return nil, apperrors.NotFound("orders matching", text)
	}
	return orders, nil
}

func (s *OrderManager) afterOrderChange(ctx context.Context, order *models.Order, previousCustomerID int64) {
	if !s.features.EnableOrderCaching {
		return
	}
	s.evictOrder(ctx, order.ID)
	s.invalidateCustomer(ctx, order.CustomerID)
	if previousCustomerID != order.CustomerID {
		s.invalidateCustomer(ctx, previousCustomerID)
	}
}

func (s *OrderManager) publishStatusChanged(ctx context.Context, order *models.Order, previousStatus string) {
	if !s.features.EnableOrderEvents {
		return
	}
	if err := s.eventPublisher.PublishOrderStatusChanged(ctx, order, previousStatus); err != nil {
		s.logger.Error("Failed to publish status changed event", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
}

func (s *OrderManager) evictOrder(ctx context.Context, id int64) {
	if err := s.orderCache.Delete(ctx, id); err != nil {
		s.logger.Warn("Failed to evict cached order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
	}
}

func (s *OrderManager) invalidateCustomer(ctx context.Context, customerID int64) {
	if err := s.orderCache.InvalidateByCustomer(ctx, customerID); err != nil {
		s.logger.Warn("Failed to invalidate customer orders", logging.Fields{
			"customer_id": customerID,
			"error":       err.Error(),
		})
	}
}

// notify runs send in the background with its own deadline.
func (s *OrderManager) notify(send func(ctx context.Context)) {
	s.notifications.Add(1)
	go func() {
		defer s.notifications.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notificationTimeout)
		defer cancel()
		send(ctx)
	}()
}

// WaitForNotifications blocks until in-flight notifications finish or ctx
// is done.
func (s *OrderManager) WaitForNotifications(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.notifications.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *OrderManager) sendOrderPlacedNotification(ctx context.Context, order *models.Order) {
	if err := s.notifier.NotifyOrderPlaced(ctx, order); err != nil {
		s.logger.Error("Failed to send order placed notification", logging.Fields{
			"order_id": order.ID,
			"error":    err.Error(),
		})
	}
}

func (s *OrderManager) sendAccountClosedNotification(ctx context.Context, userID int64, result models.CascadeResult) {
	if err := s.notifier.NotifyAccountClosed(ctx, userID, result); err != nil {
		s.logger.Error("Failed to send account closed notification", logging.Fields{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}
