package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/apperrors"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
)

const orderColumns = `id, customer_id, order_status, create_at, total_amount`

type pgOrders struct{ s *PostgresStore }

// GetByID retrieves an order by its unique identifier.
func (r pgOrders) GetByID(ctx context.Context, id int64) (*models.Order, error) {
	r.s.logger.Debug("Fetching order by ID", logging.Fields{"order_id": id})

	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1` + r.s.forUpdate()

	order, err := scanOrder(r.s.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("order", id)
	}
	if err != nil {
		r.s.logger.Error("Failed to fetch order", logging.Fields{
			"order_id": id,
			"error":    err.Error(),
		})
		return nil, classify("get order", err)
	}
	return order, nil
}

func (r pgOrders) List(ctx context.Context) ([]*models.Order, error) {
	return r.query(ctx, "list orders", `SELECT `+orderColumns+` FROM orders ORDER BY id`)
}

func (r pgOrders) ListByCustomer(ctx context.Context, customerID int64) ([]*models.Order, error) {
	r.s.logger.Debug("Listing orders for customer", logging.Fields{"customer_id": customerID})
	return r.query(ctx, "list customer orders",
		`SELECT `+orderColumns+` FROM orders WHERE customer_id = $1 ORDER BY id`, customerID)
}

func (r pgOrders) LatestByCustomer(ctx context.Context, customerID int64) (*models.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE customer_id = $1
		ORDER BY create_at DESC, id DESC LIMIT 1`

	order, err := scanOrder(r.s.q.QueryRowContext(ctx, query, customerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("order for customer", customerID)
	}
	if err != nil {
		return nil, classify("latest customer order", err)
	}
	return order, nil
}

func (r pgOrders) SearchByID(ctx context.Context, text string) ([]*models.Order, error) {
	r.s.logger.Debug("Searching orders by id", logging.Fields{"text": text})
	return r.query(ctx, "search orders",
		`SELECT `+orderColumns+` FROM orders
		WHERE CAST(id AS TEXT) ILIKE '%' || $1 || '%'
		ORDER BY id`, likeEscape(text))
}

func (r pgOrders) Create(ctx context.Context, order *models.Order) error {
	r.s.logger.Debug("Creating new order", logging.Fields{"customer_id": order.CustomerID})

	id, err := r.s.insert(ctx, "orders", order.ID,
		[]string{"customer_id", "order_status", "create_at", "total_amount"},
		[]interface{}{order.CustomerID, order.Status, order.CreatedAt, order.TotalAmount},
	)
	if err != nil {
		r.s.logger.Error("Failed to create order", logging.Fields{
			"customer_id": order.CustomerID,
			"error":       err.Error(),
		})
		return err
	}

	order.ID = id
	r.s.logger.Info("Order created successfully", logging.Fields{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"total":       order.TotalAmount.String(),
	})
	return nil
}

func (r pgOrders) Update(ctx context.Context, order *models.Order) error {
	return r.s.execAffecting(ctx, "update order", "order", order.ID,
		`UPDATE orders SET customer_id = $2, order_status = $3, create_at = $4, total_amount = $5
		WHERE id = $1`,
		order.ID, order.CustomerID, order.Status, order.CreatedAt, order.TotalAmount)
}

// UpdateStatus updates the status of an order.
func (r pgOrders) UpdateStatus(ctx context.Context, id int64, status string) error {
	r.s.logger.Debug("Updating order status", logging.Fields{
		"order_id":   id,
		"new_status": status,
	})

	if err := r.s.execAffecting(ctx, "update order status", "order", id,
		`UPDATE orders SET order_status = $2 WHERE id = $1`, id, status); err != nil {
		return err
	}

	r.s.logger.Info("Order status updated", logging.Fields{
		"order_id":   id,
		"new_status": status,
	})
	return nil
}

func (r pgOrders) Delete(ctx context.Context, id int64) error {
	r.s.logger.Debug("Deleting order", logging.Fields{"order_id": id})
	return r.s.execAffecting(ctx, "delete order", "order", id, `DELETE FROM orders WHERE id = $1`, id)
}

func (r pgOrders) DeleteMany(ctx context.Context, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.s.execCount(ctx, "delete orders", `DELETE FROM orders WHERE id = ANY($1)`, pq.Array(ids))
}

func (r pgOrders) query(ctx context.Context, op, query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := r.s.q.QueryContext(ctx, query, args...)
	if err != nil {
		r.s.logger.Error("Order query failed", logging.Fields{"op": op, "error": err.Error()})
		return nil, classify(op, err)
	}
	defer rows.Close()

	orders := make([]*models.Order, 0)
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return orders, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var o models.Order
	if err := row.Scan(&o.ID, &o.CustomerID, &o.Status, &o.CreatedAt, &o.TotalAmount); err != nil {
		return nil, err
	}
	return &o, nil
}

const orderLineColumns = `id, order_id, product_id, price, number_of_products, total_money`

type pgOrderLines struct{ s *PostgresStore }

func (r pgOrderLines) GetByID(ctx context.Context, id int64) (*models.OrderLine, error) {
	query := `SELECT ` + orderLineColumns + ` FROM order_lines WHERE id = $1`

	line, err := scanOrderLine(r.s.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("order line", id)
	}
	if err != nil {
		return nil, classify("get order line", err)
	}
	return line, nil
}

func (r pgOrderLines) List(ctx context.Context) ([]*models.OrderLine, error) {
	return r.query(ctx, "list order lines", `SELECT `+orderLineColumns+` FROM order_lines ORDER BY id`)
}

func (r pgOrderLines) ListByOrder(ctx context.Context, orderID int64) ([]*models.OrderLine, error) {
	return r.query(ctx, "list order lines by order",
		`SELECT `+orderLineColumns+` FROM order_lines WHERE order_id = $1 ORDER BY id`, orderID)
}

func (r pgOrderLines) Create(ctx context.Context, line *models.OrderLine) error {
	id, err := r.s.insert(ctx, "order_lines", line.ID,
		[]string{"order_id", "product_id", "price", "number_of_products", "total_money"},
		[]interface{}{line.OrderID, line.ProductID, line.Price, line.Quantity, line.TotalMoney},
	)
	if err != nil {
		r.s.logger.Error("Failed to create order line", logging.Fields{
			"order_id": line.OrderID,
			"error":    err.Error(),
		})
		return err
	}
	line.ID = id
	return nil
}

func (r pgOrderLines) Update(ctx context.Context, line *models.OrderLine) error {
	return r.s.execAffecting(ctx, "update order line", "order line", line.ID,
		`UPDATE order_lines SET order_id = $2, product_id = $3, price = $4, number_of_products = $5, total_money = $6
		WHERE id = $1`,
		line.ID, line.OrderID, line.ProductID, line.Price, line.Quantity, line.TotalMoney)
}

func (r pgOrderLines) Delete(ctx context.Context, id int64) error {
	return r.s.execAffecting(ctx, "delete order line", "order line", id,
		`DELETE FROM order_lines WHERE id = $1`, id)
}

func (r pgOrderLines) DeleteByOrders(ctx context.Context, orderIDs []int64) (int, error) {
	if len(orderIDs) == 0 {
		return 0, nil
	}
	r.s.logger.Debug("Deleting order lines", logging.Fields{"order_ids": orderIDs})
	return r.s.execCount(ctx, "delete order lines",
		`DELETE FROM order_lines WHERE order_id = ANY($1)`, pq.Array(orderIDs))
}

func (r pgOrderLines) query(ctx context.Context, op, query string, args ...interface{}) ([]*models.OrderLine, error) {
	rows, err := r.s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()

	lines := make([]*models.OrderLine, 0)
	for rows.Next() {
		line, err := scanOrderLine(rows)
		if err != nil {
			return nil, classify(op, err)
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(op, err)
	}
	return lines, nil
}

func scanOrderLine(row rowScanner) (*models.OrderLine, error) {
	var l models.OrderLine
	if err := row.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.Price, &l.Quantity, &l.TotalMoney); err != nil {
		return nil, err
	}
	return &l, nil
}
