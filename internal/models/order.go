package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order is an order header. Its lines are stored separately and reference
// it through OrderLine.OrderID.
type Order struct {
	ID          int64           `json:"order_id"`
	CustomerID  int64           `json:"customer_id"`
	Status      string          `json:"order_status"`
	CreatedAt   time.Time       `json:"create_at"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// OrderLine is one product entry of an order.
type OrderLine struct {
	ID         int64           `json:"id"`
	OrderID    int64           `json:"order_id"`
	ProductID  int64           `json:"product_id"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"number_of_products"`
	TotalMoney decimal.Decimal `json:"total_money"`
}

// ExpectedTotal is Price * Quantity. TotalMoney is caller supplied and is
// not required to match it.
func (l *OrderLine) ExpectedTotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// UpdateOrderStatusRequest is the body of a partial status update.
type UpdateOrderStatusRequest struct {
	OrderStatus string `json:"order_status"`
}

// CascadeResult reports what a cascading delete removed.
type CascadeResult struct {
	OrdersDeleted int `json:"orders_deleted"`
	LinesDeleted  int `json:"lines_deleted"`
}
