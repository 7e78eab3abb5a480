package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/models"
)

// Store is the persistence boundary. Every repository method reports a
// missing row as apperrors.ErrNotFound and a uniqueness or serialization
// failure as *apperrors.ConflictError.
type Store interface {
	Orders() OrderRepository
	OrderLines() OrderLineRepository
	Users() UserRepository
	Categories() CategoryRepository
	Brands() BrandRepository
	Products() ProductRepository
	Reviews() ReviewRepository

	// WithinTx runs fn against a Store bound to one transaction. The
	// transaction commits only if fn returns nil; any error rolls back every
	// write fn made. Inside fn, OrderRepository.GetByID and
	// UserRepository.GetByID lock the row until the transaction ends.
	WithinTx(ctx context.Context, fn func(tx Store) error) error

	Ping(ctx context.Context) error
}

type OrderRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Order, error)
	List(ctx context.Context) ([]*models.Order, error)
	ListByCustomer(ctx context.Context, customerID int64) ([]*models.Order, error)
	LatestByCustomer(ctx context.Context, customerID int64) (*models.Order, error)
	// SearchByID matches text literally against the decimal form of the id,
	// case-insensitively.
	SearchByID(ctx context.Context, text string) ([]*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, order *models.Order) error
	UpdateStatus(ctx context.Context, id int64, status string) error
	Delete(ctx context.Context, id int64) error
	DeleteMany(ctx context.Context, ids []int64) (int, error)
}

type OrderLineRepository interface {
	GetByID(ctx context.Context, id int64) (*models.OrderLine, error)
	List(ctx context.Context) ([]*models.OrderLine, error)
	ListByOrder(ctx context.Context, orderID int64) ([]*models.OrderLine, error)
	Create(ctx context.Context, line *models.OrderLine) error
	Update(ctx context.Context, line *models.OrderLine) error
	Delete(ctx context.Context, id int64) error
	DeleteByOrders(ctx context.Context, orderIDs []int64) (int, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	ListByRole(ctx context.Context, roleID int) ([]*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, password string) error
	Delete(ctx context.Context, id int64) error
}

type CategoryRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Category, error)
	List(ctx context.Context) ([]*models.Category, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id int64) error
}

type BrandRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Brand, error)
	List(ctx context.Context) ([]*models.Brand, error)
	ListByCategory(ctx context.Context, categoryID int64) ([]*models.Brand, error)
	Create(ctx context.Context, brand *models.Brand) error
	Update(ctx context.Context, brand *models.Brand) error
	Delete(ctx context.Context, id int64) error
}

// ProductFilter narrows a product listing. Zero values are ignored; a
// non-empty IDs restricts to those ids.
type ProductFilter struct {
	CategoryID int64
	BrandID    int64
	IDs        []int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal // exclusive
	NameLike   string
}

type ProductRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id int64) error
}

type ReviewRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Review, error)
	List(ctx context.Context) ([]*models.Review, error)
	ListByProduct(ctx context.Context, productID int64) ([]*models.Review, error)
	ListByUser(ctx context.Context, userID int64) ([]*models.Review, error)
	Create(ctx context.Context, review *models.Review) error
	Update(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id int64) error
}

// OrderCache defines caching operations for orders.
type OrderCache interface {
	Get(ctx context.Context, id int64) (*models.Order, error)
	Set(ctx context.Context, order *models.Order) error
	// Delete evicts an order and advances its generation.
	Delete(ctx context.Context, id int64) error
	// Generation reports how many times an order has been evicted.
	Generation(ctx context.Context, id int64) (int64, error)
	// SetAtGeneration caches order only if its generation still equals gen.
	SetAtGeneration(ctx context.Context, order *models.Order, gen int64) error
	GetByCustomer(ctx context.Context, customerID int64) ([]*models.Order, error)
	SetByCustomer(ctx context.Context, customerID int64, orders []*models.Order) error
	InvalidateByCustomer(ctx context.Context, customerID int64) error
}
