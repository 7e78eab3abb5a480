package handlers

import (
	"context"

	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/service"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds all HTTP handlers for the webstore service.
type Handlers struct {
	orders        *service.OrderManager
	users         *service.UserService
	registrations *service.RegistrationService
	catalog       *service.CatalogService
	reviews       *service.ReviewService
	store         Pinger
	config        *config.Config
	logger        *logging.Logger
}

// Services groups the services the handlers delegate to.
type Services struct {
	Orders        *service.OrderManager
	Users         *service.UserService
	Registrations *service.RegistrationService
	Catalog       *service.CatalogService
	Reviews       *service.ReviewService
}

// NewHandlers creates a new handlers instance.
func NewHandlers(svc Services, store Pinger, cfg *config.Config) *Handlers {
	return &Handlers{
		orders:        svc.Orders,
		users:         svc.Users,
		registrations: svc.Registrations,
		catalog:       svc.Catalog,
		reviews:       svc.Reviews,
		store:         store,
		config:        cfg,
		logger:        logging.New("handlers"),
	}
}
