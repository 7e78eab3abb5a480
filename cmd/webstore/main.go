package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/clients"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/config"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/events"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/handlers"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/logging"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/metrics"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/repository"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/server"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/service"
	"github.com/tm-acme-shop/acme-shop-webstore-service/internal/session"
)

func main() {
	cfg := config.MustLoad()

	logging.Configure(cfg.Log.Level, cfg.Log.Format)
	logger := logging.New("webstore-service")
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	logging.Infof("Starting webstore-service on port %d", cfg.Server.Port)

	m := metrics.New()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore := initStore(ctx, cfg, logger)
	defer closeStore()

	var (
		orderCache repository.OrderCache = repository.NopOrderCache{}
		sessions   session.Store         = session.NewMemoryStore(cfg.Session.TTL)
	)
	if cfg.Features.EnableOrderCaching || cfg.Features.EnableRedisSessions {
		redisClient := repository.NewRedisClient(cfg.Redis)
		defer redisClient.Close()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable at startup", logging.Fields{"error": err.Error()})
		}
		if cfg.Features.EnableOrderCaching {
			orderCache = repository.NewRedisOrderCache(redisClient, cfg.Redis.TTL, m)
		}
		if cfg.Features.EnableRedisSessions {
			sessions = session.NewRedisStore(redisClient, cfg.Session.TTL)
		}
	}

	var eventPublisher events.Publisher = events.NopPublisher{}
	if cfg.Features.EnableOrderEvents {
		eventPublisher = events.NewKafkaPublisher(cfg.Kafka, m)
	}
	defer eventPublisher.Close()

	var notifier clients.Notifier = clients.NopNotifier{}
	if cfg.Features.EnableNotifications {
		notifier = clients.NewHTTPNotificationClient(cfg.NotificationService)
	}

	orderManager := service.NewOrderManager(store, orderCache, eventPublisher, notifier, m, cfg.Features)

	h := handlers.NewHandlers(handlers.Services{
		Orders:        orderManager,
		Users:         service.NewUserService(store, orderManager, sessions, service.PlaintextVerifier{}),
		Registrations: service.NewRegistrationService(repository.NewRegistrationStore()),
		Catalog:       service.NewCatalogService(store),
		Reviews:       service.NewReviewService(store),
	}, store, cfg)

	srv := server.New(h, m, cfg)

	go func() {
		logger.Info("Server starting", logging.Fields{
			"port":                 cfg.Server.Port,
			"store_driver":         cfg.StoreDriver,
			"enable_order_caching": cfg.Features.EnableOrderCaching,
			"enable_order_events":  cfg.Features.EnableOrderEvents,
		})
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", logging.Fields{"error": err.Error()})
		}
	}()

	var eventConsumer *events.KafkaConsumer
	if cfg.Features.EnableStatusConsumer {
		eventConsumer = events.NewKafkaConsumer(cfg.Kafka, orderManager, m)
		go func() {
			if err := eventConsumer.Start(ctx); err != nil && err != context.Canceled {
				logger.Error("Event consumer failed", logging.Fields{"error": err.Error()})
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	if eventConsumer != nil {
		eventConsumer.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", logging.Fields{"error": err.Error()})
	}

	if err := orderManager.WaitForNotifications(shutdownCtx); err != nil {
		logger.Warn("Notifications still in flight at shutdown", logging.Fields{"error": err.Error()})
	}

	logger.Info("Server exited")
}

// initStore opens the configured store. The returned func releases it.
func initStore(ctx context.Context, cfg *config.Config, logger *logging.Logger) (repository.Store, func()) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("Using in-memory store; data is lost on restart")
		return repository.NewMemoryStore(), func() {}
	}

	db, err := repository.OpenPostgres(ctx, cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", logging.Fields{"error": err.Error()})
	}

	logger.Info("Database connected", logging.Fields{
		"host": cfg.Database.Host,
		"name": cfg.Database.Name,
	})

	store := repository.NewPostgresStore(db, logging.New("postgres"))
	if cfg.Database.AutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			logger.Fatal("Failed to apply schema", logging.Fields{"error": err.Error()})
		}
	}
	return store, func() { db.Close() }
}
