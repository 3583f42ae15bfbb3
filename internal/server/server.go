package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/database"
	custommiddleware "storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/store"
	"storefront/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Shop is the wired storefront core
type Shop struct {
	Store    store.Store
	Catalog  *catalog.Catalog
	Engine   *catalog.Engine
	Sessions session.Registry
	Accounts service.AccountService
	Orders   service.OrderService
	Checkout service.CheckoutService
	Vouchers service.VoucherService
	Loyalty  service.LoyaltyService
}

// NewShop wires repositories and services over one store
func NewShop(cfg *config.Config, st store.Store, products *catalog.Catalog, payments service.PaymentProcessor, logger *zap.Logger) (*Shop, error) {
	locale, err := language.Parse(cfg.Catalog.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog locale %q: %w", cfg.Catalog.Locale, err)
	}

	authorizer := service.NewRoleAuthorizer()
	customerRepo := repository.NewCustomerRepository()
	voucherRepo := repository.NewVoucherRepository()
	ruleRepo := repository.NewLoyaltyRuleRepository()
	txnRepo := repository.NewTransactionRepository()
	orderRepo := repository.NewOrderRepository()

	orders := service.NewOrderService(st, orderRepo, voucherRepo, txnRepo, payments, authorizer, logger)

	return &Shop{
		Store:    st,
		Catalog:  products,
		Engine:   catalog.NewEngine(locale),
		Sessions: session.NewRegistry(products),
		Accounts: service.NewAccountService(st, customerRepo, authorizer, cfg.JWT.Secret, cfg.JWT.AccessTTL(), logger),
		Orders:   orders,
		Checkout: service.NewCheckoutService(st, voucherRepo, ruleRepo, orders, cfg.Checkout.TaxRate, logger),
		Vouchers: service.NewVoucherService(st, voucherRepo, authorizer, logger),
		Loyalty:  service.NewLoyaltyService(st, ruleRepo, txnRepo, customerRepo, products, authorizer, logger),
	}, nil
}

// NewRouter builds the HTTP routes over shop. checkoutLimit may be nil.
func NewRouter(cfg *config.Config, shop *Shop, checkoutLimit transport.Middleware, logger *zap.Logger) http.Handler {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.CORSAllowedOrigins, cfg.Server.IsDevelopment()))
	router.Use(custommiddleware.LoggingMiddleware(logger.Named("http")))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := shop.Store.Ping(ctx); err != nil {
			logger.Warn("Health check failed", zap.Error(err))
			custommiddleware.RespondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "down",
				"store":  cfg.Store.Backend,
			})
			return
		}
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
			"store":  cfg.Store.Backend,
		})
	})

	authMiddleware := custommiddleware.AuthMiddleware(shop.Accounts, logger.Named("auth"))

	// one core operation per turn
	router.Group(func(r chi.Router) {
		r.Use(custommiddleware.SerializeMiddleware())

		transport.NewAccountHandler(shop.Accounts, shop.Sessions, logger).RegisterRoutes(r, authMiddleware)
		transport.NewCatalogHandler(shop.Catalog, shop.Engine, logger).RegisterRoutes(r)
		transport.NewCartHandler(shop.Sessions, logger).RegisterRoutes(r, authMiddleware)
		transport.NewOrderHandler(shop.Sessions, shop.Checkout, shop.Orders, checkoutLimit, logger).RegisterRoutes(r, authMiddleware)
		transport.NewVoucherHandler(shop.Vouchers, logger).RegisterRoutes(r, authMiddleware)
		transport.NewLoyaltyHandler(shop.Loyalty, logger).RegisterRoutes(r, authMiddleware)
	})

	return router
}

type Server struct {
	*http.Server
	Shop   *Shop
	config *config.Config
	logger *zap.Logger
	limits *redis.Client
}

// NewServer opens the configured store backend, loads the catalog and wires
// the HTTP routes. Checkout is rate limited when Redis is reachable.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	products, err := catalog.LoadFile(cfg.Catalog.Path)
	if err != nil {
		return nil, err
	}
	logger.Info("Catalog loaded", zap.String("path", cfg.Catalog.Path), zap.Int("products", products.Len()))

	st, storeClient, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	payments := service.NewSimulatedPaymentProcessor(cfg.Checkout.PaymentDelay, logger)
	shop, err := NewShop(cfg, st, products, payments, logger)
	if err != nil {
		st.Close()
		return nil, err
	}

	limits := storeClient
	if limits == nil {
		limits = rateLimitClient(cfg, logger)
	}
	var checkoutLimit transport.Middleware
	if limits != nil {
		checkoutLimit = custommiddleware.RateLimitMiddleware(limits, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.Requests,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         cfg.Redis.KeyPrefix + ":ratelimit",
		}, logger.Named("ratelimit"))
	}

	s := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      NewRouter(cfg, shop, checkoutLimit, logger),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Shop:   shop,
		config: cfg,
		logger: logger,
	}
	if limits != storeClient {
		s.limits = limits
	}
	return s, nil
}

// openStore returns the configured backend and, for Redis, its client
func openStore(cfg *config.Config, logger *zap.Logger) (store.Store, *redis.Client, error) {
	switch cfg.Store.Backend {
	case config.StoreMemory:
		logger.Warn("Using in-memory store; data is lost on restart")
		return store.NewMemory(), nil, nil

	case config.StorePostgres:
		db, err := database.New(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := database.RunMigrations(db.DB(), logger); err != nil {
			db.Close()
			return nil, nil, err
		}
		if cfg.Server.IsDevelopment() {
			if err := database.GetMigrationStatus(db.DB()); err != nil {
				logger.Warn("Failed to read migration status", zap.Error(err))
			}
		}
		logger.Info("Database health check", zap.Any("health", db.Health()))
		return store.NewPostgres(db.DB()), nil, nil

	case config.StoreRedis:
		client := newRedisClient(cfg.Redis)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return store.NewRedis(client, cfg.Redis.KeyPrefix), client, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

// rateLimitClient returns a Redis client for rate limiting, or nil when Redis is unreachable
func rateLimitClient(cfg *config.Config, logger *zap.Logger) *redis.Client {
	client := newRedisClient(cfg.Redis)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis unreachable, checkout rate limiting disabled", zap.Error(err))
		client.Close()
		return nil
	}
	return client
}

func newRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.limits != nil {
		if err := s.limits.Close(); err != nil {
			s.logger.Error("Failed to close rate limit client", zap.Error(err))
		}
	}
	if err := s.Shop.Store.Close(); err != nil {
		s.logger.Error("Failed to close store", zap.Error(err))
	}

	s.logger.Sync()
	return nil
}
