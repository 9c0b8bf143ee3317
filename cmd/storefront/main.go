package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/vasiliy-maslov/storefront/internal/cart"
	"github.com/vasiliy-maslov/storefront/internal/checkout"
	"github.com/vasiliy-maslov/storefront/internal/config"
	"github.com/vasiliy-maslov/storefront/internal/customer"
	"github.com/vasiliy-maslov/storefront/internal/db"
	"github.com/vasiliy-maslov/storefront/internal/events"
	storeHttp "github.com/vasiliy-maslov/storefront/internal/handler/http"
	"github.com/vasiliy-maslov/storefront/internal/order"
	"github.com/vasiliy-maslov/storefront/internal/product"
	"github.com/vasiliy-maslov/storefront/internal/user"
)

func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg.App)

	log.Info().Msg("Storefront starting...")
	log.Debug().Str("env", cfg.App.Env).Str("events_driver", cfg.Events.Driver).Bool("redis", cfg.Redis.Enabled()).Msg("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	dbConn, err := db.New(connectCtx, cfg.Postgres)
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbConn.Close()

	productCache := product.NewNoopCache()
	checkoutKeys := checkout.NewNoopKeyStore()
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Error().Err(err).Msg("Failed to close redis client")
			}
		}()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("Failed to connect to redis")
		}
		productCache = product.NewRedisCache(rdb, cfg.Redis.ProductTTL)
		checkoutKeys = checkout.NewRedisKeyStore(rdb, cfg.Redis.IdempotencyTTL)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Redis connected")
	}

	publisher, err := newPublisher(ctx, cfg.Events)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to set up event publisher")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close event publisher")
		}
	}()

	userRepository := user.NewRepository(dbConn.SQL)
	customerRepository := customer.NewRepository(dbConn.SQL)

	userSvc := user.NewService(userRepository)
	customerSvc := customer.NewService(customerRepository, userRepository)
	productSvc := product.NewService(product.NewRepository(dbConn.Pool), productCache)
	cartSvc := cart.NewService(cart.NewRepository(dbConn.Pool), productSvc, customerSvc)
	orderSvc := order.NewService(order.NewRepository(dbConn.Pool), customerSvc, publisher, cfg.Events.Topic)
	checkoutSvc := checkout.NewService(checkout.NewUnitOfWork(dbConn.Pool), customerSvc,
		checkout.WithKeyStore(checkoutKeys),
		checkout.WithPublisher(publisher, cfg.Events.Topic),
	)

	router := storeHttp.NewRouter(storeHttp.RouterConfig{
		Logger:         log.Logger,
		RateLimitRPS:   cfg.App.RateLimitRPS,
		RateLimitBurst: cfg.App.RateLimitBurst,
		Health:         dbConn.Pool,
	},
		storeHttp.NewUserHandler(userSvc),
		storeHttp.NewCustomerHandler(customerSvc),
		storeHttp.NewProductHandler(productSvc),
		storeHttp.NewCartHandler(cartSvc),
		storeHttp.NewOrderHandler(orderSvc, checkoutSvc),
	)

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("Server failed")
	case <-ctx.Done():
		log.Info().Msg("Shutting down...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

func setupLogger(app config.AppConfig) {
	level, err := zerolog.ParseLevel(app.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if app.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = log.With().Str("service", app.Name).Logger()
}

// newPublisher picks the event transport. The in-memory driver also starts a
// consumer that logs every event, so events stay visible without a broker.
func newPublisher(ctx context.Context, cfg config.EventsConfig) (events.Publisher, error) {
	switch cfg.Driver {
	case config.EventsDriverKafka:
		log.Info().Strs("brokers", cfg.Brokers).Str("topic", cfg.Topic).Msg("Publishing order events to kafka")
		return events.NewKafkaPublisher(cfg.Brokers), nil
	default:
		p := events.NewChannelPublisher(log.Logger)
		if err := events.LogConsumer(ctx, p, cfg.Topic); err != nil {
			_ = p.Close()
			return nil, err
		}
		log.Info().Str("topic", cfg.Topic).Msg("Publishing order events in-process")
		return p, nil
	}
}
