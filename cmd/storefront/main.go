package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Zeinot/hajar-php-store-sub000/internal/auth"
	"github.com/Zeinot/hajar-php-store-sub000/internal/cart"
	"github.com/Zeinot/hajar-php-store-sub000/internal/catalog"
	"github.com/Zeinot/hajar-php-store-sub000/internal/checkout"
	"github.com/Zeinot/hajar-php-store-sub000/internal/config"
	"github.com/Zeinot/hajar-php-store-sub000/internal/messaging"
	"github.com/Zeinot/hajar-php-store-sub000/internal/orders"
	"github.com/Zeinot/hajar-php-store-sub000/internal/telemetry"
)

const serviceName = "storefront"

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequirePostgres(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(serviceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	dsn, err := cfg.PostgresDSN()
	if err != nil {
		logger.Error("invalid database url", "error", err)
		os.Exit(1)
	}
	db, err := telemetry.OpenDB(ctx, dsn, telemetry.DefaultPoolConfig())
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	var store cart.SessionStore
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		store = cart.NewRedisStore(rdb, cfg.CartTTL)
	} else {
		logger.Warn("REDIS_ADDR not set, carts are kept in memory")
		store = cart.NewMemoryStore()
	}

	var publisher checkout.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic)
		defer func() { _ = producer.Close() }()
		publisher = producer
	} else {
		logger.Warn("KAFKA_BROKERS not set, order events are not published")
	}

	products := catalog.NewProductRepository(db)
	orderRepo := orders.NewOrderRepository(db)
	carts := cart.NewService(store, products, logger)
	pricing := checkout.Pricing{
		FreeShippingThreshold: cfg.FreeShippingThreshold,
		FlatShippingFee:       cfg.FlatShippingFee,
		TaxRate:               cfg.TaxRate,
	}
	processor := checkout.NewProcessor(orderRepo, pricing, publisher, logger)
	tracker := orders.NewTracker(orderRepo, publisher, logger)

	catalogHandler := catalog.NewHandler(products, logger)
	cartHandler := cart.NewHandler(carts, logger)
	checkoutHandler := checkout.NewHandler(processor, carts, logger)
	ordersHandler := orders.NewHandler(orderRepo, tracker, logger)

	route := telemetry.WithHTTPRoute
	authed := func(h http.HandlerFunc) http.HandlerFunc { return route(auth.RequireCustomer(h)) }
	admin := func(h http.HandlerFunc) http.HandlerFunc { return route(auth.RequireAdmin(h)) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", route(catalogHandler.HandleList))
	mux.HandleFunc("GET /products/{id}", route(catalogHandler.HandleGet))

	mux.HandleFunc("GET /cart", route(cartHandler.HandleGet))
	mux.HandleFunc("POST /cart/items", route(cartHandler.HandleAdd))
	mux.HandleFunc("PATCH /cart/items/{key}", route(cartHandler.HandleUpdate))
	mux.HandleFunc("DELETE /cart/items/{key}", route(cartHandler.HandleRemove))
	mux.HandleFunc("DELETE /cart", route(cartHandler.HandleClear))

	mux.HandleFunc("GET /checkout", authed(checkoutHandler.HandleForm))
	mux.HandleFunc("POST /checkout", authed(checkoutHandler.HandleSubmit))
	mux.HandleFunc("POST /checkout/quote", route(checkoutHandler.HandleQuote))

	mux.HandleFunc("GET /orders", authed(ordersHandler.HandleList))
	mux.HandleFunc("GET /orders/{id}", authed(ordersHandler.HandleGet))
	mux.HandleFunc("GET /orders/{id}/history", authed(ordersHandler.HandleHistory))
	mux.HandleFunc("GET /admin/orders", admin(ordersHandler.HandleAdminList))
	mux.HandleFunc("PATCH /admin/orders/{id}/status", admin(ordersHandler.HandleUpdateStatus))
	mux.HandleFunc("POST /admin/orders/status", admin(ordersHandler.HandleBulkUpdateStatus))

	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(cart.SessionMiddleware(cfg.CartTTL, mux), serviceName,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting storefront service", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
