package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"rootstofarm.com/market/go-api/internal/memstore"
	"rootstofarm.com/market/go-api/internal/router"
	"rootstofarm.com/market/go-api/pkg/ai"
	"rootstofarm.com/market/go-api/pkg/auth"
	"rootstofarm.com/market/go-api/pkg/cart"
	"rootstofarm.com/market/go-api/pkg/catalog"
	"rootstofarm.com/market/go-api/pkg/events"
	"rootstofarm.com/market/go-api/pkg/farmers"
	"rootstofarm.com/market/go-api/pkg/global"
	"rootstofarm.com/market/go-api/pkg/mongo"
	"rootstofarm.com/market/go-api/pkg/notify"
	"rootstofarm.com/market/go-api/pkg/orders"
	"rootstofarm.com/market/go-api/pkg/payment"
	"rootstofarm.com/market/go-api/pkg/redis"
	"rootstofarm.com/market/go-api/pkg/telemetry"
)

const shutdownTimeout = 15 * time.Second

// stores is the persistence a process runs against, either MongoDB or memory.
type stores struct {
	db       router.Pinger
	products interface {
		cart.ProductStore
		orders.ProductStore
		catalog.ProductStore
		farmers.ProductStore
	}
	carts interface {
		cart.CartStore
		orders.CartStore
	}
	orders interface {
		orders.OrderStore
		farmers.OrderStore
	}
	users interface {
		auth.UserStore
		orders.UserLookup
	}
	farmers interface {
		farmers.FarmerStore
		events.FarmerSales
	}
	close func() error
}

func loadConfig(c *cli.Context) (*global.Config, error) {
	cfg, err := global.LoadConfig(c.String("env-file"))
	if err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	global.ConfigureLogging(cfg)
	return cfg, nil
}

func openMongo(cfg *global.Config) (*mongo.Store, error) {
	if cfg.MongoURI == "" {
		return nil, errors.New("MONGODB_URI is not set; use --memory to run without a database")
	}
	connectCtx, cancel := global.GetDefaultTimer()
	defer cancel()
	return mongo.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
}

func openStores(ctx context.Context, cfg *global.Config, memory bool) (*stores, error) {
	if memory {
		log.Warn("Running on the in-memory store; data is lost on exit")
		m := memstore.New()
		return &stores{
			db: m, products: m.Products(), carts: m.Carts(), orders: m.Orders(),
			users: m.Users(), farmers: m.Farmers(),
			close: func() error { return nil },
		}, nil
	}

	db, err := openMongo(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureIndexes(ctx); err != nil {
		log.WithError(err).Warn("Index creation failed, continuing")
	}
	return &stores{
		db: db, products: db.Products(), carts: db.Carts(), orders: db.Orders(),
		users: db.Users(), farmers: db.Farmers(),
		close: db.Disconnect,
	}, nil
}

func ensureIndexes(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := openMongo(cfg)
	if err != nil {
		return err
	}
	defer db.Disconnect()
	return db.EnsureIndexes(c.Context)
}

func serve(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := telemetry.Setup(cfg, router.Version)
	if err != nil {
		return errors.Wrap(err, "set up tracing")
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.WithError(err).Warn("Error flushing traces")
		}
	}()

	st, err := openStores(ctx, cfg, c.Bool("memory"))
	if err != nil {
		return err
	}
	defer func() {
		if err := st.close(); err != nil {
			log.WithError(err).Warn("Error closing database")
		}
	}()

	rdb := redis.NewClient(cfg)
	defer rdb.Close()
	if err := redis.Ping(ctx, rdb); err != nil {
		log.WithError(err).Warn("Redis unreachable; guest carts and rate limiting will fail until it returns")
	}

	bus, err := events.NewBus(cfg.Brokers())
	if err != nil {
		return errors.Wrap(err, "create event bus")
	}
	defer bus.Close()
	if err := bus.AddHandlers(events.SalesProjector(st.farmers)...); err != nil {
		return errors.Wrap(err, "register event handlers")
	}
	go func() {
		if err := bus.Run(ctx); err != nil {
			log.WithError(err).Error("Event router stopped")
		}
	}()

	mailer, err := notify.NewMailer(cfg)
	if err != nil {
		return errors.Wrap(err, "create mailer")
	}

	var gateway payment.Gateway
	if cfg.StripeSecretKey != "" {
		gateway = payment.NewStripeGateway(cfg.StripeSecretKey)
	} else {
		log.Warn("STRIPE_SECRET_KEY not set; card payments are disabled")
	}

	carts := cart.NewService(st.products, st.carts, redis.NewGuestCartStore(rdb))
	orderSvc := orders.NewService(orders.Deps{
		Products:  st.products,
		Orders:    st.orders,
		Carts:     st.carts,
		Checkout:  carts,
		Users:     st.users,
		Notifier:  mailer,
		Publisher: bus,
	})

	engine := router.NewEngine(router.Deps{
		Config:   cfg,
		Database: st.db,
		Limiter:  redis.NewRateLimiter(rdb, cfg.RateLimitMax, cfg.RateLimitWindow),
		Auth:     auth.NewService(st.users, auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpire), carts),
		Cart:     carts,
		Orders:   orderSvc,
		Catalog:  catalog.NewService(st.products),
		Farmers:  farmers.NewService(st.farmers, st.products, st.orders, ai.NewClient(cfg), cfg.LowStockThreshold),
		Payment:  payment.NewService(gateway, orderSvc, cfg.StripeWebhookSecret, cfg.StripeCurrency),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           otelhttp.NewHandler(engine, telemetry.ServiceName),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"port": cfg.Port, "env": cfg.Env}).Info("Server is running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "http server")
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
