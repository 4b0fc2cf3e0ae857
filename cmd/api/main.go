package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/commercegrid/acp-checkout-backend/api/routes"
	"github.com/commercegrid/acp-checkout-backend/internal/catalog"
	checkoutsvc "github.com/commercegrid/acp-checkout-backend/internal/checkout"
	"github.com/commercegrid/acp-checkout-backend/internal/payments"
	"github.com/commercegrid/acp-checkout-backend/internal/sessions"
	stripewebhook "github.com/commercegrid/acp-checkout-backend/internal/webhooks/stripe"
	"github.com/commercegrid/acp-checkout-backend/pkg/config"
	"github.com/commercegrid/acp-checkout-backend/pkg/db"
	"github.com/commercegrid/acp-checkout-backend/pkg/logger"
	"github.com/commercegrid/acp-checkout-backend/pkg/metrics"
	"github.com/commercegrid/acp-checkout-backend/pkg/migrate"
	"github.com/commercegrid/acp-checkout-backend/pkg/redis"
	"github.com/commercegrid/acp-checkout-backend/pkg/stripe"
)

const webhookIdempotencyTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx := context.Background()

	var dbClient *db.Client
	if cfg.DB.DSN != "" {
		if cfg.Flags.UseSQLite {
			cfg.DB.Driver = "sqlite"
		}
		dbClient, err = db.New(ctx, cfg.DB, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap database", err)
			os.Exit(1)
		}
		defer func() {
			if err := dbClient.Close(); err != nil {
				logg.Error(ctx, "error closing database", err)
			}
		}()

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to run dev migrations", err)
			os.Exit(1)
		}
	} else if !cfg.App.IsDev() {
		logg.Error(ctx, "database DSN is required outside dev", nil)
		os.Exit(1)
	}

	snapshot, err := loadCatalog(ctx, cfg, dbClient, logg)
	if err != nil {
		logg.Error(ctx, "failed to load catalog", err)
		os.Exit(1)
	}
	catalogService, err := catalog.NewService(snapshot)
	if err != nil {
		logg.Error(ctx, "failed to build catalog service", err)
		os.Exit(1)
	}

	var redisClient *redis.Client
	var store sessions.Store
	switch cfg.Sessions.Backend {
	case config.SessionsBackendRedis:
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(ctx, "error closing redis", err)
			}
		}()
		store, err = sessions.NewRedisStore(redisClient, cfg.Sessions.TTL)
		if err != nil {
			logg.Error(ctx, "failed to build redis session store", err)
			os.Exit(1)
		}
	default:
		store = sessions.NewMemoryStore()
	}

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	engine, err := checkoutsvc.NewService(catalogService, store, checkoutMetrics, logg)
	if err != nil {
		logg.Error(ctx, "failed to build checkout service", err)
		os.Exit(1)
	}

	var stripeClient *stripe.Client
	var completer *checkoutsvc.Completer
	var webhookService *stripewebhook.Service
	if cfg.Stripe.APIKey != "" {
		stripeClient, err = stripe.NewClient(ctx, cfg.Stripe, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap stripe", err)
			os.Exit(1)
		}

		gateway, err := payments.NewStripeGateway(payments.NewStripeIntentClient(stripeClient))
		if err != nil {
			logg.Error(ctx, "failed to build payment gateway", err)
			os.Exit(1)
		}
		completer, err = checkoutsvc.NewCompleter(engine, gateway, logg)
		if err != nil {
			logg.Error(ctx, "failed to build completion service", err)
			os.Exit(1)
		}

		if redisClient != nil {
			guard, err := stripewebhook.NewIdempotencyGuard(redisClient, webhookIdempotencyTTL, "stripe-webhook")
			if err != nil {
				logg.Error(ctx, "failed to build webhook idempotency guard", err)
				os.Exit(1)
			}
			webhookService, err = stripewebhook.NewService(stripewebhook.ServiceParams{
				Engine: engine,
				Guard:  guard,
				Logger: logg,
			})
			if err != nil {
				logg.Error(ctx, "failed to build webhook service", err)
				os.Exit(1)
			}
		} else {
			logg.Warn(ctx, "redis not configured, stripe webhooks disabled")
		}
	} else {
		logg.Warn(ctx, "stripe not configured, payment completion disabled")
	}

	router := routes.NewRouter(routes.Deps{
		Config:        cfg,
		Logger:        logg,
		DB:            dbPinger(dbClient),
		Redis:         redisClient,
		Registry:      registry,
		Catalog:       catalogService,
		Checkout:      engine,
		Completer:     completer,
		StripeClient:  stripeClient,
		StripeWebhook: webhookService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutting down api server")
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(timeoutCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

// loadCatalog prefers the database-backed catalog; the built-in demo
// snapshot serves dev deployments running without one.
func loadCatalog(ctx context.Context, cfg *config.Config, dbClient *db.Client, logg *logger.Logger) (*catalog.Snapshot, error) {
	if dbClient == nil || cfg.Flags.SeedCatalog {
		logg.Info(ctx, "serving built-in demo catalog")
		return catalog.SeedSnapshot(), nil
	}
	return catalog.NewRepository(dbClient.DB()).LoadSnapshot(ctx)
}

func dbPinger(client *db.Client) db.Pinger {
	if client == nil {
		return nil
	}
	return client
}
