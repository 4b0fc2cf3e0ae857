package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/commercegrid/acp-checkout-backend/api/controllers"
	webhookcontrollers "github.com/commercegrid/acp-checkout-backend/api/controllers/webhooks"
	"github.com/commercegrid/acp-checkout-backend/api/middleware"
	"github.com/commercegrid/acp-checkout-backend/internal/catalog"
	checkoutsvc "github.com/commercegrid/acp-checkout-backend/internal/checkout"
	stripewebhook "github.com/commercegrid/acp-checkout-backend/internal/webhooks/stripe"
	"github.com/commercegrid/acp-checkout-backend/pkg/config"
	"github.com/commercegrid/acp-checkout-backend/pkg/db"
	"github.com/commercegrid/acp-checkout-backend/pkg/logger"
	"github.com/commercegrid/acp-checkout-backend/pkg/redis"
	"github.com/commercegrid/acp-checkout-backend/pkg/stripe"
)

// Deps bundles everything the router mounts. Pointers may be nil when the
// deployment runs without that dependency; the affected routes degrade to
// errors rather than panics.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Registry *prometheus.Registry

	Catalog       catalog.Service
	Checkout      checkoutsvc.Service
	Completer     *checkoutsvc.Completer
	StripeClient  *stripe.Client
	StripeWebhook *stripewebhook.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, redisPinger(deps.Redis), logg))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/acp", func(r chi.Router) {
		r.Post("/webhooks", webhookcontrollers.StripeWebhook(webhookService(deps.StripeWebhook), stripeSigner(deps.StripeClient), logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.Auth, cfg.App.IsDev(), logg))

			r.Get("/products", controllers.ProductsList(deps.Catalog, logg))
			r.Get("/stats", controllers.Stats(deps.Checkout, logg))

			r.Post("/checkout", controllers.CheckoutCreate(deps.Checkout, logg))
			r.Post("/checkout/update", controllers.CheckoutUpdate(deps.Checkout, logg))
			r.Post("/checkout/complete", controllers.CheckoutComplete(deps.Completer, logg))
			r.Get("/checkout/{checkoutID}", controllers.CheckoutGet(deps.Checkout, logg))
		})
	})

	return r
}

// The helpers below avoid handing typed-nil pointers to interface
// parameters; a nil *T in an interface is not a nil interface.

func redisPinger(client *redis.Client) redis.Pinger {
	if client == nil {
		return nil
	}
	return client
}

func webhookService(svc *stripewebhook.Service) webhookcontrollers.StripeWebhookService {
	if svc == nil {
		return nil
	}
	return svc
}

func stripeSigner(client *stripe.Client) interface{ SigningSecret() string } {
	if client == nil {
		return nil
	}
	return client
}
