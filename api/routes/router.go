package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/storeops-dev/backoffice-backend/api/controllers"
	"github.com/storeops-dev/backoffice-backend/api/middleware"
	"github.com/storeops-dev/backoffice-backend/internal/audit"
	checkoutsvc "github.com/storeops-dev/backoffice-backend/internal/checkout"
	"github.com/storeops-dev/backoffice-backend/internal/orders"
	"github.com/storeops-dev/backoffice-backend/pkg/config"
	"github.com/storeops-dev/backoffice-backend/pkg/db"
	"github.com/storeops-dev/backoffice-backend/pkg/logger"
	"github.com/storeops-dev/backoffice-backend/pkg/metrics"
	"github.com/storeops-dev/backoffice-backend/pkg/redis"
)

// Deps collects everything the router wires into handlers.
type Deps struct {
	Config           *config.Config
	Logger           *logger.Logger
	DBPinger         db.Pinger
	RedisPinger      redis.Pinger
	IdempotencyStore redis.IdempotencyStore
	HTTPMetrics      *metrics.HTTPMetrics
	MetricsGatherer  prometheus.Gatherer
	CheckoutService  checkoutsvc.Service
	OrdersService    orders.Service
	AuditRecorder    audit.Recorder
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
	if deps.HTTPMetrics != nil {
		r.Use(deps.HTTPMetrics.Middleware)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/api/public/ping", controllers.PublicPing())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.StoreContext(logg))
		if deps.IdempotencyStore != nil {
			r.Use(middleware.Idempotency(deps.IdempotencyStore, logg))
		}

		r.Get("/ping", controllers.PrivatePing())

		r.Post("/carts", controllers.CartCreate(deps.CheckoutService, logg))
		r.Route("/carts/{cartId}", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(deps.CheckoutService, logg))
			r.Post("/skus", controllers.CartAddSKU(deps.CheckoutService, logg))
			r.Put("/skus/{skuId}", controllers.CartSetSKUQuantity(deps.CheckoutService, logg))
			r.Delete("/skus/{skuId}", controllers.CartRemoveSKU(deps.CheckoutService, logg))
		})

		r.Route("/customers/{customerId}/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderConfirm(deps.CheckoutService, logg))
			r.Get("/", controllers.OrderList(deps.OrdersService, logg))
		})

		r.Get("/audit-events", controllers.AuditList(deps.AuditRecorder, logg))
	})

	return r
}
