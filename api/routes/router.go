package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fortuneatelier/fortune-backend/api/controllers"
	ordercontrollers "github.com/fortuneatelier/fortune-backend/api/controllers/orders"
	webhookcontrollers "github.com/fortuneatelier/fortune-backend/api/controllers/webhooks"
	"github.com/fortuneatelier/fortune-backend/api/middleware"
	"github.com/fortuneatelier/fortune-backend/api/responses"
	checkoutsvc "github.com/fortuneatelier/fortune-backend/internal/checkout"
	"github.com/fortuneatelier/fortune-backend/internal/orders"
	"github.com/fortuneatelier/fortune-backend/internal/payments"
	"github.com/fortuneatelier/fortune-backend/pkg/config"
	pkgerrors "github.com/fortuneatelier/fortune-backend/pkg/errors"
	"github.com/fortuneatelier/fortune-backend/pkg/logger"
	"github.com/fortuneatelier/fortune-backend/pkg/metrics"
)

// Dependencies are the services the HTTP surface is built from.
type Dependencies struct {
	Config      *config.Config
	Logger      *logger.Logger
	Checkout    checkoutsvc.Service
	Orders      orders.Service
	Fulfillment Fulfillment
	Provider    payments.Provider
	// Readiness names the dependencies pinged by /health/ready.
	Readiness   map[string]controllers.Pinger
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
	// ReportsDir is served under /reports/ when set.
	ReportsDir string
}

// Fulfillment applies payment events and serves paid reports.
type Fulfillment interface {
	HandleEvent(ctx context.Context, event *payments.WebhookEvent) error
	Report(ctx context.Context, orderID string) ([]byte, error)
}

func NewRouter(deps Dependencies) http.Handler {
	cfg, logg := deps.Config, deps.Logger
	if logg == nil {
		logg = logger.Nop()
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeMethod, "method not allowed"))
	})

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Readiness))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))
		r.Get("/order", ordercontrollers.Status(deps.Orders, logg))
		r.Get("/orders/{orderId}", ordercontrollers.Status(deps.Orders, logg))
		r.Get("/reports/{orderId}", controllers.ReportDownload(deps.Fulfillment, logg))
		r.HandleFunc("/webhooks/payment", webhookcontrollers.PaymentWebhook(deps.Provider, deps.Fulfillment, logg))
	})

	if deps.ReportsDir != "" {
		r.Get("/reports/*", controllers.StoredReport(deps.ReportsDir))
	}

	return r
}
