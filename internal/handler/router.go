package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/kanlogic/readiness-engine-go/internal/infra/observability"
	"github.com/kanlogic/readiness-engine-go/internal/service"
)

var tracer = otel.Tracer("handler")

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Services bundles everything the router serves.
type Services struct {
	Diagnosis *service.DiagnosisService
	Projects  *service.ProjectService
	Portal    *service.PortalService
	Payments  *service.PaymentLinks
	Health    HealthChecker
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svcs Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	r.Get("/healthz", healthzHandler(svcs.Health, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		// Diagnosis
		r.Post("/diagnose", diagnoseHandler(svcs.Diagnosis, logger))
		r.Get("/modules", listModulesHandler(svcs.Diagnosis))
		r.Get("/metrics/engine", engineMetricsHandler(metrics))

		// Customer portal
		r.Post("/portal/login", portalLoginHandler(svcs.Portal, logger))
		r.Group(func(r chi.Router) {
			r.Use(PortalAuthMiddleware(svcs.Portal, logger))
			r.Get("/leads/{leadId}", getLeadHandler(svcs.Portal, logger))
		})

		// Project lifecycle
		r.Post("/projects", createProjectHandler(svcs.Projects, logger))
		r.Get("/projects/{projectId}", getProjectHandler(svcs.Projects, logger))
		r.Post("/projects/{projectId}/credentials", addCredentialHandler(svcs.Projects, logger))
		r.Post("/projects/{projectId}/ready", markReadyHandler(svcs.Projects, logger))
		r.Post("/projects/{projectId}/validate-access", validateAccessHandler(svcs.Projects, logger))

		// Payments
		r.Get("/payments/link", paymentLinkHandler(svcs.Payments, logger))
	})

	return r
}

// healthzHandler reports liveness, including store reachability.
func healthzHandler(health HealthChecker, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if health != nil {
			if err := health.Ping(ctx); err != nil {
				logger.Error("healthz: store unreachable", zap.Error(err))
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
					"store":  "unreachable",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// readyzHandler reports readiness to receive traffic.
func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
