package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
	"github.com/kanlogic/readiness-engine-go/internal/infra/observability"
	"github.com/kanlogic/readiness-engine-go/internal/service"
)

// diagnoseHandler handles POST /v1/diagnose.
func diagnoseHandler(svc *service.DiagnosisService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "diagnoseHandler")
		defer span.End()

		var raw domain.RawIntake
		if err := decodeBody(r, &raw); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		result, err := svc.Diagnose(ctx, raw)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, result)
	}
}

// listModulesHandler handles GET /v1/modules.
func listModulesHandler(svc *service.DiagnosisService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"modules": svc.Catalog(),
		})
	}
}

// engineMetricsHandler handles GET /v1/metrics/engine.
func engineMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetEngineSnapshot())
	}
}
