package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/kanlogic/readiness-engine-go/internal/service"
)

// paymentLinkHandler handles GET /v1/payments/link.
func paymentLinkHandler(links *service.PaymentLinks, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		url, err := links.For(
			q.Get("method"),
			q.Get("lead_id"),
			q.Get("project_id"),
			q.Get("company_name"),
		)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": url})
	}
}
