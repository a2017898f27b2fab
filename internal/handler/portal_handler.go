package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kanlogic/readiness-engine-go/internal/service"
)

type loginRequest struct {
	LeadID     string `json:"lead_id"`
	Email      string `json:"email"`
	AccessCode string `json:"access_code"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// portalLoginHandler handles POST /v1/portal/login.
func portalLoginHandler(svc *service.PortalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "portalLoginHandler")
		defer span.End()

		var req loginRequest
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		token, err := svc.Login(ctx, req.LeadID, req.Email, req.AccessCode)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, loginResponse{Token: token})
	}
}

// getLeadHandler handles GET /v1/leads/{leadId}. The session token must
// belong to the requested lead.
func getLeadHandler(svc *service.PortalService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "getLeadHandler")
		defer span.End()

		leadID := chi.URLParam(r, "leadId")
		if LeadIDFromContext(ctx) != leadID {
			writeError(w, http.StatusForbidden, "token does not grant access to this lead")
			return
		}

		lead, err := svc.GetLead(ctx, leadID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, lead)
	}
}
