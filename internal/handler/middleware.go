package handler

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kanlogic/readiness-engine-go/internal/service"
)

type contextKey string

const leadIDKey contextKey = "leadID"

// PortalAuthMiddleware validates Bearer session tokens and injects the
// lead id into the request context.
func PortalAuthMiddleware(portalSvc *service.PortalService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				logger.Warn("auth: missing token",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr),
				)
				writeError(w, http.StatusUnauthorized, "missing authorization token")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "invalid token format")
				return
			}

			leadID, err := portalSvc.ValidateToken(parts[1])
			if err != nil {
				logger.Warn("auth: invalid or expired token",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
				writeError(w, http.StatusUnauthorized, err.Error())
				return
			}

			ctx := context.WithValue(r.Context(), leadIDKey, leadID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LeadIDFromContext extracts the authenticated lead id from context.
func LeadIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(leadIDKey).(string)
	return v
}
