package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kanlogic/readiness-engine-go/internal/service"
)

type createProjectRequest struct {
	LeadID          string   `json:"lead_id"`
	SelectedModules []string `json:"selected_modules"`
	Notes           string   `json:"notes"`
}

// createProjectHandler handles POST /v1/projects.
func createProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "createProjectHandler")
		defer span.End()

		var req createProjectRequest
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		project, err := svc.CreateProject(ctx, req.LeadID, req.SelectedModules, req.Notes)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, project)
	}
}

// getProjectHandler handles GET /v1/projects/{projectId}.
func getProjectHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		project, err := svc.GetProject(r.Context(), chi.URLParam(r, "projectId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, project)
	}
}

type addCredentialRequest struct {
	ServiceName string `json:"service_name"`
	Secret      string `json:"secret"`
}

// addCredentialHandler handles POST /v1/projects/{projectId}/credentials.
// The plaintext secret exists only in this request; the response carries
// metadata only.
func addCredentialHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "addCredentialHandler")
		defer span.End()

		var req addCredentialRequest
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		cred, err := svc.AddCredential(ctx, chi.URLParam(r, "projectId"), req.ServiceName, req.Secret)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, cred)
	}
}

// markReadyHandler handles POST /v1/projects/{projectId}/ready. It moves
// the project to ready_for_handoff and dispatches the handoff; workflow
// templates are provisioned by the service once the handoff succeeds. The
// response reflects the post-handoff status.
func markReadyHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "markReadyHandler")
		defer span.End()

		project, err := svc.MarkReady(ctx, chi.URLParam(r, "projectId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, project)
	}
}

type validateAccessRequest struct {
	Identifiers map[string]string `json:"identifiers"`
}

// validateAccessHandler handles POST /v1/projects/{projectId}/validate-access.
func validateAccessHandler(svc *service.ProjectService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "validateAccessHandler")
		defer span.End()

		var req validateAccessRequest
		if err := decodeBody(r, &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		checks, err := svc.ValidateAccess(ctx, chi.URLParam(r, "projectId"), req.Identifiers)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"checks": checks})
	}
}
