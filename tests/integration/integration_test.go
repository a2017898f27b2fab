package integration_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kanlogic/readiness-engine-go/internal/catalog"
	"github.com/kanlogic/readiness-engine-go/internal/domain"
	"github.com/kanlogic/readiness-engine-go/internal/handler"
	"github.com/kanlogic/readiness-engine-go/internal/infra/cache"
	"github.com/kanlogic/readiness-engine-go/internal/infra/meta"
	"github.com/kanlogic/readiness-engine-go/internal/infra/n8n"
	"github.com/kanlogic/readiness-engine-go/internal/infra/observability"
	"github.com/kanlogic/readiness-engine-go/internal/infra/resilience"
	"github.com/kanlogic/readiness-engine-go/internal/infra/secrets"
	"github.com/kanlogic/readiness-engine-go/internal/infra/sqlite"
	"github.com/kanlogic/readiness-engine-go/internal/service"
)

// TestIntegration_FullFlow walks the whole lifecycle against real adapters:
// diagnose, portal login, project creation, credential intake, validation
// and the handoff to a mock automation webhook.
func TestIntegration_FullFlow(t *testing.T) {
	// --- Mock n8n webhook ---
	var handoffs int64
	var lastEvent domain.HandoffEvent
	n8nServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&lastEvent); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		atomic.AddInt64(&handoffs, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer n8nServer.Close()

	// --- Mock Meta Graph API ---
	graphServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("access_token") != "valid-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"123","display_phone_number":"+52 555 000 0000"}`)
	}))
	defer graphServer.Close()

	// --- Build the stack ---
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	store, err := sqlite.Open(":memory:", logger)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	key := base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	secretBox, err := secrets.New(key)
	if err != nil {
		t.Fatalf("failed to build secret box: %v", err)
	}

	cb := resilience.NewCircuitBreaker("test")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	httpClient := &http.Client{Timeout: 5 * time.Second}

	cat := catalog.New()
	narrativeSvc := service.NewNarrativeService(nil, time.Second, metrics, logger)
	diagnosisSvc := service.NewDiagnosisService(cat, narrativeSvc, store, metrics, logger)
	projectSvc := service.NewProjectService(
		store, secretBox,
		n8n.NewClient(httpClient, n8nServer.URL, "", "", cb, cfg),
		meta.NewValidator(httpClient, graphServer.URL),
		cat, metrics, logger,
	)
	leadCache := cache.New[*domain.Lead](time.Minute)
	t.Cleanup(leadCache.Close)
	portalSvc := service.NewPortalService(store, leadCache, "integration-secret", time.Hour, metrics, logger)

	router := handler.NewRouter(handler.Services{
		Diagnosis: diagnosisSvc,
		Projects:  projectSvc,
		Portal:    portalSvc,
		Payments:  service.NewPaymentLinks("https://pay.test/{lead_id}/{project_id}", "", ""),
		Health:    store,
	}, metrics, logger)

	do := func(method, path, token string, payload any) *httptest.ResponseRecorder {
		t.Helper()
		var body bytes.Buffer
		if payload != nil {
			if err := json.NewEncoder(&body).Encode(payload); err != nil {
				t.Fatalf("failed to encode payload: %v", err)
			}
		}
		req := httptest.NewRequest(method, path, &body)
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// --- 1. Diagnose ---
	rec := do(http.MethodPost, "/v1/diagnose", "", domain.RawIntake{
		CompanyName:        "Ferreteria El Martillo",
		Industry:           "retail",
		TeamSize:           "25",
		ManualHoursPerWeek: "12",
		AvgDailyCost:       "880",
		Bottlenecks:        "responder mensajes de clientes y actualizar inventario",
		ContactEmail:       "dueno@martillo.mx",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("diagnose: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	var diag struct {
		LeadID     string            `json:"lead_id"`
		AccessCode string            `json:"access_code"`
		Diagnosis  *domain.Diagnosis `json:"diagnosis"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&diag); err != nil {
		t.Fatalf("diagnose: failed to decode: %v", err)
	}
	if diag.Diagnosis.Quote.Total <= 0 {
		t.Fatal("diagnose: expected a priced quote")
	}

	// --- 2. Portal login and diagnosis retrieval ---
	rec = do(http.MethodPost, "/v1/portal/login", "", map[string]string{
		"lead_id":     diag.LeadID,
		"email":       "dueno@martillo.mx",
		"access_code": diag.AccessCode,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var login struct {
		Token string `json:"token"`
	}
	json.NewDecoder(rec.Body).Decode(&login)

	rec = do(http.MethodGet, "/v1/leads/"+diag.LeadID, login.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get lead: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	if bytes.Contains(rec.Body.Bytes(), []byte(diag.AccessCode)) {
		t.Error("get lead: access code must never be serialized")
	}

	// --- 3. Create project ---
	rec = do(http.MethodPost, "/v1/projects", "", map[string]any{
		"lead_id":          diag.LeadID,
		"selected_modules": []string{"whatsapp_sales_bot"},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create project: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var project domain.Project
	json.NewDecoder(rec.Body).Decode(&project)
	if project.Status != domain.StatusRequested {
		t.Fatalf("expected requested, got %s", project.Status)
	}

	// --- 4. Store a credential ---
	rec = do(http.MethodPost, "/v1/projects/"+project.ID+"/credentials", "", map[string]string{
		"service_name": "whatsapp",
		"secret":       "valid-token",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add credential: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("valid-token")) {
		t.Error("add credential: plaintext secret must not appear in the response")
	}

	// --- 5. Validate access ---
	rec = do(http.MethodPost, "/v1/projects/"+project.ID+"/validate-access", "", map[string]any{
		"identifiers": map[string]string{"whatsapp": "123"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("validate access: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var validation struct {
		Checks []struct {
			ServiceName string `json:"service_name"`
			Valid       bool   `json:"valid"`
		} `json:"checks"`
	}
	json.NewDecoder(rec.Body).Decode(&validation)
	if len(validation.Checks) != 1 || !validation.Checks[0].Valid {
		t.Fatalf("expected a passing whatsapp check, got %+v", validation.Checks)
	}

	// --- 6. Handoff ---
	rec = do(http.MethodPost, "/v1/projects/"+project.ID+"/ready", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ready: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var final domain.Project
	json.NewDecoder(rec.Body).Decode(&final)
	if final.Status != domain.StatusSentToAutomation {
		t.Fatalf("expected sent_to_automation, got %s", final.Status)
	}

	if atomic.LoadInt64(&handoffs) != 1 {
		t.Fatalf("expected exactly one webhook delivery, got %d", handoffs)
	}
	if lastEvent.CompanyName != "Ferreteria El Martillo" || lastEvent.QuoteTotal != diag.Diagnosis.Quote.Total {
		t.Errorf("unexpected handoff payload: %+v", lastEvent)
	}
}

// TestIntegration_HandoffFailureAndRetry verifies that a failing webhook
// leaves the project retryable rather than failing the request.
func TestIntegration_HandoffFailureAndRetry(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)
	n8nServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer n8nServer.Close()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store, err := sqlite.Open(":memory:", logger)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	cb := resilience.NewCircuitBreaker("retry-test")
	cfg := resilience.Config{MaxRetries: 0, InitialBackoff: time.Millisecond, MaxConcurrency: 5}
	httpClient := &http.Client{Timeout: 2 * time.Second}

	cat := catalog.New()
	narrativeSvc := service.NewNarrativeService(nil, time.Second, metrics, logger)
	diagnosisSvc := service.NewDiagnosisService(cat, narrativeSvc, store, metrics, logger)
	secretBox, _ := secrets.New("")
	projectSvc := service.NewProjectService(
		store, secretBox,
		n8n.NewClient(httpClient, n8nServer.URL, "", "", cb, cfg),
		nil, cat, metrics, logger,
	)

	result, err := diagnosisSvc.Diagnose(context.Background(), domain.RawIntake{
		CompanyName: "Taller Lopez",
		TeamSize:    "6",
	})
	if err != nil {
		t.Fatalf("diagnose failed: %v", err)
	}

	project, err := projectSvc.CreateProject(context.Background(), result.LeadID, []string{"crm_cleanup"}, "")
	if err != nil {
		t.Fatalf("create project failed: %v", err)
	}

	updated, err := projectSvc.MarkReady(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("mark ready errored instead of recording the failure: %v", err)
	}
	if updated.Status != domain.StatusHandoffFailed {
		t.Fatalf("expected handoff_failed, got %s", updated.Status)
	}

	fail.Store(false)
	updated, err = projectSvc.MarkReady(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if updated.Status != domain.StatusSentToAutomation {
		t.Fatalf("expected sent_to_automation after retry, got %s", updated.Status)
	}
}
