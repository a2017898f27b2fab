package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
	"github.com/kanlogic/readiness-engine-go/internal/infra/cache"
	"github.com/kanlogic/readiness-engine-go/internal/infra/observability"
	"github.com/kanlogic/readiness-engine-go/internal/service"
)

func newPortalService(t *testing.T, store *memStore) *service.PortalService {
	t.Helper()
	leadCache := cache.New[*domain.Lead](time.Minute)
	t.Cleanup(leadCache.Close)
	return service.NewPortalService(
		store,
		leadCache,
		"test-secret",
		30*time.Minute,
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func TestPortalLogin_Success(t *testing.T) {
	store := newMemStore()
	diagSvc := newDiagnosisService(store, nil)
	result, err := diagSvc.Diagnose(context.Background(), validRawIntake())
	if err != nil {
		t.Fatalf("failed to seed lead: %v", err)
	}
	svc := newPortalService(t, store)

	token, err := svc.Login(context.Background(), result.LeadID, "dueno@martillo.mx", result.AccessCode)
	if err != nil {
		t.Fatalf("expected login to succeed, got %v", err)
	}

	leadID, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
	if leadID != result.LeadID {
		t.Errorf("expected subject %s, got %s", result.LeadID, leadID)
	}
}

func TestPortalLogin_WrongCode(t *testing.T) {
	store := newMemStore()
	diagSvc := newDiagnosisService(store, nil)
	result, _ := diagSvc.Diagnose(context.Background(), validRawIntake())
	svc := newPortalService(t, store)

	_, err := svc.Login(context.Background(), result.LeadID, "dueno@martillo.mx", "000000")
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestPortalLogin_WrongEmail(t *testing.T) {
	store := newMemStore()
	diagSvc := newDiagnosisService(store, nil)
	result, _ := diagSvc.Diagnose(context.Background(), validRawIntake())
	svc := newPortalService(t, store)

	_, err := svc.Login(context.Background(), result.LeadID, "otro@correo.mx", result.AccessCode)
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestPortalLogin_UnknownLeadLooksLikeBadCode(t *testing.T) {
	svc := newPortalService(t, newMemStore())

	_, err := svc.Login(context.Background(), "no-such-lead", "", "123456")
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := newPortalService(t, newMemStore())
	if _, err := svc.ValidateToken("not-a-jwt"); err == nil {
		t.Error("expected garbage token to be rejected")
	}
}

func TestGetLead_CachesResult(t *testing.T) {
	store := newMemStore()
	diagSvc := newDiagnosisService(store, nil)
	result, _ := diagSvc.Diagnose(context.Background(), validRawIntake())
	svc := newPortalService(t, store)

	first, err := svc.GetLead(context.Background(), result.LeadID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Remove from the backing store; the cached copy must still serve.
	store.mu.Lock()
	delete(store.leads, result.LeadID)
	store.mu.Unlock()

	second, err := svc.GetLead(context.Background(), result.LeadID)
	if err != nil {
		t.Fatalf("expected cached lead, got %v", err)
	}
	if first.ID != second.ID {
		t.Error("expected the same lead from cache")
	}
}
