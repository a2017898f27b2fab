package sqlite_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
	"github.com/kanlogic/readiness-engine-go/internal/infra/sqlite"
)

func openStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.Open(":memory:", zap.NewNop())
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func sampleLead() *domain.Lead {
	payback := 2.1
	return &domain.Lead{
		ID:           uuid.New().String(),
		CompanyName:  "Ferreteria El Martillo",
		Industry:     "retail",
		ContactEmail: "dueno@martillo.mx",
		CreatedAt:    time.Now().UTC(),
		Diagnosis: &domain.Diagnosis{
			Recommendations: []domain.Recommendation{
				{ModuleID: "whatsapp_sales_bot", Name: "Bot de ventas para WhatsApp", Relevance: 4},
			},
			ROI: domain.ROIFigures{WeeklyHoursSaved: 11, MonthlyCostSaved: 5000, PaybackMonths: &payback},
			Quote: domain.Quote{
				Lines:    []domain.QuoteLine{{ModuleID: "whatsapp_sales_bot", Label: "Bot", Amount: 9500}},
				Total:    18500,
				Currency: "MXN",
			},
			Narrative:       "Resumen.",
			NarrativeSource: domain.ProvenanceTemplate,
			GeneratedAt:     time.Now().UTC(),
		},
		AccessCodeHash: "$2a$10$fakefakefakefakefakefake",
		AccessCodeHint: "42",
	}
}

func seedProject(t *testing.T, store *sqlite.Store, leadID string) *domain.Project {
	t.Helper()
	now := time.Now().UTC()
	project := &domain.Project{
		ID:              uuid.New().String(),
		LeadID:          leadID,
		Status:          domain.StatusRequested,
		SelectedModules: []string{"whatsapp_sales_bot"},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := store.CreateProject(context.Background(), project); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	return project
}

func TestLeadRoundTrip(t *testing.T) {
	store := openStore(t)
	lead := sampleLead()

	if err := store.CreateLead(context.Background(), lead); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	got, err := store.GetLead(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.CompanyName != lead.CompanyName {
		t.Errorf("expected company %q, got %q", lead.CompanyName, got.CompanyName)
	}
	if got.Diagnosis == nil || got.Diagnosis.Quote.Total != 18500 {
		t.Errorf("diagnosis did not survive the round trip: %+v", got.Diagnosis)
	}
	if got.Diagnosis.ROI.PaybackMonths == nil || *got.Diagnosis.ROI.PaybackMonths != 2.1 {
		t.Error("payback months lost in serialization")
	}
	if got.AccessCodeHint != "42" {
		t.Errorf("expected hint 42, got %q", got.AccessCodeHint)
	}
}

func TestGetLead_NotFound(t *testing.T) {
	store := openStore(t)

	_, err := store.GetLead(context.Background(), "missing")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetLeadAuth(t *testing.T) {
	store := openStore(t)
	lead := sampleLead()
	if err := store.CreateLead(context.Background(), lead); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	auth, err := store.GetLeadAuth(context.Background(), lead.ID)
	if err != nil {
		t.Fatalf("get auth failed: %v", err)
	}
	if auth.AccessCodeHash != lead.AccessCodeHash {
		t.Error("access code hash mismatch")
	}
	if auth.ContactEmail != lead.ContactEmail {
		t.Error("contact email mismatch")
	}
}

func TestCreateProject_UnknownLead(t *testing.T) {
	store := openStore(t)

	err := store.CreateProject(context.Background(), &domain.Project{
		ID:     uuid.New().String(),
		LeadID: "missing",
		Status: domain.StatusRequested,
	})
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProjectRoundTrip(t *testing.T) {
	store := openStore(t)
	lead := sampleLead()
	if err := store.CreateLead(context.Background(), lead); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	project := seedProject(t, store, lead.ID)

	got, err := store.GetProject(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Status != domain.StatusRequested {
		t.Errorf("expected requested, got %s", got.Status)
	}
	if len(got.SelectedModules) != 1 || got.SelectedModules[0] != "whatsapp_sales_bot" {
		t.Errorf("modules did not survive the round trip: %v", got.SelectedModules)
	}
}

func TestAdvanceStatus_CompareAndSwap(t *testing.T) {
	store := openStore(t)
	lead := sampleLead()
	if err := store.CreateLead(context.Background(), lead); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	project := seedProject(t, store, lead.ID)

	err := store.AdvanceStatus(context.Background(), project.ID,
		domain.StatusRequested, domain.StatusCredentialsPending)
	if err != nil {
		t.Fatalf("expected transition to succeed, got %v", err)
	}

	// Stale expectation: the guard must report the actual stored status.
	err = store.AdvanceStatus(context.Background(), project.ID,
		domain.StatusRequested, domain.StatusReadyForHandoff)
	var conflict *domain.ErrConflict
	if !errors.As(err, &conflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if conflict.Actual != string(domain.StatusCredentialsPending) {
		t.Errorf("expected actual credentials_pending, got %s", conflict.Actual)
	}
}

func TestAdvanceStatus_UnknownProject(t *testing.T) {
	store := openStore(t)

	err := store.AdvanceStatus(context.Background(), "missing",
		domain.StatusRequested, domain.StatusCredentialsPending)
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAdvanceStatus_ConcurrentWritersOneWins(t *testing.T) {
	store := openStore(t)
	lead := sampleLead()
	if err := store.CreateLead(context.Background(), lead); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	project := seedProject(t, store, lead.ID)

	var wg sync.WaitGroup
	results := make([]error, 2)
	targets := []domain.ProjectStatus{domain.StatusCredentialsPending, domain.StatusReadyForHandoff}
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = store.AdvanceStatus(context.Background(), project.ID,
				domain.StatusRequested, targets[i])
		}(i)
	}
	wg.Wait()

	var successes, conflicts int
	for _, err := range results {
		var conflict *domain.ErrConflict
		switch {
		case err == nil:
			successes++
		case errors.As(err, &conflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if successes != 1 || conflicts != 1 {
		t.Errorf("expected exactly one winner, got %d successes and %d conflicts", successes, conflicts)
	}
}

func TestCredentials(t *testing.T) {
	store := openStore(t)
	lead := sampleLead()
	if err := store.CreateLead(context.Background(), lead); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	project := seedProject(t, store, lead.ID)

	cred := &domain.AccessCredential{
		ID:              uuid.New().String(),
		ProjectID:       project.ID,
		ServiceName:     "whatsapp",
		EncryptedSecret: "enc:abc123",
		CreatedAt:       time.Now().UTC(),
	}
	if err := store.AddCredential(context.Background(), cred); err != nil {
		t.Fatalf("add failed: %v", err)
	}

	creds, err := store.ListCredentials(context.Background(), project.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(creds) != 1 || creds[0].EncryptedSecret != "enc:abc123" {
		t.Errorf("unexpected credentials: %+v", creds)
	}

	err = store.AddCredential(context.Background(), &domain.AccessCredential{
		ID:        uuid.New().String(),
		ProjectID: "missing",
	})
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound for unknown project, got %v", err)
	}
}
