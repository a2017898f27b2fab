package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
	"github.com/kanlogic/readiness-engine-go/internal/infra/observability"
	"github.com/kanlogic/readiness-engine-go/internal/service"
)

type mockNarrator struct {
	response *domain.NarrativeResponse
	err      error
	delay    time.Duration
}

func (m *mockNarrator) Generate(ctx context.Context, _ *domain.NarrativeRequest) (*domain.NarrativeResponse, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return m.response, m.err
}

func narrativeRequest() *domain.NarrativeRequest {
	payback := 2.4
	return &domain.NarrativeRequest{
		CompanyName:    "Ferreteria El Martillo",
		Industry:       "retail",
		ModuleNames:    []string{"Bot de ventas para WhatsApp"},
		FrictionPoints: []string{"Atencion manual de mensajes"},
		ROI:            domain.ROIFigures{WeeklyHoursSaved: 11, MonthlyCostSaved: 4500, PaybackMonths: &payback},
		QuoteTotal:     18500,
	}
}

func TestCompose_UsesGeneratedText(t *testing.T) {
	svc := service.NewNarrativeService(
		&mockNarrator{response: &domain.NarrativeResponse{Text: "Resumen generado.", PromptTokens: 100, CompletionTokens: 50}},
		time.Second, observability.NewMetrics(), zap.NewNop(),
	)

	text, source := svc.Compose(context.Background(), narrativeRequest())
	if source != domain.ProvenanceAI {
		t.Errorf("expected ai provenance, got %s", source)
	}
	if text != "Resumen generado." {
		t.Errorf("unexpected narrative: %q", text)
	}
}

func TestCompose_FallsBackOnError(t *testing.T) {
	svc := service.NewNarrativeService(
		&mockNarrator{err: errors.New("quota exceeded")},
		time.Second, observability.NewMetrics(), zap.NewNop(),
	)

	text, source := svc.Compose(context.Background(), narrativeRequest())
	if source != domain.ProvenanceTemplate {
		t.Errorf("expected template provenance, got %s", source)
	}
	if !strings.Contains(text, "Ferreteria El Martillo") {
		t.Errorf("expected template to mention the company, got %q", text)
	}
}

func TestCompose_FallsBackOnEmptyResponse(t *testing.T) {
	svc := service.NewNarrativeService(
		&mockNarrator{response: &domain.NarrativeResponse{Text: "   "}},
		time.Second, observability.NewMetrics(), zap.NewNop(),
	)

	_, source := svc.Compose(context.Background(), narrativeRequest())
	if source != domain.ProvenanceTemplate {
		t.Errorf("expected template provenance, got %s", source)
	}
}

func TestCompose_FallsBackWithinTimeout(t *testing.T) {
	timeout := 50 * time.Millisecond
	svc := service.NewNarrativeService(
		&mockNarrator{delay: 2 * time.Second, response: &domain.NarrativeResponse{Text: "tarde"}},
		timeout, observability.NewMetrics(), zap.NewNop(),
	)

	start := time.Now()
	_, source := svc.Compose(context.Background(), narrativeRequest())
	elapsed := time.Since(start)

	if source != domain.ProvenanceTemplate {
		t.Errorf("expected template provenance after timeout, got %s", source)
	}
	if elapsed > timeout+200*time.Millisecond {
		t.Errorf("fallback took too long: %v", elapsed)
	}
}

func TestCompose_NilNarratorUsesTemplate(t *testing.T) {
	svc := service.NewNarrativeService(nil, time.Second, observability.NewMetrics(), zap.NewNop())

	req := narrativeRequest()
	text, source := svc.Compose(context.Background(), req)
	if source != domain.ProvenanceTemplate {
		t.Errorf("expected template provenance, got %s", source)
	}
	if !strings.Contains(text, "Bot de ventas para WhatsApp") {
		t.Errorf("expected module names in template, got %q", text)
	}

	// Deterministic: same input, same text.
	again, _ := svc.Compose(context.Background(), req)
	if text != again {
		t.Error("template narrative is not deterministic")
	}
}
