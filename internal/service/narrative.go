package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
	"github.com/kanlogic/readiness-engine-go/internal/infra/observability"
	"github.com/kanlogic/readiness-engine-go/internal/infra/resilience"
	"github.com/kanlogic/readiness-engine-go/internal/port"
)

// NarrativeService produces the executive summary for a diagnosis. The
// generative path is optional and best effort: any failure, timeout or
// empty response falls back to the deterministic template, and the result
// always reports which path produced it.
type NarrativeService struct {
	narrator port.Narrator
	timeout  time.Duration
	bulkhead *resilience.Bulkhead
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewNarrativeService creates a narrative service. narrator may be nil when
// no generative backend is configured; only the template path runs then.
// In-flight model calls are capped; callers over the cap get the template
// immediately instead of queueing behind a slow provider.
func NewNarrativeService(narrator port.Narrator, timeout time.Duration, metrics *observability.Metrics, logger *zap.Logger) *NarrativeService {
	return &NarrativeService{
		narrator: narrator,
		timeout:  timeout,
		bulkhead: resilience.NewBulkhead(16),
		metrics:  metrics,
		logger:   logger,
	}
}

// Compose returns the narrative text and its provenance. It never returns
// an error: the template path has no failure mode.
func (s *NarrativeService) Compose(ctx context.Context, req *domain.NarrativeRequest) (string, domain.Provenance) {
	if s.narrator != nil && s.bulkhead.TryAcquire() {
		genCtx, cancel := context.WithTimeout(ctx, s.timeout)
		resp, err := s.narrator.Generate(genCtx, req)
		cancel()
		s.bulkhead.Release()

		if err == nil && resp != nil && strings.TrimSpace(resp.Text) != "" {
			s.metrics.IncrNarrative(domain.ProvenanceAI)
			s.metrics.RecordTokens(resp.PromptTokens, resp.CompletionTokens)
			return strings.TrimSpace(resp.Text), domain.ProvenanceAI
		}

		if err != nil {
			s.logger.Warn("narrative generation failed, using template",
				zap.String("company", req.CompanyName),
				zap.Error(err),
			)
			s.metrics.IncrExternalError("gemini")
		}
	}

	s.metrics.IncrNarrative(domain.ProvenanceTemplate)
	return templateNarrative(req), domain.ProvenanceTemplate
}

// templateNarrative renders the deterministic Spanish summary from the
// structured diagnosis data. Same input, same text.
func templateNarrative(req *domain.NarrativeRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Diagnostico de automatizacion para %s", req.CompanyName)
	if req.Industry != "" {
		fmt.Fprintf(&b, " (%s)", req.Industry)
	}
	b.WriteString(".\n\n")

	if len(req.ModuleNames) > 0 {
		b.WriteString("Con base en la informacion proporcionada, recomendamos comenzar con: ")
		b.WriteString(strings.Join(req.ModuleNames, ", "))
		b.WriteString(".\n\n")
	}

	if len(req.FrictionPoints) > 0 {
		b.WriteString("Principales puntos de friccion detectados:\n")
		for _, p := range req.FrictionPoints {
			fmt.Fprintf(&b, "- %s\n", p)
		}
		b.WriteString("\n")
	}

	if req.ROI.WeeklyHoursSaved > 0 {
		fmt.Fprintf(&b, "Estimamos un ahorro de %.1f horas por semana, equivalente a $%.0f MXN al mes.\n",
			req.ROI.WeeklyHoursSaved, req.ROI.MonthlyCostSaved)
	}
	if req.ROI.PaybackMonths != nil {
		fmt.Fprintf(&b, "La inversion de $%d MXN se recupera en aproximadamente %.1f meses.\n",
			req.QuoteTotal, *req.ROI.PaybackMonths)
	} else if req.QuoteTotal > 0 {
		fmt.Fprintf(&b, "La inversion estimada es de $%d MXN.\n", req.QuoteTotal)
	}

	b.WriteString("\nEl siguiente paso es una llamada de 30 minutos para validar procesos y accesos.")
	return b.String()
}
