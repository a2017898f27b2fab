package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/kanlogic/readiness-engine-go/internal/catalog"
	"github.com/kanlogic/readiness-engine-go/internal/domain"
	"github.com/kanlogic/readiness-engine-go/internal/infra/observability"
	"github.com/kanlogic/readiness-engine-go/internal/port"
)

var tracer = otel.Tracer("service")

// DiagnosisResult is the outcome of one diagnostic run. The access code is
// returned exactly once, here; only its hash is stored.
type DiagnosisResult struct {
	LeadID     string            `json:"lead_id"`
	AccessCode string            `json:"access_code"`
	Diagnosis  *domain.Diagnosis `json:"diagnosis"`
}

// DiagnosisService runs the diagnostic pipeline: normalize, select modules,
// estimate ROI, price, narrate, persist. The pipeline up to narration is
// pure and deterministic; persistence is the single write at the end.
type DiagnosisService struct {
	catalog   *catalog.Catalog
	narrative *NarrativeService
	store     port.Store
	metrics   *observability.Metrics
	logger    *zap.Logger
}

// NewDiagnosisService creates the diagnosis orchestrator.
func NewDiagnosisService(cat *catalog.Catalog, narrative *NarrativeService, store port.Store, metrics *observability.Metrics, logger *zap.Logger) *DiagnosisService {
	return &DiagnosisService{
		catalog:   cat,
		narrative: narrative,
		store:     store,
		metrics:   metrics,
		logger:    logger,
	}
}

// Diagnose processes a raw intake end to end and persists the resulting
// lead. Validation failures report every bad field; narration can never
// fail the request.
func (s *DiagnosisService) Diagnose(ctx context.Context, raw domain.RawIntake) (*DiagnosisResult, error) {
	ctx, span := tracer.Start(ctx, "DiagnosisService.Diagnose")
	defer span.End()
	start := time.Now()

	intake, err := NormalizeIntake(raw)
	if err != nil {
		s.metrics.IncrDiagnosis("invalid")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("company", intake.CompanyName),
		attribute.Int("team_size", intake.TeamSize),
	)

	selection, err := SelectModules(intake, s.catalog)
	if err != nil {
		s.metrics.IncrDiagnosis("error")
		return nil, err
	}

	roi := EstimateROI(intake, selection)
	quote := BuildQuote(selection, intake.TeamSize)
	roi.PaybackMonths = Payback(quote.Total, roi.MonthlyCostSaved)
	roi.WeeklyHoursSaved = round1(roi.WeeklyHoursSaved)
	roi.MonthlyCostSaved = round1(roi.MonthlyCostSaved)
	if roi.PaybackMonths != nil {
		rounded := round1(*roi.PaybackMonths)
		roi.PaybackMonths = &rounded
	}

	friction := pickFrictionPoints(intake)
	roadmap := buildRoadmap(selection)

	moduleNames := make([]string, len(selection))
	recommendations := make([]domain.Recommendation, len(selection))
	for i, m := range selection {
		moduleNames[i] = m.Entry.Name
		recommendations[i] = domain.Recommendation{
			ModuleID:  m.Entry.ID,
			Name:      m.Entry.Name,
			Relevance: m.Relevance,
		}
	}

	narrative, provenance := s.narrative.Compose(ctx, &domain.NarrativeRequest{
		CompanyName:    intake.CompanyName,
		Industry:       intake.Industry,
		BusinessFocus:  intake.BusinessFocus,
		ModuleNames:    moduleNames,
		FrictionPoints: friction,
		ROI:            roi,
		QuoteTotal:     quote.Total,
	})

	diagnosis := &domain.Diagnosis{
		Intake:          intake,
		Recommendations: recommendations,
		FrictionPoints:  friction,
		ROI:             roi,
		Quote:           quote,
		Roadmap:         roadmap,
		Narrative:       narrative,
		NarrativeSource: provenance,
		GeneratedAt:     time.Now().UTC(),
	}

	accessCode, err := generateAccessCode()
	if err != nil {
		s.metrics.IncrDiagnosis("error")
		return nil, fmt.Errorf("failed to generate access code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(accessCode), bcrypt.DefaultCost)
	if err != nil {
		s.metrics.IncrDiagnosis("error")
		return nil, fmt.Errorf("failed to hash access code: %w", err)
	}

	if err := ctx.Err(); err != nil {
		s.metrics.IncrDiagnosis("error")
		return nil, &domain.ErrTimeout{Operation: "diagnose"}
	}

	lead := &domain.Lead{
		ID:             uuid.New().String(),
		CompanyName:    intake.CompanyName,
		Industry:       intake.Industry,
		ContactEmail:   intake.ContactEmail,
		CreatedAt:      time.Now().UTC(),
		Diagnosis:      diagnosis,
		AccessCodeHash: string(hash),
		AccessCodeHint: accessCode[len(accessCode)-2:],
	}
	if err := s.store.CreateLead(ctx, lead); err != nil {
		s.metrics.IncrDiagnosis("error")
		return nil, err
	}

	s.metrics.IncrDiagnosis("success")
	s.metrics.IncrLeadCreated()
	s.metrics.RecordRequestDuration("diagnose", time.Since(start))
	s.logger.Info("diagnosis completed",
		zap.String("lead_id", lead.ID),
		zap.String("company", intake.CompanyName),
		zap.Int("modules", len(selection)),
		zap.String("narrative_source", string(provenance)),
		zap.Duration("duration", time.Since(start)),
	)

	return &DiagnosisResult{
		LeadID:     lead.ID,
		AccessCode: accessCode,
		Diagnosis:  diagnosis,
	}, nil
}

// Catalog returns the module catalog for listing endpoints.
func (s *DiagnosisService) Catalog() []domain.CatalogEntry {
	return s.catalog.All()
}

// generateAccessCode produces a 6-digit numeric portal code.
func generateAccessCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// frictionPattern maps substrings of the intake text to a canned friction
// finding. Order matters: findings are reported in declaration order.
var frictionPatterns = []struct {
	keywords []string
	finding  string
}{
	{[]string{"whatsapp", "mensaje", "mensajes", "chat"}, "Atencion manual de mensajes que consume horas de ventas"},
	{[]string{"inventario", "stock", "pedidos"}, "Inventario y pedidos actualizados a mano entre sistemas"},
	{[]string{"factura", "facturas", "facturacion", "cobranza"}, "Facturacion y cobranza con captura manual propensa a errores"},
	{[]string{"excel", "reportes", "reporte", "dashboard"}, "Reportes armados a mano en hojas de calculo"},
	{[]string{"correo", "correos", "email"}, "Bandeja de correo como centro de operaciones"},
	{[]string{"duplicados", "crm", "datos"}, "Datos de clientes dispersos o duplicados"},
	{[]string{"papeleo", "documentos", "contratos", "archivo", "archivos"}, "Documentos y archivos sin proceso de control"},
}

// pickFrictionPoints extracts friction findings from the free-text fields.
// Falls back to a generic finding so the diagnosis never reads empty.
func pickFrictionPoints(intake domain.Intake) []string {
	text := strings.ToLower(intake.Bottlenecks + " " + intake.Processes + " " +
		intake.Systems + " " + intake.Goals)
	tokens := tokenize(text)

	var out []string
	for _, p := range frictionPatterns {
		for _, kw := range p.keywords {
			if tokens[kw] {
				out = append(out, p.finding)
				break
			}
		}
	}
	if len(out) == 0 {
		out = append(out, "Procesos operativos dependientes de trabajo manual repetitivo")
	}
	return out
}

// buildRoadmap lays out the three-phase implementation plan. The build
// phase stretches with the widest module estimate.
func buildRoadmap(selection []domain.ScoredModule) []domain.RoadmapPhase {
	buildWeeks := 2
	for _, m := range selection {
		if m.Entry.EstimatedWeeks > buildWeeks {
			buildWeeks = m.Entry.EstimatedWeeks
		}
	}

	return []domain.RoadmapPhase{
		{
			Name:          "Diagnostico y accesos",
			Focus:         "Validar procesos, cuentas y APIs involucradas",
			DurationWeeks: 1,
			Deliverable:   "Plan de implementacion aprobado",
		},
		{
			Name:          "Implementacion",
			Focus:         "Construccion y pruebas de los modulos seleccionados",
			DurationWeeks: buildWeeks,
			Deliverable:   "Modulos operando con datos reales",
		},
		{
			Name:          "Escala y adopcion",
			Focus:         "Capacitacion del equipo y ajustes sobre uso real",
			DurationWeeks: 2,
			Deliverable:   "Operacion diaria sin intervencion del implementador",
		},
	}
}
