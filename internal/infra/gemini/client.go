// Package gemini implements the narrative generation port on Google's
// Gemini API.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
	"github.com/kanlogic/readiness-engine-go/internal/infra/resilience"
)

var tracer = otel.Tracer("gemini")

// Client calls the Gemini generative model to draft diagnosis narratives.
type Client struct {
	client *genai.Client
	model  string
	cb     *gobreaker.CircuitBreaker
	cfg    resilience.Config
}

// NewClient creates a Gemini client. Returns an error when the API key is
// rejected at client construction.
func NewClient(ctx context.Context, apiKey, model string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) (*Client, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &Client{client: gc, model: model, cb: cb, cfg: cfg}, nil
}

// Generate asks the model for a short executive summary. Failures are
// wrapped as ErrExternalService; the augmentation layer above decides what
// to do with them.
func (c *Client) Generate(ctx context.Context, req *domain.NarrativeRequest) (*domain.NarrativeResponse, error) {
	ctx, span := tracer.Start(ctx, "GeminiClient.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("model", c.model))

	var out *domain.NarrativeResponse

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			resp, err := c.client.Models.GenerateContent(ctx, c.model,
				genai.Text(buildPrompt(req)),
				&genai.GenerateContentConfig{
					Temperature:     genai.Ptr[float32](0.2),
					MaxOutputTokens: 520,
				})
			if err != nil {
				return err
			}

			text := strings.TrimSpace(resp.Text())
			if text == "" {
				return fmt.Errorf("gemini returned empty response")
			}

			out = &domain.NarrativeResponse{Text: text}
			if resp.UsageMetadata != nil {
				out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
				out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return out, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "gemini", Err: err}
	}
	return result.(*domain.NarrativeResponse), nil
}

// buildPrompt renders the structured diagnosis data into the generation
// prompt. Data only: credentials or access codes never reach the model.
func buildPrompt(req *domain.NarrativeRequest) string {
	var b strings.Builder

	b.WriteString("Eres consultor de automatizacion para PyMEs mexicanas. ")
	b.WriteString("Escribe un resumen ejecutivo breve (maximo 4 parrafos), en espanol, ")
	b.WriteString("en tono profesional y directo, sin inventar cifras.\n\n")

	fmt.Fprintf(&b, "Empresa: %s\n", req.CompanyName)
	if req.Industry != "" {
		fmt.Fprintf(&b, "Industria: %s\n", req.Industry)
	}
	if req.BusinessFocus != "" {
		fmt.Fprintf(&b, "Giro: %s\n", req.BusinessFocus)
	}
	if len(req.ModuleNames) > 0 {
		fmt.Fprintf(&b, "Modulos recomendados: %s\n", strings.Join(req.ModuleNames, ", "))
	}
	if len(req.FrictionPoints) > 0 {
		fmt.Fprintf(&b, "Puntos de friccion: %s\n", strings.Join(req.FrictionPoints, "; "))
	}
	fmt.Fprintf(&b, "Ahorro estimado: %.1f horas/semana, $%.0f MXN/mes\n",
		req.ROI.WeeklyHoursSaved, req.ROI.MonthlyCostSaved)
	if req.ROI.PaybackMonths != nil {
		fmt.Fprintf(&b, "Recuperacion de inversion: %.1f meses\n", *req.ROI.PaybackMonths)
	}
	fmt.Fprintf(&b, "Inversion total: $%d MXN\n", req.QuoteTotal)

	return b.String()
}
