// Package n8n implements the workflow-automation dispatcher: handoff
// events go to a webhook, and workflow templates are provisioned through
// the n8n REST API.
package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
	"github.com/kanlogic/readiness-engine-go/internal/infra/resilience"
)

var tracer = otel.Tracer("n8n")

// Client talks to the n8n instance.
type Client struct {
	httpClient *http.Client
	webhookURL string
	apiURL     string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewClient creates an n8n client. webhookURL receives handoff events;
// apiURL and apiKey are only needed for workflow provisioning and may be
// empty.
func NewClient(httpClient *http.Client, webhookURL, apiURL, apiKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *Client {
	return &Client{
		httpClient: httpClient,
		webhookURL: webhookURL,
		apiURL:     strings.TrimRight(apiURL, "/"),
		apiKey:     apiKey,
		cb:         cb,
		cfg:        cfg,
	}
}

// Dispatch posts a handoff event to the configured webhook.
func (c *Client) Dispatch(ctx context.Context, event *domain.HandoffEvent) error {
	ctx, span := tracer.Start(ctx, "N8NClient.Dispatch")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", event.ProjectID))

	if c.webhookURL == "" {
		return &domain.ErrConfiguration{
			Setting: "N8N_WEBHOOK_URL",
			Message: "handoff webhook is not configured",
		}
	}

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			return c.post(ctx, c.webhookURL, nil, event)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return nil, nil
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "n8n", Err: err}
	}
	return nil
}

// Provision creates one workflow per module from the built-in templates,
// with placeholders substituted.
func (c *Client) Provision(ctx context.Context, projectID string, moduleIDs []string, placeholders map[string]string) error {
	ctx, span := tracer.Start(ctx, "N8NClient.Provision")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID))

	if c.apiURL == "" || c.apiKey == "" {
		return &domain.ErrConfiguration{
			Setting: "N8N_API_URL",
			Message: "workflow provisioning is not configured",
		}
	}

	headers := map[string]string{"X-N8N-API-KEY": c.apiKey}
	url := c.apiURL + "/api/v1/workflows"

	for _, id := range moduleIDs {
		tmpl, ok := workflowTemplates[id]
		if !ok {
			continue
		}
		body := renderTemplate(tmpl, projectID, placeholders)

		_, err := c.cb.Execute(func() (any, error) {
			innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
				return c.postRaw(ctx, url, headers, body)
			})
			if innerErr != nil {
				return nil, innerErr
			}
			return nil, nil
		})
		if err != nil {
			return &domain.ErrExternalService{Service: "n8n", Err: err}
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, url string, headers map[string]string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.postRaw(ctx, url, headers, body)
}

func (c *Client) postRaw(ctx context.Context, url string, headers map[string]string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("n8n returned status %d", resp.StatusCode)
	}
	return nil
}

// renderTemplate substitutes {{NAME}} placeholders in a workflow template.
// PROJECT_ID is always available.
func renderTemplate(tmpl string, projectID string, placeholders map[string]string) []byte {
	out := strings.ReplaceAll(tmpl, "{{PROJECT_ID}}", projectID)
	for name, value := range placeholders {
		out = strings.ReplaceAll(out, "{{"+name+"}}", value)
	}
	return []byte(out)
}

// workflowTemplates holds the minimal n8n workflow definitions provisioned
// for messaging modules. Nodes are completed by the operations team after
// handoff.
var workflowTemplates = map[string]string{
	"whatsapp_sales_bot": `{
  "name": "WhatsApp ventas - {{COMPANY_NAME}}",
  "nodes": [
    {"name": "Webhook", "type": "n8n-nodes-base.webhook", "parameters": {"path": "wa-{{PROJECT_ID}}"}},
    {"name": "Responder", "type": "n8n-nodes-base.noOp", "parameters": {}}
  ],
  "connections": {"Webhook": {"main": [[{"node": "Responder", "type": "main", "index": 0}]]}},
  "settings": {"executionOrder": "v1"}
}`,
	"support_chatbot": `{
  "name": "Chatbot soporte - {{COMPANY_NAME}}",
  "nodes": [
    {"name": "Webhook", "type": "n8n-nodes-base.webhook", "parameters": {"path": "chat-{{PROJECT_ID}}"}},
    {"name": "Responder", "type": "n8n-nodes-base.noOp", "parameters": {}}
  ],
  "connections": {"Webhook": {"main": [[{"node": "Responder", "type": "main", "index": 0}]]}},
  "settings": {"executionOrder": "v1"}
}`,
}
