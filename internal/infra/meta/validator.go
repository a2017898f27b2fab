// Package meta validates WhatsApp and Messenger credentials against the
// Meta Graph API before a project handoff.
package meta

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("meta")

const defaultGraphURL = "https://graph.facebook.com/v19.0"

// Validator checks credentials with lightweight Graph API reads.
type Validator struct {
	httpClient *http.Client
	baseURL    string
}

// NewValidator creates a Graph API validator. baseURL overrides the Graph
// endpoint for tests; empty means production.
func NewValidator(httpClient *http.Client, baseURL string) *Validator {
	if baseURL == "" {
		baseURL = defaultGraphURL
	}
	return &Validator{httpClient: httpClient, baseURL: baseURL}
}

// ValidateWhatsApp checks that the token can read the given WhatsApp
// business phone number.
func (v *Validator) ValidateWhatsApp(ctx context.Context, phoneNumberID, token string) error {
	ctx, span := tracer.Start(ctx, "MetaValidator.ValidateWhatsApp")
	defer span.End()
	return v.get(ctx, phoneNumberID, "display_phone_number", token)
}

// ValidateMessenger checks that the token can read the given page.
func (v *Validator) ValidateMessenger(ctx context.Context, pageID, token string) error {
	ctx, span := tracer.Start(ctx, "MetaValidator.ValidateMessenger")
	defer span.End()
	return v.get(ctx, pageID, "name", token)
}

func (v *Validator) get(ctx context.Context, objectID, fields, token string) error {
	if objectID == "" {
		return fmt.Errorf("missing object id")
	}

	u := fmt.Sprintf("%s/%s?fields=%s&access_token=%s",
		v.baseURL, url.PathEscape(objectID), fields, url.QueryEscape(token))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	resp, err := v.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graph API returned status %d", resp.StatusCode)
	}
	return nil
}
