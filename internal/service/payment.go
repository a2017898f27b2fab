package service

import (
	"net/url"
	"strings"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
)

// PaymentLinks builds customer-facing payment URLs from configured
// templates. Templates carry {lead_id}, {project_id}, {company_name} and
// {payment_method} tokens; anything going into the URL is escaped.
type PaymentLinks struct {
	card        string
	transfer    string
	defaultLink string
}

// NewPaymentLinks creates the payment link builder. Any template may be
// empty; For refuses methods with no usable template.
func NewPaymentLinks(card, transfer, defaultLink string) *PaymentLinks {
	return &PaymentLinks{card: card, transfer: transfer, defaultLink: defaultLink}
}

// For returns the payment URL for a method. Unknown methods fall back to
// the default template; no template at all is a configuration error, not a
// silently broken link.
func (p *PaymentLinks) For(method, leadID, projectID, companyName string) (string, error) {
	var tmpl string
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "card", "tarjeta":
		tmpl = p.card
	case "transfer", "transferencia":
		tmpl = p.transfer
	}
	if tmpl == "" {
		tmpl = p.defaultLink
	}
	if tmpl == "" {
		return "", &domain.ErrConfiguration{
			Setting: "PAYMENT_URL",
			Message: "no payment URL template configured for method " + method,
		}
	}

	r := strings.NewReplacer(
		"{lead_id}", url.QueryEscape(leadID),
		"{project_id}", url.QueryEscape(projectID),
		"{company_name}", url.QueryEscape(companyName),
		"{payment_method}", url.QueryEscape(method),
	)
	return r.Replace(tmpl), nil
}
