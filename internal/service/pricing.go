package service

import (
	"math"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
)

// Base module prices in MXN by effort tier.
var tierPrices = map[domain.PriceTier]int{
	domain.TierSmall:  5500,
	domain.TierMedium: 9500,
	domain.TierLarge:  14000,
}

// implementationFee is the flat setup charge added to every quote in MXN.
const implementationFee = 9000

// teamBand returns the price multiplier for the company's team size:
// bigger teams mean more accounts, more integrations, more rollout.
func teamBand(teamSize int) float64 {
	switch {
	case teamSize <= 10:
		return 1.0
	case teamSize <= 50:
		return 1.25
	default:
		return 1.5
	}
}

// BuildQuote prices the selected modules: one line per module at its tier
// base price times the team-size band, plus the flat implementation fee.
// Amounts are whole pesos.
func BuildQuote(selection []domain.ScoredModule, teamSize int) domain.Quote {
	band := teamBand(teamSize)

	lines := make([]domain.QuoteLine, 0, len(selection)+1)
	total := 0
	for _, m := range selection {
		amount := int(math.Round(float64(tierPrices[m.Entry.Tier]) * band))
		lines = append(lines, domain.QuoteLine{
			ModuleID: m.Entry.ID,
			Label:    m.Entry.Name,
			Amount:   amount,
		})
		total += amount
	}

	lines = append(lines, domain.QuoteLine{
		Label:  "Implementacion y puesta en marcha",
		Amount: implementationFee,
	})
	total += implementationFee

	return domain.Quote{
		Lines:       lines,
		Total:       total,
		Currency:    "MXN",
		Assumptions: quoteAssumptions(),
	}
}

func quoteAssumptions() []string {
	return []string{
		"Precios en pesos mexicanos, sin IVA.",
		"Incluye configuracion, pruebas y capacitacion inicial.",
		"Las integraciones asumen acceso a las cuentas y APIs del cliente.",
		"Soporte y mantenimiento mensual se cotizan por separado.",
	}
}
