package domain

// PriceTier classifies a module's implementation effort for pricing.
type PriceTier string

const (
	TierSmall  PriceTier = "S"
	TierMedium PriceTier = "M"
	TierLarge  PriceTier = "L"
)

// CatalogEntry describes one automatable capability offered in the catalog.
// Entries are immutable for the process lifetime.
type CatalogEntry struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	// HoursCoefficient is the weekly-hours-saved coefficient at team
	// factor 1.0, before the manual-effort cap.
	HoursCoefficient float64   `json:"hours_coefficient"`
	Tier             PriceTier `json:"tier"`
	Integrations     []string  `json:"integrations"`
	EstimatedWeeks   int       `json:"estimated_weeks"`
}

// ScoredModule pairs a catalog entry with its relevance score for one intake.
type ScoredModule struct {
	Entry     CatalogEntry `json:"entry"`
	Relevance int          `json:"relevance"`
}
