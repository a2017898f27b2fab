package domain

import "time"

// Provenance marks which path produced the diagnosis narrative.
type Provenance string

const (
	ProvenanceAI       Provenance = "ai"
	ProvenanceTemplate Provenance = "template"
)

// ROIFigures holds the projected return on investment for one diagnosis.
// Values are rounded to one decimal place for display; the pipeline keeps
// full precision until assembly.
type ROIFigures struct {
	WeeklyHoursSaved float64 `json:"weekly_hours_saved"`
	MonthlyCostSaved float64 `json:"monthly_cost_saved_mxn"`
	// PaybackMonths is nil when monthly cost saved is zero ("not
	// applicable" rather than a division result).
	PaybackMonths *float64 `json:"payback_months"`
}

// QuoteLine is one line item in a price quote.
type QuoteLine struct {
	ModuleID string `json:"module_id,omitempty"`
	Label    string `json:"label"`
	Amount   int    `json:"amount_mxn"`
}

// Quote is the tiered price breakdown for a set of selected modules.
type Quote struct {
	Lines       []QuoteLine `json:"lines"`
	Total       int         `json:"total_mxn"`
	Currency    string      `json:"currency"`
	Assumptions []string    `json:"assumptions"`
}

// Recommendation is one ranked module recommendation.
type Recommendation struct {
	ModuleID  string `json:"module_id"`
	Name      string `json:"name"`
	Relevance int    `json:"relevance"`
}

// RoadmapPhase is one phase of the proposed implementation plan.
type RoadmapPhase struct {
	Name          string `json:"name"`
	Focus         string `json:"focus"`
	DurationWeeks int    `json:"duration_weeks"`
	Deliverable   string `json:"deliverable"`
}

// Diagnosis is the complete computed output of one diagnostic request.
// It is assembled once and never mutated afterwards.
type Diagnosis struct {
	Intake          Intake           `json:"intake"`
	Recommendations []Recommendation `json:"recommended_modules"`
	FrictionPoints  []string         `json:"friction_points"`
	ROI             ROIFigures       `json:"roi"`
	Quote           Quote            `json:"quote"`
	Roadmap         []RoadmapPhase   `json:"roadmap"`
	Narrative       string           `json:"narrative"`
	NarrativeSource Provenance       `json:"narrative_source"`
	GeneratedAt     time.Time        `json:"generated_at"`
}

// NarrativeRequest is the structured prompt input for the augmentation
// capability.
type NarrativeRequest struct {
	CompanyName    string
	Industry       string
	BusinessFocus  string
	ModuleNames    []string
	FrictionPoints []string
	ROI            ROIFigures
	QuoteTotal     int
}

// NarrativeResponse is the generative-text result, including token usage
// for metrics.
type NarrativeResponse struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}

// EngineMetrics is a snapshot of engine-level counters for the
// GET /v1/metrics/engine endpoint.
type EngineMetrics struct {
	TotalDiagnoses      int64   `json:"total_diagnoses"`
	ErrorRate           float64 `json:"error_rate"`
	FallbackRate        float64 `json:"fallback_rate"`
	AvgTokensPerRequest float64 `json:"avg_tokens_per_request"`
	CacheHitRate        float64 `json:"cache_hit_rate"`
	Period              string  `json:"period"`
}
