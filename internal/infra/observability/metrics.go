package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/kanlogic/readiness-engine-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the readiness engine.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	narratives      *prometheus.CounterVec
	tokensUsed      *prometheus.CounterVec
	diagnosesTotal  *prometheus.CounterVec
	leadsCreated    prometheus.Counter
	projectsCreated prometheus.Counter
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "readiness_request_duration_seconds",
				Help:    "Duration of requests by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readiness_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		narratives: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readiness_narratives_total",
				Help: "Narratives produced, labeled by provenance (ai or template).",
			},
			[]string{"provenance"},
		),
		tokensUsed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readiness_llm_tokens_total",
				Help: "Total LLM tokens consumed.",
			},
			[]string{"type"},
		),
		diagnosesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readiness_diagnoses_total",
				Help: "Total diagnosis requests processed.",
			},
			[]string{"status"},
		),
		leadsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "readiness_leads_created_total",
				Help: "Total leads persisted.",
			},
		),
		projectsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "readiness_projects_created_total",
				Help: "Total projects created.",
			},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readiness_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "readiness_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrNarrative counts a produced narrative by provenance.
func (m *Metrics) IncrNarrative(provenance domain.Provenance) {
	m.narratives.WithLabelValues(string(provenance)).Inc()
}

// RecordTokens records prompt and completion token usage.
func (m *Metrics) RecordTokens(prompt, completion int) {
	m.tokensUsed.WithLabelValues("prompt").Add(float64(prompt))
	m.tokensUsed.WithLabelValues("completion").Add(float64(completion))
}

// IncrDiagnosis increments the diagnosis counter with a status label.
func (m *Metrics) IncrDiagnosis(status string) {
	m.diagnosesTotal.WithLabelValues(status).Inc()
}

// IncrLeadCreated counts a persisted lead.
func (m *Metrics) IncrLeadCreated() {
	m.leadsCreated.Inc()
}

// IncrProjectCreated counts a created project.
func (m *Metrics) IncrProjectCreated() {
	m.projectsCreated.Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// GetEngineSnapshot returns a snapshot of engine metrics suitable for the
// GET /v1/metrics/engine endpoint.
func (m *Metrics) GetEngineSnapshot() *domain.EngineMetrics {
	promptTokens := getCounterValue(m.tokensUsed, "prompt")
	completionTokens := getCounterValue(m.tokensUsed, "completion")
	success := getCounterValue(m.diagnosesTotal, "success")
	failed := getCounterValue(m.diagnosesTotal, "error")
	total := success + failed
	aiNarratives := getCounterValue(m.narratives, string(domain.ProvenanceAI))
	templateNarratives := getCounterValue(m.narratives, string(domain.ProvenanceTemplate))
	cacheHits := getCounterValue(m.cacheHits, "lead")
	cacheMisses := getCounterValue(m.cacheMisses, "lead")

	snapshot := &domain.EngineMetrics{
		TotalDiagnoses: int64(total),
		Period:         "all_time",
	}
	if total > 0 {
		snapshot.ErrorRate = failed / total
		snapshot.AvgTokensPerRequest = (promptTokens + completionTokens) / total
	}
	if aiNarratives+templateNarratives > 0 {
		snapshot.FallbackRate = templateNarratives / (aiNarratives + templateNarratives)
	}
	if cacheHits+cacheMisses > 0 {
		snapshot.CacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}
	return snapshot
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
