package metrics

import "github.com/prometheus/client_golang/prometheus"

// Core bot Prometheus metrics.
var (
	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askjames",
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "askjames",
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"model"},
	)

	EmbeddingTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askjames",
			Name:      "embedding_tokens_total",
			Help:      "Total embedding tokens consumed",
		},
		[]string{"model", "type"},
	)

	EmbeddingErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askjames",
			Name:      "embedding_errors_total",
			Help:      "Total embedding errors",
		},
		[]string{"model", "error_type"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askjames",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss"
	)

	PhrasingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askjames",
			Name:      "phrasing_requests_total",
			Help:      "Total number of phrasing (chat completion) requests",
		},
		[]string{"model", "status"},
	)

	PhrasingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "askjames",
			Name:      "phrasing_request_duration_seconds",
			Help:      "Phrasing request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"model"},
	)

	AnswersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askjames",
			Name:      "answers_total",
			Help:      "Answers served, by response source",
		},
		[]string{"source"}, // "dataset" / "redirect"
	)

	GuardDowngradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "askjames",
			Name:      "guard_downgrades_total",
			Help:      "Phrased answers downgraded to the stored answer",
		},
		[]string{"reason"}, // "ungrounded" / "phrase_error"
	)
)

var botMetricsRegistered bool

// RegisterBotMetrics registers the core bot metrics. Must be called once from main.
func RegisterBotMetrics() {
	if botMetricsRegistered {
		return
	}
	prometheus.MustRegister(EmbeddingRequestsTotal)
	prometheus.MustRegister(EmbeddingRequestDuration)
	prometheus.MustRegister(EmbeddingTokensTotal)
	prometheus.MustRegister(EmbeddingErrorsTotal)
	prometheus.MustRegister(EmbeddingCacheTotal)
	prometheus.MustRegister(PhrasingRequestsTotal)
	prometheus.MustRegister(PhrasingRequestDuration)
	prometheus.MustRegister(AnswersTotal)
	prometheus.MustRegister(GuardDowngradesTotal)
	botMetricsRegistered = true
}
