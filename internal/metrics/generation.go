package metrics

import "github.com/prometheus/client_golang/prometheus"

// Generative model and knowledge base metrics.
var (
	GenerationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Total number of generative model requests",
		},
		[]string{"model", "kind", "status"}, // kind: text / vision
	)

	GenerationRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_request_duration_seconds",
			Help:      "Generative model request duration in seconds",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 60, 120},
		},
		[]string{"model", "kind"},
	)

	GenerationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_errors_total",
			Help:      "Total generative model errors",
		},
		[]string{"model", "kind", "error_type"},
	)

	RecipeCoercionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recipe_coercion_total",
			Help:      "Recipe coercion outcomes by source of the parsed object",
		},
		[]string{"status", "source"},
	)

	KnowledgeDocuments = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "knowledge_documents",
			Help:      "Number of documents in the knowledge base",
		},
	)
)
