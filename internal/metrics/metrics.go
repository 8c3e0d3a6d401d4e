// Package metrics declares the service's Prometheus collectors.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "nutriplate"

var registerOnce sync.Once

// Register adds every collector to the default registry. Safe to call more than once;
// main calls it explicitly instead of relying on init().
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			httpRequestDuration,
			httpRequestsTotal,
			ChatSockets,
			ChatMessagesTotal,
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingTokensTotal,
			EmbeddingErrorsTotal,
			EmbeddingCacheTotal,
			GenerationRequestsTotal,
			GenerationRequestDuration,
			GenerationErrorsTotal,
			RecipeCoercionTotal,
			KnowledgeDocuments,
		)
	})
}
