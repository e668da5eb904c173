// Package metrics provides Prometheus metrics registry and recording utilities.
//
// This package centralizes all summarization metrics including:
//   - Completion call metrics (count, duration, in-flight)
//   - Cache metrics (hits, misses, expirations, write failures)
//   - Pipeline metrics (runs, chunk counts, merge rounds)
//
// All metrics are automatically registered with the Prometheus default registry
// and exposed via the /metrics endpoint.
//
// Example usage:
//
//	import "ai-notebook/internal/observability/metrics"
//
//	func complete(provider string) {
//	    start := time.Now()
//	    // ... call the model ...
//	    metrics.RecordCompletion(provider, true, time.Since(start))
//	}
package metrics
