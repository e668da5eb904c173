// Package observability provides the observability infrastructure of the
// summarizer: structured logging, Prometheus metrics, and OpenTelemetry tracing.
//
// Subpackages:
//   - logging: Structured logging utilities with slog and run ID propagation
//   - metrics: Prometheus metrics registry and recorders
//   - tracing: OpenTelemetry tracer and a slog-backed span exporter
//
// Example usage:
//
//	import (
//	    "ai-notebook/internal/observability/logging"
//	    "ai-notebook/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(os.Getenv("LOG_LEVEL")))
//	    logger.Info("application started")
//
//	    metrics.RecordCacheHit()
//	}
package observability
