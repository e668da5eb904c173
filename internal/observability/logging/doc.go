// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats
//   - Run ID propagation for one summarization call
//   - Context-aware logging
//   - Configurable log levels
//
// Example usage:
//
//	import "ai-notebook/internal/observability/logging"
//
//	func main() {
//	    logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(os.Getenv("LOG_LEVEL")))
//	    logger.Info("application started", slog.String("version", "1.0"))
//	}
//
//	func summarize(ctx context.Context) {
//	    ctx, logger := logging.WithRunID(ctx, slog.Default())
//	    logger.InfoContext(ctx, "summarization started")
//	}
package logging
