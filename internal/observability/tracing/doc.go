// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are opened around a summarization run, each chunk completion and
// each merge round. When tracing is enabled, finished spans are written as
// JSON through the OpenTelemetry stdout exporter.
//
// Example usage:
//
//	import "ai-notebook/internal/observability/tracing"
//
//	func main() {
//	    shutdown, err := tracing.Init(os.Stderr)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer shutdown(context.Background())
//	}
//
//	func summarize(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "summarize")
//	    defer span.End()
//	}
package tracing
