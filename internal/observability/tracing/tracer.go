package tracing

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// tracer is the global tracer instance for the ai-notebook application.
var tracer = otel.Tracer("ai-notebook")

// GetTracer returns the global tracer for creating spans.
// This tracer can be used throughout the application to create new spans.
func GetTracer() trace.Tracer {
	return tracer
}

// RecordError marks the span as failed with err.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Init installs a global tracer provider exporting finished spans as JSON to w.
// The returned function flushes and shuts the provider down.
func Init(w io.Writer) (func(context.Context) error, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, fmt.Errorf("create span exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	return tp.Shutdown, nil
}

// Attr helpers keep span attribute keys consistent across packages.
func ProviderAttr(p string) attribute.KeyValue { return attribute.String("summarizer.provider", p) }

func ChunkIndexAttr(i int) attribute.KeyValue { return attribute.Int("summarizer.chunk_index", i) }

func RoundAttr(r int) attribute.KeyValue { return attribute.Int("summarizer.merge_round", r) }
