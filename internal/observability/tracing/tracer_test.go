package tracing

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestGetTracer(t *testing.T) {
	assert.NotNil(t, GetTracer())
}

func TestRecordError(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	_, span := tp.Tracer("test").Start(context.Background(), "op")
	RecordError(span, errors.New("boom"))
	RecordError(span, nil)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "boom", spans[0].Status.Description)
	assert.Len(t, spans[0].Events, 1)
}

func TestInit_ExportsFinishedSpans(t *testing.T) {
	var buf bytes.Buffer
	shutdown, err := Init(&buf)
	require.NoError(t, err)
	require.NotNil(t, shutdown)

	_, span := GetTracer().Start(context.Background(), "merge-round")
	assert.True(t, span.SpanContext().IsValid())
	span.SetAttributes(RoundAttr(2), ProviderAttr("deepseek"))
	span.End()

	require.NoError(t, shutdown(context.Background()))

	out := buf.String()
	assert.Contains(t, out, `"Name":"merge-round"`)
	assert.Contains(t, out, `"summarizer.merge_round"`)
	assert.Contains(t, out, `"deepseek"`)
}
