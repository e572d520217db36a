package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(TracingConfig{Enabled: false})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInitTracing_UnknownExporter(t *testing.T) {
	_, err := InitTracing(TracingConfig{Enabled: true, Exporter: "zipkin"})
	assert.ErrorContains(t, err, "zipkin")
}

func TestTraceModeration_RecordsTarget(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	layer := NewTraceLayer(tp.Tracer("test"))
	_, span := layer.TraceModeration(context.Background(), "comment.approved", "comment", "c1")
	span.End()

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "moderation.comment.approved", spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), attribute.String("chapel.target.id", "c1"))
	assert.Contains(t, spans[0].Attributes(), attribute.String("chapel.target.type", "comment"))
}

func TestTraceRepositoryMethod_NamesTable(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := NewTraceLayer(tp.Tracer("test")).TraceRepositoryMethod(context.Background(), "ListPublished", "blog_posts")
	span.End()

	require.Len(t, rec.Ended(), 1)
	assert.Contains(t, rec.Ended()[0].Attributes(), attribute.String("db.table", "blog_posts"))
}
