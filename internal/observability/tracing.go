// ABOUTME: OpenTelemetry tracing setup and span helpers for the ingest and query pipelines
// ABOUTME: Tracing is a no-op unless an OTLP endpoint is configured
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/harper/docqa/internal/models"
)

// TracerName is the instrumentation name for docqa spans
const TracerName = "github.com/harper/docqa"

// TracingConfig configures the OpenTelemetry tracing.
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string

	// OTLPEndpoint is the OTLP gRPC endpoint (e.g., "localhost:4317").
	// If empty, tracing is disabled.
	OTLPEndpoint string

	// SampleRate is the trace sampling rate (0.0 to 1.0)
	SampleRate float64
}

// DefaultTracingConfig returns a default tracing configuration.
func DefaultTracingConfig() *TracingConfig {
	return &TracingConfig{
		ServiceName:    "docqa",
		ServiceVersion: "dev",
		SampleRate:     1.0,
	}
}

// TracerProvider wraps the OpenTelemetry tracer provider.
type TracerProvider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// InitTracing initializes OpenTelemetry tracing.
// Returns a no-op tracer if OTLPEndpoint is empty.
func InitTracing(ctx context.Context, cfg *TracingConfig) (*TracerProvider, error) {
	if cfg == nil {
		cfg = DefaultTracingConfig()
	}

	if cfg.OTLPEndpoint == "" {
		return &TracerProvider{
			tracer: otel.Tracer(TracerName),
		}, nil
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(Sampler(cfg.SampleRate)),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{
		provider: provider,
		tracer:   provider.Tracer(TracerName),
	}, nil
}

// Sampler maps a rate to always, never, or ratio sampling
func Sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// Shutdown flushes and stops the exporter.
func (tp *TracerProvider) Shutdown(ctx context.Context) error {
	if tp.provider != nil {
		return tp.provider.Shutdown(ctx)
	}
	return nil
}

// Tracer returns the underlying tracer.
func (tp *TracerProvider) Tracer() trace.Tracer {
	return tp.tracer
}

// Span kinds for docqa operations
const (
	SpanKindIngest   = "ingest"
	SpanKindQuery    = "query"
	SpanKindEmbed    = "embed"
	SpanKindGenerate = "generate"
	SpanKindStore    = "store"
)

// StartIngestSpan starts a span for one document ingestion.
func StartIngestSpan(ctx context.Context, source string, textLen int) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "ingest",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("docqa.span.kind", SpanKindIngest),
			attribute.String("ingest.source", source),
			attribute.Int("ingest.text_length", textLen),
		),
	)
}

// RecordIngestResult records chunking and persistence results.
func RecordIngestResult(span trace.Span, documentID string, chunks int) {
	span.SetAttributes(
		attribute.String("ingest.document_id", documentID),
		attribute.Int("ingest.chunk_count", chunks),
	)
}

// StartQuerySpan starts a span for one query.
func StartQuerySpan(ctx context.Context, mode models.ResponseMode, k int) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "query",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("docqa.span.kind", SpanKindQuery),
			attribute.String("query.mode", string(mode)),
			attribute.Int("query.k", k),
		),
	)
}

// RecordQueryResult records retrieval and context statistics.
func RecordQueryResult(span trace.Span, retrieved, contextUsed int, elapsed time.Duration) {
	span.SetAttributes(
		attribute.Int("query.retrieved", retrieved),
		attribute.Int("query.context_used", contextUsed),
		attribute.Int64("query.duration_ms", elapsed.Milliseconds()),
	)
}

// StartEmbedSpan starts a span for an embedding call.
func StartEmbedSpan(ctx context.Context, provider string, count int) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "embed",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("docqa.span.kind", SpanKindEmbed),
			attribute.String("llm.provider", provider),
			attribute.Int("embed.count", count),
		),
	)
}

// StartGenerateSpan starts a span for a generation call.
func StartGenerateSpan(ctx context.Context, provider string, contextChunks int) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "generate",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("docqa.span.kind", SpanKindGenerate),
			attribute.String("llm.provider", provider),
			attribute.Int("generate.context_chunks", contextChunks),
		),
	)
}

// StartStoreSpan starts a span for a store operation such as insert or search.
func StartStoreSpan(ctx context.Context, op string) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, "store."+op,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("docqa.span.kind", SpanKindStore),
		),
	)
}

// RecordError records an error and its kind on a span.
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.String("error.kind", string(models.KindOf(err))))
		span.SetStatus(codes.Error, err.Error())
	}
}
