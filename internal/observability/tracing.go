package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const defaultServiceName = "fairgame"

// Tracer wraps an OpenTelemetry tracer. A nil *Tracer uses the global provider.
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
}

// TraceConfig configures NewTracer.
type TraceConfig struct {
	ServiceName    string
	ServiceVersion string
	// Endpoint is the OTLP/gRPC collector address. Tracing is disabled when empty.
	Endpoint string
	// SamplingRate is the fraction of traces kept. Defaults to 1.
	SamplingRate float64
	Insecure     bool
}

// NewTracer returns a tracer and the shutdown function flushing its exporter.
// Without an endpoint, or when the exporter cannot be built, the tracer is a no-op.
func NewTracer(config TraceConfig) (*Tracer, func(context.Context) error) {
	if config.ServiceName == "" {
		config.ServiceName = defaultServiceName
	}
	noop := func(context.Context) error { return nil }
	if config.Endpoint == "" {
		return &Tracer{tracer: otel.Tracer(config.ServiceName)}, noop
	}
	if config.SamplingRate == 0 {
		config.SamplingRate = 1
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(config.Endpoint)}
	if config.Insecure {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptrace.New(context.Background(), otlptracegrpc.NewClient(opts...))
	if err != nil {
		return &Tracer{tracer: otel.Tracer(config.ServiceName)}, noop
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(
		semconv.ServiceName(config.ServiceName),
		semconv.ServiceVersion(config.ServiceVersion),
	))
	if err != nil {
		res = resource.Default()
	}

	var sampler sdktrace.Sampler
	switch {
	case config.SamplingRate >= 1:
		sampler = sdktrace.AlwaysSample()
	case config.SamplingRate < 0:
		sampler = sdktrace.NeverSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(config.SamplingRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &Tracer{provider: provider, tracer: provider.Tracer(config.ServiceName)}, provider.Shutdown
}

// Start opens a span with the given attributes as key/value pairs.
func (t *Tracer) Start(ctx context.Context, name string, keyvals ...any) (context.Context, trace.Span) {
	tr := otel.Tracer(defaultServiceName)
	if t != nil && t.tracer != nil {
		tr = t.tracer
	}
	return tr.Start(ctx, name, trace.WithAttributes(attributes(keyvals...)...))
}

// RecordError marks the span as failed.
func RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// WithSpan runs fn inside a span and records its error.
func (t *Tracer) WithSpan(ctx context.Context, name string, fn func(context.Context) error, keyvals ...any) error {
	ctx, span := t.Start(ctx, name, keyvals...)
	defer span.End()

	err := fn(ctx)
	RecordError(span, err)
	return err
}

// TraceID returns the active trace ID in ctx, or "".
func TraceID(ctx context.Context) string {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

func attributes(keyvals ...any) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(keyvals)/2)
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		attrs = append(attrs, attributeFromValue(key, keyvals[i+1]))
	}
	return attrs
}

func attributeFromValue(key string, val any) attribute.KeyValue {
	switch v := val.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
