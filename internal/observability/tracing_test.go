package observability

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestNewTracerWithoutEndpointIsNoop(t *testing.T) {
	tracer, shutdown := NewTracer(TraceConfig{})
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			t.Errorf("shutdown() error = %v", err)
		}
	}()

	ctx, span := tracer.Start(context.Background(), "game.run", "game.language", "en")
	defer span.End()
	if ctx == nil {
		t.Fatal("Start() returned nil context")
	}
	if TraceID(ctx) != "" {
		t.Error("no-op tracer produced a valid trace ID")
	}
}

func TestNilTracerStart(t *testing.T) {
	var tracer *Tracer
	_, span := tracer.Start(context.Background(), "x")
	span.End()
}

func TestWithSpanReturnsError(t *testing.T) {
	tracer, _ := NewTracer(TraceConfig{})
	boom := errors.New("boom")
	err := tracer.WithSpan(context.Background(), "round", func(context.Context) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("WithSpan() error = %v, want boom", err)
	}
}

func TestAttributes(t *testing.T) {
	attrs := attributes("s", "v", "i", 3, "b", true, "f", 1.5, "l", []string{"a"}, 42, "skipped", "odd")
	want := []attribute.KeyValue{
		attribute.String("s", "v"),
		attribute.Int("i", 3),
		attribute.Bool("b", true),
		attribute.Float64("f", 1.5),
		attribute.StringSlice("l", []string{"a"}),
	}
	if len(attrs) != len(want) {
		t.Fatalf("attributes() = %v, want %v", attrs, want)
	}
	for i := range want {
		if attrs[i].Key != want[i].Key || attrs[i].Value.Emit() != want[i].Value.Emit() {
			t.Errorf("attributes()[%d] = %v, want %v", i, attrs[i], want[i])
		}
	}
}
