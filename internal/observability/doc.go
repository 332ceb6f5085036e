// Package observability wires structured logging, Prometheus metrics and
// OpenTelemetry tracing for game runs.
//
// Logging is plain log/slog behind a handler that redacts secrets and adds
// the run and game identifiers carried by the context:
//
//	logger := observability.NewLogger(observability.LogConfig{Level: "info", Format: "json"})
//	ctx = observability.WithRunID(ctx, runID)
//	logger.InfoContext(ctx, "game finished", "rounds", 3)
//
// Metrics register against a caller supplied registerer so tests can use an
// isolated registry. A nil *Metrics is valid and records nothing.
//
// Tracing exports over OTLP/gRPC when an endpoint is configured and is a
// no-op otherwise.
package observability
