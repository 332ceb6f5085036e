package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/haasonsaas/fairgame/internal/config"
	"github.com/haasonsaas/fairgame/internal/observability"
	"github.com/haasonsaas/fairgame/internal/providers"
	"github.com/haasonsaas/fairgame/internal/results"
	"github.com/haasonsaas/fairgame/internal/sweep"
)

// app holds the runtime wiring shared by the commands.
type app struct {
	rt       config.Runtime
	logger   *slog.Logger
	metrics  *observability.Metrics
	tracer   *observability.Tracer
	registry *providers.Registry
	shutdown func(context.Context) error
}

// newApp reads the environment and builds the logger, metrics, tracer and
// provider registry. Metrics register with reg.
func newApp(debug bool, reg prometheus.Registerer) (*app, error) {
	rt, err := config.LoadRuntime()
	if err != nil {
		return nil, err
	}

	logCfg := rt.LogConfig()
	if debug {
		logCfg.Level = "debug"
	}
	logger := observability.NewLogger(logCfg)
	slog.SetDefault(logger)

	metrics := observability.NewMetrics(reg)
	tracer, shutdown := observability.NewTracer(observability.TraceConfig{
		ServiceVersion: version,
		Endpoint:       rt.OTLPEndpoint,
		Insecure:       true,
	})
	registry := providers.NewRegistry(rt.Credentials(),
		providers.WithMetrics(metrics),
		providers.WithTracer(tracer),
		providers.WithLogger(logger),
	)

	return &app{
		rt:       rt,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		registry: registry,
		shutdown: shutdown,
	}, nil
}

// close flushes pending traces.
func (a *app) close(ctx context.Context) {
	if err := a.shutdown(ctx); err != nil {
		a.logger.Warn("tracer shutdown failed", "error", err)
	}
}

func (a *app) sweepOptions(templatesDir string, parallelism int) sweep.Options {
	if templatesDir == "" {
		templatesDir = a.rt.TemplatesDir
	}
	if parallelism <= 0 {
		parallelism = a.rt.Parallelism
	}
	return sweep.Options{
		Service:          a.registry,
		TemplatesDir:     templatesDir,
		DecisionAttempts: a.rt.DecisionAttempts,
		DecisionDelay:    a.rt.DecisionDelay,
		Parallelism:      parallelism,
		Logger:           a.logger,
		Metrics:          a.metrics,
		Tracer:           a.tracer,
	}
}

// publisher opens the result sinks configured in the environment. The
// returned function closes them.
func (a *app) publisher(ctx context.Context) (*results.Publisher, func(), error) {
	p := &results.Publisher{Metrics: a.metrics, Logger: a.logger}
	closeFn := func() {}

	if a.rt.ResultsDSN != "" {
		store, err := results.OpenSQLStore(ctx, a.rt.ResultsDSN, nil)
		if err != nil {
			return nil, closeFn, err
		}
		p.Store = store
		closeFn = func() {
			if err := store.Close(); err != nil {
				a.logger.Warn("results store close failed", "error", err)
			}
		}
	}

	if a.rt.S3Bucket != "" {
		uploader, err := results.NewS3Uploader(ctx, results.S3Config{
			Bucket:          a.rt.S3Bucket,
			Region:          a.rt.AWSRegion,
			Endpoint:        a.rt.S3Endpoint,
			Prefix:          a.rt.S3Prefix,
			AccessKeyID:     a.rt.AWSAccessKeyID,
			SecretAccessKey: a.rt.AWSSecretAccessKey,
		})
		if err != nil {
			closeFn()
			return nil, func() {}, fmt.Errorf("configure s3 upload: %w", err)
		}
		p.Uploader = uploader
	}
	return p, closeFn, nil
}
