package results

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/haasonsaas/fairgame/internal/observability"
	"github.com/haasonsaas/fairgame/internal/sweep"
)

// Publisher sends the results of a sweep to the configured sinks. Nil
// sinks are skipped.
type Publisher struct {
	Store    *SQLStore
	Uploader *S3Uploader
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// Publication reports where a sweep's results went.
type Publication struct {
	Games    []GameData
	Stored   bool
	Location string
}

// Publish flattens run and writes it to every sink. A failing sink does not
// stop the others; their errors are joined.
func (p *Publisher) Publish(ctx context.Context, run *sweep.Run) (Publication, error) {
	logger := p.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}
	pub := Publication{Games: Process(run.Games)}

	var errs []error
	if p.Store != nil {
		record := RunRecord{ID: run.ID, Name: run.Name, LLM: run.LLM, StartedAt: run.StartedAt}
		if err := p.Store.SaveRun(ctx, record, pub.Games); err != nil {
			p.Metrics.ResultsExported("sql", "error")
			errs = append(errs, err)
		} else {
			p.Metrics.ResultsExported("sql", "success")
			pub.Stored = true
		}
	}

	if p.Uploader != nil {
		var buf bytes.Buffer
		err := WriteCSV(&buf, pub.Games)
		if err == nil {
			pub.Location, err = p.Uploader.Upload(ctx, ResultsKey(run.LLM, run.Name, run.StartedAt), buf.Bytes(), "text/csv")
		}
		if err != nil {
			p.Metrics.ResultsExported("s3", "error")
			errs = append(errs, err)
		} else {
			p.Metrics.ResultsExported("s3", "success")
			logger.InfoContext(ctx, "results uploaded", "location", pub.Location)
		}
	}
	return pub, errors.Join(errs...)
}
