package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/haasonsaas/fairgame/internal/config"
	"github.com/haasonsaas/fairgame/internal/game"
	"github.com/haasonsaas/fairgame/internal/providers"
	"github.com/haasonsaas/fairgame/internal/results"
	"github.com/haasonsaas/fairgame/internal/server"
	"github.com/haasonsaas/fairgame/internal/sweep"
)

type runOptions struct {
	configPath   string
	output       string
	format       string
	historyPath  string
	templatesDir string
	parallelism  int
	noPublish    bool
	debug        bool
}

// runGames loads a configuration, plays every game and writes the results.
func runGames(ctx context.Context, stdout io.Writer, opts runOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(opts.debug, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	factory, err := sweep.NewFactory(cfg, a.sweepOptions(opts.templatesDir, opts.parallelism))
	if err != nil {
		return err
	}

	start := time.Now()
	run, runErr := factory.CreateAndRunGames(ctx)
	if run == nil {
		return runErr
	}
	a.logger.Info("games finished",
		"run_id", run.ID,
		"games", run.Games.Len(),
		"duration", time.Since(start),
	)

	if opts.historyPath != "" {
		if err := writeJSONFile(opts.historyPath, run); err != nil {
			return errors.Join(runErr, err)
		}
	}
	if runErr != nil {
		return runErr
	}

	games := results.Process(run.Games)
	if !opts.noPublish {
		p, closeSinks, err := a.publisher(ctx)
		if err != nil {
			return err
		}
		defer closeSinks()
		if p.Store != nil || p.Uploader != nil {
			if _, err := p.Publish(ctx, run); err != nil {
				return fmt.Errorf("publish results: %w", err)
			}
		}
	}
	return writeResults(stdout, opts.output, opts.format, games)
}

func writeResults(stdout io.Writer, path, format string, games []results.GameData) error {
	if format == "" {
		format = "json"
		if strings.EqualFold(filepath.Ext(path), ".csv") {
			format = "csv"
		}
	}

	w := stdout
	if path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create results file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "csv":
		return results.WriteCSV(w, games)
	case "json":
		return results.WriteJSON(w, games)
	default:
		return fmt.Errorf("unknown results format %q", format)
	}
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func runValidate(stdout io.Writer, path string) error {
	_, err := config.Load(path)
	var ve *config.ValidationError
	if errors.As(err, &ve) {
		fmt.Fprintf(stdout, "%s: invalid\n", path)
		for _, issue := range ve.Issues {
			fmt.Fprintf(stdout, "  - %s\n", issue)
		}
		return fmt.Errorf("%s: %d issue(s)", path, len(ve.Issues))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "%s: ok\n", path)
	return nil
}

type describedGame struct {
	GameID      string           `json:"game_id"`
	Setup       sweep.Setup      `json:"setup"`
	Description game.Description `json:"description"`
}

func runDescribe(stdout io.Writer, path, templatesDir string) error {
	a, err := newApp(false, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	factory, err := sweep.NewFactory(cfg, a.sweepOptions(templatesDir, 0))
	if err != nil {
		return err
	}
	games, err := factory.CreateGames()
	if err != nil {
		return err
	}

	setups := factory.Setups()
	out := make([]describedGame, len(games))
	for i, g := range games {
		out[i] = describedGame{GameID: sweep.GameID(i), Setup: setups[i], Description: g.Description()}
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func runSchema(stdout io.Writer) error {
	schema, err := config.JSONSchema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, string(schema))
	return err
}

func runServices(stdout io.Writer) error {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tPROVIDER\tMODEL")
	for _, id := range providers.ServiceIDs() {
		svc, err := providers.Lookup(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", svc.ID, svc.Provider, svc.Model)
	}
	return tw.Flush()
}

func runServe(ctx context.Context, addr string, debug bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(debug, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}
	defer a.close(context.Background())

	p, closeSinks, err := a.publisher(ctx)
	if err != nil {
		return err
	}
	defer closeSinks()
	if p.Store == nil && p.Uploader == nil {
		p = nil
	}

	if addr == "" {
		addr = a.rt.HTTPAddr
	}
	a.logger.Info("starting fairgame server", "version", version, "commit", commit, "addr", addr)

	srv := server.New(server.Options{
		Sweep:     a.sweepOptions("", 0),
		Publisher: p,
		Metrics:   a.metrics,
		Logger:    a.logger,
	})
	return srv.ListenAndServe(ctx, addr)
}
