// Package server exposes game sweeps over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/haasonsaas/fairgame/internal/config"
	"github.com/haasonsaas/fairgame/internal/observability"
	"github.com/haasonsaas/fairgame/internal/results"
	"github.com/haasonsaas/fairgame/internal/sweep"
)

// DefaultMaxBodyBytes bounds the size of a posted configuration.
const DefaultMaxBodyBytes = 1 << 20

// RunIDHeader carries the sweep run ID on successful responses.
const RunIDHeader = "X-Fairgame-Run-Id"

// Options configures a Server.
type Options struct {
	// Sweep is used for every posted configuration. Its Service is required.
	Sweep sweep.Options
	// Publisher receives every finished sweep. Nil skips publishing.
	Publisher *results.Publisher
	Metrics   *observability.Metrics
	// Gatherer backs /metrics. Nil uses the default Prometheus gatherer.
	Gatherer     prometheus.Gatherer
	Logger       *slog.Logger
	MaxBodyBytes int64
}

// Server handles the HTTP API.
type Server struct {
	opts    Options
	handler http.Handler
}

// New returns a server with its routes registered.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{opts: opts}
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.HandleFunc("GET /health", s.handleHealthz)
	mux.HandleFunc("POST /create_and_run_games", s.handleCreateAndRunGames)
	s.handler = s.instrument(mux)
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("http listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	s.opts.Logger.Info("starting http server", "addr", listener.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.opts.Logger.Warn("http server shutdown error", "error", err)
			return err
		}
		return nil
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK", "message": "Service is running"})
}

type errorResponse struct {
	Error  string   `json:"error"`
	Issues []string `json:"issues,omitempty"`
}

func (s *Server) handleCreateAndRunGames(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: err.Error()})
		return
	}

	cfg, err := config.Parse(body)
	if err != nil {
		writeConfigError(w, err)
		return
	}
	factory, err := sweep.NewFactory(cfg, s.opts.Sweep)
	if err != nil {
		writeConfigError(w, err)
		return
	}

	run, err := factory.CreateAndRunGames(ctx)
	if err != nil {
		s.opts.Logger.ErrorContext(ctx, "sweep failed", "name", cfg.Name, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}

	var games []results.GameData
	if s.opts.Publisher != nil {
		pub, err := s.opts.Publisher.Publish(ctx, run)
		if err != nil {
			s.opts.Logger.ErrorContext(ctx, "publish results failed", "run_id", run.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
			return
		}
		games = pub.Games
	} else {
		games = results.Process(run.Games)
	}

	w.Header().Set(RunIDHeader, run.ID)
	writeJSON(w, http.StatusOK, results.Table(games))
}

func writeConfigError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	var ve *config.ValidationError
	if errors.As(err, &ve) {
		resp.Error = config.ErrInvalidConfig.Error()
		resp.Issues = ve.Issues
	}
	writeJSON(w, http.StatusBadRequest, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// instrument logs every request and records its metrics.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		elapsed := time.Since(start)
		s.opts.Metrics.RecordHTTPRequest(r.Method, r.URL.Path, strconv.Itoa(wrapped.status), elapsed.Seconds())
		s.opts.Logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", elapsed,
		)
	})
}

// responseWriter captures the status code written by a handler.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.status = code
		rw.wroteHeader = true
		rw.ResponseWriter.WriteHeader(code)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
