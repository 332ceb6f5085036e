package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for game runs.
type Metrics struct {
	// GamesTotal counts finished games.
	// Labels: status (completed|stopped|failed)
	GamesTotal *prometheus.CounterVec

	// RoundsTotal counts scored rounds.
	// Labels: mode (classic|team)
	RoundsTotal *prometheus.CounterVec

	// DecisionAttempts counts strategy extraction attempts.
	// Labels: service, outcome (matched|unmatched|error)
	DecisionAttempts *prometheus.CounterVec

	// UnresolvedDecisions counts decisions that exhausted every attempt.
	// Labels: service
	UnresolvedDecisions *prometheus.CounterVec

	// StopConditions counts games ended early, by combination key.
	// Labels: combination
	StopConditions *prometheus.CounterVec

	// CompletionRequests counts provider calls.
	// Labels: provider, model, status (success|error)
	CompletionRequests *prometheus.CounterVec

	// CompletionDuration measures provider latency in seconds.
	// Labels: provider, model
	CompletionDuration *prometheus.HistogramVec

	// HTTPRequests counts API requests.
	// Labels: method, path, status_code
	HTTPRequests *prometheus.CounterVec

	// HTTPDuration measures API latency in seconds.
	// Labels: method, path
	HTTPDuration *prometheus.HistogramVec

	// ResultsWritten counts exported result sets.
	// Labels: sink (csv|json|sql|s3), status (success|error)
	ResultsWritten *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg registers with the Prometheus default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		GamesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fairgame_games_total",
				Help: "Total number of games run, by final status",
			},
			[]string{"status"},
		),
		RoundsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fairgame_rounds_total",
				Help: "Total number of scored rounds, by game mode",
			},
			[]string{"mode"},
		),
		DecisionAttempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fairgame_decision_attempts_total",
				Help: "Strategy extraction attempts, by decision service and outcome",
			},
			[]string{"service", "outcome"},
		),
		UnresolvedDecisions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fairgame_unresolved_decisions_total",
				Help: "Decisions that exhausted every attempt without naming a strategy",
			},
			[]string{"service"},
		),
		StopConditions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fairgame_stop_conditions_total",
				Help: "Games ended early by a stop condition, by combination key",
			},
			[]string{"combination"},
		),
		CompletionRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fairgame_completion_requests_total",
				Help: "Provider completion requests, by provider, model and status",
			},
			[]string{"provider", "model", "status"},
		),
		CompletionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fairgame_completion_duration_seconds",
				Help:    "Duration of provider completion requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"provider", "model"},
		),
		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fairgame_http_requests_total",
				Help: "HTTP API requests, by method, path and status code",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fairgame_http_request_duration_seconds",
				Help:    "Duration of HTTP API requests in seconds",
				Buckets: []float64{0.01, 0.1, 1, 5, 30, 120, 600},
			},
			[]string{"method", "path"},
		),
		ResultsWritten: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fairgame_results_written_total",
				Help: "Result exports, by sink and status",
			},
			[]string{"sink", "status"},
		),
	}
}

// GameFinished records the final status of a game.
func (m *Metrics) GameFinished(status string) {
	if m == nil {
		return
	}
	m.GamesTotal.WithLabelValues(status).Inc()
}

// RoundScored records a scored round.
func (m *Metrics) RoundScored(mode string) {
	if m == nil {
		return
	}
	m.RoundsTotal.WithLabelValues(mode).Inc()
}

// DecisionAttempt records one strategy extraction attempt.
func (m *Metrics) DecisionAttempt(service, outcome string) {
	if m == nil {
		return
	}
	m.DecisionAttempts.WithLabelValues(service, outcome).Inc()
}

// DecisionUnresolved records a decision that exhausted its attempts.
func (m *Metrics) DecisionUnresolved(service string) {
	if m == nil {
		return
	}
	m.UnresolvedDecisions.WithLabelValues(service).Inc()
}

// StopConditionMet records a game ended by the given combination.
func (m *Metrics) StopConditionMet(combination string) {
	if m == nil {
		return
	}
	m.StopConditions.WithLabelValues(combination).Inc()
}

// RecordCompletion records one provider call.
func (m *Metrics) RecordCompletion(provider, model, status string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.CompletionRequests.WithLabelValues(provider, model, status).Inc()
	m.CompletionDuration.WithLabelValues(provider, model).Observe(durationSeconds)
}

// RecordHTTPRequest records one API request.
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, durationSeconds float64) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPDuration.WithLabelValues(method, path).Observe(durationSeconds)
}

// ResultsExported records one result export.
func (m *Metrics) ResultsExported(sink, status string) {
	if m == nil {
		return
	}
	m.ResultsWritten.WithLabelValues(sink, status).Inc()
}
