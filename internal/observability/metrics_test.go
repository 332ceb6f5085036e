package observability

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRecording(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.GameFinished("completed")
	m.GameFinished("completed")
	m.GameFinished("stopped")
	m.DecisionAttempt("OpenAIGPT4o", "unmatched")
	m.DecisionAttempt("OpenAIGPT4o", "matched")
	m.DecisionUnresolved("MistralLarge")
	m.RoundScored("team")
	m.StopConditionMet("combination1")
	m.RecordCompletion("openai", "gpt-4o", "success", 0.3)
	m.RecordHTTPRequest("POST", "/create_and_run_games", "200", 1.2)
	m.ResultsExported("csv", "success")

	expected := `
		# HELP fairgame_games_total Total number of games run, by final status
		# TYPE fairgame_games_total counter
		fairgame_games_total{status="completed"} 2
		fairgame_games_total{status="stopped"} 1
	`
	if err := testutil.CollectAndCompare(m.GamesTotal, strings.NewReader(expected)); err != nil {
		t.Errorf("GamesTotal: %v", err)
	}
	if got := testutil.ToFloat64(m.DecisionAttempts.WithLabelValues("OpenAIGPT4o", "unmatched")); got != 1 {
		t.Errorf("DecisionAttempts unmatched = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.DecisionAttempts); got != 2 {
		t.Errorf("DecisionAttempts series = %d, want 2", got)
	}
	if got := testutil.ToFloat64(m.UnresolvedDecisions.WithLabelValues("MistralLarge")); got != 1 {
		t.Errorf("UnresolvedDecisions = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StopConditions.WithLabelValues("combination1")); got != 1 {
		t.Errorf("StopConditions = %v, want 1", got)
	}
	if got := testutil.CollectAndCount(m.CompletionDuration); got != 1 {
		t.Errorf("CompletionDuration series = %d, want 1", got)
	}
	if got := testutil.ToFloat64(m.HTTPRequests.WithLabelValues("POST", "/create_and_run_games", "200")); got != 1 {
		t.Errorf("HTTPRequests = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ResultsWritten.WithLabelValues("csv", "success")); got != 1 {
		t.Errorf("ResultsWritten = %v, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.GameFinished("completed")
	m.RoundScored("classic")
	m.DecisionAttempt("svc", "matched")
	m.DecisionUnresolved("svc")
	m.StopConditionMet("c")
	m.RecordCompletion("p", "m", "success", 1)
	m.RecordHTTPRequest("GET", "/", "200", 1)
	m.ResultsExported("csv", "success")
}
