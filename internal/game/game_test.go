package game

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/haasonsaas/fairgame/internal/testharness"
)

func TestRunClassicGame(t *testing.T) {
	svc := testharness.NewScriptedService("").
		On("You are agent1 facing", "I will Cooperate").
		On("You are agent2 facing", "defect, obviously")
	g := mustNew(t, testConfig(t, newAgents(svc, "agent1", "agent2")))

	history, err := g.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := [][]string{{"strategyA", "strategyB"}, {"strategyA", "strategyB"}}
	if got := g.ChoicesMade(); !slices.EqualFunc(got, want, slices.Equal) {
		t.Errorf("ChoicesMade() = %v, want %v", got, want)
	}
	agents := g.Agents()
	if got := agents[0].Scores(); !slices.Equal(got, []float64{0, 0}) {
		t.Errorf("agent1 scores = %v", got)
	}
	if got := agents[1].Scores(); !slices.Equal(got, []float64{5, 5}) {
		t.Errorf("agent2 scores = %v", got)
	}
	if got := agents[1].Strategies(); !slices.Equal(got, []string{"Defect", "Defect"}) {
		t.Errorf("agent2 strategies = %v", got)
	}
	if history.Len() != 2 || !history.Finalized(2) {
		t.Errorf("history rounds = %d, round 2 finalized = %v", history.Len(), history.Finalized(2))
	}
	if g.CurrentRound() != 3 {
		t.Errorf("CurrentRound() = %d, want 3", g.CurrentRound())
	}
	if g.StopConditionMet() {
		t.Error("StopConditionMet() = true without stop conditions")
	}
}

func TestRunStopsOnCombination(t *testing.T) {
	svc := testharness.NewScriptedService("Cooperate")
	cfg := testConfig(t, newAgents(svc, "agent1", "agent2"))
	cfg.Rounds = 5
	cfg.StopConditions = []string{"combination1"}
	g := mustNew(t, cfg)

	if g.StopConditionMet() {
		t.Fatal("StopConditionMet() before the first round")
	}
	if _, err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := len(g.ChoicesMade()); got != 1 {
		t.Errorf("played rounds = %d, want 1", got)
	}
	if !g.StopConditionMet() {
		t.Error("StopConditionMet() = false after mutual cooperation")
	}
	if got := g.History().Len(); got != 1 {
		t.Errorf("History().Len() = %d, want 1", got)
	}
}

func TestRunZeroRounds(t *testing.T) {
	svc := testharness.NewScriptedService("Cooperate")
	cfg := testConfig(t, newAgents(svc, "agent1", "agent2"))
	cfg.Rounds = 0
	g := mustNew(t, cfg)

	history, err := g.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if history.Len() != 0 || len(svc.Calls()) != 0 {
		t.Errorf("rounds = %d, calls = %d, want none", history.Len(), len(svc.Calls()))
	}
}

func TestRunCancelled(t *testing.T) {
	svc := testharness.NewScriptedService("Cooperate")
	g := mustNew(t, testConfig(t, newAgents(svc, "agent1", "agent2")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := g.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	svc := testharness.NewScriptedService("Cooperate")
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no agents", func(c *Config) { c.Agents = nil }},
		{"duplicate agent", func(c *Config) { c.Agents = newAgents(svc, "agent1", "agent1") }},
		{"reserved name", func(c *Config) { c.Agents = newAgents(svc, "agent1", TeamsKey) }},
		{"negative rounds", func(c *Config) { c.Rounds = -1 }},
		{"empty template", func(c *Config) { c.Template = "  " }},
		{"unknown language", func(c *Config) { c.Language = "fr" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t, newAgents(svc, "agent1", "agent2"))
			tt.mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Fatal("New() error = nil")
			}
		})
	}
}

func TestNewAppliesDecisionDefaults(t *testing.T) {
	svc := testharness.NewScriptedService("Cooperate")
	cfg := testConfig(t, newAgents(svc, "agent1", "agent2"))
	cfg.DecisionDelay = 0
	g := mustNew(t, cfg)

	if g.decisionAttempts != DefaultDecisionAttempts {
		t.Errorf("decisionAttempts = %d, want %d", g.decisionAttempts, DefaultDecisionAttempts)
	}
	if g.decisionDelay != DefaultDecisionDelay {
		t.Errorf("decisionDelay = %v, want %v", g.decisionDelay, DefaultDecisionDelay)
	}
}

func TestOutputJSON(t *testing.T) {
	svc := testharness.NewScriptedService("Cooperate")
	cfg := testConfig(t, newAgents(svc, "agent2", "agent1"))
	cfg.Rounds = 1
	g := mustNew(t, cfg)
	if _, err := g.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	raw, err := json.Marshal(g.Output())
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	out := string(raw)

	if strings.Contains(out, "payoff_matrix") {
		t.Error("output contains the payoff matrix")
	}
	if i, j := strings.Index(out, `"agent2":{`), strings.Index(out, `"agent1":{`); i < 0 || j < 0 || i > j {
		t.Errorf("agents not in declaration order: %s", out)
	}
	for _, want := range []string{
		`"n_rounds":1`,
		`"number_of_rounds_is_known":true`,
		`"personality":"None"`,
		`"round_1":[{"agent":"agent2"`,
		`"strategy":"Cooperate","score":3`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}

	if d := g.Description(); d.PayoffMatrix == nil {
		t.Error("Description() omits the payoff matrix")
	}
}
