package game

import (
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/haasonsaas/fairgame/internal/payoff"
)

const prisonersDilemma = `
weights:
  reward: 3
  sucker: 0
  temptation: 5
  punishment: 1
strategies:
  en:
    strategyA: Cooperate
    strategyB: Defect
combinations:
  combination1: [strategyA, strategyA]
  combination2: [strategyA, strategyB]
  combination3: [strategyB, strategyA]
  combination4: [strategyB, strategyB]
matrix:
  combination1: [reward, reward]
  combination2: [sucker, temptation]
  combination3: [temptation, sucker]
  combination4: [punishment, punishment]
`

const testTemplate = "You are {currentPlayerName} facing {opponent1}. Round {currentRound}.\n" +
	"{history}\n" +
	"{communicate}:[Say something.]{choose}:[Pick {strategy1} or {strategy2}.]"

func loadPayoff(t *testing.T) *payoff.Data {
	t.Helper()
	var data payoff.Data
	if err := yaml.Unmarshal([]byte(prisonersDilemma), &data); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	return &data
}

func newAgents(service CompletionService, names ...string) []*Agent {
	agents := make([]*Agent, 0, len(names))
	for _, name := range names {
		agents = append(agents, NewAgent(AgentConfig{Name: name, ServiceID: "scripted"}, service))
	}
	return agents
}

// testConfig returns a classic two round game with fast decision retries.
func testConfig(t *testing.T, agents []*Agent) Config {
	t.Helper()
	return Config{
		Name:          "test",
		Language:      "en",
		Agents:        agents,
		Rounds:        2,
		RoundsKnown:   true,
		Payoff:        loadPayoff(t),
		Template:      testTemplate,
		DecisionDelay: time.Millisecond,
	}
}

func mustNew(t *testing.T, cfg Config) *Game {
	t.Helper()
	g, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return g
}

func teams(t *testing.T, doc string) *payoff.Table[[]string] {
	t.Helper()
	table := payoff.NewTable[[]string]()
	if err := yaml.Unmarshal([]byte(doc), table); err != nil {
		t.Fatalf("yaml.Unmarshal(teams) error = %v", err)
	}
	return table
}
