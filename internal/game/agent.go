package game

import (
	"context"
	"slices"

	"github.com/haasonsaas/fairgame/internal/prompt"
)

// CompletionService sends a prompt to the decision service identified by
// serviceID and returns the raw response text.
type CompletionService interface {
	Complete(ctx context.Context, serviceID, prompt string) (string, error)
}

// AgentConfig describes an agent before it joins a game.
type AgentConfig struct {
	Name      string
	ServiceID string
	// Personality is free text. Empty or "None" means no personality.
	Personality string
	// OpponentPersonalityProb is the 0 to 100 probability the agent is told
	// about its opponents' personalities.
	OpponentPersonalityProb int
	// TeamID is set in team games only.
	TeamID string
}

// AgentInfo is a read-only snapshot of an agent's identity.
type AgentInfo struct {
	Name                    string `json:"name"`
	LLMService              string `json:"llm_service"`
	Personality             string `json:"personality"`
	OpponentPersonalityProb int    `json:"opponent_personality_probability"`
	TeamID                  string `json:"team_id,omitempty"`
}

// Agent is a player. It keeps the strategies it chose and the scores it
// received, one entry per round.
type Agent struct {
	cfg        AgentConfig
	service    CompletionService
	strategies []string
	scores     []float64
}

// NewAgent returns an agent answering through service.
func NewAgent(cfg AgentConfig, service CompletionService) *Agent {
	if cfg.Personality == "" {
		cfg.Personality = prompt.NoPersonality
	}
	return &Agent{cfg: cfg, service: service}
}

func (a *Agent) Name() string { return a.cfg.Name }
func (a *Agent) ServiceID() string { return a.cfg.ServiceID }
func (a *Agent) Personality() string { return a.cfg.Personality }
func (a *Agent) OpponentPersonalityProb() int { return a.cfg.OpponentPersonalityProb }
func (a *Agent) TeamID() string { return a.cfg.TeamID }

// AddStrategy appends a chosen strategy label.
func (a *Agent) AddStrategy(label string) {
	a.strategies = append(a.strategies, label)
}

// AddScore appends a payoff.
func (a *Agent) AddScore(value float64) {
	a.scores = append(a.scores, value)
}

// LastStrategy returns the most recent strategy label.
func (a *Agent) LastStrategy() (string, error) {
	if len(a.strategies) == 0 {
		return "", ErrEmptyHistory
	}
	return a.strategies[len(a.strategies)-1], nil
}

// LastScore returns the most recent payoff.
func (a *Agent) LastScore() (float64, error) {
	if len(a.scores) == 0 {
		return 0, ErrEmptyHistory
	}
	return a.scores[len(a.scores)-1], nil
}

// Strategies returns a copy of the strategy history.
func (a *Agent) Strategies() []string { return slices.Clone(a.strategies) }

// Scores returns a copy of the score history.
func (a *Agent) Scores() []float64 { return slices.Clone(a.scores) }

// RequestDecision forwards prompt to the agent's decision service and
// returns the response untouched.
func (a *Agent) RequestDecision(ctx context.Context, prompt string) (string, error) {
	return a.service.Complete(ctx, a.cfg.ServiceID, prompt)
}

// Info returns a snapshot of the agent's identity.
func (a *Agent) Info() AgentInfo {
	return AgentInfo{
		Name:                    a.cfg.Name,
		LLMService:              a.cfg.ServiceID,
		Personality:             a.cfg.Personality,
		OpponentPersonalityProb: a.cfg.OpponentPersonalityProb,
		TeamID:                  a.cfg.TeamID,
	}
}

func (a *Agent) participant() prompt.Participant {
	return prompt.Participant{
		Name:                    a.cfg.Name,
		Personality:             a.cfg.Personality,
		OpponentPersonalityProb: a.cfg.OpponentPersonalityProb,
	}
}
