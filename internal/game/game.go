// Package game runs repeated strategic games between language model agents.
//
// A Game owns its agents, a payoff matrix bound to one language, an optional
// team partition and a History. Run plays rounds until the configured count
// is reached or the latest effective choices match a stop condition. In a
// classic game every agent is a player. In a team game agents vote, each
// team plays its majority choice, and every member receives the team payoff.
package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/haasonsaas/fairgame/internal/observability"
	"github.com/haasonsaas/fairgame/internal/payoff"
)

const (
	// DefaultDecisionAttempts bounds the attempts spent on one decision.
	DefaultDecisionAttempts = 10
	// DefaultDecisionDelay is the wait between two decision attempts.
	DefaultDecisionDelay = time.Second
)

// Config describes one game.
type Config struct {
	Name     string
	Language string
	// Agents in declaration order. The order fixes payoff positions in
	// classic games and the order in which agents are asked.
	Agents            []*Agent
	Rounds            int
	RoundsKnown       bool
	Payoff            *payoff.Data
	Template          string
	StopConditions    []string
	AgentsCommunicate bool
	// Teams maps team IDs to member names. Nil selects a classic game.
	// Team order is the document order of the table.
	Teams *payoff.Table[[]string]

	// DecisionAttempts defaults to DefaultDecisionAttempts.
	DecisionAttempts int
	// DecisionDelay defaults to DefaultDecisionDelay.
	DecisionDelay time.Duration

	Logger  *slog.Logger
	Metrics *observability.Metrics
	Tracer  *observability.Tracer
}

// Game is a single configured game.
type Game struct {
	name           string
	language       string
	agents         []*Agent
	rounds         int
	roundsKnown    bool
	matrix         *payoff.Matrix
	template       string
	stopConditions map[string]bool
	communicate    bool
	teams          *payoff.Table[[]string]
	mode           mode

	decisionAttempts int
	decisionDelay    time.Duration

	currentRound int
	choicesMade  [][]string
	history      *History

	logger  *slog.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// New validates cfg and returns a game positioned before round 1.
func New(cfg Config) (*Game, error) {
	if len(cfg.Agents) == 0 {
		return nil, errors.New("game needs at least one agent")
	}
	seen := make(map[string]bool, len(cfg.Agents))
	for _, a := range cfg.Agents {
		if a == nil {
			return nil, errors.New("game agent is nil")
		}
		if seen[a.Name()] {
			return nil, fmt.Errorf("duplicate agent name %q", a.Name())
		}
		if a.Name() == TeamsKey {
			return nil, fmt.Errorf("agent name %q is reserved", TeamsKey)
		}
		seen[a.Name()] = true
	}
	if cfg.Rounds < 0 {
		return nil, fmt.Errorf("rounds must not be negative, got %d", cfg.Rounds)
	}
	if strings.TrimSpace(cfg.Template) == "" {
		return nil, errors.New("prompt template is empty")
	}

	matrix, err := payoff.New(cfg.Payoff, cfg.Language)
	if err != nil {
		return nil, err
	}

	var m mode = classicMode{}
	if cfg.Teams != nil {
		tm, err := newTeamMode(cfg.Teams, cfg.Agents)
		if err != nil {
			return nil, err
		}
		m = tm
	}

	stops := make(map[string]bool, len(cfg.StopConditions))
	for _, key := range cfg.StopConditions {
		stops[key] = true
	}

	g := &Game{
		name:             cfg.Name,
		language:         cfg.Language,
		agents:           slices.Clone(cfg.Agents),
		rounds:           cfg.Rounds,
		roundsKnown:      cfg.RoundsKnown,
		matrix:           matrix,
		template:         cfg.Template,
		stopConditions:   stops,
		communicate:      cfg.AgentsCommunicate,
		teams:            cfg.Teams,
		mode:             m,
		decisionAttempts: cfg.DecisionAttempts,
		decisionDelay:    cfg.DecisionDelay,
		currentRound:     1,
		history:          NewHistory(),
		logger:           cfg.Logger,
		metrics:          cfg.Metrics,
		tracer:           cfg.Tracer,
	}
	if g.decisionAttempts <= 0 {
		g.decisionAttempts = DefaultDecisionAttempts
	}
	if g.decisionDelay == 0 {
		g.decisionDelay = DefaultDecisionDelay
	}
	if g.logger == nil {
		g.logger = observability.NopLogger()
	}
	g.logger = g.logger.With("game", g.name, "language", g.language)
	return g, nil
}

func (g *Game) Name() string { return g.name }
func (g *Game) Language() string { return g.language }
func (g *Game) CurrentRound() int { return g.currentRound }
func (g *Game) History() *History { return g.history }
func (g *Game) Matrix() *payoff.Matrix { return g.matrix }
func (g *Game) Agents() []*Agent { return slices.Clone(g.agents) }
func (g *Game) IsTeamGame() bool { return g.teams != nil }
func (g *Game) AgentsCommunicate() bool { return g.communicate }
func (g *Game) StopConditions() []string { return sortedKeys(g.stopConditions) }
func (g *Game) Rounds() (int, bool) { return g.rounds, g.roundsKnown }

// ChoicesMade returns the effective choice tuple of every scored round:
// one key per agent in classic games, one per team in team games.
func (g *Game) ChoicesMade() [][]string {
	out := make([][]string, len(g.choicesMade))
	for i, c := range g.choicesMade {
		out[i] = slices.Clone(c)
	}
	return out
}

// NewRound returns the round at the current round number.
func (g *Game) NewRound() *Round {
	return &Round{game: g, number: g.currentRound}
}

// Run plays rounds until every round is played or a stop condition matches.
// The history is returned even when a round fails.
func (g *Game) Run(ctx context.Context) (*History, error) {
	ctx, span := g.tracer.Start(ctx, "game.run",
		"game.name", g.name, "game.language", g.language, "game.mode", g.mode.name())
	defer span.End()

	start := time.Now()
	for g.currentRound <= g.rounds && !g.StopConditionMet() {
		if err := ctx.Err(); err != nil {
			g.metrics.GameFinished("failed")
			return g.history, err
		}
		if err := g.RunRound(ctx); err != nil {
			observability.RecordError(span, err)
			g.metrics.GameFinished("failed")
			g.logger.ErrorContext(ctx, "game failed", "round", g.currentRound, "error", err)
			return g.history, err
		}
		g.currentRound++
	}

	status := "completed"
	if key, ok := g.stopCombination(); ok {
		status = "stopped"
		g.metrics.StopConditionMet(key)
	}
	g.metrics.GameFinished(status)
	g.logger.InfoContext(ctx, "game finished",
		"status", status, "played_rounds", len(g.choicesMade), "duration", time.Since(start))
	return g.history, nil
}

// RunRound plays the current round and scores it. It does not advance the
// round counter.
func (g *Game) RunRound(ctx context.Context) error {
	round := g.NewRound()
	ctx, span := g.tracer.Start(ctx, "game.round", "round", round.Number())
	defer span.End()
	g.logger.DebugContext(ctx, "round started", "round", round.Number())

	picks, err := round.Run(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return err
	}

	effective, err := g.mode.score(g, round.Number(), picks)
	if effective != nil {
		g.choicesMade = append(g.choicesMade, effective)
	}
	if err != nil {
		observability.RecordError(span, err)
		return fmt.Errorf("round %d scoring: %w", round.Number(), err)
	}

	if err := round.recordOutcome(); err != nil {
		return err
	}
	g.history.Finalize(round.Number())
	g.metrics.RoundScored(g.mode.name())
	g.logger.DebugContext(ctx, "round scored", "round", round.Number(), "choices", effective)
	return nil
}

// StopConditionMet reports whether the latest effective choices form a stop
// combination. It is false before the first round and when the choices match
// no combination.
func (g *Game) StopConditionMet() bool {
	_, ok := g.stopCombination()
	return ok
}

func (g *Game) stopCombination() (string, bool) {
	if len(g.choicesMade) == 0 {
		return "", false
	}
	key, err := g.matrix.CombinationKey(g.choicesMade[len(g.choicesMade)-1])
	if err != nil {
		return "", false
	}
	return key, g.stopConditions[key]
}

// Description is the static summary of a game.
type Description struct {
	Name              string                                    `json:"name"`
	Language          string                                    `json:"language"`
	Agents            *orderedmap.OrderedMap[string, AgentInfo] `json:"agents"`
	Teams             *payoff.Table[[]string]                   `json:"teams"`
	Rounds            int                                       `json:"n_rounds"`
	RoundsKnown       bool                                      `json:"number_of_rounds_is_known"`
	PayoffMatrix      *payoff.Data                              `json:"payoff_matrix,omitempty"`
	AgentsCommunicate bool                                      `json:"agents_communicate"`
}

// Description returns the game summary, payoff matrix included.
func (g *Game) Description() Description {
	agents := orderedmap.New[string, AgentInfo]()
	for _, a := range g.agents {
		agents.Set(a.Name(), a.Info())
	}
	return Description{
		Name:              g.name,
		Language:          g.language,
		Agents:            agents,
		Teams:             g.teams,
		Rounds:            g.rounds,
		RoundsKnown:       g.roundsKnown,
		PayoffMatrix:      g.matrix.Data(),
		AgentsCommunicate: g.communicate,
	}
}

// Output is the exported result of a game.
type Output struct {
	Description Description                           `json:"description"`
	History     *orderedmap.OrderedMap[string, []Row] `json:"history"`
}

// Output returns the description without the payoff matrix, plus the history.
func (g *Game) Output() Output {
	d := g.Description()
	d.PayoffMatrix = nil
	return Output{Description: d, History: g.history.Describe()}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
