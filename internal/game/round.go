package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/haasonsaas/fairgame/internal/backoff"
	"github.com/haasonsaas/fairgame/internal/observability"
	"github.com/haasonsaas/fairgame/internal/prompt"
)

// Round runs one round of a game: an optional communication phase, then a
// choice phase in agent order, then the outcome write once scores are known.
type Round struct {
	game   *Game
	number int
}

// Number returns the 1-based round number.
func (r *Round) Number() int { return r.number }

// Run executes the communication and choice phases and returns the strategy
// key chosen by each agent.
func (r *Round) Run(ctx context.Context) (map[string]string, error) {
	if r.game.communicate {
		if err := r.communicate(ctx); err != nil {
			return nil, err
		}
	}

	picks := make(map[string]string, len(r.game.agents))
	for _, a := range r.game.agents {
		p, err := r.Prompt(a, prompt.PhaseChoose)
		if err != nil {
			return nil, fmt.Errorf("agent %s choice prompt: %w", a.Name(), err)
		}
		if err := r.game.history.Update(r.number, a.Name(), Entry{ChoicePrompt: &p}); err != nil {
			return nil, err
		}
		key, err := r.choose(ctx, a, p)
		if err != nil {
			return nil, err
		}
		picks[a.Name()] = key
	}
	return picks, nil
}

func (r *Round) communicate(ctx context.Context) error {
	for _, a := range r.game.agents {
		p, err := r.Prompt(a, prompt.PhaseCommunicate)
		if err != nil {
			return fmt.Errorf("agent %s message prompt: %w", a.Name(), err)
		}
		message, err := a.RequestDecision(ctx, p)
		if err != nil {
			return fmt.Errorf("agent %s message: %w", a.Name(), err)
		}
		if err := r.game.history.Update(r.number, a.Name(), Entry{MessagePrompt: &p, Message: &message}); err != nil {
			return err
		}
		r.game.logger.DebugContext(ctx, "agent message recorded", "round", r.number, "agent", a.Name())
	}
	return nil
}

// choose asks the agent until a known strategy can be read from its answer.
// Service failures and answers naming no strategy both consume an attempt.
func (r *Round) choose(ctx context.Context, a *Agent, p string) (string, error) {
	g := r.game
	ctx, span := g.tracer.Start(ctx, "game.decision", "round", r.number, "agent", a.Name(), "service", a.ServiceID())
	defer span.End()

	result, err := backoff.Retry(ctx, backoff.Fixed(g.decisionDelay), g.decisionAttempts,
		func(attempt int) (string, error) {
			response, err := a.RequestDecision(ctx, p)
			if err != nil {
				g.metrics.DecisionAttempt(a.ServiceID(), "error")
				return "", err
			}
			key, ok := ExtractStrategy(g.matrix, response)
			if !ok {
				g.metrics.DecisionAttempt(a.ServiceID(), "unmatched")
				return "", fmt.Errorf("%w: %q", errNoStrategyNamed, truncate(response, 120))
			}
			g.metrics.DecisionAttempt(a.ServiceID(), "matched")
			return key, nil
		},
		backoff.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		backoff.OnRetry(func(attempt int, err error, wait time.Duration) {
			g.logger.WarnContext(ctx, "retrying decision",
				"round", r.number, "agent", a.Name(), "attempt", attempt, "wait", wait, "error", err)
		}),
	)
	if err != nil {
		observability.RecordError(span, err)
		if errors.Is(err, backoff.ErrExhausted) {
			g.metrics.DecisionUnresolved(a.ServiceID())
			return "", &DecisionError{
				Agent:    a.Name(),
				Service:  a.ServiceID(),
				Round:    r.number,
				Attempts: result.Attempts,
				Err:      result.LastError,
			}
		}
		return "", err
	}

	name, _ := g.matrix.StrategyName(result.Value)
	a.AddStrategy(name)
	return result.Value, nil
}

// Prompt renders the prompt an agent receives in the given phase.
func (r *Round) Prompt(a *Agent, phase prompt.Phase) (string, error) {
	g := r.game
	opponents := r.Opponents(a)
	in := prompt.Input{
		Player:      a.participant(),
		Opponents:   make([]prompt.Participant, 0, len(opponents)),
		Round:       r.number,
		Rounds:      g.rounds,
		RoundsKnown: g.roundsKnown,
		History:     g.renderHistory(),
		Strategies:  g.matrix.StrategyNames(),
		Weights:     g.matrix.Weights(),
		Phase:       phase,
	}
	for _, opp := range opponents {
		in.Opponents = append(in.Opponents, opp.participant())
	}
	if team, ok := g.mode.(*teamMode); ok {
		in.TeamID = a.TeamID()
		in.Teammates = team.teammates(a)
	}
	return prompt.Render(g.template, in)
}

// Opponents returns the agents a player faces: everyone else in classic
// games, everyone outside the player's team in team games.
func (r *Round) Opponents(a *Agent) []*Agent {
	return r.game.mode.opponents(a, r.game.agents)
}

// recordOutcome writes every agent's latest strategy and score. It is the
// last write of the round.
func (r *Round) recordOutcome() error {
	for _, a := range r.game.agents {
		strategy, err := a.LastStrategy()
		if err != nil {
			return fmt.Errorf("agent %s: %w", a.Name(), err)
		}
		score, err := a.LastScore()
		if err != nil {
			return fmt.Errorf("agent %s: %w", a.Name(), err)
		}
		if err := r.game.history.Update(r.number, a.Name(), Entry{Strategy: &strategy, Score: &score}); err != nil {
			return err
		}
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
