// Package sweep turns one game configuration into the set of games it
// describes and runs them.
//
// With allAgentPermutations every language gets the cartesian product of
// per-agent personalities and per-agent opponent knowledge probabilities.
// Otherwise each language gets a single game where agent i uses the i-th
// personality and probability.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/sync/errgroup"

	"github.com/haasonsaas/fairgame/internal/config"
	"github.com/haasonsaas/fairgame/internal/game"
	"github.com/haasonsaas/fairgame/internal/observability"
)

// Setup is one row of a sweep.
type Setup struct {
	Language      string   `json:"language"`
	Personalities []string `json:"personalities"`
	Probabilities []int    `json:"opponent_personality_probabilities"`
}

// Options configures a Factory.
type Options struct {
	// Service answers every agent's decision requests.
	Service game.CompletionService
	// TemplatesDir is where templateFilename is resolved.
	TemplatesDir string

	DecisionAttempts int
	DecisionDelay    time.Duration
	// Parallelism bounds the games run at once. Values below 1 mean 1.
	Parallelism int

	Logger  *slog.Logger
	Metrics *observability.Metrics
	Tracer  *observability.Tracer
}

// Factory builds and runs the games of one configuration.
type Factory struct {
	cfg    *config.GameConfig
	opts   Options
	setups []Setup
}

// NewFactory validates cfg and expands it into setups.
func NewFactory(cfg *config.GameConfig, opts Options) (*Factory, error) {
	if cfg == nil {
		return nil, errors.New("game configuration is nil")
	}
	if opts.Service == nil {
		return nil, errors.New("completion service is required")
	}
	if issues := config.Validate(cfg); len(issues) > 0 {
		return nil, &config.ValidationError{Issues: issues}
	}
	if opts.Parallelism < 1 {
		opts.Parallelism = 1
	}
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger()
	}
	return &Factory{cfg: cfg, opts: opts, setups: expand(cfg)}, nil
}

// Setups returns the sweep rows in game order.
func (f *Factory) Setups() []Setup {
	out := make([]Setup, len(f.setups))
	copy(out, f.setups)
	return out
}

func expand(cfg *config.GameConfig) []Setup {
	agents := cfg.Agents
	n := len(agents.Names)
	var setups []Setup
	for _, lang := range cfg.Languages {
		if !cfg.AllAgentPermutations {
			setups = append(setups, Setup{
				Language:      lang,
				Personalities: append([]string(nil), agents.Personalities[lang][:n]...),
				Probabilities: append([]int(nil), agents.OpponentPersonalityProb[:n]...),
			})
			continue
		}
		knowledge := product(agents.OpponentPersonalityProb, n)
		for _, personalities := range product(agents.Personalities[lang], n) {
			for _, probs := range knowledge {
				setups = append(setups, Setup{Language: lang, Personalities: personalities, Probabilities: probs})
			}
		}
	}
	return setups
}

// product returns every n-tuple over values, the last position varying fastest.
func product[T any](values []T, n int) [][]T {
	if n == 0 {
		return [][]T{{}}
	}
	if len(values) == 0 {
		return nil
	}
	total := 1
	for i := 0; i < n; i++ {
		total *= len(values)
	}
	out := make([][]T, 0, total)
	idx := make([]int, n)
	for {
		tuple := make([]T, n)
		for i, j := range idx {
			tuple[i] = values[j]
		}
		out = append(out, tuple)

		pos := n - 1
		for pos >= 0 {
			idx[pos]++
			if idx[pos] < len(values) {
				break
			}
			idx[pos] = 0
			pos--
		}
		if pos < 0 {
			return out
		}
	}
}

// GameID names the i-th game of a run.
func GameID(i int) string { return fmt.Sprintf("game_%d", i) }

// CreateGames builds one game per setup, each with its own agents.
func (f *Factory) CreateGames() ([]*game.Game, error) {
	templates := make(map[string]string, len(f.cfg.Languages))
	teamOf := map[string]string{}
	if teams := f.cfg.TeamTable(); teams != nil {
		for pair := teams.Oldest(); pair != nil; pair = pair.Next() {
			for _, member := range pair.Value {
				teamOf[member] = pair.Key
			}
		}
	}

	games := make([]*game.Game, 0, len(f.setups))
	for i, setup := range f.setups {
		tmpl, ok := templates[setup.Language]
		if !ok {
			var err error
			tmpl, err = f.cfg.Template(f.opts.TemplatesDir, setup.Language)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", GameID(i), err)
			}
			templates[setup.Language] = tmpl
		}

		agents := make([]*game.Agent, len(f.cfg.Agents.Names))
		for j, name := range f.cfg.Agents.Names {
			agents[j] = game.NewAgent(game.AgentConfig{
				Name:                    name,
				ServiceID:               f.cfg.LLM,
				Personality:             setup.Personalities[j],
				OpponentPersonalityProb: setup.Probabilities[j],
				TeamID:                  teamOf[name],
			}, f.opts.Service)
		}

		g, err := game.New(game.Config{
			Name:              f.cfg.Name,
			Language:          setup.Language,
			Agents:            agents,
			Rounds:            f.cfg.Rounds,
			RoundsKnown:       f.cfg.RoundsKnown,
			Payoff:            &f.cfg.PayoffMatrix,
			Template:          tmpl,
			StopConditions:    f.cfg.StopGameWhen,
			AgentsCommunicate: f.cfg.AgentsCommunicate,
			Teams:             f.cfg.TeamTable(),
			DecisionAttempts:  f.opts.DecisionAttempts,
			DecisionDelay:     f.opts.DecisionDelay,
			Logger:            f.opts.Logger.With("game_id", GameID(i)),
			Metrics:           f.opts.Metrics,
			Tracer:            f.opts.Tracer,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", GameID(i), err)
		}
		games = append(games, g)
	}
	return games, nil
}

// Run is the outcome of a sweep. Games holds the output of every game that
// finished, keyed by game ID in game order.
type Run struct {
	ID        string                                      `json:"run_id"`
	Name      string                                      `json:"name"`
	LLM       string                                      `json:"llm"`
	StartedAt time.Time                                   `json:"started_at"`
	Games     *orderedmap.OrderedMap[string, game.Output] `json:"games"`
}

// RunGames plays games with bounded parallelism. The first failing game
// cancels the others; the returned run still holds every finished game.
func (f *Factory) RunGames(ctx context.Context, games []*game.Game) (*Run, error) {
	run := &Run{
		ID:        uuid.NewString(),
		Name:      f.cfg.Name,
		LLM:       f.cfg.LLM,
		StartedAt: time.Now().UTC(),
		Games:     orderedmap.New[string, game.Output](),
	}
	ctx = observability.WithRunID(ctx, run.ID)
	ctx, span := f.opts.Tracer.Start(ctx, "sweep.run",
		"sweep.name", f.cfg.Name, "sweep.games", len(games), "sweep.run_id", run.ID)
	defer span.End()

	f.opts.Logger.InfoContext(ctx, "running games", "games", len(games), "parallelism", f.opts.Parallelism)

	outputs := make([]*game.Output, len(games))
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(f.opts.Parallelism)
	for i, g := range games {
		group.Go(func() error {
			id := GameID(i)
			if _, err := g.Run(observability.WithGameID(gctx, id)); err != nil {
				return fmt.Errorf("%s: %w", id, err)
			}
			out := g.Output()
			outputs[i] = &out
			return nil
		})
	}
	err := group.Wait()

	for i, out := range outputs {
		if out != nil {
			run.Games.Set(GameID(i), *out)
		}
	}
	if err != nil {
		observability.RecordError(span, err)
		f.opts.Logger.ErrorContext(ctx, "sweep failed", "finished", run.Games.Len(), "error", err)
		return run, err
	}
	f.opts.Logger.InfoContext(ctx, "sweep finished", "games", run.Games.Len())
	return run, nil
}

// CreateAndRunGames builds every game and runs them.
func (f *Factory) CreateAndRunGames(ctx context.Context) (*Run, error) {
	games, err := f.CreateGames()
	if err != nil {
		return nil, err
	}
	return f.RunGames(ctx, games)
}
