package game

import (
	"fmt"

	"github.com/haasonsaas/fairgame/internal/payoff"
)

const (
	modeClassic = "classic"
	modeTeam    = "team"
)

// mode decides who plays against whom and how a round's picks are scored.
type mode interface {
	name() string
	opponents(a *Agent, agents []*Agent) []*Agent
	// score attributes payoffs for picks and returns the effective choice tuple.
	score(g *Game, round int, picks map[string]string) ([]string, error)
}

type classicMode struct{}

func (classicMode) name() string { return modeClassic }

func (classicMode) opponents(a *Agent, agents []*Agent) []*Agent {
	out := make([]*Agent, 0, max(len(agents)-1, 0))
	for _, other := range agents {
		if other != a {
			out = append(out, other)
		}
	}
	return out
}

func (classicMode) score(g *Game, _ int, picks map[string]string) ([]string, error) {
	keys := make([]string, 0, len(g.agents))
	recipients := make([]payoff.Recipient, 0, len(g.agents))
	for _, a := range g.agents {
		key, ok := picks[a.Name()]
		if !ok {
			return nil, fmt.Errorf("agent %s made no choice", a.Name())
		}
		keys = append(keys, key)
		recipients = append(recipients, a)
	}
	return keys, g.matrix.AttributeScores(recipients, keys)
}

type teamMode struct {
	order   []string
	members map[string][]string
}

func newTeamMode(teams *payoff.Table[[]string], agents []*Agent) (*teamMode, error) {
	if teams.Len() == 0 {
		return nil, fmt.Errorf("%w: no teams declared", ErrTeamConfig)
	}
	known := make(map[string]*Agent, len(agents))
	for _, a := range agents {
		known[a.Name()] = a
	}

	m := &teamMode{members: make(map[string][]string, teams.Len())}
	teamOf := make(map[string]string, len(agents))
	for pair := teams.Oldest(); pair != nil; pair = pair.Next() {
		m.order = append(m.order, pair.Key)
		for _, name := range pair.Value {
			if _, ok := known[name]; !ok {
				return nil, fmt.Errorf("%w: team %q lists unknown agent %q", ErrTeamConfig, pair.Key, name)
			}
			if other, dup := teamOf[name]; dup {
				return nil, fmt.Errorf("%w: agent %q is in teams %q and %q", ErrTeamConfig, name, other, pair.Key)
			}
			teamOf[name] = pair.Key
		}
		m.members[pair.Key] = append([]string(nil), pair.Value...)
	}

	for _, a := range agents {
		team, ok := teamOf[a.Name()]
		if !ok {
			return nil, fmt.Errorf("%w: agent %q has no team", ErrTeamConfig, a.Name())
		}
		switch a.TeamID() {
		case "":
			a.cfg.TeamID = team
		case team:
		default:
			return nil, fmt.Errorf("%w: agent %q declares team %q but is listed in %q", ErrTeamConfig, a.Name(), a.TeamID(), team)
		}
	}
	return m, nil
}

func (m *teamMode) name() string { return modeTeam }

func (m *teamMode) opponents(a *Agent, agents []*Agent) []*Agent {
	var out []*Agent
	for _, other := range agents {
		if other.TeamID() != a.TeamID() {
			out = append(out, other)
		}
	}
	return out
}

func (m *teamMode) teammates(a *Agent) []string {
	var out []string
	for _, name := range m.members[a.TeamID()] {
		if name != a.Name() {
			out = append(out, name)
		}
	}
	return out
}

func (m *teamMode) score(g *Game, round int, picks map[string]string) ([]string, error) {
	choices := make(map[string]string, len(m.order))
	effective := make([]string, 0, len(m.order))
	for _, team := range m.order {
		var votes []string
		for _, name := range m.members[team] {
			if key, ok := picks[name]; ok {
				votes = append(votes, key)
			}
		}
		choice := majorityVote(votes)
		if choice == "" {
			return nil, fmt.Errorf("%w: team %q cast no votes", ErrTeamConfig, team)
		}
		choices[team] = choice
		effective = append(effective, choice)
	}

	payoffs, err := g.matrix.TeamPayoffs(m.order, choices)
	if err != nil {
		return effective, err
	}

	for _, a := range g.agents {
		if a.TeamID() == "" {
			return effective, fmt.Errorf("%w: agent %q has no team", ErrTeamConfig, a.Name())
		}
		if _, ok := payoffs[a.TeamID()]; !ok {
			return effective, fmt.Errorf("%w: agent %q belongs to unknown team %q", ErrTeamConfig, a.Name(), a.TeamID())
		}
	}
	for _, a := range g.agents {
		a.AddScore(payoffs[a.TeamID()])
	}

	err = g.history.Update(round, TeamsKey, Entry{TeamStrategies: choices, TeamPayoffs: payoffs})
	return effective, err
}

// majorityVote returns the most frequent label. Ties go to the label that
// appeared first. It returns "" for no votes.
func majorityVote(votes []string) string {
	counts := make(map[string]int, len(votes))
	var order []string
	for _, v := range votes {
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	best, bestCount := "", 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}
