// Package prompt renders round prompts from game templates.
//
// A template mixes optional sections, written {name}:[body], with ordinary
// {placeholder} tokens. Sections are resolved first: each is either dropped
// or replaced by its body depending on the player, the opponents, the game
// settings and the phase. Placeholders are substituted afterwards, and any
// token left without a value fails the render.
package prompt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/haasonsaas/fairgame/internal/payoff"
)

// NoPersonality marks a participant without a personality.
const NoPersonality = "None"

// Phase selects which phase body a prompt keeps.
type Phase string

const (
	PhaseCommunicate Phase = "communicate"
	PhaseChoose      Phase = "choose"
)

// Participant is the view of an agent the renderer needs.
type Participant struct {
	Name                    string
	Personality             string
	OpponentPersonalityProb int
}

func (p Participant) hasPersonality() bool {
	return p.Personality != "" && p.Personality != NoPersonality
}

// Input carries everything a single render depends on.
type Input struct {
	Player    Participant
	Opponents []Participant

	// TeamID and Teammates are set in team mode only.
	TeamID    string
	Teammates []string

	Round       int
	Rounds      int
	RoundsKnown bool
	History     string
	Strategies  []string
	Weights     []float64
	Phase       Phase
}

// Render resolves the optional sections of tmpl for in and substitutes its placeholders.
func Render(tmpl string, in Input) (string, error) {
	if in.Phase != PhaseCommunicate && in.Phase != PhaseChoose {
		return "", fmt.Errorf("%w: unknown phase %q", ErrTemplate, in.Phase)
	}

	values := baseValues(in)
	sections := ParseSections(tmpl)
	keep := make(map[string]bool, len(sections))

	for _, s := range sections {
		switch s.Name {
		case SectionIntro:
			if in.Player.hasPersonality() {
				keep[s.Name] = true
				values["personality"] = in.Player.Personality
			}
		case SectionOpponentIntro:
			if anyDescribedOpponent(in.Opponents) {
				keep[s.Name] = true
				for i, opp := range in.Opponents {
					n := strconv.Itoa(i + 1)
					values["opponentPersonality"+n] = opp.Personality
					values["opponentPersonalityProbability"+n] = strconv.Itoa(opp.OpponentPersonalityProb)
				}
			}
		case SectionGameLength:
			if in.RoundsKnown {
				keep[s.Name] = true
				values["nRounds"] = strconv.Itoa(in.Rounds)
			}
		case SectionCommunicate:
			keep[s.Name] = in.Phase == PhaseCommunicate
		case SectionChoose:
			keep[s.Name] = in.Phase == PhaseChoose
		}
	}

	resolved := applySections(tmpl, sections, func(s Section) bool { return keep[s.Name] })
	return substitute(resolved, values)
}

func baseValues(in Input) map[string]string {
	values := map[string]string{
		"currentPlayerName": in.Player.Name,
		"currentRound":      strconv.Itoa(in.Round),
		"history":           in.History,
	}
	if in.TeamID != "" {
		values["teamId"] = in.TeamID
		values["teammates"] = strings.Join(in.Teammates, ", ")
	}
	for i, name := range in.Strategies {
		values["strategy"+strconv.Itoa(i+1)] = name
	}
	for i, w := range in.Weights {
		values["weight"+strconv.Itoa(i+1)] = payoff.FormatValue(w)
	}
	for i, opp := range in.Opponents {
		values["opponent"+strconv.Itoa(i+1)] = opp.Name
	}
	return values
}

// An opponent counts as described when it has a personality and a non-zero probability.
func anyDescribedOpponent(opponents []Participant) bool {
	for _, opp := range opponents {
		if opp.OpponentPersonalityProb != 0 && opp.hasPersonality() {
			return true
		}
	}
	return false
}
