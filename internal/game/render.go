package game

import (
	"fmt"
	"strings"

	"github.com/haasonsaas/fairgame/internal/payoff"
)

// NoHistory is the history text shown before anything worth showing has been recorded.
const NoHistory = "No rounds have been played yet."

// renderHistory formats everything recorded so far, including messages
// already exchanged in the current round. Rounds with nothing to show yet
// are skipped.
func (g *Game) renderHistory() string {
	var blocks []string
	for _, n := range g.history.Rounds() {
		var lines []string
		for _, r := range g.history.Round(n) {
			if r.Key == TeamsKey {
				lines = append(lines, g.teamLines(r.Entry)...)
				continue
			}
			if r.Message != nil {
				lines = append(lines, fmt.Sprintf("- %s said: %q", r.Key, *r.Message))
			}
			if r.Strategy != nil && r.Score != nil {
				lines = append(lines, fmt.Sprintf("- %s chose %s and scored %s", r.Key, *r.Strategy, payoff.FormatValue(*r.Score)))
			}
		}
		if len(lines) > 0 {
			blocks = append(blocks, fmt.Sprintf("Round %d:\n%s", n, strings.Join(lines, "\n")))
		}
	}
	if len(blocks) == 0 {
		return NoHistory
	}
	return strings.Join(blocks, "\n")
}

func (g *Game) teamLines(e Entry) []string {
	tm, ok := g.mode.(*teamMode)
	if !ok {
		return nil
	}
	var lines []string
	for _, team := range tm.order {
		key, ok := e.TeamStrategies[team]
		if !ok {
			continue
		}
		name, _ := g.matrix.StrategyName(key)
		lines = append(lines, fmt.Sprintf("- team %s played %s and scored %s", team, name, payoff.FormatValue(e.TeamPayoffs[team])))
	}
	return lines
}
