// Package results flattens game outputs into one row per game and writes
// those rows to files, a SQL database or an S3 bucket.
package results

import (
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/haasonsaas/fairgame/internal/game"
)

// AgentData is one agent's static info and per-round outcomes.
type AgentData struct {
	Name                  string    `json:"name"`
	LLM                   string    `json:"llm"`
	Personality           string    `json:"personality"`
	KnowsOpponentWithProb int       `json:"knows_opponent_with_prob"`
	TeamID                string    `json:"team_id,omitempty"`
	Strategies            []string  `json:"strategies"`
	Scores                []float64 `json:"scores"`
	Messages              []string  `json:"messages"`
}

// GameData is the flat summary of one game.
type GameData struct {
	GameID            string      `json:"game_id"`
	Language          string      `json:"language"`
	RoundsKnown       bool        `json:"n_rounds_is_known"`
	MaxRounds         int         `json:"max_rounds"`
	PlayedRounds      int         `json:"played_rounds"`
	AgentsCommunicate bool        `json:"agents_communicate"`
	Agents            []AgentData `json:"agents"`
}

// Process summarizes every game in games, keeping their order.
func Process(games *orderedmap.OrderedMap[string, game.Output]) []GameData {
	if games == nil {
		return nil
	}
	out := make([]GameData, 0, games.Len())
	for pair := games.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, processGame(pair.Key, pair.Value))
	}
	return out
}

func processGame(id string, o game.Output) GameData {
	d := o.Description
	data := GameData{
		GameID:            id,
		Language:          d.Language,
		RoundsKnown:       d.RoundsKnown,
		MaxRounds:         d.Rounds,
		AgentsCommunicate: d.AgentsCommunicate,
	}
	if d.Agents == nil {
		return data
	}

	for pair := d.Agents.Oldest(); pair != nil; pair = pair.Next() {
		info := pair.Value
		agent := AgentData{
			Name:                  info.Name,
			LLM:                   info.LLMService,
			Personality:           info.Personality,
			KnowsOpponentWithProb: info.OpponentPersonalityProb,
			TeamID:                info.TeamID,
			Strategies:            []string{},
			Scores:                []float64{},
			Messages:              []string{},
		}
		collectRounds(&agent, o.History, d.AgentsCommunicate)
		data.PlayedRounds = max(data.PlayedRounds, len(agent.Strategies))
		data.Agents = append(data.Agents, agent)
	}
	return data
}

func collectRounds(agent *AgentData, history *orderedmap.OrderedMap[string, []game.Row], communicate bool) {
	if history == nil {
		return
	}
	for round := history.Oldest(); round != nil; round = round.Next() {
		for _, row := range round.Value {
			if row.Agent != agent.Name || row.Strategy == nil {
				continue
			}
			agent.Strategies = append(agent.Strategies, *row.Strategy)
			var score float64
			if row.Score != nil {
				score = *row.Score
			}
			agent.Scores = append(agent.Scores, score)
			if communicate {
				var msg string
				if row.Message != nil {
					msg = *row.Message
				}
				agent.Messages = append(agent.Messages, msg)
			}
		}
	}
}

// Row returns the flat column view of d: game level columns followed by
// agent{i}_ columns for each agent.
func (d GameData) Row() *orderedmap.OrderedMap[string, any] {
	row := orderedmap.New[string, any]()
	row.Set("game_id", d.GameID)
	row.Set("language", d.Language)
	row.Set("n_rounds_is_known", d.RoundsKnown)
	row.Set("max_rounds", d.MaxRounds)
	row.Set("played_rounds", d.PlayedRounds)
	row.Set("agents_communicate", d.AgentsCommunicate)
	for i, a := range d.Agents {
		prefix := "agent" + strconv.Itoa(i+1) + "_"
		row.Set(prefix+"name", a.Name)
		row.Set(prefix+"llm", a.LLM)
		row.Set(prefix+"personality", a.Personality)
		row.Set(prefix+"knows_opponent_with_prob", a.KnowsOpponentWithProb)
		var team any
		if a.TeamID != "" {
			team = a.TeamID
		}
		row.Set(prefix+"teamId", team)
		row.Set(prefix+"strategies", a.Strategies)
		row.Set(prefix+"scores", a.Scores)
		row.Set(prefix+"messages", a.Messages)
	}
	return row
}

// Table indexes the rows of games by position, as "0", "1", ...
func Table(games []GameData) *orderedmap.OrderedMap[string, *orderedmap.OrderedMap[string, any]] {
	table := orderedmap.New[string, *orderedmap.OrderedMap[string, any]]()
	for i, g := range games {
		table.Set(strconv.Itoa(i), g.Row())
	}
	return table
}
