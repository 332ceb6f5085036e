package config

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"

	"github.com/haasonsaas/fairgame/internal/payoff"
	"github.com/haasonsaas/fairgame/internal/providers"
)

// Validate returns every semantic problem in cfg. An empty result means the
// configuration can produce games.
func Validate(cfg *GameConfig) []string {
	var issues []string
	add := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	if strings.TrimSpace(cfg.Name) == "" {
		add("name must not be empty")
	}
	if cfg.Rounds < 1 {
		add("nRounds must be positive")
	}
	if _, err := providers.Lookup(cfg.LLM); err != nil {
		add("llm: %v", err)
	}

	if len(cfg.Languages) == 0 {
		add("languages must not be empty")
	}
	seenLang := map[string]bool{}
	for _, lang := range cfg.Languages {
		if _, err := language.Parse(lang); err != nil {
			add("languages: %q is not a valid language tag", lang)
		}
		if seenLang[lang] {
			add("languages: %q is listed twice", lang)
		}
		seenLang[lang] = true
	}

	issues = append(issues, validateAgents(cfg)...)
	issues = append(issues, validateTeams(cfg)...)
	issues = append(issues, validateTemplate(cfg)...)

	participants := len(cfg.Agents.Names)
	if teams := cfg.TeamTable(); teams != nil {
		participants = teams.Len()
	}
	for _, issue := range payoff.Validate(&cfg.PayoffMatrix, cfg.Languages, participants) {
		add("payoffMatrix: %s", issue)
	}

	for _, key := range cfg.StopGameWhen {
		if cfg.PayoffMatrix.Combinations == nil {
			break
		}
		if _, ok := cfg.PayoffMatrix.Combinations.Get(key); !ok {
			add("stopGameWhen: unknown combination %q", key)
		}
	}
	return issues
}

func validateAgents(cfg *GameConfig) []string {
	var issues []string
	agents := cfg.Agents
	n := len(agents.Names)

	if n < 2 {
		issues = append(issues, "agents: at least 2 agents are required")
	}
	seen := map[string]bool{}
	for _, name := range agents.Names {
		switch {
		case strings.TrimSpace(name) == "":
			issues = append(issues, "agents.names: empty agent name")
		case seen[name]:
			issues = append(issues, fmt.Sprintf("agents.names: %q is listed twice", name))
		}
		seen[name] = true
	}

	for _, p := range agents.OpponentPersonalityProb {
		if p < 0 || p > 100 {
			issues = append(issues, fmt.Sprintf("agents.opponentPersonalityProb: %d is outside 0..100", p))
		}
	}

	for _, lang := range cfg.Languages {
		personalities, ok := agents.Personalities[lang]
		switch {
		case !ok:
			issues = append(issues, fmt.Sprintf("agents.personalities: missing language %q", lang))
		case len(personalities) == 0:
			issues = append(issues, fmt.Sprintf("agents.personalities.%s: must not be empty", lang))
		case !cfg.AllAgentPermutations && len(personalities) != n:
			issues = append(issues, fmt.Sprintf("agents.personalities.%s: has %d entries for %d agents", lang, len(personalities), n))
		}
	}

	switch probs := len(agents.OpponentPersonalityProb); {
	case probs == 0:
		issues = append(issues, "agents.opponentPersonalityProb: must not be empty")
	case !cfg.AllAgentPermutations && probs != n:
		issues = append(issues, fmt.Sprintf("agents.opponentPersonalityProb: has %d entries for %d agents", probs, n))
	}
	return issues
}

func validateTeams(cfg *GameConfig) []string {
	if cfg.Teams != nil && cfg.Agents.Teams != nil {
		return []string{"teams: declared both at the top level and under agents"}
	}
	teams := cfg.TeamTable()
	if teams == nil {
		return nil
	}

	var issues []string
	if teams.Len() == 0 {
		issues = append(issues, "teams: at least one team is required")
	}
	known := map[string]bool{}
	for _, name := range cfg.Agents.Names {
		known[name] = true
	}
	teamOf := map[string]string{}
	for pair := teams.Oldest(); pair != nil; pair = pair.Next() {
		if strings.TrimSpace(pair.Key) == "" {
			issues = append(issues, "teams: empty team id")
		}
		if len(pair.Value) == 0 {
			issues = append(issues, fmt.Sprintf("teams.%s: has no members", pair.Key))
		}
		for _, member := range pair.Value {
			if !known[member] {
				issues = append(issues, fmt.Sprintf("teams.%s: unknown agent %q", pair.Key, member))
			}
			if other, dup := teamOf[member]; dup {
				issues = append(issues, fmt.Sprintf("teams: agent %q is in %q and %q", member, other, pair.Key))
			}
			teamOf[member] = pair.Key
		}
	}
	for _, name := range cfg.Agents.Names {
		if _, ok := teamOf[name]; !ok {
			issues = append(issues, fmt.Sprintf("teams: agent %q has no team", name))
		}
	}
	return issues
}

func validateTemplate(cfg *GameConfig) []string {
	hasInline := cfg.PromptTemplate != nil
	hasFile := cfg.TemplateFilename != ""
	if hasInline == hasFile {
		return []string{"exactly one of promptTemplate and templateFilename must be set"}
	}
	var issues []string
	if hasFile && !isPlainTemplateName(cfg.TemplateFilename) {
		issues = append(issues, fmt.Sprintf("templateFilename: %q must be a bare name inside the templates directory", cfg.TemplateFilename))
	}
	if hasInline {
		for _, lang := range cfg.Languages {
			if strings.TrimSpace(cfg.PromptTemplate[lang]) == "" {
				issues = append(issues, fmt.Sprintf("promptTemplate: missing language %q", lang))
			}
		}
	}
	return issues
}
