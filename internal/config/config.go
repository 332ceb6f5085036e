// Package config loads and validates game configuration files and the
// runtime settings read from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/haasonsaas/fairgame/internal/payoff"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid game configuration")

// ValidationError lists every problem found in a configuration.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(e.Issues, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidConfig }

// GameConfig describes a family of games sharing a payoff matrix and a prompt template.
type GameConfig struct {
	Name                 string   `yaml:"name" json:"name"`
	Rounds               int      `yaml:"nRounds" json:"nRounds" jsonschema:"minimum=1"`
	RoundsKnown          bool     `yaml:"nRoundsIsKnown" json:"nRoundsIsKnown"`
	LLM                  string   `yaml:"llm" json:"llm"`
	Languages            []string `yaml:"languages" json:"languages" jsonschema:"minItems=1"`
	AllAgentPermutations bool     `yaml:"allAgentPermutations" json:"allAgentPermutations"`
	AgentsCommunicate    bool     `yaml:"agentsCommunicate" json:"agentsCommunicate"`
	StopGameWhen         []string `yaml:"stopGameWhen" json:"stopGameWhen"`

	Agents AgentsConfig `yaml:"agents" json:"agents"`
	// Teams maps team IDs to agent names. Absent for classic games.
	Teams *payoff.Table[[]string] `yaml:"teams,omitempty" json:"teams,omitempty"`

	PayoffMatrix payoff.Data `yaml:"payoffMatrix" json:"payoffMatrix"`

	// PromptTemplate maps languages to template text. Exactly one of
	// PromptTemplate and TemplateFilename is set.
	PromptTemplate   map[string]string `yaml:"promptTemplate,omitempty" json:"promptTemplate,omitempty"`
	TemplateFilename string            `yaml:"templateFilename,omitempty" json:"templateFilename,omitempty"`
}

// AgentsConfig lists the agents and the values swept over them.
type AgentsConfig struct {
	Names []string `yaml:"names" json:"names" jsonschema:"minItems=1"`
	// Personalities maps each language to personality texts.
	Personalities map[string][]string `yaml:"personalities" json:"personalities"`
	// OpponentPersonalityProb holds percentages between 0 and 100.
	OpponentPersonalityProb []int `yaml:"opponentPersonalityProb" json:"opponentPersonalityProb"`
	// Teams is accepted here as well as at the top level.
	Teams *payoff.Table[[]string] `yaml:"teams,omitempty" json:"teams,omitempty"`
}

// TeamTable returns the team partition, or nil for a classic game.
func (c *GameConfig) TeamTable() *payoff.Table[[]string] {
	if c.Teams != nil {
		return c.Teams
	}
	return c.Agents.Teams
}

// Template returns the prompt template for lang. A templateFilename
// resolves to <dir>/<templateFilename>_<lang>.txt.
func (c *GameConfig) Template(dir, lang string) (string, error) {
	if c.PromptTemplate != nil {
		tmpl, ok := c.PromptTemplate[lang]
		if !ok {
			return "", fmt.Errorf("no prompt template for language %q", lang)
		}
		return tmpl, nil
	}
	if c.TemplateFilename == "" {
		return "", errors.New("no prompt template configured")
	}
	file := fmt.Sprintf("%s_%s.txt", c.TemplateFilename, lang)
	if !isPlainTemplateName(c.TemplateFilename) || filepath.Base(file) != file {
		return "", fmt.Errorf("template file %q escapes the templates directory", file)
	}
	path := filepath.Join(dir, file)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read prompt template: %w", err)
	}
	return string(data), nil
}

// isPlainTemplateName reports whether name is a single path element.
func isPlainTemplateName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && filepath.Base(name) == name
}
