package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func loadFixture(t *testing.T) *GameConfig {
	t.Helper()
	cfg, err := Load(filepath.Join("testdata", "prisoner_dilemma.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return cfg
}

func TestLoadKeepsDocumentOrder(t *testing.T) {
	cfg := loadFixture(t)

	var keys []string
	en := cfg.PayoffMatrix.Strategies["en"]
	for pair := en.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	if want := []string{"strategy2", "strategy1"}; !slices.Equal(keys, want) {
		t.Errorf("strategy order = %v, want %v", keys, want)
	}
	if cfg.Rounds != 3 || !cfg.RoundsKnown || cfg.LLM != "OpenAIGPT4o" || cfg.TeamTable() != nil {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadResolvesIncludesAndPairs(t *testing.T) {
	t.Setenv("FAIRGAME_TEST_LLM", "Claude35Sonnet")

	cfg, err := Load(filepath.Join("testdata", "pairs.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Name != "pairs" || cfg.Rounds != 2 || cfg.LLM != "Claude35Sonnet" {
		t.Errorf("merged cfg = name %q rounds %d llm %q", cfg.Name, cfg.Rounds, cfg.LLM)
	}
	if got := cfg.PromptTemplate["en"]; got != "You are {currentPlayerName}. Costs $5. {history}" {
		t.Errorf("template = %q", got)
	}

	combo, ok := cfg.PayoffMatrix.Combinations.Get("combination2")
	if !ok || !slices.Equal(combo, []string{"strategyA", "strategyB"}) {
		t.Errorf("combination2 = %v", combo)
	}
	row, ok := cfg.PayoffMatrix.Matrix.Get("combination2")
	if !ok || !slices.Equal(row, []string{"sucker", "temptation"}) {
		t.Errorf("matrix combination2 = %v", row)
	}
}

func TestLoadIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	_ = os.WriteFile(a, []byte("$include: b.yaml\n"), 0o600)
	_ = os.WriteFile(b, []byte("$include: a.yaml\n"), 0o600)

	if _, err := Load(a); err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("Load() error = %v, want include cycle", err)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	base, err := os.ReadFile(filepath.Join("testdata", "prisoner_dilemma.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"missing key", strings.Replace(string(base), "nRoundsIsKnown: true\n", "", 1), "nRoundsIsKnown"},
		{"wrong type", strings.Replace(string(base), "nRounds: 3", "nRounds: three", 1), "/nRounds"},
		{"unknown key", string(base) + "extra: true\n", "extra"},
		{"negative rounds", strings.Replace(string(base), "nRounds: 3", "nRounds: -1", 1), "/nRounds"},
		{"zero rounds", strings.Replace(string(base), "nRounds: 3", "nRounds: 0", 1), "/nRounds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "game.yaml", tt.body))
			var ve *ValidationError
			if !errors.As(err, &ve) || !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("Load() error = %v, want ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestParseRejectsInclude(t *testing.T) {
	_, err := Parse([]byte(`{"$include": "other.yaml"}`))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Parse() error = %v, want ErrInvalidConfig", err)
	}
}

func TestParseJSON(t *testing.T) {
	base, err := os.ReadFile(filepath.Join("testdata", "prisoner_dilemma.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Parse(base); err != nil {
		t.Fatalf("Parse(yaml) error = %v", err)
	}
	if _, err := Parse([]byte("[1, 2]")); err == nil {
		t.Error("Parse() accepted a list document")
	}
}

func TestTemplate(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "prisoner_dilemma_it.txt"), []byte("Sei {currentPlayerName}"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := loadFixture(t)

	got, err := cfg.Template(dir, "it")
	if err != nil || got != "Sei {currentPlayerName}" {
		t.Errorf("Template(it) = %q, %v", got, err)
	}
	if _, err := cfg.Template(dir, "en"); err == nil {
		t.Error("Template(en) error = nil for a missing file")
	}

	inline := &GameConfig{PromptTemplate: map[string]string{"en": "hi"}}
	if got, err := inline.Template("", "en"); err != nil || got != "hi" {
		t.Errorf("inline Template(en) = %q, %v", got, err)
	}
	if _, err := inline.Template("", "fr"); err == nil {
		t.Error("inline Template(fr) error = nil")
	}
}

func TestTemplateStaysInDirectory(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "templates")
	if err := os.Mkdir(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "secret_en.txt"), []byte("TOP SECRET"), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"../secret", "sub/secret", `..\secret`, "..", "/etc/secret"} {
		t.Run(name, func(t *testing.T) {
			cfg := loadFixture(t)
			cfg.TemplateFilename = name
			got, err := cfg.Template(dir, "en")
			if err == nil || got != "" {
				t.Fatalf("Template(%q) = %q, %v, want an error", name, got, err)
			}
			if !strings.Contains(strings.Join(Validate(cfg), "\n"), "templateFilename") {
				t.Errorf("Validate() accepted templateFilename %q", name)
			}
		})
	}
}

func TestJSONSchema(t *testing.T) {
	raw, err := JSONSchema()
	if err != nil {
		t.Fatalf("JSONSchema() error = %v", err)
	}
	for _, want := range []string{`"nRoundsIsKnown"`, `"payoffMatrix"`, `"opponentPersonalityProb"`, `"additionalProperties"`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("schema lacks %s", want)
		}
	}
	if _, err := compiled(); err != nil {
		t.Fatalf("compiled() error = %v", err)
	}
}
