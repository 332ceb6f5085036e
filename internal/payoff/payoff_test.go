package payoff

import (
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

const prisonersDilemma = `
weights:
  reward: 3
  sucker: 0
  temptation: 5
  punishment: 1
strategies:
  en:
    strategyB: Defect
    strategyA: Cooperate
  it:
    strategyB: Tradisci
    strategyA: Coopera
combinations:
  combination1: [strategyA, strategyA]
  combination2: [strategyA, strategyB]
  combination3: [strategyB, strategyA]
  combination4: [strategyB, strategyB]
matrix:
  combination1: [reward, reward]
  combination2: [sucker, temptation]
  combination3: [temptation, sucker]
  combination4: [punishment, punishment]
`

func loadData(t *testing.T, doc string) *Data {
	t.Helper()
	var data Data
	if err := yaml.Unmarshal([]byte(doc), &data); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	return &data
}

func newMatrix(t *testing.T, lang string) *Matrix {
	t.Helper()
	m, err := New(loadData(t, prisonersDilemma), lang)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m
}

type recipient struct{ scores []float64 }

func (r *recipient) AddScore(v float64) { r.scores = append(r.scores, v) }

func TestDocumentOrderKept(t *testing.T) {
	m := newMatrix(t, "en")

	if got, want := m.StrategyKeys(), []string{"strategyB", "strategyA"}; !slices.Equal(got, want) {
		t.Errorf("StrategyKeys() = %v, want %v", got, want)
	}
	if got, want := m.StrategyNames(), []string{"Defect", "Cooperate"}; !slices.Equal(got, want) {
		t.Errorf("StrategyNames() = %v, want %v", got, want)
	}
	if got, want := m.WeightLabels(), []string{"reward", "sucker", "temptation", "punishment"}; !slices.Equal(got, want) {
		t.Errorf("WeightLabels() = %v, want %v", got, want)
	}
	if got, want := m.Weights(), []float64{3, 0, 5, 1}; !slices.Equal(got, want) {
		t.Errorf("Weights() = %v, want %v", got, want)
	}
}

func TestStrategyLookups(t *testing.T) {
	m := newMatrix(t, "it")
	if name, ok := m.StrategyName("strategyA"); !ok || name != "Coopera" {
		t.Errorf("StrategyName(strategyA) = %q, %v", name, ok)
	}
	if key, ok := m.StrategyKey("Tradisci"); !ok || key != "strategyB" {
		t.Errorf("StrategyKey(Tradisci) = %q, %v", key, ok)
	}
	if _, ok := m.StrategyKey("Defect"); ok {
		t.Error("StrategyKey(Defect) found an English name in the Italian table")
	}
}

func TestCombinationKey(t *testing.T) {
	m := newMatrix(t, "en")
	tests := []struct {
		keys    []string
		want    string
		wantErr bool
	}{
		{[]string{"strategyA", "strategyA"}, "combination1", false},
		{[]string{"strategyA", "strategyB"}, "combination2", false},
		{[]string{"strategyB", "strategyA"}, "combination3", false},
		{[]string{"strategyB"}, "", true},
		{[]string{"strategyC", "strategyA"}, "", true},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.keys, "_"), func(t *testing.T) {
			got, err := m.CombinationKey(tt.keys)
			if tt.wantErr {
				if !errors.Is(err, ErrNoMatchingCombination) {
					t.Fatalf("CombinationKey() error = %v, want ErrNoMatchingCombination", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("CombinationKey() = %q, %v, want %q", got, err, tt.want)
			}
		})
	}
}

func TestWeightsForCombination(t *testing.T) {
	m := newMatrix(t, "en")

	got, err := m.WeightsForCombination([]string{"Cooperate", "Defect"})
	if err != nil {
		t.Fatalf("WeightsForCombination() error = %v", err)
	}
	if want := []float64{0, 5}; !slices.Equal(got, want) {
		t.Errorf("WeightsForCombination() = %v, want %v", got, want)
	}

	if _, err := m.WeightsForCombination([]string{"Cooperate", "Betray"}); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("WeightsForCombination(unknown) error = %v, want ErrUnknownStrategy", err)
	}
}

func TestAttributeScores(t *testing.T) {
	m := newMatrix(t, "en")
	a, b := &recipient{}, &recipient{}

	if err := m.AttributeScores([]Recipient{a, b}, []string{"strategyB", "strategyA"}); err != nil {
		t.Fatalf("AttributeScores() error = %v", err)
	}
	if !slices.Equal(a.scores, []float64{5}) || !slices.Equal(b.scores, []float64{0}) {
		t.Errorf("scores = %v, %v, want [5], [0]", a.scores, b.scores)
	}

	c := &recipient{}
	err := m.AttributeScores([]Recipient{a, b, c}, []string{"strategyA", "strategyA"})
	if !errors.Is(err, ErrWeightCountMismatch) {
		t.Fatalf("AttributeScores(3 recipients) error = %v, want ErrWeightCountMismatch", err)
	}
	if len(a.scores) != 1 || len(c.scores) != 0 {
		t.Error("AttributeScores() attributed scores despite a count mismatch")
	}

	if err := m.AttributeScores([]Recipient{a, b}, []string{"strategyA"}); !errors.Is(err, ErrNoMatchingCombination) {
		t.Errorf("AttributeScores(short) error = %v, want ErrNoMatchingCombination", err)
	}
}

func TestTeamPayoffs(t *testing.T) {
	m := newMatrix(t, "en")
	got, err := m.TeamPayoffs([]string{"red", "blue"}, map[string]string{"red": "strategyA", "blue": "strategyB"})
	if err != nil {
		t.Fatalf("TeamPayoffs() error = %v", err)
	}
	if got["red"] != 0 || got["blue"] != 5 {
		t.Errorf("TeamPayoffs() = %v, want red 0 blue 5", got)
	}

	if _, err := m.TeamPayoffs([]string{"red", "blue"}, map[string]string{"red": "strategyA"}); err == nil {
		t.Error("TeamPayoffs() with a missing team choice succeeded")
	}
}

func TestNewUnknownLanguage(t *testing.T) {
	if _, err := New(loadData(t, prisonersDilemma), "fr"); !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("New(fr) error = %v, want ErrUnknownLanguage", err)
	}
}

func TestJSONRoundTripKeepsOrder(t *testing.T) {
	data := loadData(t, prisonersDilemma)
	encoded, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("json.Marshal() error = %v", err)
	}
	if !strings.Contains(string(encoded), `"strategies":{"en":{"strategyB":"Defect","strategyA":"Cooperate"}`) {
		t.Errorf("json.Marshal() lost strategy order: %s", encoded)
	}
}

func TestFormatValue(t *testing.T) {
	tests := map[float64]string{3: "3", 0: "0", -1: "-1", 2.5: "2.5"}
	for in, want := range tests {
		if got := FormatValue(in); got != want {
			t.Errorf("FormatValue(%v) = %q, want %q", in, got, want)
		}
	}
}
