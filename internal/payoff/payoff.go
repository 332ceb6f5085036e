// Package payoff maps strategy combinations to per-participant payoffs.
//
// A payoff matrix is made of four ordered tables:
//
//   - weights: label to numeric payoff, e.g. "reward": 3
//   - strategies: per language, strategy key to display name, e.g. "strategyA": "Cooperate"
//   - combinations: combination key to an ordered list of strategy keys, one per participant
//   - matrix: combination key to an ordered list of weight labels, one per participant
//
// Document order is kept for every table. It decides the strategy{i} and
// weight{i} numbering in prompts and the matching order when decisions are
// extracted from free text.
package payoff

import (
	"errors"
	"fmt"
	"slices"
	"strconv"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

var (
	// ErrNoMatchingCombination means a list of strategy keys matches no declared combination.
	ErrNoMatchingCombination = errors.New("no matching strategy combination")
	// ErrUnknownStrategy means a display name or key is not declared for the language.
	ErrUnknownStrategy = errors.New("unknown strategy")
	// ErrUnknownWeight means the matrix references an undeclared weight label.
	ErrUnknownWeight = errors.New("unknown weight label")
	// ErrWeightCountMismatch means the payoff list does not line up with its recipients.
	ErrWeightCountMismatch = errors.New("weight count does not match recipients")
	// ErrUnknownLanguage means no strategies are declared for the requested language.
	ErrUnknownLanguage = errors.New("no strategies declared for language")
)

// Table is an insertion ordered string keyed map.
type Table[V any] = orderedmap.OrderedMap[string, V]

// NewTable returns an empty ordered table.
func NewTable[V any]() *Table[V] {
	return orderedmap.New[string, V]()
}

// Data is the declarative payoff matrix as it appears in a game configuration.
type Data struct {
	Weights      *Table[float64]           `json:"weights" yaml:"weights"`
	Strategies   map[string]*Table[string] `json:"strategies" yaml:"strategies"`
	Combinations *Table[[]string]          `json:"combinations" yaml:"combinations"`
	Matrix       *Table[[]string]          `json:"matrix" yaml:"matrix"`
}

// Recipient receives a payoff.
type Recipient interface {
	AddScore(value float64)
}

// Matrix is a payoff matrix bound to one language.
type Matrix struct {
	data       *Data
	language   string
	strategies *Table[string]
	keyByName  map[string]string
}

// New binds data to a language.
func New(data *Data, language string) (*Matrix, error) {
	if data == nil {
		return nil, errors.New("payoff data is nil")
	}
	strategies, ok := data.Strategies[language]
	if !ok || strategies == nil || strategies.Len() == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, language)
	}
	if data.Combinations == nil || data.Matrix == nil || data.Weights == nil {
		return nil, errors.New("payoff data is missing weights, combinations or matrix")
	}

	keyByName := make(map[string]string, strategies.Len())
	for pair := strategies.Oldest(); pair != nil; pair = pair.Next() {
		keyByName[pair.Value] = pair.Key
	}

	return &Matrix{
		data:       data,
		language:   language,
		strategies: strategies,
		keyByName:  keyByName,
	}, nil
}

// Language returns the bound language.
func (m *Matrix) Language() string { return m.language }

// Data returns the underlying declaration.
func (m *Matrix) Data() *Data { return m.data }

// StrategyKeys returns the strategy keys in document order.
func (m *Matrix) StrategyKeys() []string {
	keys := make([]string, 0, m.strategies.Len())
	for pair := m.strategies.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// StrategyNames returns the display names in document order.
func (m *Matrix) StrategyNames() []string {
	names := make([]string, 0, m.strategies.Len())
	for pair := m.strategies.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Value)
	}
	return names
}

// StrategyName returns the display name for a key.
func (m *Matrix) StrategyName(key string) (string, bool) {
	return m.strategies.Get(key)
}

// StrategyKey returns the key for a display name.
func (m *Matrix) StrategyKey(name string) (string, bool) {
	key, ok := m.keyByName[name]
	return key, ok
}

// WeightLabels returns the weight labels in document order.
func (m *Matrix) WeightLabels() []string {
	labels := make([]string, 0, m.data.Weights.Len())
	for pair := m.data.Weights.Oldest(); pair != nil; pair = pair.Next() {
		labels = append(labels, pair.Key)
	}
	return labels
}

// Weights returns the weight values in document order.
func (m *Matrix) Weights() []float64 {
	values := make([]float64, 0, m.data.Weights.Len())
	for pair := m.data.Weights.Oldest(); pair != nil; pair = pair.Next() {
		values = append(values, pair.Value)
	}
	return values
}

// CombinationKey returns the key of the combination equal to keys,
// element by element and in order.
func (m *Matrix) CombinationKey(keys []string) (string, error) {
	for pair := m.data.Combinations.Oldest(); pair != nil; pair = pair.Next() {
		if slices.Equal(pair.Value, keys) {
			return pair.Key, nil
		}
	}
	return "", fmt.Errorf("%w: %v", ErrNoMatchingCombination, keys)
}

// Payoffs returns the numeric payoff per participant for a list of strategy keys.
func (m *Matrix) Payoffs(keys []string) ([]float64, error) {
	combination, err := m.CombinationKey(keys)
	if err != nil {
		return nil, err
	}
	labels, ok := m.data.Matrix.Get(combination)
	if !ok {
		return nil, fmt.Errorf("%w: %q has no matrix entry", ErrNoMatchingCombination, combination)
	}

	values := make([]float64, 0, len(labels))
	for _, label := range labels {
		value, ok := m.data.Weights.Get(label)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownWeight, label)
		}
		values = append(values, value)
	}
	return values, nil
}

// WeightsForCombination is Payoffs for a list of display names.
func (m *Matrix) WeightsForCombination(names []string) ([]float64, error) {
	keys := make([]string, 0, len(names))
	for _, name := range names {
		key, ok := m.keyByName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q in language %q", ErrUnknownStrategy, name, m.language)
		}
		keys = append(keys, key)
	}
	return m.Payoffs(keys)
}

// AttributeScores gives recipients[i] the i-th payoff of the combination
// matching keys. Nothing is attributed when the payoff count differs from
// the recipient count.
func (m *Matrix) AttributeScores(recipients []Recipient, keys []string) error {
	values, err := m.Payoffs(keys)
	if err != nil {
		return err
	}
	if len(values) != len(recipients) {
		return fmt.Errorf("%w: %d payoffs for %d recipients", ErrWeightCountMismatch, len(values), len(recipients))
	}
	for i, r := range recipients {
		r.AddScore(values[i])
	}
	return nil
}

// TeamPayoffs returns the payoff per team. choices holds one strategy key per
// team and order fixes the position of each team in the combination.
func (m *Matrix) TeamPayoffs(order []string, choices map[string]string) (map[string]float64, error) {
	keys := make([]string, 0, len(order))
	for _, team := range order {
		key, ok := choices[team]
		if !ok {
			return nil, fmt.Errorf("team %q has no choice", team)
		}
		keys = append(keys, key)
	}

	values, err := m.Payoffs(keys)
	if err != nil {
		return nil, err
	}
	if len(values) != len(order) {
		return nil, fmt.Errorf("%w: %d payoffs for %d teams", ErrWeightCountMismatch, len(values), len(order))
	}

	payoffs := make(map[string]float64, len(order))
	for i, team := range order {
		payoffs[team] = values[i]
	}
	return payoffs, nil
}

// FormatValue renders a payoff without a trailing fractional part when it is whole.
func FormatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
