package payoff

import (
	"fmt"
	"slices"
	"sort"
)

// Validate checks the structural invariants of a payoff declaration and
// returns one message per problem. languages lists the languages that must
// have strategies; participants is the expected combination length, or 0 to
// only require that every combination has the same length.
func Validate(data *Data, languages []string, participants int) []string {
	if data == nil {
		return []string{"payoffMatrix is missing"}
	}

	var issues []string
	add := func(format string, args ...any) {
		issues = append(issues, fmt.Sprintf(format, args...))
	}

	if data.Weights == nil || data.Weights.Len() == 0 {
		add("payoffMatrix.weights must not be empty")
	}
	if len(data.Strategies) == 0 {
		add("payoffMatrix.strategies must not be empty")
	}

	var reference []string
	var referenceLang string
	for _, lang := range sortedLanguages(data.Strategies) {
		table := data.Strategies[lang]
		if table == nil || table.Len() == 0 {
			add("payoffMatrix.strategies.%s must not be empty", lang)
			continue
		}
		keys := make([]string, 0, table.Len())
		seen := make(map[string]string, table.Len())
		for pair := table.Oldest(); pair != nil; pair = pair.Next() {
			keys = append(keys, pair.Key)
			if other, dup := seen[pair.Value]; dup {
				add("payoffMatrix.strategies.%s: %q and %q share the display name %q", lang, other, pair.Key, pair.Value)
			}
			seen[pair.Value] = pair.Key
		}
		if reference == nil {
			reference, referenceLang = keys, lang
		} else if !slices.Equal(reference, keys) {
			add("payoffMatrix.strategies.%s declares keys %v, want %v as in %s", lang, keys, reference, referenceLang)
		}
	}
	for _, lang := range languages {
		if _, ok := data.Strategies[lang]; !ok {
			add("payoffMatrix.strategies has no entry for language %q", lang)
		}
	}

	if data.Combinations == nil || data.Combinations.Len() == 0 {
		add("payoffMatrix.combinations must not be empty")
		return issues
	}

	size := participants
	seenCombos := make(map[string]string, data.Combinations.Len())
	for pair := data.Combinations.Oldest(); pair != nil; pair = pair.Next() {
		if size == 0 {
			size = len(pair.Value)
		}
		if len(pair.Value) != size {
			add("payoffMatrix.combinations.%s has %d strategies, want %d", pair.Key, len(pair.Value), size)
		}
		for _, key := range pair.Value {
			if reference != nil && !slices.Contains(reference, key) {
				add("payoffMatrix.combinations.%s references unknown strategy %q", pair.Key, key)
			}
		}
		sig := fmt.Sprint(pair.Value)
		if other, dup := seenCombos[sig]; dup {
			add("payoffMatrix.combinations.%s duplicates %s", pair.Key, other)
		}
		seenCombos[sig] = pair.Key

		if data.Matrix == nil {
			continue
		}
		labels, ok := data.Matrix.Get(pair.Key)
		if !ok {
			add("payoffMatrix.matrix has no entry for combination %s", pair.Key)
			continue
		}
		if len(labels) != len(pair.Value) {
			add("payoffMatrix.matrix.%s has %d weights, want %d", pair.Key, len(labels), len(pair.Value))
		}
		for _, label := range labels {
			if data.Weights == nil {
				break
			}
			if _, ok := data.Weights.Get(label); !ok {
				add("payoffMatrix.matrix.%s references unknown weight %q", pair.Key, label)
			}
		}
	}
	if data.Matrix == nil {
		add("payoffMatrix.matrix must not be empty")
	}

	return issues
}

func sortedLanguages(m map[string]*Table[string]) []string {
	langs := make([]string, 0, len(m))
	for lang := range m {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}
