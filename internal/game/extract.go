package game

import (
	"strings"

	"github.com/haasonsaas/fairgame/internal/payoff"
)

// ExtractStrategy returns the first strategy key, in the matrix's strategy
// order, whose display name occurs in response. Matching ignores case. The
// position of the name inside the response does not matter.
func ExtractStrategy(m *payoff.Matrix, response string) (string, bool) {
	lowered := strings.ToLower(response)
	for _, key := range m.StrategyKeys() {
		name, _ := m.StrategyName(key)
		if name == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(name)) {
			return key, true
		}
	}
	return "", false
}
