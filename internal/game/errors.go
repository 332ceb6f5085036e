package game

import (
	"errors"
	"fmt"
)

var (
	// ErrUnresolvableDecision means no known strategy could be read from an
	// agent's responses within the attempt budget.
	ErrUnresolvableDecision = errors.New("unresolvable decision")
	// ErrTeamConfig means the team partition does not match the agents.
	ErrTeamConfig = errors.New("invalid team configuration")
	// ErrEmptyHistory means an agent has not recorded a strategy or score yet.
	ErrEmptyHistory = errors.New("agent history is empty")
	// ErrRoundFinalized means a write targeted a round that is already complete.
	ErrRoundFinalized = errors.New("round already finalized")

	errNoStrategyNamed = errors.New("response names no known strategy")
)

// DecisionError reports a decision that could not be resolved.
type DecisionError struct {
	Agent    string
	Service  string
	Round    int
	Attempts int
	Err      error
}

func (e *DecisionError) Error() string {
	reason := "service failed"
	if errors.Is(e.Err, errNoStrategyNamed) {
		reason = "no strategy"
	}
	return fmt.Sprintf("agent %s (%s) round %d: %s after %d attempts: %v",
		e.Agent, e.Service, e.Round, reason, e.Attempts, e.Err)
}

func (e *DecisionError) Unwrap() []error {
	return []error{ErrUnresolvableDecision, e.Err}
}
