package game

import (
	"fmt"
	"maps"
	"sort"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// TeamsKey is the reserved history key holding team level outcomes.
const TeamsKey = "__teams__"

// Entry is one agent's record for one round. Nil fields are unset.
type Entry struct {
	MessagePrompt  *string
	Message        *string
	ChoicePrompt   *string
	Strategy       *string
	Score          *float64
	TeamStrategies map[string]string
	TeamPayoffs    map[string]float64
}

func (e *Entry) merge(u Entry) {
	if u.MessagePrompt != nil {
		e.MessagePrompt = u.MessagePrompt
	}
	if u.Message != nil {
		e.Message = u.Message
	}
	if u.ChoicePrompt != nil {
		e.ChoicePrompt = u.ChoicePrompt
	}
	if u.Strategy != nil {
		e.Strategy = u.Strategy
	}
	if u.Score != nil {
		e.Score = u.Score
	}
	if u.TeamStrategies != nil {
		e.TeamStrategies = maps.Clone(u.TeamStrategies)
	}
	if u.TeamPayoffs != nil {
		e.TeamPayoffs = maps.Clone(u.TeamPayoffs)
	}
}

// Record pairs an entry with its key.
type Record struct {
	Key string
	Entry
}

// Row is the exported form of a record.
type Row struct {
	Agent          string             `json:"agent"`
	Message        *string            `json:"message"`
	MessagePrompt  *string            `json:"message_prompt"`
	ChoicePrompt   *string            `json:"choice_prompt"`
	Strategy       *string            `json:"strategy"`
	Score          *float64           `json:"score"`
	TeamStrategies map[string]string  `json:"team_strategies,omitempty"`
	TeamPayoffs    map[string]float64 `json:"team_payoffs,omitempty"`
}

type ledger struct {
	order   []string
	entries map[string]*Entry
	final   bool
}

// History is the per-round ledger of a game. Updates to a round/key pair
// merge into the existing entry. A finalized round rejects further updates.
type History struct {
	rounds map[int]*ledger
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{rounds: make(map[int]*ledger)}
}

// Update merges e into the entry for key in round.
func (h *History) Update(round int, key string, e Entry) error {
	l, ok := h.rounds[round]
	if !ok {
		l = &ledger{entries: make(map[string]*Entry)}
		h.rounds[round] = l
	}
	if l.final {
		return fmt.Errorf("%w: round %d", ErrRoundFinalized, round)
	}
	existing, ok := l.entries[key]
	if !ok {
		existing = &Entry{}
		l.entries[key] = existing
		l.order = append(l.order, key)
	}
	existing.merge(e)
	return nil
}

// Finalize closes round to further updates.
func (h *History) Finalize(round int) {
	if l, ok := h.rounds[round]; ok {
		l.final = true
	}
}

// Finalized reports whether round is closed.
func (h *History) Finalized(round int) bool {
	l, ok := h.rounds[round]
	return ok && l.final
}

// Rounds returns the recorded round numbers in ascending order.
func (h *History) Rounds() []int {
	rounds := make([]int, 0, len(h.rounds))
	for n := range h.rounds {
		rounds = append(rounds, n)
	}
	sort.Ints(rounds)
	return rounds
}

// Len returns the number of recorded rounds.
func (h *History) Len() int { return len(h.rounds) }

// Round returns the records of round in insertion order.
func (h *History) Round(round int) []Record {
	l, ok := h.rounds[round]
	if !ok {
		return nil
	}
	records := make([]Record, 0, len(l.order))
	for _, key := range l.order {
		e := *l.entries[key]
		e.TeamStrategies = maps.Clone(e.TeamStrategies)
		e.TeamPayoffs = maps.Clone(e.TeamPayoffs)
		records = append(records, Record{Key: key, Entry: e})
	}
	return records
}

// LastRoundChoices maps each agent to the strategy it chose in the latest
// recorded round. It returns nil when nothing has been recorded.
func (h *History) LastRoundChoices() map[string]string {
	rounds := h.Rounds()
	if len(rounds) == 0 {
		return nil
	}
	choices := make(map[string]string)
	for _, r := range h.Round(rounds[len(rounds)-1]) {
		if r.Strategy != nil {
			choices[r.Key] = *r.Strategy
		}
	}
	return choices
}

// RoundKey names a round the way exported histories do.
func RoundKey(round int) string {
	return fmt.Sprintf("round_%d", round)
}

// Describe exports the history as round_N keys, ascending, to rows in insertion order.
func (h *History) Describe() *orderedmap.OrderedMap[string, []Row] {
	out := orderedmap.New[string, []Row]()
	for _, n := range h.Rounds() {
		records := h.Round(n)
		rows := make([]Row, 0, len(records))
		for _, r := range records {
			rows = append(rows, Row{
				Agent:          r.Key,
				Message:        r.Message,
				MessagePrompt:  r.MessagePrompt,
				ChoicePrompt:   r.ChoicePrompt,
				Strategy:       r.Strategy,
				Score:          r.Score,
				TeamStrategies: r.TeamStrategies,
				TeamPayoffs:    r.TeamPayoffs,
			})
		}
		out.Set(RoundKey(n), rows)
	}
	return out
}
