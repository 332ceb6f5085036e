package testharness

import (
	"context"
	"strings"
	"sync"
)

// Call records one request made to a ScriptedService.
type Call struct {
	ServiceID string
	Prompt    string
}

type reply struct {
	text string
	err  error
}

type rule struct {
	match   string
	replies []reply
}

// ScriptedService answers completion requests from a script. Rules are
// checked in registration order and the first whose match string occurs in
// the prompt answers. Each rule replays its replies in order and keeps
// repeating the last one.
type ScriptedService struct {
	mu       sync.Mutex
	rules    []*rule
	fallback string
	calls    []Call
}

// NewScriptedService returns a service answering fallback when no rule matches.
func NewScriptedService(fallback string) *ScriptedService {
	return &ScriptedService{fallback: fallback}
}

// On registers text replies for prompts containing match.
func (s *ScriptedService) On(match string, texts ...string) *ScriptedService {
	r := &rule{match: match}
	for _, text := range texts {
		r.replies = append(r.replies, reply{text: text})
	}
	s.mu.Lock()
	s.rules = append(s.rules, r)
	s.mu.Unlock()
	return s
}

// OnError makes the next times requests matching match fail with err before
// falling through to later rules.
func (s *ScriptedService) OnError(match string, err error, times int) *ScriptedService {
	r := &rule{match: match}
	for i := 0; i < times; i++ {
		r.replies = append(r.replies, reply{err: err})
	}
	s.mu.Lock()
	s.rules = append(s.rules, r)
	s.mu.Unlock()
	return s
}

// Complete implements the completion service contract used by the game engine.
func (s *ScriptedService) Complete(ctx context.Context, serviceID, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{ServiceID: serviceID, Prompt: prompt})

	for _, r := range s.rules {
		if !strings.Contains(prompt, r.match) || len(r.replies) == 0 {
			continue
		}
		next := r.replies[0]
		if next.err != nil {
			r.replies = r.replies[1:]
			return "", next.err
		}
		if len(r.replies) > 1 {
			r.replies = r.replies[1:]
		}
		return next.text, nil
	}
	return s.fallback, nil
}

// Calls returns the requests received so far.
func (s *ScriptedService) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Call, len(s.calls))
	copy(out, s.calls)
	return out
}
