package testharness

import (
	"context"
	"errors"
	"testing"
)

func TestScriptedServiceReplies(t *testing.T) {
	ctx := context.Background()
	s := NewScriptedService("fallback").
		On("agent1", "first", "second").
		On("agent2", "only")

	steps := []struct {
		prompt string
		want   string
	}{
		{"You are agent1", "first"},
		{"You are agent1", "second"},
		{"You are agent1", "second"},
		{"You are agent2", "only"},
		{"You are agent3", "fallback"},
	}
	for i, step := range steps {
		got, err := s.Complete(ctx, "svc", step.prompt)
		if err != nil {
			t.Fatalf("step %d: Complete() error = %v", i, err)
		}
		if got != step.want {
			t.Errorf("step %d: Complete() = %q, want %q", i, got, step.want)
		}
	}
	if n := len(s.Calls()); n != len(steps) {
		t.Errorf("Calls() = %d, want %d", n, len(steps))
	}
}

func TestScriptedServiceErrors(t *testing.T) {
	boom := errors.New("boom")
	s := NewScriptedService("").OnError("agent1", boom, 2).On("agent1", "ok")

	for i := 0; i < 2; i++ {
		if _, err := s.Complete(context.Background(), "svc", "agent1"); !errors.Is(err, boom) {
			t.Fatalf("call %d: error = %v, want boom", i, err)
		}
	}
	if got, err := s.Complete(context.Background(), "svc", "agent1"); err != nil || got != "ok" {
		t.Fatalf("Complete() = %q, %v, want ok", got, err)
	}
}

func TestScriptedServiceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewScriptedService("x").Complete(ctx, "svc", "p"); !errors.Is(err, context.Canceled) {
		t.Fatalf("Complete() error = %v, want context.Canceled", err)
	}
}
