package game

import (
	"errors"
	"slices"
	"testing"
)

func ptr[T any](v T) *T { return &v }

func TestHistoryUpdateMerges(t *testing.T) {
	h := NewHistory()
	if err := h.Update(1, "agent1", Entry{Message: ptr("hi")}); err != nil {
		t.Fatal(err)
	}
	if err := h.Update(1, "agent2", Entry{Strategy: ptr("Defect")}); err != nil {
		t.Fatal(err)
	}
	if err := h.Update(1, "agent1", Entry{Strategy: ptr("Cooperate"), Score: ptr(3.0)}); err != nil {
		t.Fatal(err)
	}

	records := h.Round(1)
	if len(records) != 2 || records[0].Key != "agent1" || records[1].Key != "agent2" {
		t.Fatalf("Round(1) = %+v", records)
	}
	r := records[0]
	if *r.Message != "hi" || *r.Strategy != "Cooperate" || *r.Score != 3 {
		t.Errorf("merged entry = %+v", r.Entry)
	}
	if r.ChoicePrompt != nil {
		t.Error("unset field became set")
	}
}

func TestHistoryFinalize(t *testing.T) {
	h := NewHistory()
	_ = h.Update(1, "agent1", Entry{Strategy: ptr("Cooperate")})
	h.Finalize(1)

	if !h.Finalized(1) {
		t.Fatal("Finalized(1) = false")
	}
	if err := h.Update(1, "agent1", Entry{Score: ptr(1.0)}); !errors.Is(err, ErrRoundFinalized) {
		t.Errorf("Update() after Finalize error = %v, want ErrRoundFinalized", err)
	}
	if err := h.Update(2, "agent1", Entry{Score: ptr(1.0)}); err != nil {
		t.Errorf("Update(2) error = %v", err)
	}
	if h.Finalized(3) {
		t.Error("Finalized(3) = true for an unknown round")
	}
}

func TestHistoryLastRoundChoices(t *testing.T) {
	h := NewHistory()
	if got := h.LastRoundChoices(); got != nil {
		t.Errorf("LastRoundChoices() = %v, want nil", got)
	}
	_ = h.Update(1, "agent1", Entry{Strategy: ptr("Cooperate")})
	_ = h.Update(2, "agent1", Entry{Strategy: ptr("Defect")})
	_ = h.Update(2, TeamsKey, Entry{TeamStrategies: map[string]string{"red": "strategyB"}})

	got := h.LastRoundChoices()
	if len(got) != 1 || got["agent1"] != "Defect" {
		t.Errorf("LastRoundChoices() = %v", got)
	}
}

func TestHistoryDescribe(t *testing.T) {
	h := NewHistory()
	_ = h.Update(10, "b", Entry{Strategy: ptr("Defect")})
	_ = h.Update(2, "a", Entry{Strategy: ptr("Cooperate")})
	_ = h.Update(2, TeamsKey, Entry{TeamPayoffs: map[string]float64{"red": 1}})

	d := h.Describe()
	var keys []string
	for pair := d.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	if want := []string{"round_2", "round_10"}; !slices.Equal(keys, want) {
		t.Errorf("Describe() keys = %v, want %v", keys, want)
	}
	rows, _ := d.Get("round_2")
	if len(rows) != 2 || rows[1].Agent != TeamsKey || rows[1].TeamPayoffs["red"] != 1 {
		t.Errorf("round_2 rows = %+v", rows)
	}
}

func TestHistoryRoundCopiesMaps(t *testing.T) {
	h := NewHistory()
	_ = h.Update(1, TeamsKey, Entry{TeamStrategies: map[string]string{"red": "strategyA"}})

	h.Round(1)[0].TeamStrategies["red"] = "strategyB"
	if got := h.Round(1)[0].TeamStrategies["red"]; got != "strategyA" {
		t.Errorf("stored team strategy = %q after caller mutation", got)
	}
}
