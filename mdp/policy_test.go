package mdp

import (
	"errors"
	"testing"
)

func TestUniformPolicy(t *testing.T) {
	p := UniformPolicy([]int{0, 1}, []int{1, 2, 3, 4})
	prob, err := p.Prob(1, 3)
	if err != nil {
		t.Fatalf("prob: %s", err)
	}
	if prob != 0.25 {
		t.Fatalf("expected 0.25, got %v", prob)
	}
	if _, err := p.Prob(5, 1); !errors.Is(err, ErrUnknownState) {
		t.Fatalf("expected ErrUnknownState, got %v", err)
	}
	if _, err := p.Prob(0, 9); !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestUniformAvailablePolicy(t *testing.T) {
	m := corridorModel(t)
	p := UniformAvailablePolicy(m)
	if prob, _ := p.Prob(0, right); prob != 0.5 {
		t.Fatalf("expected 0.5, got %v", prob)
	}
	if prob, _ := p.Prob(3, right); prob != 0 {
		t.Fatalf("terminal state should select nothing, got %v", prob)
	}
	if _, err := p.Prob(8, right); !errors.Is(err, ErrUnknownState) {
		t.Fatalf("expected ErrUnknownState, got %v", err)
	}
}

func TestPolicyFunc(t *testing.T) {
	var p Policy[string, string] = PolicyFunc[string, string](func(s, a string) (float64, error) {
		if a == move {
			return 1, nil
		}
		return 0, nil
	})
	if prob, _ := p.Prob("A", move); prob != 1 {
		t.Fatalf("expected 1, got %v", prob)
	}
}

func TestTabularPolicy(t *testing.T) {
	states := []string{"A", "B"}
	actions := []string{stay, move}
	p, err := NewTabularPolicy(states, actions, map[string]map[string]float64{
		"A": {stay: 0.2, move: 0.8},
	})
	if err != nil {
		t.Fatalf("policy: %s", err)
	}
	if prob, _ := p.Prob("A", move); prob != 0.8 {
		t.Fatalf("expected 0.8, got %v", prob)
	}
	if prob, _ := p.Prob("B", move); prob != 0 {
		t.Fatalf("missing row should read 0, got %v", prob)
	}
	if _, err := p.Prob("C", move); !errors.Is(err, ErrUnknownState) {
		t.Fatalf("expected ErrUnknownState, got %v", err)
	}

	_, err = NewTabularPolicy(states, actions, map[string]map[string]float64{"A": {stay: 0.2, move: 0.2}})
	if !errors.Is(err, ErrInvalidPolicy) {
		t.Fatalf("expected ErrInvalidPolicy for bad sum, got %v", err)
	}
	_, err = NewTabularPolicy(states, actions, map[string]map[string]float64{"A": {"jump": 1}})
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestDeterministicPolicy(t *testing.T) {
	p, err := NewDeterministicPolicy([]int{0, 1, 2}, []int{left, right}, map[int]int{0: right, 1: left})
	if err != nil {
		t.Fatalf("policy: %s", err)
	}
	if prob, _ := p.Prob(0, right); prob != 1 {
		t.Fatalf("expected 1, got %v", prob)
	}
	if prob, _ := p.Prob(0, left); prob != 0 {
		t.Fatalf("expected 0, got %v", prob)
	}
	if _, ok := p.Action(2); ok {
		t.Fatalf("state 2 should have no action")
	}
	if prob, _ := p.Prob(2, left); prob != 0 {
		t.Fatalf("state without action should give 0, got %v", prob)
	}
	if _, err := p.Prob(7, left); !errors.Is(err, ErrUnknownState) {
		t.Fatalf("expected ErrUnknownState, got %v", err)
	}

	same, _ := NewDeterministicPolicy([]int{0, 1, 2}, []int{left, right}, map[int]int{0: right, 1: left})
	other, _ := NewDeterministicPolicy([]int{0, 1, 2}, []int{left, right}, map[int]int{0: right, 1: right})
	if !p.Equal(same) || p.Equal(other) || p.Equal(nil) {
		t.Fatalf("Equal is wrong")
	}

	choices := p.Choices()
	choices[0] = left
	if a, _ := p.Action(0); a != right {
		t.Fatalf("policy mutated through Choices")
	}
}
