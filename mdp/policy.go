package mdp

import (
	"fmt"
	"math"
)

// Policy gives the probability of selecting action in state. Lookups outside
// the declared states and actions return ErrUnknownState or ErrUnknownAction.
type Policy[S, A comparable] interface {
	Prob(state S, action A) (float64, error)
}

// PolicyFunc adapts a plain function to the Policy interface.
type PolicyFunc[S, A comparable] func(S, A) (float64, error)

func (f PolicyFunc[S, A]) Prob(state S, action A) (float64, error) {
	return f(state, action)
}

func set[T comparable](items []T) map[T]bool {
	out := make(map[T]bool, len(items))
	for _, i := range items {
		out[i] = true
	}
	return out
}

// UniformPolicy assigns 1/len(actions) to every declared action in every
// declared state, whether or not the action is available there.
func UniformPolicy[S, A comparable](states []S, actions []A) PolicyFunc[S, A] {
	knownStates := set(states)
	knownActions := set(actions)
	p := 0.0
	if len(actions) > 0 {
		p = 1 / float64(len(actions))
	}
	return func(s S, a A) (float64, error) {
		if !knownStates[s] {
			return 0, fmt.Errorf("%w: %v", ErrUnknownState, s)
		}
		if !knownActions[a] {
			return 0, fmt.Errorf("%w: %v", ErrUnknownAction, a)
		}
		return p, nil
	}
}

// UniformAvailablePolicy spreads the probability evenly over the actions
// available in each state of the model. Terminal states select nothing.
func UniformAvailablePolicy[S, A comparable](model *Model[S, A]) PolicyFunc[S, A] {
	available := make(map[S]map[A]bool, len(model.states))
	for _, s := range model.states {
		available[s] = set(model.Available(s))
	}
	return func(s S, a A) (float64, error) {
		actions, ok := available[s]
		if !ok {
			return 0, fmt.Errorf("%w: %v", ErrUnknownState, s)
		}
		if !model.HasAction(a) {
			return 0, fmt.Errorf("%w: %v", ErrUnknownAction, a)
		}
		if !actions[a] {
			return 0, nil
		}
		return 1 / float64(len(actions)), nil
	}
}

// TabularPolicy is a stochastic policy backed by a lookup table.
type TabularPolicy[S, A comparable] struct {
	states  map[S]bool
	actions map[A]bool
	table   map[S]map[A]float64
}

var _ Policy[int, int] = &TabularPolicy[int, int]{}

// NewTabularPolicy copies table into a new policy. Missing entries read as 0.
// Each row must either sum to 1 or be empty.
func NewTabularPolicy[S, A comparable](states []S, actions []A, table map[S]map[A]float64) (*TabularPolicy[S, A], error) {
	p := &TabularPolicy[S, A]{
		states:  set(states),
		actions: set(actions),
		table:   make(map[S]map[A]float64, len(table)),
	}
	for s, row := range table {
		if !p.states[s] {
			return nil, fmt.Errorf("%w: %w %v", ErrInvalidPolicy, ErrUnknownState, s)
		}
		sum := 0.0
		p.table[s] = make(map[A]float64, len(row))
		for a, prob := range row {
			if !p.actions[a] {
				return nil, fmt.Errorf("%w: %w %v", ErrInvalidPolicy, ErrUnknownAction, a)
			}
			if !(prob >= 0 && prob <= 1) {
				return nil, fmt.Errorf("%w: probability %v for (%v, %v)", ErrInvalidPolicy, prob, s, a)
			}
			p.table[s][a] = prob
			sum += prob
		}
		if sum != 0 && math.Abs(sum-1) > 1e-9 {
			return nil, fmt.Errorf("%w: probabilities for state %v sum to %g", ErrInvalidPolicy, s, sum)
		}
	}
	return p, nil
}

func (p *TabularPolicy[S, A]) Prob(state S, action A) (float64, error) {
	if !p.states[state] {
		return 0, fmt.Errorf("%w: %v", ErrUnknownState, state)
	}
	if !p.actions[action] {
		return 0, fmt.Errorf("%w: %v", ErrUnknownAction, action)
	}
	return p.table[state][action], nil
}

// DeterministicPolicy selects a single action per state with probability 1.
// States without an entry select no action.
type DeterministicPolicy[S, A comparable] struct {
	states  map[S]bool
	actions map[A]bool
	choice  map[S]A
}

var _ Policy[int, int] = &DeterministicPolicy[int, int]{}

func NewDeterministicPolicy[S, A comparable](states []S, actions []A, choice map[S]A) (*DeterministicPolicy[S, A], error) {
	p := &DeterministicPolicy[S, A]{
		states:  set(states),
		actions: set(actions),
		choice:  make(map[S]A, len(choice)),
	}
	for s, a := range choice {
		if !p.states[s] {
			return nil, fmt.Errorf("%w: %w %v", ErrInvalidPolicy, ErrUnknownState, s)
		}
		if !p.actions[a] {
			return nil, fmt.Errorf("%w: %w %v", ErrInvalidPolicy, ErrUnknownAction, a)
		}
		p.choice[s] = a
	}
	return p, nil
}

// Action returns the selected action. ok is false when the state has none.
func (p *DeterministicPolicy[S, A]) Action(state S) (action A, ok bool) {
	action, ok = p.choice[state]
	return
}

func (p *DeterministicPolicy[S, A]) Prob(state S, action A) (float64, error) {
	if !p.states[state] {
		return 0, fmt.Errorf("%w: %v", ErrUnknownState, state)
	}
	if !p.actions[action] {
		return 0, fmt.Errorf("%w: %v", ErrUnknownAction, action)
	}
	if a, ok := p.choice[state]; ok && a == action {
		return 1, nil
	}
	return 0, nil
}

// Choices returns a copy of the state to action mapping.
func (p *DeterministicPolicy[S, A]) Choices() map[S]A {
	out := make(map[S]A, len(p.choice))
	for s, a := range p.choice {
		out[s] = a
	}
	return out
}

func (p *DeterministicPolicy[S, A]) Equal(other *DeterministicPolicy[S, A]) bool {
	if other == nil || len(p.choice) != len(other.choice) {
		return false
	}
	for s, a := range p.choice {
		if b, ok := other.choice[s]; !ok || a != b {
			return false
		}
	}
	return true
}
