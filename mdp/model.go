package mdp

import (
	"fmt"
	"math"
)

// Record is one row of the transition table.
type Record[S, A comparable] struct {
	State       S
	Action      A
	Next        S
	Reward      float64
	Probability float64
}

// Outcome is a possible result of taking an action in a state.
type Outcome[S comparable] struct {
	Next        S
	Reward      float64
	Probability float64
}

type stateAction[S, A comparable] struct {
	state  S
	action A
}

type recordKey[S, A comparable] struct {
	state  S
	action A
	next   S
	reward float64
}

// Model is an immutable tabular transition model. States and actions keep
// the order they were declared in, which is the iteration order used by the
// solver.
type Model[S, A comparable] struct {
	states      []S
	actions     []A
	stateIndex  map[S]int
	actionIndex map[A]int
	outcomes    map[stateAction[S, A]][]Outcome[S]
}

// NewModel builds a model from the transition records. Only the shape of the
// table is checked here, see Validate for the probability sums.
func NewModel[S, A comparable](states []S, actions []A, records []Record[S, A]) (*Model[S, A], error) {
	if len(states) == 0 {
		return nil, fmt.Errorf("%w: no states", ErrInvalidModel)
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("%w: no actions", ErrInvalidModel)
	}
	m := &Model[S, A]{
		states:      make([]S, len(states)),
		actions:     make([]A, len(actions)),
		stateIndex:  make(map[S]int, len(states)),
		actionIndex: make(map[A]int, len(actions)),
		outcomes:    make(map[stateAction[S, A]][]Outcome[S]),
	}
	copy(m.states, states)
	copy(m.actions, actions)
	for i, s := range states {
		if _, ok := m.stateIndex[s]; ok {
			return nil, fmt.Errorf("%w: duplicate state %v", ErrInvalidModel, s)
		}
		m.stateIndex[s] = i
	}
	for i, a := range actions {
		if _, ok := m.actionIndex[a]; ok {
			return nil, fmt.Errorf("%w: duplicate action %v", ErrInvalidModel, a)
		}
		m.actionIndex[a] = i
	}

	seen := make(map[recordKey[S, A]]bool, len(records))
	for i, r := range records {
		if _, ok := m.stateIndex[r.State]; !ok {
			return nil, fmt.Errorf("%w: record %d: %w %v", ErrInvalidModel, i, ErrUnknownState, r.State)
		}
		if _, ok := m.stateIndex[r.Next]; !ok {
			return nil, fmt.Errorf("%w: record %d: %w %v", ErrInvalidModel, i, ErrUnknownState, r.Next)
		}
		if _, ok := m.actionIndex[r.Action]; !ok {
			return nil, fmt.Errorf("%w: record %d: %w %v", ErrInvalidModel, i, ErrUnknownAction, r.Action)
		}
		if !(r.Probability >= 0 && r.Probability <= 1) {
			return nil, fmt.Errorf("%w: record %d: probability %v out of [0, 1]", ErrInvalidModel, i, r.Probability)
		}
		if math.IsNaN(r.Reward) || math.IsInf(r.Reward, 0) {
			return nil, fmt.Errorf("%w: record %d: reward %v is not finite", ErrInvalidModel, i, r.Reward)
		}
		k := recordKey[S, A]{state: r.State, action: r.Action, next: r.Next, reward: r.Reward}
		if seen[k] {
			return nil, fmt.Errorf("%w: record %d: duplicate transition (%v, %v, %v, %v)", ErrInvalidModel, i, r.State, r.Action, r.Next, r.Reward)
		}
		seen[k] = true

		sa := stateAction[S, A]{state: r.State, action: r.Action}
		m.outcomes[sa] = append(m.outcomes[sa], Outcome[S]{
			Next:        r.Next,
			Reward:      r.Reward,
			Probability: r.Probability,
		})
	}
	return m, nil
}

func (m *Model[S, A]) States() []S {
	out := make([]S, len(m.states))
	copy(out, m.states)
	return out
}

func (m *Model[S, A]) Actions() []A {
	out := make([]A, len(m.actions))
	copy(out, m.actions)
	return out
}

func (m *Model[S, A]) HasState(s S) bool {
	_, ok := m.stateIndex[s]
	return ok
}

func (m *Model[S, A]) HasAction(a A) bool {
	_, ok := m.actionIndex[a]
	return ok
}

// Outcomes returns the possible outcomes of taking action in state. An empty
// result means the action is unavailable there (or the state is terminal).
func (m *Model[S, A]) Outcomes(state S, action A) []Outcome[S] {
	outs := m.outcomes[stateAction[S, A]{state: state, action: action}]
	if len(outs) == 0 {
		return []Outcome[S]{}
	}
	res := make([]Outcome[S], len(outs))
	copy(res, outs)
	return res
}

// Probability of reaching next with the given reward. Returns 0 when there is
// no such transition.
func (m *Model[S, A]) Probability(state S, action A, next S, reward float64) float64 {
	for _, o := range m.outcomes[stateAction[S, A]{state: state, action: action}] {
		if o.Next == next && o.Reward == reward {
			return o.Probability
		}
	}
	return 0
}

// Available returns the actions that have at least one outcome in state.
func (m *Model[S, A]) Available(state S) []A {
	out := make([]A, 0)
	for _, a := range m.actions {
		if len(m.outcomes[stateAction[S, A]{state: state, action: a}]) > 0 {
			out = append(out, a)
		}
	}
	return out
}

// IsTerminal is true when no action has an outcome in state.
func (m *Model[S, A]) IsTerminal(state S) bool {
	return len(m.Available(state)) == 0
}

// Records returns the transition table in state, action, insertion order.
func (m *Model[S, A]) Records() []Record[S, A] {
	out := make([]Record[S, A], 0)
	for _, s := range m.states {
		for _, a := range m.actions {
			for _, o := range m.outcomes[stateAction[S, A]{state: s, action: a}] {
				out = append(out, Record[S, A]{
					State:       s,
					Action:      a,
					Next:        o.Next,
					Reward:      o.Reward,
					Probability: o.Probability,
				})
			}
		}
	}
	return out
}

// Validate checks that the outcome probabilities of every available
// (state, action) pair sum to 1 within tolerance.
func (m *Model[S, A]) Validate(tolerance float64) error {
	for _, s := range m.states {
		for _, a := range m.actions {
			outs := m.outcomes[stateAction[S, A]{state: s, action: a}]
			if len(outs) == 0 {
				continue
			}
			sum := 0.0
			for _, o := range outs {
				sum += o.Probability
			}
			if math.Abs(sum-1) > tolerance {
				return fmt.Errorf("%w: state %v, action %v sums to %g", ErrProbabilitySum, s, a, sum)
			}
		}
	}
	return nil
}

// NewValueFunction returns a value function with every state set to 0.
func (m *Model[S, A]) NewValueFunction() ValueFunction[S] {
	v := make(ValueFunction[S], len(m.states))
	for _, s := range m.states {
		v[s] = 0
	}
	return v
}

func (m *Model[S, A]) valueFunction(values []float64) ValueFunction[S] {
	v := make(ValueFunction[S], len(m.states))
	for i, s := range m.states {
		v[s] = values[i]
	}
	return v
}

// ValueFunction maps every state to its expected discounted return.
type ValueFunction[S comparable] map[S]float64

func (v ValueFunction[S]) Copy() ValueFunction[S] {
	out := make(ValueFunction[S], len(v))
	for s, val := range v {
		out[s] = val
	}
	return out
}
