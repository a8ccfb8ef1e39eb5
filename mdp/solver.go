package mdp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const DefaultGamma = 0.9

// Config of a Solver. A zero MaxSweeps or MaxIterations means no cap.
type Config struct {
	Gamma float64
	// MaxSweeps bounds the sweeps of a single policy evaluation
	MaxSweeps int
	// MaxIterations bounds the evaluate/improve rounds of policy iteration
	MaxIterations int
}

func DefaultConfig() Config {
	return Config{
		Gamma: DefaultGamma,
	}
}

// Solver implements policy evaluation, policy improvement and policy
// iteration over a Model. It holds no state between calls other than its
// configuration and observer.
type Solver[S, A comparable] struct {
	config   Config
	observer Observer[S, A]
}

func NewSolver[S, A comparable](config Config) (*Solver[S, A], error) {
	if !(config.Gamma >= 0 && config.Gamma < 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidGamma, config.Gamma)
	}
	if config.MaxSweeps < 0 || config.MaxIterations < 0 {
		return nil, fmt.Errorf("%w: max sweeps %d, max iterations %d", ErrInvalidCap, config.MaxSweeps, config.MaxIterations)
	}
	return &Solver[S, A]{config: config}, nil
}

// Observe registers an observer notified after every evaluation sweep and
// every improvement. Passing nil disables notifications.
func (s *Solver[S, A]) Observe(o Observer[S, A]) *Solver[S, A] {
	s.observer = o
	return s
}

func (s *Solver[S, A]) Gamma() float64 {
	return s.config.Gamma
}

// EvaluationStats describes a single policy evaluation run.
type EvaluationStats struct {
	Sweeps int
	// Delta of the last sweep
	Delta float64
	// Deltas of every sweep in order
	Deltas []float64
}

// Evaluate computes the value function of policy starting from all zeros.
func (s *Solver[S, A]) Evaluate(policy Policy[S, A], model *Model[S, A], omega float64) (ValueFunction[S], *EvaluationStats, error) {
	return s.EvaluateFrom(policy, model, omega, nil)
}

// EvaluateFrom computes the value function of policy starting from initial.
// States missing from initial start at 0.
//
// Sweeps are synchronous: every state is backed up from the values of the
// previous sweep, so the result does not depend on the state order. The loop
// stops once the largest change of a sweep drops below omega. When MaxSweeps
// is exceeded the current values are returned along with ErrNotConverged.
func (s *Solver[S, A]) EvaluateFrom(policy Policy[S, A], model *Model[S, A], omega float64, initial ValueFunction[S]) (ValueFunction[S], *EvaluationStats, error) {
	if !(omega > 0) {
		return nil, nil, fmt.Errorf("%w: got %v", ErrInvalidOmega, omega)
	}
	weights, err := actionWeights(policy, model)
	if err != nil {
		return nil, nil, err
	}

	n := len(model.states)
	old := make([]float64, n)
	cur := make([]float64, n)
	for i, st := range model.states {
		old[i] = initial[st]
	}

	stats := &EvaluationStats{Deltas: make([]float64, 0)}
	for {
		for i, st := range model.states {
			v := 0.0
			for j, a := range model.actions {
				if weights[i][j] == 0 {
					continue
				}
				v += weights[i][j] * s.backup(model, old, st, a)
			}
			cur[i] = v
		}
		delta := floats.Distance(cur, old, math.Inf(1))
		old, cur = cur, old

		stats.Sweeps++
		stats.Delta = delta
		stats.Deltas = append(stats.Deltas, delta)
		if s.observer != nil {
			values := model.valueFunction(old)
			s.notify(func(o Observer[S, A]) { o.ObserveValues(stats.Sweeps, values) })
		}

		if delta < omega {
			break
		}
		if s.config.MaxSweeps > 0 && stats.Sweeps >= s.config.MaxSweeps {
			return model.valueFunction(old), stats, fmt.Errorf("%w: delta %g after %d sweeps", ErrNotConverged, delta, stats.Sweeps)
		}
	}
	return model.valueFunction(old), stats, nil
}

// actionWeights resolves policy(s, a) for every state and action up front so
// that lookup errors surface before any sweep runs.
func actionWeights[S, A comparable](policy Policy[S, A], model *Model[S, A]) ([][]float64, error) {
	weights := make([][]float64, len(model.states))
	for i, st := range model.states {
		weights[i] = make([]float64, len(model.actions))
		for j, a := range model.actions {
			p, err := policy.Prob(st, a)
			if err != nil {
				return nil, err
			}
			weights[i][j] = p
		}
	}
	return weights, nil
}

func (s *Solver[S, A]) backup(model *Model[S, A], values []float64, state S, action A) float64 {
	q := 0.0
	for _, o := range model.outcomes[stateAction[S, A]{state: state, action: action}] {
		q += o.Probability * (o.Reward + s.config.Gamma*values[model.stateIndex[o.Next]])
	}
	return q
}

// QValue is the expected return of taking action in state and then
// following values. Unavailable actions have a QValue of 0.
func (s *Solver[S, A]) QValue(model *Model[S, A], values ValueFunction[S], state S, action A) float64 {
	q := 0.0
	for _, o := range model.outcomes[stateAction[S, A]{state: state, action: action}] {
		q += o.Probability * (o.Reward + s.config.Gamma*values[o.Next])
	}
	return q
}

// Improve returns the greedy policy for values. Ties go to the action
// declared first. Terminal states get no action.
func (s *Solver[S, A]) Improve(model *Model[S, A], values ValueFunction[S]) *DeterministicPolicy[S, A] {
	choice := make(map[S]A, len(model.states))
	for _, st := range model.states {
		var best A
		bestQ := math.Inf(-1)
		found := false
		for _, a := range model.actions {
			if len(model.outcomes[stateAction[S, A]{state: st, action: a}]) == 0 {
				continue
			}
			q := s.QValue(model, values, st, a)
			if !found || q > bestQ {
				best, bestQ, found = a, q, true
			}
		}
		if found {
			choice[st] = best
		}
	}
	return &DeterministicPolicy[S, A]{
		states:  set(model.states),
		actions: set(model.actions),
		choice:  choice,
	}
}

// Result of policy iteration.
type Result[S, A comparable] struct {
	Policy *DeterministicPolicy[S, A]
	Values ValueFunction[S]
	// Iterations counts evaluate/improve rounds including the final one that
	// found the policy stable.
	Iterations int
	// Sweeps summed over all evaluations
	Sweeps int
	// Deltas of every sweep of every evaluation in order
	Deltas []float64
}

// Iterate runs policy iteration from initial until the improved policy
// agrees with the evaluated one in every state. A nil initial policy is
// replaced by UniformPolicy over the model.
func (s *Solver[S, A]) Iterate(model *Model[S, A], initial Policy[S, A], omega float64) (*Result[S, A], error) {
	if !(omega > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidOmega, omega)
	}
	current := initial
	if current == nil {
		current = UniformPolicy(model.states, model.actions)
	}

	result := &Result[S, A]{}
	for {
		values, stats, err := s.Evaluate(current, model, omega)
		if stats != nil {
			result.Sweeps += stats.Sweeps
			result.Deltas = append(result.Deltas, stats.Deltas...)
		}
		if err != nil {
			if values != nil {
				result.Values = values
			}
			return result, err
		}

		next := s.Improve(model, values)
		result.Iterations++
		result.Policy = next
		result.Values = values
		s.notify(func(o Observer[S, A]) { o.ObservePolicy(result.Iterations, model.actions, next) })

		stable, err := isStable(current, next, model.states)
		if err != nil {
			return result, err
		}
		if stable {
			return result, nil
		}
		if s.config.MaxIterations > 0 && result.Iterations >= s.config.MaxIterations {
			return result, fmt.Errorf("%w: policy still changing after %d iterations", ErrNotConverged, result.Iterations)
		}
		current = next
	}
}

// isStable is true when prior already selects, with probability 1, the
// action next picks in every state.
func isStable[S, A comparable](prior Policy[S, A], next *DeterministicPolicy[S, A], states []S) (bool, error) {
	for _, st := range states {
		a, ok := next.Action(st)
		if !ok {
			continue
		}
		p, err := prior.Prob(st, a)
		if err != nil {
			return false, err
		}
		if p < 1-1e-12 {
			return false, nil
		}
	}
	return true, nil
}

// notify calls the observer, discarding any panic it raises.
func (s *Solver[S, A]) notify(f func(Observer[S, A])) {
	if s.observer == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	f(s.observer)
}
