package policies

import (
	"github.com/zeu5/tabular-dp/core"
	"github.com/zeu5/tabular-dp/mdp"
	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

// KeyFuncs translate simulator states and actions into the keys of a
// tabular policy. A false return means the item is not part of the table.
type KeyFuncs[S, A comparable] struct {
	State  func(core.State) (S, bool)
	Action func(core.Action) (A, bool)
}

// HashKeys uses the Hash of states and actions as keys.
func HashKeys() KeyFuncs[string, string] {
	return KeyFuncs[string, string]{
		State:  func(s core.State) (string, bool) { return s.Hash(), true },
		Action: func(a core.Action) (string, bool) { return a.Hash(), true },
	}
}

// TabularPolicy samples actions from an mdp.Policy. Actions offered by the
// simulator but unknown to the policy, or failing the lookup, get weight 0.
type TabularPolicy[S, A comparable] struct {
	policy mdp.Policy[S, A]
	keys   KeyFuncs[S, A]
	src    erand.Source
}

var _ core.Policy = &TabularPolicy[string, string]{}

func NewTabularPolicy[S, A comparable](policy mdp.Policy[S, A], keys KeyFuncs[S, A], seed uint64) *TabularPolicy[S, A] {
	return &TabularPolicy[S, A]{
		policy: policy,
		keys:   keys,
		src:    erand.NewSource(seed),
	}
}

func (t *TabularPolicy[S, A]) Reset() {}

func (t *TabularPolicy[S, A]) ResetEpisode(_ *core.EpisodeContext) {}

// Weights of the offered actions in state, in the order given.
func (t *TabularPolicy[S, A]) Weights(state core.State, actions []core.Action) []float64 {
	weights := make([]float64, len(actions))
	s, ok := t.keys.State(state)
	if !ok {
		return weights
	}
	for i, action := range actions {
		a, ok := t.keys.Action(action)
		if !ok {
			continue
		}
		p, err := t.policy.Prob(s, a)
		if err != nil {
			continue
		}
		weights[i] = p
	}
	return weights
}

func (t *TabularPolicy[S, A]) PickAction(step *core.StepContext, state core.State, actions []core.Action) core.Action {
	if len(actions) == 0 {
		return nil
	}
	// using the sampleuv library to sample based on the weights
	i, ok := sampleuv.NewWeighted(t.Weights(state, actions), t.src).Take()
	if !ok {
		return nil
	}
	return actions[i]
}

type TabularPolicyConstructor[S, A comparable] struct {
	policy mdp.Policy[S, A]
	keys   KeyFuncs[S, A]
	seed   uint64
}

var _ core.PolicyConstructor = &TabularPolicyConstructor[string, string]{}

func NewTabularPolicyConstructor[S, A comparable](policy mdp.Policy[S, A], keys KeyFuncs[S, A], seed uint64) *TabularPolicyConstructor[S, A] {
	return &TabularPolicyConstructor[S, A]{
		policy: policy,
		keys:   keys,
		seed:   seed,
	}
}

func (c *TabularPolicyConstructor[S, A]) NewPolicy(worker int) core.Policy {
	return NewTabularPolicy(c.policy, c.keys, c.seed+uint64(worker))
}
