package policies

import (
	"math/rand"

	"github.com/zeu5/tabular-dp/core"
)

type RandomPolicy struct {
	rand *rand.Rand
}

var _ core.Policy = &RandomPolicy{}

func NewRandomPolicy(seed int64) *RandomPolicy {
	return &RandomPolicy{
		rand: rand.New(rand.NewSource(seed)),
	}
}

func (r *RandomPolicy) Reset() {}

func (r *RandomPolicy) PickAction(step *core.StepContext, state core.State, actions []core.Action) core.Action {
	if len(actions) == 0 {
		return nil
	}
	i := r.rand.Intn(len(actions))
	return actions[i]
}

func (r *RandomPolicy) ResetEpisode(_ *core.EpisodeContext) {}

type RandomPolicyConstructor struct {
	Seed int64
}

var _ core.PolicyConstructor = &RandomPolicyConstructor{}

func (r *RandomPolicyConstructor) NewPolicy(worker int) core.Policy {
	return NewRandomPolicy(r.Seed + int64(worker))
}
