package policies

import (
	"testing"

	"github.com/zeu5/tabular-dp/core"
	"github.com/zeu5/tabular-dp/envs/recycle"
	"github.com/zeu5/tabular-dp/mdp"
)

func TestRandomPolicyPicksOffered(t *testing.T) {
	p := (&RandomPolicyConstructor{Seed: 1}).NewPolicy(0)
	actions := recycle.State(recycle.Low).Actions()
	seen := make(map[string]bool)
	for i := 0; i < 300; i++ {
		a := p.PickAction(nil, recycle.State(recycle.Low), actions)
		seen[a.Hash()] = true
	}
	if len(seen) != 3 {
		t.Fatalf("expected every action to be picked, got %v", seen)
	}
	if a := p.PickAction(nil, recycle.State(recycle.Low), nil); a != nil {
		t.Fatalf("expected nil action with nothing offered")
	}
}

func TestTabularPolicyFollowsDeterministic(t *testing.T) {
	det, err := mdp.NewDeterministicPolicy(recycle.States, recycle.Actions, map[string]string{
		recycle.High: recycle.Search,
		recycle.Low:  recycle.Recharge,
	})
	if err != nil {
		t.Fatalf("policy: %s", err)
	}
	p := NewTabularPolicyConstructor[string, string](det, HashKeys(), 1).NewPolicy(0)
	for i := 0; i < 50; i++ {
		state := recycle.State(recycle.Low)
		if a := p.PickAction(nil, state, state.Actions()); a.Hash() != recycle.Recharge {
			t.Fatalf("expected recharge, got %s", a.Hash())
		}
	}
}

func TestTabularPolicyWeights(t *testing.T) {
	uniform := mdp.UniformPolicy(recycle.States, recycle.Actions)
	p := NewTabularPolicy[string, string](uniform, HashKeys(), 1)
	state := recycle.State(recycle.High)
	weights := p.Weights(state, []core.Action{recycle.Action(recycle.Search), recycle.Action("fly")})
	if weights[0] != 1.0/3 || weights[1] != 0 {
		t.Fatalf("unexpected weights %v", weights)
	}
}

func TestTabularPolicyNothingToPick(t *testing.T) {
	none := mdp.PolicyFunc[string, string](func(string, string) (float64, error) { return 0, nil })
	p := NewTabularPolicy[string, string](none, HashKeys(), 1)
	state := recycle.State(recycle.High)
	if a := p.PickAction(nil, state, state.Actions()); a != nil {
		t.Fatalf("expected nil action, got %s", a.Hash())
	}
}
