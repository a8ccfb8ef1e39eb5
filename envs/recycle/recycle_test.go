package recycle

import (
	"math"
	"testing"

	"github.com/zeu5/tabular-dp/mdp"
)

func TestModelProbabilitiesSumToOne(t *testing.T) {
	m, err := New(DefaultConfig(), 1).Model()
	if err != nil {
		t.Fatalf("model: %s", err)
	}
	if err := m.Validate(1e-9); err != nil {
		t.Fatalf("validate: %s", err)
	}
	if outs := m.Outcomes(High, Recharge); len(outs) != 0 {
		t.Fatalf("recharge should not be available when high, got %v", outs)
	}
	if p := m.Probability(Low, Search, High, -3); math.Abs(p-0.8) > 1e-12 {
		t.Fatalf("expected rescue probability 0.8, got %v", p)
	}
}

func TestProbabilitiesAreRounded(t *testing.T) {
	env := New(Config{Alpha: 0.33, Beta: 0.26, RSearch: 4, RWait: 1}, 1)
	outs := env.TransitionOutcomes(High, Search)
	if len(outs) != 2 || outs[0].Probability != 0.3 || outs[1].Probability != 0.7 {
		t.Fatalf("unexpected outcomes %+v", outs)
	}
	if got := env.TransitionOutcomes(High, Recharge); got != nil {
		t.Fatalf("expected nil outcomes, got %v", got)
	}
}

func TestHalfwayProbabilitiesStayValid(t *testing.T) {
	env := New(Config{Alpha: 0.95, Beta: 0.05, RSearch: 4, RWait: 1}, 1)
	outs := env.TransitionOutcomes(High, Search)
	if len(outs) != 2 || outs[0].Probability != 0.9 || outs[1].Probability != 0.1 {
		t.Fatalf("unexpected outcomes %+v", outs)
	}
	m, err := env.Model()
	if err != nil {
		t.Fatalf("model: %s", err)
	}
	if err := m.Validate(1e-9); err != nil {
		t.Fatalf("validate: %s", err)
	}
}

func TestPossibleActions(t *testing.T) {
	env := New(DefaultConfig(), 1)
	if got := env.PossibleActions(High); len(got) != 2 {
		t.Fatalf("expected 2 actions when high, got %v", got)
	}
	if got := env.PossibleActions(Low); len(got) != 3 {
		t.Fatalf("expected 3 actions when low, got %v", got)
	}
	if got := env.PossibleActions("empty"); got != nil {
		t.Fatalf("expected nil for unknown state, got %v", got)
	}
	if got := State(High).Actions(); len(got) != 2 {
		t.Fatalf("expected 2 core actions, got %d", len(got))
	}
}

func TestStep(t *testing.T) {
	env := New(DefaultConfig(), 7)
	state, err := env.Reset()
	if err != nil {
		t.Fatalf("reset: %s", err)
	}
	if state.Hash() != High {
		t.Fatalf("expected to start high, got %s", state.Hash())
	}
	if _, err := env.Step(Action(Recharge), nil); err == nil {
		t.Fatalf("expected recharge to fail when high")
	}

	total := 0.0
	for i := 0; i < 100 && env.State() != Low; i++ {
		res, err := env.Step(Action(Search), nil)
		if err != nil {
			t.Fatalf("search: %s", err)
		}
		if res.Reward != 4 {
			t.Fatalf("expected search reward 4, got %v", res.Reward)
		}
		total += res.Reward
	}
	if env.State() != Low {
		t.Fatalf("battery never ran low")
	}

	res, err := env.Step(Action(Recharge), nil)
	if err != nil {
		t.Fatalf("recharge: %s", err)
	}
	if res.NextState.Hash() != High || res.Reward != 0 {
		t.Fatalf("unexpected recharge result %+v", res)
	}
	if env.Sum() != total {
		t.Fatalf("expected sum %v, got %v", total, env.Sum())
	}
}

func TestPolicyIteration(t *testing.T) {
	m, err := New(DefaultConfig(), 1).Model()
	if err != nil {
		t.Fatalf("model: %s", err)
	}
	solver, err := mdp.NewSolver[string, string](mdp.DefaultConfig())
	if err != nil {
		t.Fatalf("solver: %s", err)
	}
	result, err := solver.Iterate(m, nil, 1e-6)
	if err != nil {
		t.Fatalf("iterate: %s", err)
	}
	if a, _ := result.Policy.Action(High); a != Search {
		t.Fatalf("expected to search when high, got %s", a)
	}
	if a, _ := result.Policy.Action(Low); a != Recharge {
		t.Fatalf("expected to recharge when low, got %s", a)
	}
	if result.Values[High] <= result.Values[Low] {
		t.Fatalf("expected high battery to be worth more")
	}
}
