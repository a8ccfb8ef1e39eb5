package mdp

import (
	"errors"
	"math"
	"testing"
)

func TestOutcomesReturnsMatchingRecords(t *testing.T) {
	m := twoStateModel(t)
	outs := m.Outcomes("A", move)
	if len(outs) != 1 {
		t.Fatalf("expected 1 outcome, got %d", len(outs))
	}
	if outs[0].Next != "B" || outs[0].Reward != 5 || outs[0].Probability != 1 {
		t.Fatalf("unexpected outcome %+v", outs[0])
	}
	// callers must not be able to alter the model
	outs[0].Reward = 100
	if m.Outcomes("A", move)[0].Reward != 5 {
		t.Fatalf("model was mutated through Outcomes")
	}
}

func TestOutcomesMissingIsEmpty(t *testing.T) {
	m := corridorModel(t)
	outs := m.Outcomes(3, left)
	if outs == nil || len(outs) != 0 {
		t.Fatalf("expected empty non-nil outcomes, got %v", outs)
	}
	if !m.IsTerminal(3) {
		t.Fatalf("state 3 should be terminal")
	}
	if m.IsTerminal(0) {
		t.Fatalf("state 0 should not be terminal")
	}
	if got := m.Available(1); len(got) != 2 || got[0] != left || got[1] != right {
		t.Fatalf("unexpected available actions %v", got)
	}
}

func TestProbability(t *testing.T) {
	m, err := NewModel([]string{"x", "y"}, []string{"go"}, []Record[string, string]{
		{State: "x", Action: "go", Next: "x", Reward: 1, Probability: 0.3},
		{State: "x", Action: "go", Next: "y", Reward: 1, Probability: 0.6},
		{State: "x", Action: "go", Next: "y", Reward: 2, Probability: 0.1},
	})
	if err != nil {
		t.Fatalf("model: %s", err)
	}
	if p := m.Probability("x", "go", "y", 1); p != 0.6 {
		t.Fatalf("expected 0.6, got %v", p)
	}
	if p := m.Probability("x", "go", "y", 2); p != 0.1 {
		t.Fatalf("expected 0.1, got %v", p)
	}
	if p := m.Probability("x", "go", "y", 3); p != 0 {
		t.Fatalf("expected 0 for missing reward, got %v", p)
	}
	if p := m.Probability("y", "go", "x", 1); p != 0 {
		t.Fatalf("expected 0 for missing state, got %v", p)
	}
	if err := m.Validate(1e-9); err != nil {
		t.Fatalf("validate: %s", err)
	}
}

func TestOutcomeProbabilitiesSumToOne(t *testing.T) {
	if err := twoStateModel(t).Validate(1e-12); err != nil {
		t.Fatalf("two state: %s", err)
	}
	if err := corridorModel(t).Validate(1e-12); err != nil {
		t.Fatalf("corridor: %s", err)
	}
}

func TestValidateReportsBadSum(t *testing.T) {
	m, err := NewModel([]int{0, 1}, []int{0}, []Record[int, int]{
		{State: 0, Action: 0, Next: 1, Reward: 0, Probability: 0.5},
		{State: 0, Action: 0, Next: 0, Reward: 0, Probability: 0.4},
	})
	if err != nil {
		t.Fatalf("construction should not check sums: %s", err)
	}
	if err := m.Validate(1e-9); !errors.Is(err, ErrProbabilitySum) {
		t.Fatalf("expected ErrProbabilitySum, got %v", err)
	}
}

func TestNewModelRejectsBadShape(t *testing.T) {
	cases := map[string]struct {
		states  []int
		actions []int
		records []Record[int, int]
		want    error
	}{
		"no states": {
			states: []int{}, actions: []int{0},
			want: ErrInvalidModel,
		},
		"no actions": {
			states: []int{0}, actions: nil,
			want: ErrInvalidModel,
		},
		"duplicate state": {
			states: []int{0, 0}, actions: []int{0},
			want: ErrInvalidModel,
		},
		"unknown next state": {
			states: []int{0}, actions: []int{0},
			records: []Record[int, int]{{State: 0, Action: 0, Next: 9, Probability: 1}},
			want:    ErrUnknownState,
		},
		"unknown action": {
			states: []int{0}, actions: []int{0},
			records: []Record[int, int]{{State: 0, Action: 4, Next: 0, Probability: 1}},
			want:    ErrUnknownAction,
		},
		"probability above one": {
			states: []int{0}, actions: []int{0},
			records: []Record[int, int]{{State: 0, Action: 0, Next: 0, Probability: 1.5}},
			want:    ErrInvalidModel,
		},
		"nan reward": {
			states: []int{0}, actions: []int{0},
			records: []Record[int, int]{{State: 0, Action: 0, Next: 0, Reward: math.NaN(), Probability: 1}},
			want:    ErrInvalidModel,
		},
		"duplicate record": {
			states: []int{0}, actions: []int{0},
			records: []Record[int, int]{
				{State: 0, Action: 0, Next: 0, Reward: 1, Probability: 0.5},
				{State: 0, Action: 0, Next: 0, Reward: 1, Probability: 0.5},
			},
			want: ErrInvalidModel,
		},
	}
	for name, c := range cases {
		_, err := NewModel(c.states, c.actions, c.records)
		if !errors.Is(err, c.want) {
			t.Fatalf("%s: expected %v, got %v", name, c.want, err)
		}
	}
}

func TestRecordsRoundTrip(t *testing.T) {
	m := corridorModel(t)
	again, err := NewModel(m.States(), m.Actions(), m.Records())
	if err != nil {
		t.Fatalf("rebuilding model: %s", err)
	}
	if len(again.Records()) != 6 {
		t.Fatalf("expected 6 records, got %d", len(again.Records()))
	}
	for _, r := range m.Records() {
		if again.Probability(r.State, r.Action, r.Next, r.Reward) != r.Probability {
			t.Fatalf("record %+v lost", r)
		}
	}
}
