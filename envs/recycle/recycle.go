// Package recycle is the two state recycling robot. In the high battery state
// the robot may search or wait, in the low state it may also recharge.
// Searching drains the battery; being rescued from a flat battery costs 3.
package recycle

import (
	"fmt"
	"strconv"

	"github.com/zeu5/tabular-dp/core"
	"github.com/zeu5/tabular-dp/mdp"
	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"
)

const (
	High = "high"
	Low  = "low"

	Search   = "search"
	Wait     = "wait"
	Recharge = "recharge"

	rescueReward = -3
)

var (
	States  = []string{High, Low}
	Actions = []string{Search, Wait, Recharge}

	pairings = map[string][]string{
		Low:  {Search, Wait, Recharge},
		High: {Search, Wait},
	}
)

type Config struct {
	// Alpha is the chance the battery stays high while searching
	Alpha float64
	// Beta is the chance the battery stays low while searching
	Beta    float64
	RSearch float64
	RWait   float64
}

func DefaultConfig() Config {
	return Config{
		Alpha:   0.5,
		Beta:    0.2,
		RSearch: 4,
		RWait:   1,
	}
}

type Transition struct {
	Next        string
	Reward      float64
	Probability float64
	Terminal    bool
}

// State of the robot's battery
type State string

var _ core.State = State("")

func (s State) Hash() string {
	return string(s)
}

func (s State) Actions() []core.Action {
	out := make([]core.Action, 0, len(pairings[string(s)]))
	for _, a := range pairings[string(s)] {
		out = append(out, Action(a))
	}
	return out
}

type Action string

var _ core.Action = Action("")

func (a Action) Hash() string {
	return string(a)
}

type Env struct {
	config      Config
	transitions map[string]map[string][]Transition

	state string
	sum   float64
	src   erand.Source
}

var _ core.Environment = &Env{}

// round1 rounds the exact binary value of x to one decimal, so 0.95 gives
// 0.9 and not 1.
func round1(x float64) float64 {
	r, _ := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 1, 64), 64)
	return r
}

func New(config Config, seed uint64) *Env {
	return &Env{
		config: config,
		transitions: map[string]map[string][]Transition{
			Wait: {
				High: {{Next: High, Reward: config.RWait, Probability: 1}},
				Low:  {{Next: Low, Reward: config.RWait, Probability: 1}},
			},
			Recharge: {
				Low: {{Next: High, Reward: 0, Probability: 1}},
			},
			Search: {
				High: {
					{Next: High, Reward: config.RSearch, Probability: round1(config.Alpha)},
					{Next: Low, Reward: config.RSearch, Probability: round1(1 - config.Alpha)},
				},
				Low: {
					{Next: Low, Reward: config.RSearch, Probability: round1(config.Beta)},
					{Next: High, Reward: rescueReward, Probability: round1(1 - config.Beta)},
				},
			},
		},
		state: High,
		src:   erand.NewSource(seed),
	}
}

// PossibleActions in state, nil for an unknown state.
func (e *Env) PossibleActions(state string) []string {
	actions, ok := pairings[state]
	if !ok {
		return nil
	}
	out := make([]string, len(actions))
	copy(out, actions)
	return out
}

// TransitionOutcomes of taking action in state, nil when not available.
func (e *Env) TransitionOutcomes(state, action string) []Transition {
	ts := e.transitions[action][state]
	if len(ts) == 0 {
		return nil
	}
	out := make([]Transition, len(ts))
	copy(out, ts)
	return out
}

// Model enumerates every state and action into a transition model.
func (e *Env) Model() (*mdp.Model[string, string], error) {
	records := make([]mdp.Record[string, string], 0)
	for _, s := range States {
		for _, a := range Actions {
			for _, t := range e.transitions[a][s] {
				if t.Probability == 0 {
					continue
				}
				records = append(records, mdp.Record[string, string]{
					State:       s,
					Action:      a,
					Next:        t.Next,
					Reward:      t.Reward,
					Probability: t.Probability,
				})
			}
		}
	}
	return mdp.NewModel(States, Actions, records)
}

func (e *Env) Reset() (core.State, error) {
	e.state = High
	e.sum = 0
	return State(e.state), nil
}

func (e *Env) Step(a core.Action, _ *core.StepContext) (*core.StepResult, error) {
	action := a.Hash()
	transitions := e.transitions[action][e.state]
	if len(transitions) == 0 {
		return nil, fmt.Errorf("recycle: action %q not available in state %q", action, e.state)
	}
	weights := make([]float64, len(transitions))
	for i, t := range transitions {
		weights[i] = t.Probability
	}
	i, ok := sampleuv.NewWeighted(weights, e.src).Take()
	if !ok {
		return nil, fmt.Errorf("recycle: no outcome with positive probability for %q in %q", action, e.state)
	}
	t := transitions[i]
	e.sum += t.Reward
	e.state = t.Next
	return &core.StepResult{
		NextState: State(t.Next),
		Reward:    t.Reward,
		Terminal:  t.Terminal,
		Info:      map[string]interface{}{"sum": e.sum},
	}, nil
}

// Sum of rewards since the last reset
func (e *Env) Sum() float64 {
	return e.sum
}

func (e *Env) State() string {
	return e.state
}

// Constructor creates independently seeded environments per worker.
func Constructor(config Config, seed uint64) core.EnvironmentConstructor {
	return core.EnvironmentConstructorFunc(func(instance int) core.Environment {
		return New(config, seed+uint64(instance))
	})
}
