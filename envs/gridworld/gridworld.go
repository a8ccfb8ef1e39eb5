// Package gridworld is the square grid with absorbing top-left and
// bottom-right corners. States are numbered row by row from 0. Every move
// costs StepReward; moves into a wall leave the agent in place.
package gridworld

import (
	"fmt"
	"strconv"

	"github.com/zeu5/tabular-dp/core"
	"github.com/zeu5/tabular-dp/mdp"
	"github.com/zeu5/tabular-dp/policies"
)

const (
	Up    = 1
	Down  = 2
	Left  = 3
	Right = 4
)

var Actions = []int{Up, Down, Left, Right}

type Config struct {
	Size       int
	StepReward float64
	// Start is the state episodes begin in
	Start int
}

func DefaultConfig() Config {
	return Config{
		Size:       4,
		StepReward: -1,
		Start:      5,
	}
}

type Grid struct {
	config Config
	state  int
}

var _ core.Environment = &Grid{}

func New(config Config) (*Grid, error) {
	if config.Size < 2 {
		return nil, fmt.Errorf("gridworld: size must be at least 2, got %d", config.Size)
	}
	if config.Start < 0 || config.Start >= config.Size*config.Size {
		return nil, fmt.Errorf("gridworld: start %d outside the grid", config.Start)
	}
	return &Grid{config: config, state: config.Start}, nil
}

func (g *Grid) States() []int {
	out := make([]int, g.config.Size*g.config.Size)
	for i := range out {
		out[i] = i
	}
	return out
}

func (g *Grid) IsTerminal(s int) bool {
	return s == 0 || s == g.config.Size*g.config.Size-1
}

// Move returns the state reached from s with action a.
func (g *Grid) Move(s, a int) int {
	n := g.config.Size
	r, c := s/n, s%n
	switch a {
	case Up:
		r--
	case Down:
		r++
	case Left:
		c--
	case Right:
		c++
	}
	if r < 0 || r >= n || c < 0 || c >= n {
		return s
	}
	return r*n + c
}

// Model of the grid. Terminal corners have no outcomes.
func (g *Grid) Model() (*mdp.Model[int, int], error) {
	records := make([]mdp.Record[int, int], 0)
	for _, s := range g.States() {
		if g.IsTerminal(s) {
			continue
		}
		for _, a := range Actions {
			records = append(records, mdp.Record[int, int]{
				State:       s,
				Action:      a,
				Next:        g.Move(s, a),
				Reward:      g.config.StepReward,
				Probability: 1,
			})
		}
	}
	return mdp.NewModel(g.States(), Actions, records)
}

type State struct {
	Cell     int
	terminal bool
}

var _ core.State = State{}

func (s State) Hash() string {
	return strconv.Itoa(s.Cell)
}

func (s State) Actions() []core.Action {
	if s.terminal {
		return []core.Action{}
	}
	out := make([]core.Action, len(Actions))
	for i, a := range Actions {
		out[i] = Action(a)
	}
	return out
}

type Action int

var _ core.Action = Action(0)

func (a Action) Hash() string {
	return strconv.Itoa(int(a))
}

func (g *Grid) coreState(s int) State {
	return State{Cell: s, terminal: g.IsTerminal(s)}
}

func (g *Grid) Reset() (core.State, error) {
	g.state = g.config.Start
	return g.coreState(g.state), nil
}

func (g *Grid) Step(a core.Action, _ *core.StepContext) (*core.StepResult, error) {
	if g.IsTerminal(g.state) {
		return nil, fmt.Errorf("gridworld: step from terminal state %d", g.state)
	}
	action, ok := a.(Action)
	if !ok {
		return nil, fmt.Errorf("gridworld: unexpected action %s", a.Hash())
	}
	g.state = g.Move(g.state, int(action))
	return &core.StepResult{
		NextState: g.coreState(g.state),
		Reward:    g.config.StepReward,
		Terminal:  g.IsTerminal(g.state),
	}, nil
}

func Constructor(config Config) core.EnvironmentConstructor {
	return core.EnvironmentConstructorFunc(func(int) core.Environment {
		g, err := New(config)
		if err != nil {
			panic(err)
		}
		return g
	})
}

// Keys maps simulator states and actions back to cells and moves.
func Keys() policies.KeyFuncs[int, int] {
	return policies.KeyFuncs[int, int]{
		State: func(s core.State) (int, bool) {
			gs, ok := s.(State)
			return gs.Cell, ok
		},
		Action: func(a core.Action) (int, bool) {
			ga, ok := a.(Action)
			return int(ga), ok
		},
	}
}
