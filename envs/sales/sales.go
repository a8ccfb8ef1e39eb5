// Package sales simulates selling a fixed stock over several periods. Each
// period the seller picks a price, demand is drawn from a noisy price curve,
// and whatever is left after the last period is scrapped.
package sales

import (
	"fmt"
	"math"
	"strconv"

	"github.com/zeu5/tabular-dp/core"
	erand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Prices the seller can choose from
var Prices = []int{5, 10, 15, 20, 25}

// Terminal is the state after the stock ran out or was scrapped.
var Terminal = State{Quantity: 0, Period: -1}

type Config struct {
	MaxInventory int
	MaxSaleTime  int
	BuyPrice     float64
	ScrapPrice   float64
}

func DefaultConfig() Config {
	return Config{
		MaxInventory: 20,
		MaxSaleTime:  4,
		BuyPrice:     14,
		ScrapPrice:   5,
	}
}

type State struct {
	Quantity int
	Period   int
}

var _ core.State = State{}

func (s State) Hash() string {
	return fmt.Sprintf("%d:%d", s.Quantity, s.Period)
}

func (s State) IsTerminal() bool {
	return s == Terminal
}

func (s State) Actions() []core.Action {
	if s.IsTerminal() {
		return []core.Action{}
	}
	out := make([]core.Action, len(Prices))
	for i, p := range Prices {
		out[i] = Price(p)
	}
	return out
}

type Price int

var _ core.Action = Price(0)

func (p Price) Hash() string {
	return strconv.Itoa(int(p))
}

type Env struct {
	config Config
	state  State
	src    erand.Source
}

var _ core.Environment = &Env{}

func New(config Config, seed uint64) *Env {
	return &Env{
		config: config,
		state:  State{Quantity: config.MaxInventory, Period: 1},
		src:    erand.NewSource(seed),
	}
}

// StateSpace lists every reachable state, terminal last.
func (e *Env) StateSpace() []State {
	out := make([]State, 0, e.config.MaxInventory*e.config.MaxSaleTime+1)
	for q := 1; q <= e.config.MaxInventory; q++ {
		for t := 1; t <= e.config.MaxSaleTime; t++ {
			out = append(out, State{Quantity: q, Period: t})
		}
	}
	return append(out, Terminal)
}

func (e *Env) Reset() (core.State, error) {
	e.state = State{Quantity: e.config.MaxInventory, Period: 1}
	return e.state, nil
}

func (e *Env) State() State {
	return e.state
}

// Step sells at the given price. In the last period the remaining stock is
// scrapped regardless of the price. Stock bought for the season is paid for
// in the first period, per unit sold.
//
// Revenue and the buying cost are charged on min(stock, demand), not on raw
// demand, so units that were never in stock earn and cost nothing.
func (e *Env) Step(a core.Action, _ *core.StepContext) (*core.StepResult, error) {
	if e.state.IsTerminal() {
		return nil, fmt.Errorf("sales: step after the season ended")
	}
	price, ok := a.(Price)
	if !ok {
		return nil, fmt.Errorf("sales: unexpected action %s", a.Hash())
	}

	if e.state.Period == e.config.MaxSaleTime {
		reward := e.config.ScrapPrice * float64(e.state.Quantity)
		info := map[string]interface{}{"scrapped": e.state.Quantity}
		e.state = Terminal
		return &core.StepResult{NextState: e.state, Reward: reward, Terminal: true, Info: info}, nil
	}

	demand := e.Demand(int(price))
	sold := demand
	if sold > e.state.Quantity {
		sold = e.state.Quantity
	}
	reward := float64(int(price) * sold)
	if e.state.Period == 1 {
		reward -= e.config.BuyPrice * float64(sold)
	}

	next := State{Quantity: e.state.Quantity - sold, Period: e.state.Period + 1}
	info := map[string]interface{}{"demand": demand, "sold": sold}
	if next.Quantity == 0 {
		e.state = Terminal
		return &core.StepResult{NextState: e.state, Reward: reward, Terminal: true, Info: info}, nil
	}
	e.state = next
	return &core.StepResult{NextState: e.state, Reward: reward, Info: info}, nil
}

// Demand at price for the current period. The curve is linear through
// (10, 20), (12, 12) and (15, 10) and falls off logarithmically above 15.
// Demand in the first half of the season gets up to 20% extra.
func (e *Env) Demand(price int) int {
	p := float64(price)
	var d float64
	switch {
	case price <= 12:
		d = line(10, 20, 12, 12, p) * e.uniform(0.75, 1.25)
	case price <= 15:
		d = line(12, 12, 15, 10, p) * e.uniform(0.75, 1.25)
	default:
		d = (-4*math.Log(p-15+1) + 10) * e.uniform(1, 2)
	}
	if float64(e.state.Period) <= float64(e.config.MaxSaleTime)/2 {
		d *= e.uniform(1, 1.2)
	}
	if d < 0 {
		return 0
	}
	return int(math.Round(d))
}

func line(x1, y1, x2, y2, x float64) float64 {
	a := (y1 - y2) / (x1 - x2)
	b := y1 - a*x1
	return a*x + b
}

func (e *Env) uniform(lo, hi float64) float64 {
	return distuv.Uniform{Min: lo, Max: hi, Src: e.src}.Rand()
}

func Constructor(config Config, seed uint64) core.EnvironmentConstructor {
	return core.EnvironmentConstructorFunc(func(instance int) core.Environment {
		return New(config, seed+uint64(instance))
	})
}
