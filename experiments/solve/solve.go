// Package solve runs policy iteration for the command line and saves what it
// found.
package solve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/zeu5/tabular-dp/experiments/common"
	"github.com/zeu5/tabular-dp/mdp"
	"github.com/zeu5/tabular-dp/report"
	"github.com/zeu5/tabular-dp/util"
)

// Entry of a saved solution, one per state
type Entry struct {
	State  interface{}
	Action interface{} `json:",omitempty"`
	Value  float64
}

type Solution struct {
	Name       string
	Gamma      float64
	Omega      float64
	Iterations int
	Sweeps     int
	Converged  bool
	Entries    []Entry
}

// progress mirrors solver callbacks onto printer lines and forwards them to
// the renderer, if any.
type progress[S, A comparable] struct {
	sweeps     *util.ParallelOutput
	iterations *util.ParallelOutput
	renderer   mdp.Observer[S, A]

	sweep int
}

func (p *progress[S, A]) ObserveValues(sweep int, values mdp.ValueFunction[S]) {
	p.sweep++
	p.sweeps.TrySet(fmt.Sprintf("Sweeps: %d (current evaluation %d)", p.sweep, sweep))
	if p.renderer != nil {
		p.renderer.ObserveValues(sweep, values)
	}
}

func (p *progress[S, A]) ObservePolicy(iteration int, actions []A, policy mdp.Policy[S, A]) {
	p.iterations.Set(fmt.Sprintf("Policy iterations: %d", iteration))
	if p.renderer != nil {
		p.renderer.ObservePolicy(iteration, actions, policy)
	}
}

// Run solves model with the solver settings in flags. Progress goes to out;
// with flags.Verbose every step is also drawn with renderer. The final values
// and policy are always drawn. solution.json and convergence.html are saved
// under flags.SavePath/name. A run that hits an iteration cap still saves
// what it has and returns mdp.ErrNotConverged.
func Run[S, A comparable](name string, flags *common.Flags, model *mdp.Model[S, A], renderer mdp.Observer[S, A], out io.Writer) (*mdp.Result[S, A], error) {
	solver, err := mdp.NewSolver[S, A](flags.SolverConfig())
	if err != nil {
		return nil, err
	}

	printer := util.NewTerminalPrinter(out, 100*time.Millisecond)
	p := &progress[S, A]{
		sweeps:     printer.NewOutput(),
		iterations: printer.NewOutput(),
	}
	if flags.Verbose {
		p.renderer = renderer
	}
	solver.Observe(p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if !flags.Verbose {
		printer.Start(ctx)
	}
	result, err := solver.Iterate(model, nil, flags.Omega)
	if !flags.Verbose {
		printer.Stop()
	}
	if err != nil && !errors.Is(err, mdp.ErrNotConverged) {
		return nil, err
	}

	if result.Policy != nil {
		renderer.ObserveValues(result.Sweeps, result.Values)
		renderer.ObservePolicy(result.Iterations, model.Actions(), result.Policy)
	}
	fmt.Fprintf(out, "\n%s: %d iterations, %d sweeps, converged: %v\n", name, result.Iterations, result.Sweeps, err == nil)

	if saveErr := save(name, flags, model, result, err == nil); saveErr != nil {
		return result, saveErr
	}
	return result, err
}

func save[S, A comparable](name string, flags *common.Flags, model *mdp.Model[S, A], result *mdp.Result[S, A], converged bool) error {
	solution := &Solution{
		Name:       name,
		Gamma:      flags.Gamma,
		Omega:      flags.Omega,
		Iterations: result.Iterations,
		Sweeps:     result.Sweeps,
		Converged:  converged,
		Entries:    make([]Entry, 0, len(model.States())),
	}
	for _, s := range model.States() {
		e := Entry{State: s, Value: result.Values[s]}
		if result.Policy != nil {
			if a, ok := result.Policy.Action(s); ok {
				e.Action = a
			}
		}
		solution.Entries = append(solution.Entries, e)
	}

	savePath := path.Join(flags.SavePath, name)
	if err := util.SaveJson(path.Join(savePath, "solution.json"), solution); err != nil {
		return err
	}
	return report.Save(path.Join(savePath, "convergence.html"), report.Convergence(name+" convergence", result.Deltas))
}
