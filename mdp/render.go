package mdp

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/logrusorgru/aurora"
	"github.com/mattn/go-isatty"
)

// Observer receives intermediate results of a Solver. Observers must not
// modify what they are given. A panicking observer is ignored by the solver.
//
// ObserveValues gets the sweep index within the running evaluation.
// ObservePolicy gets the policy iteration index and the model's actions, so
// that stochastic policies can be drawn as well as greedy ones.
type Observer[S, A comparable] interface {
	ObserveValues(sweep int, values ValueFunction[S])
	ObservePolicy(iteration int, actions []A, policy Policy[S, A])
}

// selected lists the actions policy picks with positive probability in state,
// in declaration order. Lookup errors count as probability 0.
func selected[S, A comparable](policy Policy[S, A], actions []A, state S) []A {
	out := make([]A, 0, 1)
	for _, a := range actions {
		if p, err := policy.Prob(state, a); err == nil && p > 0 {
			out = append(out, a)
		}
	}
	return out
}

var directionMap = map[int]string{
	1: " ↑ ",
	2: " ↓ ",
	3: " ← ",
	4: " → ",
}

func newAurora(w io.Writer) aurora.Aurora {
	if f, ok := w.(*os.File); ok {
		return aurora.NewAurora(isatty.IsTerminal(f.Fd()))
	}
	return aurora.NewAurora(false)
}

// GridRenderer prints values and policies of a square grid whose states are
// numbered row by row from 0. Actions 1 to 4 are drawn as arrows.
type GridRenderer struct {
	w    io.Writer
	cols int
	au   aurora.Aurora
}

var _ Observer[int, int] = &GridRenderer{}

func NewGridRenderer(w io.Writer, numStates int) *GridRenderer {
	return &GridRenderer{
		w:    w,
		cols: int(math.Sqrt(float64(numStates))),
		au:   newAurora(w),
	}
}

func (g *GridRenderer) separator() string {
	return strings.Repeat("-", g.cols*8+1)
}

func (g *GridRenderer) ObserveValues(sweep int, values ValueFunction[int]) {
	buf := new(strings.Builder)
	fmt.Fprintf(buf, "\nValue function after %d sweeps.\n", sweep)
	buf.WriteString(g.separator() + "\n")
	for r := 0; r < g.cols; r++ {
		cells := make([]string, g.cols)
		for c := 0; c < g.cols; c++ {
			v := values[r*g.cols+c]
			cell := fmt.Sprintf("%6.2f", v)
			if v < 0 {
				cells[c] = g.au.Red(cell).String()
			} else {
				cells[c] = g.au.Green(cell).String()
			}
		}
		buf.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		buf.WriteString(g.separator() + "\n")
	}
	io.WriteString(g.w, buf.String())
}

func (g *GridRenderer) ObservePolicy(iteration int, actions []int, policy Policy[int, int]) {
	buf := new(strings.Builder)
	fmt.Fprintf(buf, "\nPolicy after %d iterations.\n", iteration)
	buf.WriteString(g.separator() + "\n")
	for r := 0; r < g.cols; r++ {
		cells := make([]string, g.cols)
		for c := 0; c < g.cols; c++ {
			picked := selected(policy, actions, r*g.cols+c)
			if len(picked) == 0 {
				cells[c] = "   "
				continue
			}
			glyphs := make([]string, len(picked))
			for i, a := range picked {
				glyph, known := directionMap[a]
				if !known {
					glyph = fmt.Sprintf("%3d", a)
				}
				glyphs[i] = glyph
			}
			if len(glyphs) > 1 {
				for i := range glyphs {
					glyphs[i] = strings.TrimSpace(glyphs[i])
				}
			}
			cells[c] = g.au.Cyan(strings.Join(glyphs, "")).String()
		}
		buf.WriteString("| " + strings.Join(cells, " | ") + " |\n")
		buf.WriteString(g.separator() + "\n")
	}
	io.WriteString(g.w, buf.String())
}

// ListRenderer prints one line per state, in the given order. It works for
// any state and action type.
type ListRenderer[S, A comparable] struct {
	w      io.Writer
	states []S
	au     aurora.Aurora
}

func NewListRenderer[S, A comparable](w io.Writer, states []S) *ListRenderer[S, A] {
	return &ListRenderer[S, A]{
		w:      w,
		states: states,
		au:     newAurora(w),
	}
}

func (l *ListRenderer[S, A]) ObserveValues(sweep int, values ValueFunction[S]) {
	buf := new(strings.Builder)
	fmt.Fprintf(buf, "Value function after %d sweeps.\n", sweep)
	for _, s := range l.states {
		fmt.Fprintf(buf, "  %-12v %s\n", s, l.au.Green(fmt.Sprintf("%8.3f", values[s])))
	}
	io.WriteString(l.w, buf.String())
}

func (l *ListRenderer[S, A]) ObservePolicy(iteration int, actions []A, policy Policy[S, A]) {
	buf := new(strings.Builder)
	fmt.Fprintf(buf, "Policy after %d iterations.\n", iteration)
	for _, s := range l.states {
		picked := selected(policy, actions, s)
		if len(picked) == 0 {
			fmt.Fprintf(buf, "  %-12v -\n", s)
			continue
		}
		names := make([]string, len(picked))
		for i, a := range picked {
			names[i] = fmt.Sprint(a)
		}
		fmt.Fprintf(buf, "  %-12v %s\n", s, l.au.Cyan(strings.Join(names, ", ")))
	}
	io.WriteString(l.w, buf.String())
}
