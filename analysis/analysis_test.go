package analysis

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/zeu5/tabular-dp/core"
)

// countdown pays 1 per step and ends after length steps. When fail is set
// the last step errors instead.
type countdown struct {
	length int
	left   int
	fail   bool
}

type cdState int

func (s cdState) Hash() string { return strconv.Itoa(int(s)) }

func (s cdState) Actions() []core.Action {
	if s == 0 {
		return nil
	}
	return []core.Action{cdAction{}}
}

type cdAction struct{}

func (cdAction) Hash() string { return "next" }

func (c *countdown) Reset() (core.State, error) {
	c.left = c.length
	return cdState(c.left), nil
}

func (c *countdown) Step(_ core.Action, _ *core.StepContext) (*core.StepResult, error) {
	if c.fail && c.left == 1 {
		return nil, errors.New("boom")
	}
	c.left--
	return &core.StepResult{NextState: cdState(c.left), Reward: 1, Terminal: c.left == 0}, nil
}

type firstPolicy struct{}

func (firstPolicy) ResetEpisode(*core.EpisodeContext) {}
func (firstPolicy) Reset()                            {}
func (firstPolicy) PickAction(_ *core.StepContext, _ core.State, actions []core.Action) core.Action {
	return actions[0]
}

func runComparison(t *testing.T, envs map[string]core.Environment, episodes int, name string, a core.Analyzer, c core.Comparator) map[string]*core.ExperimentResult {
	t.Helper()
	cmp := core.NewComparison()
	for _, exp := range []string{"long", "short", "broken"} {
		env, ok := envs[exp]
		if !ok {
			continue
		}
		cmp.AddExperiment(&core.Experiment{Name: exp, Environment: env, Policy: firstPolicy{}})
	}
	cmp.AddAnalysis(name, a, c)
	return cmp.Run(context.Background(), 1, &core.RunConfig{Episodes: episodes, Horizon: 10})
}

func TestReturnComparatorSummaries(t *testing.T) {
	dir := t.TempDir()
	cc := NewReturnComparatorConstructor(dir)
	comparator := cc.NewComparator(0).(*ReturnComparator)
	runComparison(t, map[string]core.Environment{
		"long":  &countdown{length: 3},
		"short": &countdown{length: 1},
	}, 4, "returns", NewReturnAnalyzer(1), comparator)

	long := comparator.Summaries["long"]
	if long.Episodes != 4 || long.Mean != 3 || long.StdDev != 0 {
		t.Fatalf("unexpected long summary %+v", long)
	}
	if comparator.Summaries["short"].Mean != 1 {
		t.Fatalf("unexpected short summary %+v", comparator.Summaries["short"])
	}
	for _, f := range []string{"returns.json", "returns.html"} {
		if _, err := os.Stat(filepath.Join(dir, "0", f)); err != nil {
			t.Fatalf("expected %s: %s", f, err)
		}
	}
}

func TestReturnAnalyzerDiscounts(t *testing.T) {
	a := NewReturnAnalyzer(0.5)
	runComparison(t, map[string]core.Environment{"long": &countdown{length: 3}}, 1, "returns", a, NewNoOpComparator())
	ds := a.DataSet().(*returnDataset)
	if len(ds.Returns) != 1 || math.Abs(ds.Returns[0]-1.75) > 1e-12 {
		t.Fatalf("expected discounted return 1.75, got %v", ds.Returns)
	}
	if ds.Lengths[0] != 3 {
		t.Fatalf("expected 3 steps, got %d", ds.Lengths[0])
	}
}

func TestReturnAnalyzerSkipsErrors(t *testing.T) {
	a := NewReturnAnalyzer(1)
	res := runComparison(t, map[string]core.Environment{"broken": &countdown{length: 2, fail: true}}, 3, "returns", a, NewNoOpComparator())
	if res["broken"].ErrorEpisodes != 3 {
		t.Fatalf("expected 3 errored episodes, got %d", res["broken"].ErrorEpisodes)
	}
	if n := len(a.DataSet().(*returnDataset).Returns); n != 0 {
		t.Fatalf("expected no returns recorded, got %d", n)
	}
}

func TestEventRates(t *testing.T) {
	dir := t.TempDir()
	long := EventSpec{Name: "long", Check: func(tr *core.Trace) bool { return tr.Len() > 2 }}
	never := EventSpec{Name: "never", Check: func(*core.Trace) bool { return false }}
	comparator := NewEventComparator("")
	runComparison(t, map[string]core.Environment{
		"long":  &countdown{length: 3},
		"short": &countdown{length: 1},
	}, 5, "events", NewEventAnalyzer(dir, long, never), comparator)

	if r := comparator.Rates["long"]["long"]; r.Count != 5 || r.Rate != 1 || r.First != 0 {
		t.Fatalf("unexpected rate %+v", r)
	}
	if r := comparator.Rates["short"]["long"]; r.Count != 0 || r.First != -1 {
		t.Fatalf("unexpected rate %+v", r)
	}
	if r := comparator.Rates["long"]["never"]; r.Episodes != 5 || r.Rate != 0 {
		t.Fatalf("unexpected rate %+v", r)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "events"))
	if err != nil {
		t.Fatalf("read dir: %s", err)
	}
	if len(entries) != 5 {
		t.Fatalf("expected 5 saved traces, got %d", len(entries))
	}
}

func TestErrorAnalyzerWritesTrace(t *testing.T) {
	dir := t.TempDir()
	cmp := core.NewComparison()
	cmp.AddExperiment(&core.Experiment{Name: "broken", Environment: &countdown{length: 2, fail: true}, Policy: firstPolicy{}})
	cmp.AddAnalysis("errors", NewErrorAnalyzerConstructor(dir).NewAnalyzer("broken", 0), NewNoOpComparator())
	cmp.Run(context.Background(), 1, &core.RunConfig{Episodes: 1, Horizon: 10})

	bs, err := os.ReadFile(filepath.Join(dir, "errors", "0_broken_error_0.txt"))
	if err != nil {
		t.Fatalf("read: %s", err)
	}
	if !strings.Contains(string(bs), "boom") || !strings.Contains(string(bs), "Step 0") {
		t.Fatalf("unexpected error file %q", string(bs))
	}
}

func TestTraceAnalyzerThreshold(t *testing.T) {
	dir := t.TempDir()
	cmp := core.NewComparison()
	cmp.AddExperiment(&core.Experiment{Name: "long", Environment: &countdown{length: 2}, Policy: firstPolicy{}})
	cmp.AddAnalysis("traces", NewTraceAnalyzer(dir, 2), NewNoOpComparator())
	cmp.Run(context.Background(), 1, &core.RunConfig{Episodes: 4, Horizon: 10})

	entries, err := os.ReadDir(filepath.Join(dir, "traces"))
	if err != nil {
		t.Fatalf("read dir: %s", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected traces of episodes 2 and 3, got %d files", len(entries))
	}
	bs, _ := os.ReadFile(filepath.Join(dir, "traces", "0_trace_3.txt"))
	if !strings.Contains(string(bs), "Return: 2.0000") {
		t.Fatalf("unexpected trace %q", string(bs))
	}
}
