package analysis

import (
	"fmt"
	"os"
	"path"
	"sort"

	"github.com/zeu5/tabular-dp/core"
	"github.com/zeu5/tabular-dp/util"
)

// EventSpec names a condition on a completed episode.
type EventSpec struct {
	Name  string
	Check func(*core.Trace) bool
}

type eventDataset struct {
	Episodes int
	Counts   map[string]int
	// First episode each event occurred in
	First map[string]int
}

func newEventDataset(events []EventSpec) *eventDataset {
	d := &eventDataset{
		Counts: make(map[string]int),
		First:  make(map[string]int),
	}
	for _, e := range events {
		d.Counts[e.Name] = 0
	}
	return d
}

func (d *eventDataset) Copy() *eventDataset {
	first := make(map[string]int)
	for k, v := range d.First {
		first[k] = v
	}
	return &eventDataset{
		Episodes: d.Episodes,
		Counts:   util.CopyStringIntMap(d.Counts),
		First:    first,
	}
}

// EventAnalyzer counts the episodes in which each event occurred. When a
// save path is given the matching traces are written under events/.
type EventAnalyzer struct {
	events   []EventSpec
	savePath string
	exp      string
	dataset  *eventDataset
}

var _ core.Analyzer = &EventAnalyzer{}

func NewEventAnalyzer(savePath string, events ...EventSpec) *EventAnalyzer {
	a := &EventAnalyzer{
		events:  events,
		dataset: newEventDataset(events),
	}
	if savePath != "" {
		a.savePath = path.Join(savePath, "events")
		if _, err := os.Stat(a.savePath); os.IsNotExist(err) {
			os.MkdirAll(a.savePath, 0755)
		}
	}
	return a
}

func (a *EventAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	if trace.Error() != nil || eCtx.IsTimeout() {
		return
	}
	a.dataset.Episodes++
	for _, event := range a.events {
		if !event.Check(trace) {
			continue
		}
		if a.dataset.Counts[event.Name] == 0 {
			a.dataset.First[event.Name] = eCtx.Episode
		}
		a.dataset.Counts[event.Name]++
		if a.savePath == "" {
			continue
		}
		fileName := path.Join(a.savePath, fmt.Sprintf("%d_%s_event_%d.txt", eCtx.Run, event.Name, eCtx.Episode))
		if a.exp != "" {
			fileName = path.Join(a.savePath, fmt.Sprintf("%d_%s_%s_event_%d.txt", eCtx.Run, a.exp, event.Name, eCtx.Episode))
		}
		os.WriteFile(fileName, []byte(traceToString(trace)), 0644)
	}
}

func (a *EventAnalyzer) DataSet() core.DataSet {
	return a.dataset.Copy()
}

func (a *EventAnalyzer) Reset() {
	a.dataset = newEventDataset(a.events)
}

type EventAnalyzerConstructor struct {
	// SavePath for traces, empty to only count
	SavePath string
	Events   []EventSpec
}

var _ core.AnalyzerConstructor = &EventAnalyzerConstructor{}

func NewEventAnalyzerConstructor(savePath string, events ...EventSpec) *EventAnalyzerConstructor {
	return &EventAnalyzerConstructor{
		SavePath: savePath,
		Events:   events,
	}
}

func (c *EventAnalyzerConstructor) NewAnalyzer(exp string, _ int) core.Analyzer {
	a := NewEventAnalyzer(c.SavePath, c.Events...)
	a.exp = exp
	return a
}

// EventRate of one event in one experiment
type EventRate struct {
	Count    int
	Episodes int
	Rate     float64
	First    int
}

type EventComparator struct {
	savePath string
	// Rates of the last comparison, by experiment then event
	Rates map[string]map[string]EventRate
}

var _ core.Comparator = &EventComparator{}

func NewEventComparator(savePath string) *EventComparator {
	return &EventComparator{
		savePath: savePath,
		Rates:    make(map[string]map[string]EventRate),
	}
}

func (c *EventComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	c.Rates = make(map[string]map[string]EventRate)
	for i, exp := range experimentNames {
		ds, ok := datasets[i].(*eventDataset)
		if !ok || ds == nil {
			continue
		}
		names := make([]string, 0, len(ds.Counts))
		for name := range ds.Counts {
			names = append(names, name)
		}
		sort.Strings(names)
		rates := make(map[string]EventRate)
		for _, name := range names {
			r := EventRate{Count: ds.Counts[name], Episodes: ds.Episodes, First: -1}
			if ds.Episodes > 0 {
				r.Rate = float64(r.Count) / float64(ds.Episodes)
			}
			if first, ok := ds.First[name]; ok {
				r.First = first
			}
			rates[name] = r
		}
		c.Rates[exp] = rates
	}
	if c.savePath != "" {
		util.SaveJson(path.Join(c.savePath, "events.json"), c.Rates)
	}
}

type EventComparatorConstructor struct {
	savePath string
	Last     *EventComparator
}

var _ core.ComparatorConstructor = &EventComparatorConstructor{}

func NewEventComparatorConstructor(savePath string) *EventComparatorConstructor {
	return &EventComparatorConstructor{savePath: savePath}
}

func (c *EventComparatorConstructor) NewComparator(run int) core.Comparator {
	savePath := ""
	if c.savePath != "" {
		savePath = path.Join(c.savePath, fmt.Sprintf("%d", run))
	}
	c.Last = NewEventComparator(savePath)
	return c.Last
}
