package analysis

import (
	"path"
	"strconv"

	"github.com/zeu5/tabular-dp/core"
	"github.com/zeu5/tabular-dp/report"
	"github.com/zeu5/tabular-dp/util"
	"gonum.org/v1/gonum/stat"
)

type returnDataset struct {
	Episodes []int
	Returns  []float64
	Lengths  []int

	Mean   float64
	StdDev float64
}

func (r *returnDataset) Copy() *returnDataset {
	return &returnDataset{
		Episodes: util.CopyIntSlice(r.Episodes),
		Returns:  util.CopyFloatSlice(r.Returns),
		Lengths:  util.CopyIntSlice(r.Lengths),
		Mean:     r.Mean,
		StdDev:   r.StdDev,
	}
}

// ReturnAnalyzer records the discounted return of every completed episode.
type ReturnAnalyzer struct {
	gamma   float64
	dataset *returnDataset
}

var _ core.Analyzer = &ReturnAnalyzer{}

func newReturnDataset() *returnDataset {
	return &returnDataset{
		Episodes: make([]int, 0),
		Returns:  make([]float64, 0),
		Lengths:  make([]int, 0),
	}
}

// NewReturnAnalyzer discounts rewards by gamma, 1 gives plain sums.
func NewReturnAnalyzer(gamma float64) *ReturnAnalyzer {
	return &ReturnAnalyzer{
		gamma:   gamma,
		dataset: newReturnDataset(),
	}
}

func (r *ReturnAnalyzer) Reset() {
	r.dataset = newReturnDataset()
}

func (r *ReturnAnalyzer) Analyze(eCtx *core.EpisodeContext, trace *core.Trace) {
	if trace.Error() != nil || eCtx.IsTimeout() {
		return
	}
	r.dataset.Episodes = append(r.dataset.Episodes, eCtx.Episode)
	r.dataset.Returns = append(r.dataset.Returns, trace.DiscountedReturn(r.gamma))
	r.dataset.Lengths = append(r.dataset.Lengths, trace.Len())
	r.dataset.Mean, r.dataset.StdDev = stat.MeanStdDev(r.dataset.Returns, nil)
}

func (r *ReturnAnalyzer) DataSet() core.DataSet {
	return r.dataset.Copy()
}

type ReturnAnalyzerConstructor struct {
	gamma float64
}

var _ core.AnalyzerConstructor = &ReturnAnalyzerConstructor{}

func NewReturnAnalyzerConstructor(gamma float64) *ReturnAnalyzerConstructor {
	return &ReturnAnalyzerConstructor{gamma: gamma}
}

func (c *ReturnAnalyzerConstructor) NewAnalyzer(_ string, _ int) core.Analyzer {
	return NewReturnAnalyzer(c.gamma)
}

// ReturnSummary is what ReturnComparator saves per experiment.
type ReturnSummary struct {
	Episodes int
	Mean     float64
	StdDev   float64
	Returns  []float64
}

type ReturnComparator struct {
	savePath string
	// Summaries of the last comparison
	Summaries map[string]ReturnSummary
}

var _ core.Comparator = &ReturnComparator{}

func NewReturnComparator(savePath string) *ReturnComparator {
	return &ReturnComparator{
		savePath:  savePath,
		Summaries: make(map[string]ReturnSummary),
	}
}

// Compare saves returns.json and returns.html under the save path. Errored
// experiments are skipped.
func (c *ReturnComparator) Compare(experimentNames []string, datasets []core.DataSet) {
	series := make(map[string][]float64)
	c.Summaries = make(map[string]ReturnSummary)
	for i, name := range experimentNames {
		ds, ok := datasets[i].(*returnDataset)
		if !ok || ds == nil {
			continue
		}
		series[name] = ds.Returns
		c.Summaries[name] = ReturnSummary{
			Episodes: len(ds.Returns),
			Mean:     ds.Mean,
			StdDev:   ds.StdDev,
			Returns:  ds.Returns,
		}
	}
	if c.savePath == "" {
		return
	}
	util.SaveJson(path.Join(c.savePath, "returns.json"), c.Summaries)
	report.Save(path.Join(c.savePath, "returns.html"), report.Returns("Episode returns", series))
}

type ReturnComparatorConstructor struct {
	savePath string
	// Last comparator handed out
	Last *ReturnComparator
}

var _ core.ComparatorConstructor = &ReturnComparatorConstructor{}

func NewReturnComparatorConstructor(savePath string) *ReturnComparatorConstructor {
	return &ReturnComparatorConstructor{
		savePath: savePath,
	}
}

func (c *ReturnComparatorConstructor) NewComparator(run int) core.Comparator {
	savePath := ""
	if c.savePath != "" {
		savePath = path.Join(c.savePath, strconv.Itoa(run))
	}
	c.Last = NewReturnComparator(savePath)
	return c.Last
}

// MeanReturn of a dataset produced by ReturnAnalyzer.
func MeanReturn(ds core.DataSet) (float64, bool) {
	r, ok := ds.(*returnDataset)
	if !ok || r == nil || len(r.Returns) == 0 {
		return 0, false
	}
	return r.Mean, true
}
