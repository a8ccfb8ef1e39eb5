package sales

import (
	"fmt"

	"github.com/zeu5/tabular-dp/analysis"
	"github.com/zeu5/tabular-dp/core"
	"github.com/zeu5/tabular-dp/envs/sales"
	"github.com/zeu5/tabular-dp/experiments/common"
	"github.com/zeu5/tabular-dp/mdp"
	"github.com/zeu5/tabular-dp/policies"
)

// Keys maps sales states and prices onto tabular policy keys.
func Keys() policies.KeyFuncs[sales.State, int] {
	return policies.KeyFuncs[sales.State, int]{
		State: func(s core.State) (sales.State, bool) {
			ss, ok := s.(sales.State)
			return ss, ok
		},
		Action: func(a core.Action) (int, bool) {
			p, ok := a.(sales.Price)
			return int(p), ok
		},
	}
}

// FixedPrice always asks price.
func FixedPrice(price int) mdp.PolicyFunc[sales.State, int] {
	return func(_ sales.State, a int) (float64, error) {
		if a == price {
			return 1, nil
		}
		return 0, nil
	}
}

// Markdown starts at the highest price and drops one step per period,
// never going below the lowest.
func Markdown() mdp.PolicyFunc[sales.State, int] {
	return func(s sales.State, a int) (float64, error) {
		i := len(sales.Prices) - s.Period
		if i < 0 {
			i = 0
		}
		if a == sales.Prices[i] {
			return 1, nil
		}
		return 0, nil
	}
}

// PrepareComparison rolls out a random seller against fixed price and
// markdown sellers. Returns are undiscounted profit.
func PrepareComparison(flags *common.Flags) *core.ParallelComparison {
	cmp := core.NewParallelComparison()
	envConstructor := sales.Constructor(sales.DefaultConfig(), flags.Seed)

	if flags.Debug {
		cmp.AddAnalysis("Debug", analysis.NewTraceAnalyzerConstructor(flags.SavePath, flags.Episodes-10), analysis.NewNoOpComparatorConstructor())
	}
	cmp.AddAnalysis("Errors", analysis.NewErrorAnalyzerConstructor(flags.SavePath), analysis.NewNoOpComparatorConstructor())
	cmp.AddAnalysis("Returns", analysis.NewReturnAnalyzerConstructor(1), analysis.NewReturnComparatorConstructor(flags.SavePath))
	cmp.AddAnalysis("Events", analysis.NewEventAnalyzerConstructor("", SoldOut, Scrapped), analysis.NewEventComparatorConstructor(flags.SavePath))

	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "Random",
		Environment: envConstructor,
		Policy:      &policies.RandomPolicyConstructor{Seed: int64(flags.Seed)},
	})
	for _, price := range sales.Prices {
		cmp.AddExperiment(&core.ParallelExperiment{
			Name:        fmt.Sprintf("Fixed%d", price),
			Environment: envConstructor,
			Policy:      policies.NewTabularPolicyConstructor[sales.State, int](FixedPrice(price), Keys(), flags.Seed),
		})
	}
	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "Markdown",
		Environment: envConstructor,
		Policy:      policies.NewTabularPolicyConstructor[sales.State, int](Markdown(), Keys(), flags.Seed),
	})
	return cmp
}
