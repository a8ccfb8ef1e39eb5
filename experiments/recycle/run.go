package recycle

import (
	"github.com/zeu5/tabular-dp/analysis"
	"github.com/zeu5/tabular-dp/core"
	"github.com/zeu5/tabular-dp/envs/recycle"
	"github.com/zeu5/tabular-dp/experiments/common"
	"github.com/zeu5/tabular-dp/mdp"
	"github.com/zeu5/tabular-dp/policies"
)

// SolvePolicy runs policy iteration on the recycling robot model.
func SolvePolicy(flags *common.Flags, config recycle.Config) (*mdp.DeterministicPolicy[string, string], error) {
	model, err := recycle.New(config, flags.Seed).Model()
	if err != nil {
		return nil, err
	}
	solver, err := mdp.NewSolver[string, string](flags.SolverConfig())
	if err != nil {
		return nil, err
	}
	result, err := solver.Iterate(model, nil, flags.Omega)
	if err != nil {
		return nil, err
	}
	return result.Policy, nil
}

// PrepareComparison rolls out the solved policy against a random one and
// one that never searches.
func PrepareComparison(flags *common.Flags) (*core.ParallelComparison, error) {
	config := recycle.DefaultConfig()
	solved, err := SolvePolicy(flags, config)
	if err != nil {
		return nil, err
	}
	waiting, err := mdp.NewDeterministicPolicy(recycle.States, recycle.Actions, map[string]string{
		recycle.High: recycle.Wait,
		recycle.Low:  recycle.Wait,
	})
	if err != nil {
		return nil, err
	}

	cmp := core.NewParallelComparison()
	envConstructor := recycle.Constructor(config, flags.Seed)

	if flags.Debug {
		cmp.AddAnalysis("Debug", analysis.NewTraceAnalyzerConstructor(flags.SavePath, flags.Episodes-10), analysis.NewNoOpComparatorConstructor())
	}
	cmp.AddAnalysis("Errors", analysis.NewErrorAnalyzerConstructor(flags.SavePath), analysis.NewNoOpComparatorConstructor())
	cmp.AddAnalysis("Returns", analysis.NewReturnAnalyzerConstructor(flags.Gamma), analysis.NewReturnComparatorConstructor(flags.SavePath))
	cmp.AddAnalysis("Events", analysis.NewEventAnalyzerConstructor("", Rescued, Recharged), analysis.NewEventComparatorConstructor(flags.SavePath))

	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "Random",
		Environment: envConstructor,
		Policy:      &policies.RandomPolicyConstructor{Seed: int64(flags.Seed)},
	})
	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "Wait",
		Environment: envConstructor,
		Policy:      policies.NewTabularPolicyConstructor[string, string](waiting, policies.HashKeys(), flags.Seed),
	})
	cmp.AddExperiment(&core.ParallelExperiment{
		Name:        "Solved",
		Environment: envConstructor,
		Policy:      policies.NewTabularPolicyConstructor[string, string](solved, policies.HashKeys(), flags.Seed),
	})
	return cmp, nil
}
