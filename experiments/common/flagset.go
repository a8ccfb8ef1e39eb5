package common

import (
	"path"
	"time"

	"github.com/spf13/pflag"
	"github.com/zeu5/tabular-dp/core"
	"github.com/zeu5/tabular-dp/mdp"
	"github.com/zeu5/tabular-dp/util"
)

type Flags struct {
	SolverFlags
	SavePath string
	RunFlags
	Parallelism int
	Seed        uint64
	Verbose     bool
	// Debug dumps the traces of the last ten episodes
	Debug bool
}

type SolverFlags struct {
	Gamma         float64
	Omega         float64
	MaxSweeps     int
	MaxIterations int
	GridSize      int
}

type RunFlags struct {
	NumRuns                int
	Episodes               int
	Horizon                int
	MaxConsecutiveErrors   int
	MaxConsecutiveTimeouts int
	EpisodeTimeout         time.Duration
}

func DefaultFlags() *Flags {
	return &Flags{
		SolverFlags: SolverFlags{
			Gamma:         mdp.DefaultGamma,
			Omega:         0.01,
			MaxSweeps:     0,
			MaxIterations: 0,
			GridSize:      4,
		},
		SavePath: "results",
		RunFlags: RunFlags{
			NumRuns:                1,
			Episodes:               1000,
			Horizon:                50,
			MaxConsecutiveErrors:   20,
			MaxConsecutiveTimeouts: 20,
			EpisodeTimeout:         10 * time.Second,
		},
		Parallelism: 4,
		Seed:        1,
		Verbose:     false,
		Debug:       false,
	}
}

// AddFlags binds every field to fs, using the current values as defaults.
func (f *Flags) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.SavePath, "save-path", f.SavePath, "Path to save results")
	fs.Float64Var(&f.Gamma, "gamma", f.Gamma, "Discount factor in [0, 1)")
	fs.Float64Var(&f.Omega, "omega", f.Omega, "Evaluation stops once a sweep changes no value by more than omega")
	fs.IntVar(&f.MaxSweeps, "max-sweeps", f.MaxSweeps, "Maximum evaluation sweeps, 0 for no limit")
	fs.IntVar(&f.MaxIterations, "max-iterations", f.MaxIterations, "Maximum policy iterations, 0 for no limit")
	fs.IntVar(&f.GridSize, "grid-size", f.GridSize, "Side length of the gridworld")
	fs.Uint64Var(&f.Seed, "seed", f.Seed, "Seed for environments and policies")
	fs.BoolVarP(&f.Verbose, "verbose", "v", f.Verbose, "Print every solver iteration")
	fs.BoolVar(&f.Debug, "debug", f.Debug, "Save the traces of the last episodes")

	fs.IntVar(&f.NumRuns, "num-runs", f.NumRuns, "Number of runs")
	fs.IntVar(&f.Episodes, "episodes", f.Episodes, "Number of episodes")
	fs.IntVar(&f.Horizon, "horizon", f.Horizon, "Horizon")
	fs.IntVar(&f.MaxConsecutiveErrors, "max-consecutive-errors", f.MaxConsecutiveErrors, "Maximum number of consecutive errors")
	fs.IntVar(&f.MaxConsecutiveTimeouts, "max-consecutive-timeouts", f.MaxConsecutiveTimeouts, "Maximum number of consecutive timeouts")
	fs.DurationVar(&f.EpisodeTimeout, "episode-timeout", f.EpisodeTimeout, "Episode timeout")
	fs.IntVar(&f.Parallelism, "parallelism", f.Parallelism, "Number of parallel runs")
}

func (f *Flags) SolverConfig() mdp.Config {
	return mdp.Config{
		Gamma:         f.Gamma,
		MaxSweeps:     f.MaxSweeps,
		MaxIterations: f.MaxIterations,
	}
}

func (f *Flags) RunConfig() *core.RunConfig {
	return &core.RunConfig{
		Episodes:                     f.Episodes,
		Horizon:                      f.Horizon,
		ThresholdConsecutiveErrors:   f.MaxConsecutiveErrors,
		ThresholdConsecutiveTimeouts: f.MaxConsecutiveTimeouts,
		EpisodeTimeout:               f.EpisodeTimeout,
	}
}

func (f *Flags) Record() error {
	return util.SaveJson(path.Join(f.SavePath, "config.json"), f)
}
