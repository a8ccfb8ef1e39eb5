package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/gosuri/uilive"
)

var (
	ErrTooManyTimeouts = errors.New("too many timeouts")
	ErrTooManyErrors   = errors.New("too many errors")
	ErrNoAction        = errors.New("policy picked no action")
)

type experimentRunContext struct {
	run       int
	ctx       context.Context
	analyzers map[string]Analyzer

	writer io.Writer

	*RunConfig
}

type ExperimentResult struct {
	CompletedEpisodes int
	TotalEpisodes     int
	ErrorEpisodes     int
	TimeoutEpisodes   int
	TotalTimeSteps    int

	Error    error
	Datasets map[string]DataSet
}

func (r *ExperimentResult) IsError() bool {
	return r.Error != nil
}

// runEpisode plays a single episode and closes eCtx when done.
func (e *Experiment) runEpisode(eCtx *EpisodeContext, horizon int) {
	e.Policy.ResetEpisode(eCtx)
	state, err := e.Environment.Reset()
	if err != nil {
		eCtx.Error(err)
		return
	}
	for step := 0; step < horizon; step++ {
		select {
		case <-eCtx.Context.Done():
			eCtx.Error(eCtx.Context.Err())
			return
		default:
		}

		actions := state.Actions()
		if len(actions) == 0 {
			break
		}
		sCtx := &StepContext{Step: step, EpisodeContext: eCtx}
		action := e.Policy.PickAction(sCtx, state, actions)
		if action == nil {
			eCtx.Error(fmt.Errorf("%w in state %s", ErrNoAction, state.Hash()))
			return
		}
		res, err := e.Environment.Step(action, sCtx)
		if err != nil {
			eCtx.Error(err)
			return
		}
		eCtx.Trace.AddStep(&Step{
			State:     state,
			Action:    action,
			NextState: res.NextState,
			Reward:    res.Reward,
			Misc:      res.Info,
		})
		state = res.NextState
		if res.Terminal || res.Truncated {
			break
		}
	}
	eCtx.Finish()
}

func (e *Experiment) run(ctx *experimentRunContext) *ExperimentResult {
	result := &ExperimentResult{
		Datasets: make(map[string]DataSet),
	}
	e.Policy.Reset()

	consecutiveErrors := 0
	consecutiveTimeouts := 0
EpisodeLoop:
	for episode := 0; episode < ctx.Episodes; episode++ {
		select {
		case <-ctx.ctx.Done():
			result.Error = errors.New("context cancelled")
			break EpisodeLoop
		default:
		}

		fmt.Fprintf(
			ctx.writer,
			"Experiment: %s, Run %d, Episode %d/%d, Timesteps: %d, Error: %d, Timedout: %d\n",
			e.Name, ctx.run, episode, ctx.Episodes, result.TotalTimeSteps, result.ErrorEpisodes, result.TimeoutEpisodes,
		)
		var episodeCtx context.Context
		var cancel context.CancelFunc
		if ctx.EpisodeTimeout > 0 {
			episodeCtx, cancel = context.WithTimeout(ctx.ctx, ctx.EpisodeTimeout)
		} else {
			episodeCtx, cancel = context.WithCancel(ctx.ctx)
		}
		eCtx := NewEpisodeContext(episodeCtx)
		eCtx.Run = ctx.run
		eCtx.Episode = episode
		eCtx.Horizon = ctx.Horizon

		go e.runEpisode(eCtx, ctx.Horizon)

		errorred := false
		timedout := false
		select {
		case <-eCtx.Done():
			errorred = eCtx.IsError()
		case <-episodeCtx.Done():
			timedout = true
			// the episode goroutine notices the cancelled context on its next step
			<-eCtx.Done()
		}
		cancel()

		if errorred {
			result.ErrorEpisodes++
			if consecutiveErrors++; ctx.ThresholdConsecutiveErrors > 0 && consecutiveErrors >= ctx.ThresholdConsecutiveErrors {
				result.Error = ErrTooManyErrors
				break EpisodeLoop
			}
		} else {
			consecutiveErrors = 0
		}
		if timedout {
			result.TimeoutEpisodes++
			if consecutiveTimeouts++; ctx.ThresholdConsecutiveTimeouts > 0 && consecutiveTimeouts >= ctx.ThresholdConsecutiveTimeouts {
				result.Error = ErrTooManyTimeouts
				break EpisodeLoop
			}
		} else {
			consecutiveTimeouts = 0
		}

		if !errorred && !timedout {
			result.TotalTimeSteps += eCtx.Trace.Len()
			result.CompletedEpisodes++
		}
		result.TotalEpisodes++

		for _, a := range ctx.analyzers {
			a.Analyze(eCtx, eCtx.Trace)
		}
	}
	if result.Error != nil {
		fmt.Fprintf(ctx.writer, "Experiment: %s, Run %d, Error: %v\n", e.Name, ctx.run, result.Error)
	}

	for name, a := range ctx.analyzers {
		result.Datasets[name] = a.DataSet()
	}

	e.Policy.Reset()
	return result
}

// compare groups the datasets per analyzer in experiment order and hands them
// to the comparators. Errored experiments contribute nil datasets.
func compare(experimentNames []string, results map[string]*ExperimentResult, analyzerNames []string, compare func(string, []DataSet)) {
	datasets := make(map[string][]DataSet)
	for _, exp := range experimentNames {
		result := results[exp]
		for _, name := range analyzerNames {
			if result == nil || result.IsError() {
				datasets[name] = append(datasets[name], nil)
			} else {
				datasets[name] = append(datasets[name], result.Datasets[name])
			}
		}
	}
	for _, name := range analyzerNames {
		compare(name, datasets[name])
	}
}

// Run executes every experiment runs times and returns the results of the
// last run keyed by experiment name.
func (c *Comparison) Run(ctx context.Context, runs int, rConfig *RunConfig) map[string]*ExperimentResult {
	var results map[string]*ExperimentResult
	for run := 0; run < runs; run++ {
		select {
		case <-ctx.Done():
			return results
		default:
		}

		results = make(map[string]*ExperimentResult)
		experimentNames := make([]string, 0, len(c.Experiments))
		for _, e := range c.Experiments {
			select {
			case <-ctx.Done():
				return results
			default:
			}
			rCtx := &experimentRunContext{
				run:       run,
				ctx:       ctx,
				analyzers: make(map[string]Analyzer),
				writer:    c.Writer,
				RunConfig: rConfig,
			}
			if rCtx.writer == nil {
				rCtx.writer = io.Discard
			}

			for name, a := range c.Analyzers {
				a.Reset()
				rCtx.analyzers[name] = a
			}

			results[e.Name] = e.run(rCtx)
			experimentNames = append(experimentNames, e.Name)
		}

		analyzerNames := make([]string, 0, len(c.Analyzers))
		for name := range c.Analyzers {
			analyzerNames = append(analyzerNames, name)
		}
		sort.Strings(analyzerNames)
		compare(experimentNames, results, analyzerNames, func(name string, ds []DataSet) {
			if cmp, ok := c.Comparators[name]; ok {
				cmp.Compare(experimentNames, ds)
			}
		})
	}
	return results
}

// parallelWorker is a worker that runs experiments
type parallelWorker struct {
	id int
}

// parallelWork is a struct that contains all the information needed to run an experiment
type parallelWork struct {
	experiment *ParallelExperiment
	comp       *ParallelComparison
	runNumber  int
	writer     io.Writer
	rConfig    *RunConfig
}

// parallelResult is a struct that contains the result of running an experiment
type parallelResult struct {
	experimentName string
	run            int
	result         *ExperimentResult
}

// Worker main loop that consumes work from a channel
func (w *parallelWorker) run(ctx context.Context, workCh <-chan *parallelWork, resultsCh chan<- *parallelResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case work, more := <-workCh:
			if !more {
				return
			}
			result := w.runWork(ctx, work)
			select {
			case resultsCh <- result:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Run an experiment by constructing the experiment context, *Experiment
func (w *parallelWorker) runWork(ctx context.Context, work *parallelWork) *parallelResult {
	eCtx := &experimentRunContext{
		run:       work.runNumber,
		ctx:       ctx,
		analyzers: make(map[string]Analyzer),
		writer:    work.writer,
		RunConfig: work.rConfig,
	}

	for name, aC := range work.comp.Analyzers {
		eCtx.analyzers[name] = aC.NewAnalyzer(work.experiment.Name, work.runNumber)
	}

	// Construct the experiment
	exp := &Experiment{
		Name:        work.experiment.Name,
		Environment: work.experiment.Environment.NewEnvironment(w.id),
		Policy:      work.experiment.Policy.NewPolicy(w.id),
	}

	result := exp.run(eCtx)
	return &parallelResult{
		experimentName: work.experiment.Name,
		run:            work.runNumber,
		result:         result,
	}
}

// Run executes the experiments of every run on parallelism workers, printing
// live progress to out. Returns the results of the last completed run.
func (c *ParallelComparison) Run(ctx context.Context, out io.Writer, runs int, rConfig *RunConfig, parallelism int) map[string]*ExperimentResult {
	if parallelism < 1 {
		parallelism = 1
	}
	experimentNames := make([]string, len(c.Experiments))
	for i, e := range c.Experiments {
		experimentNames[i] = e.Name
	}
	analyzerNames := make([]string, 0, len(c.Analyzers))
	for name := range c.Analyzers {
		analyzerNames = append(analyzerNames, name)
	}
	sort.Strings(analyzerNames)

	var last map[string]*ExperimentResult
	for run := 0; run < runs; run++ {
		select {
		case <-ctx.Done():
			return last
		default:
		}
		writer := uilive.New()
		writer.Out = out
		writer.Start()
		fmt.Fprintf(writer, "Run %d\n", run)

		workCh := make(chan *parallelWork, len(c.Experiments))
		resultsCh := make(chan *parallelResult, len(c.Experiments))

		for i := 0; i < parallelism; i++ {
			worker := &parallelWorker{id: i}
			go worker.run(ctx, workCh, resultsCh)
		}
		for _, e := range c.Experiments {
			workCh <- &parallelWork{
				experiment: e,
				comp:       c,
				runNumber:  run,
				rConfig:    rConfig,
				writer:     writer.Newline(),
			}
		}
		close(workCh)

		results := make(map[string]*ExperimentResult)
	Gather:
		for range c.Experiments {
			select {
			case <-ctx.Done():
				break Gather
			case r := <-resultsCh:
				results[r.experimentName] = r.result
			}
		}
		writer.Stop()
		if len(results) != len(c.Experiments) {
			return last
		}
		last = results

		compare(experimentNames, results, analyzerNames, func(name string, ds []DataSet) {
			if cC, ok := c.Comparators[name]; ok {
				cC.NewComparator(run).Compare(experimentNames, ds)
			}
		})
	}
	return last
}
