package core

import "context"

// Environment is a simulator that can be rolled out step by step.
type Environment interface {
	Reset() (State, error)
	Step(Action, *StepContext) (*StepResult, error)
}

type State interface {
	Hash() string
	// Actions available in the state. Terminal states return none.
	Actions() []Action
}

type Action interface {
	Hash() string
}

// StepResult is the outcome of a single environment step.
type StepResult struct {
	NextState State
	Reward    float64
	// Terminal is set when the episode ended inside the environment
	Terminal bool
	// Truncated is set when the environment cut the episode short
	Truncated bool
	Info      map[string]interface{}
}

type EpisodeContext struct {
	Context context.Context
	Episode int
	Horizon int
	Run     int

	Trace *Trace

	err     error
	timeout bool
	doneCh  chan struct{}
}

func NewEpisodeContext(ctx context.Context) *EpisodeContext {
	return &EpisodeContext{
		Context: ctx,
		Trace:   NewTrace(),
		doneCh:  make(chan struct{}),
	}
}

func (e *EpisodeContext) Error(err error) {
	e.err = err
	e.Trace.SetError(err)
	close(e.doneCh)
}

func (e *EpisodeContext) Timeout() {
	e.timeout = true
	close(e.doneCh)
}

func (e *EpisodeContext) Finish() {
	close(e.doneCh)
}

func (e *EpisodeContext) IsError() bool {
	return e.err != nil
}

func (e *EpisodeContext) Err() error {
	return e.err
}

func (e *EpisodeContext) IsTimeout() bool {
	return e.timeout
}

func (e *EpisodeContext) Done() <-chan struct{} {
	return e.doneCh
}

type StepContext struct {
	Step int
	*EpisodeContext
}

type EnvironmentConstructor interface {
	// NewEnvironment creates a new environment with the given instance number.
	NewEnvironment(int) Environment
}

// EnvironmentConstructorFunc adapts a function to EnvironmentConstructor.
type EnvironmentConstructorFunc func(int) Environment

func (f EnvironmentConstructorFunc) NewEnvironment(instance int) Environment {
	return f(instance)
}
