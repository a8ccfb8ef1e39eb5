package core

import "sync"

type Step struct {
	State     State
	Action    Action
	NextState State
	Reward    float64

	Misc map[string]interface{}
}

type Trace struct {
	mtx   *sync.Mutex
	steps []*Step
	err   error
}

func NewTrace() *Trace {
	return &Trace{
		steps: make([]*Step, 0),
		mtx:   &sync.Mutex{},
	}
}

func (t *Trace) AddStep(s *Step) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.steps = append(t.steps, s)
}

func (t *Trace) Step(i int) *Step {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.steps[i]
}

func (t *Trace) Len() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return len(t.steps)
}

func (t *Trace) Last() *Step {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	if len(t.steps) == 0 {
		return nil
	}
	return t.steps[len(t.steps)-1]
}

// Return is the undiscounted sum of rewards.
func (t *Trace) Return() float64 {
	return t.DiscountedReturn(1)
}

func (t *Trace) DiscountedReturn(gamma float64) float64 {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	total := 0.0
	discount := 1.0
	for _, s := range t.steps {
		total += discount * s.Reward
		discount *= gamma
	}
	return total
}

func (t *Trace) SetError(err error) {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	t.err = err
}

// Error the episode ended with, if any
func (t *Trace) Error() error {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return t.err
}
