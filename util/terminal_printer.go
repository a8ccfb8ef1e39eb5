package util

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/gosuri/uilive"
)

// TerminalPrinter redraws one line per ParallelOutput at a fixed frequency.
type TerminalPrinter struct {
	parallelOutputs []*ParallelOutput
	frequency       time.Duration
	doneCh          chan struct{}
	stopped         chan struct{}
	once            sync.Once

	writer  *uilive.Writer
	writers []io.Writer
}

func NewTerminalPrinter(out io.Writer, frequency time.Duration) *TerminalPrinter {
	writer := uilive.New()
	writer.Out = out
	return &TerminalPrinter{
		parallelOutputs: make([]*ParallelOutput, 0),
		frequency:       frequency,
		doneCh:          make(chan struct{}),
		stopped:         make(chan struct{}),

		writer:  writer,
		writers: make([]io.Writer, 0),
	}
}

// NewOutput must be called before Start.
func (t *TerminalPrinter) NewOutput() *ParallelOutput {
	out := NewParallelOutput()
	t.parallelOutputs = append(t.parallelOutputs, out)
	if len(t.writers) == 0 {
		t.writers = append(t.writers, t.writer)
	} else {
		t.writers = append(t.writers, t.writer.Newline())
	}
	return out
}

func (p *TerminalPrinter) Start(ctx context.Context) {
	go func() {
		defer close(p.stopped)
		for {
			select {
			case <-p.doneCh:
				p.print()
				return
			case <-ctx.Done():
				p.print()
				return
			case <-time.After(p.frequency):
				p.print()
			}
		}
	}()
}

// Stop prints the outputs one last time and waits for the printer to exit.
func (p *TerminalPrinter) Stop() {
	p.once.Do(func() { close(p.doneCh) })
	<-p.stopped
}

func (p *TerminalPrinter) print() {
	for i, output := range p.parallelOutputs {
		fmt.Fprint(p.writers[i], output.Get()+"\n")
	}
	p.writer.Flush()
}

// ParallelOutput holds the latest line of one producer.
type ParallelOutput struct {
	mu        *sync.Mutex
	printable string
}

func NewParallelOutput() *ParallelOutput {
	return &ParallelOutput{
		mu:        new(sync.Mutex),
		printable: "",
	}
}

// Set the output string (blocking)
func (p *ParallelOutput) Set(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printable = s
}

// Try to set the output string (non-blocking)
func (p *ParallelOutput) TrySet(s string) bool {
	if p.mu.TryLock() {
		defer p.mu.Unlock()
		p.printable = s
		return true
	}
	return false
}

// Get the output string (blocking)
func (p *ParallelOutput) Get() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.printable
}
