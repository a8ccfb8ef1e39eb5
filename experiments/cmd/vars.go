package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/zeu5/tabular-dp/experiments/common"
)

var flags *common.Flags = common.DefaultFlags()

// interruptContext is cancelled on an interrupt or once done is closed.
func interruptContext() (context.Context, chan struct{}) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt) // channel for interrupts from os

	doneCh := make(chan struct{}) // channel for done signal from application

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		select {
		case <-sigCh:
		case <-doneCh:
		}
		signal.Stop(sigCh)
		cancel()
	}()
	return ctx, doneCh
}
