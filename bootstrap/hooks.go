package bootstrap

import (
	"context"
	"fmt"

	"github.com/kbukum/spikekit/logger"
)

// Hook is a start or stop callback; tasks use them to bring up and tear
// down infrastructure bootstrap knows nothing about.
type Hook func(ctx context.Context) error

// OnStart appends hooks that run, in order, before the task.
func (a *App[C]) OnStart(hooks ...Hook) {
	a.onStart = append(a.onStart, hooks...)
}

// OnStop appends hooks that run after the task, last registered first.
// Hooks may be added while start hooks run, for example to shut down an
// exporter a start hook just created.
func (a *App[C]) OnStop(hooks ...Hook) {
	a.onStop = append(a.onStop, hooks...)
}

// start runs the start hooks in order and stops at the first failure.
func (a *App[C]) start(ctx context.Context) error {
	for i := 0; i < len(a.onStart); i++ {
		if err := a.onStart[i](ctx); err != nil {
			return fmt.Errorf("start hook %d: %w", i, err)
		}
	}
	return nil
}

// stop runs every stop hook in reverse within the graceful timeout and
// returns the first failure. ctx only supplies values; its cancellation
// is ignored so hooks still run after the task was cancelled.
func (a *App[C]) stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.gracefulTimeout)
	defer cancel()

	var first error
	for i := len(a.onStop) - 1; i >= 0; i-- {
		if err := a.onStop[i](ctx); err != nil {
			a.Logger.Error("stop hook failed", logger.ErrorFields("stop", err))
			if first == nil {
				first = err
			}
		}
	}
	return first
}
