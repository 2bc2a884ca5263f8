package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kbukum/spikekit/logger"
)

// lifecycle is the part of an App that does not depend on the config type.
type lifecycle struct {
	Logger *logger.Logger

	gracefulTimeout time.Duration
	signals         []os.Signal
	onStart         []Hook
	onStop          []Hook
}

// App runs one finite task with typed config, hooks and signal handling.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.OnStop(shutdownTelemetry)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return detect(ctx, app.Cfg)
//	})
type App[C Config] struct {
	lifecycle

	Name    string
	Version string
	Cfg     C
}

// NewApp applies cfg's defaults and validates it, then initializes the
// global logger from its logging section unless WithLogger was given.
func NewApp[C Config](cfg C, opts ...Option) (*App[C], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	base := cfg.GetServiceConfig()

	app := &App[C]{
		lifecycle: lifecycle{
			gracefulTimeout: 15 * time.Second,
			signals:         []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		},
		Name:    base.Name,
		Version: base.Version,
		Cfg:     cfg,
	}
	for _, opt := range opts {
		opt(&app.lifecycle)
	}
	if app.Logger == nil {
		logger.Init(base.Logging)
		app.Logger = logger.GetGlobalLogger()
	}
	return app, nil
}

// RunTask runs the start hooks, then task, then the stop hooks. The task's
// context is cancelled by the configured signals or when ctx is done.
//
// A failing start hook skips the task but still runs the stop hooks, so
// whatever earlier hooks set up is released. The task's error takes
// priority over a stop hook's.
func (a *App[C]) RunTask(ctx context.Context, task func(ctx context.Context) error) error {
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.Logger.Debug("task starting", logger.Fields("name", a.Name, "version", a.Version))

	if err := a.start(taskCtx); err != nil {
		if stopErr := a.stop(ctx); stopErr != nil {
			a.Logger.Warn("stop after failed start", logger.ErrorFields("stop", stopErr))
		}
		return fmt.Errorf("onStart hook failed: %w", err)
	}

	if len(a.signals) > 0 {
		unwatch := a.watchSignals(taskCtx, cancel)
		defer unwatch()
	}

	err := task(taskCtx)
	if stopErr := a.stop(ctx); err == nil {
		err = stopErr
	}
	a.Logger.Debug("task finished")
	return err
}

// Shutdown runs the stop hooks, for callers driving the task themselves.
func (a *App[C]) Shutdown(ctx context.Context) error {
	return a.stop(ctx)
}

// watchSignals calls cancel on the first configured signal until ctx is
// done or the returned func is called.
func (a *App[C]) watchSignals(ctx context.Context, cancel context.CancelFunc) func() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, a.signals...)
	go func() {
		select {
		case sig := <-ch:
			a.Logger.Info("signal received, cancelling task", logger.Fields("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()
	return func() { signal.Stop(ch) }
}
