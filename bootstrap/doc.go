// Package bootstrap runs finite tasks such as the spikes CLI with a uniform
// lifecycle: typed config defaults and validation, logger initialization,
// start/stop hooks, and task cancellation on SIGINT/SIGTERM.
//
// # Quick Start
//
//	app, err := bootstrap.NewApp(&cfg)
//	if err != nil {
//	    return err
//	}
//	app.OnStop(func(ctx context.Context) error { return tp.Shutdown(ctx) })
//	return app.RunTask(ctx, func(ctx context.Context) error {
//	    return run(ctx)
//	})
package bootstrap
