// Package bootstrap runs a finite task with a uniform lifecycle: validate
// the typed config, initialise the logger, start registered components,
// run the task under SIGINT/SIGTERM cancellation, then stop the components
// in reverse order whatever the task returned.
//
//	app, err := bootstrap.NewApp(&cfg)
//	app.RegisterComponent(transport)
//	err = app.RunTask(ctx, func(ctx context.Context) error {
//	    return probeGateway(ctx)
//	})
package bootstrap
