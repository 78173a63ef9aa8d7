package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/gatewayprobe/bootstrap"
	"github.com/kbukum/gatewayprobe/httpclient"
	"github.com/kbukum/gatewayprobe/probe"
	"github.com/kbukum/gatewayprobe/report"
)

func newModelsCmd(gf *globalFlags) *cobra.Command {
	g := &gatewayFlags{}
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Check liveness and list the model ids the gateway exposes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(gf)
			if err != nil {
				return configFailure(err)
			}
			applyGatewayFlags(cmd.Flags(), g, cfg)

			app, err := bootstrap.NewApp(cfg)
			if err != nil {
				return configFailure(err)
			}
			endpoint, err := probe.NewEndpoint(cfg.Gateway.BaseURL, cfg.Gateway.Token)
			if err != nil {
				return configFailure(err)
			}
			dialect, err := probe.LookupDialect(cfg.Gateway.Dialect)
			if err != nil {
				return configFailure(err)
			}
			transport := httpclient.NewComponent(endpoint.TransportConfig(cfg.Probe.Timeout, 1))
			if err := app.RegisterComponent(transport); err != nil {
				return configFailure(err)
			}

			var ids []string
			err = app.RunTask(cmd.Context(), func(ctx context.Context) error {
				prober, err := probe.NewProber(transport.Adapter(),
					probe.WithDialect(dialect),
					probe.WithLogger(app.Logger.WithComponent("probe")),
				)
				if err != nil {
					return err
				}

				liveCtx, cancel := context.WithTimeout(ctx, cfg.Probe.Timeout)
				live := prober.Liveness(liveCtx)
				cancel()
				if !live.OK() {
					return fmt.Errorf("gateway %s is not live: %s", endpoint, live)
				}

				// Enumeration gets a full timeout of its own.
				enumCtx, cancel := context.WithTimeout(ctx, cfg.Probe.Timeout)
				defer cancel()
				var enum probe.Outcome
				ids, enum = prober.Enumerate(enumCtx)
				if !enum.OK() {
					return fmt.Errorf("listing models at %s: %s", endpoint, enum)
				}
				return nil
			})
			if err != nil {
				return &exitError{code: report.ExitFail, err: err}
			}

			out := cmd.OutOrStdout()
			for _, id := range ids {
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
	g.register(cmd.Flags())
	return cmd
}
