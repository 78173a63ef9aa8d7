package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/gatewayprobe/bootstrap"
	"github.com/kbukum/gatewayprobe/config"
	"github.com/kbukum/gatewayprobe/httpclient"
	"github.com/kbukum/gatewayprobe/logger"
	"github.com/kbukum/gatewayprobe/observability"
	"github.com/kbukum/gatewayprobe/probe"
	"github.com/kbukum/gatewayprobe/report"
	"github.com/kbukum/gatewayprobe/runner"
)

type runFlags struct {
	gatewayFlags
	models      []string
	modes       []string
	retries     int
	concurrency int
	rateLimit   float64
	maxTokens   int
	format      string
	output      string
}

func newRunCmd(gf *globalFlags) *cobra.Command {
	rf := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run liveness, enumeration and invocation probes and print a report",
		Long: `Run checks that the gateway is live, enumerates its models unless --models
is given, then invokes every model in every requested mode.

Exit status is 0 when the gateway is live and at least one model succeeds
in every requested mode, 1 otherwise and 2 on a configuration error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(gf)
			if err != nil {
				return configFailure(err)
			}
			rf.apply(cmd, cfg)
			return runProbe(cmd, cfg)
		},
	}

	fs := cmd.Flags()
	rf.gatewayFlags.register(fs)
	fs.StringArrayVar(&rf.models, "models", nil, "model ids to probe, repeatable or comma-separated (default: enumerate)")
	fs.StringArrayVar(&rf.modes, "modes", nil, "invocation modes: completion, structured, streaming (default: all)")
	fs.IntVar(&rf.retries, "retries", 0, "extra attempts for probes that time out")
	fs.IntVar(&rf.concurrency, "concurrency", config.DefaultConcurrency, "invocations in flight; 1 runs sequentially")
	fs.Float64Var(&rf.rateLimit, "rate-limit", 0, "maximum gateway requests per second; 0 disables the limit")
	fs.IntVar(&rf.maxTokens, "max-tokens", config.DefaultMaxTokens, "max_tokens for completion and streaming probes")
	fs.StringVarP(&rf.format, "format", "f", config.DefaultFormat, "report format: text, json, yaml")
	fs.StringVarP(&rf.output, "output", "o", "", "write the report to a file instead of stdout")
	return cmd
}

// apply overrides file and environment values with the flags the user set.
func (rf *runFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fs := cmd.Flags()
	applyGatewayFlags(fs, &rf.gatewayFlags, cfg)
	if fs.Changed("models") {
		cfg.Probe.Models = rf.models
	}
	if fs.Changed("modes") {
		cfg.Probe.Modes = rf.modes
	}
	if fs.Changed("retries") {
		cfg.Probe.Retries = rf.retries
	}
	if fs.Changed("concurrency") {
		cfg.Probe.Concurrency = rf.concurrency
	}
	if fs.Changed("rate-limit") {
		cfg.Probe.RateLimit = rf.rateLimit
	}
	if fs.Changed("max-tokens") {
		cfg.Probe.MaxTokens = rf.maxTokens
	}
	if fs.Changed("format") {
		cfg.Report.Format = rf.format
	}
	if fs.Changed("output") {
		cfg.Report.Output = rf.output
	}
}

func runProbe(cmd *cobra.Command, cfg *config.Config) error {
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
	modes, err := probe.ParseModes(cfg.Probe.Modes)
	if err != nil {
		return configFailure(err)
	}
	format, err := report.ParseFormat(cfg.Report.Format)
	if err != nil {
		return configFailure(err)
	}

	transport := httpclient.NewComponent(endpoint.TransportConfig(cfg.Probe.Timeout, cfg.Probe.Concurrency))
	if err := app.RegisterComponent(observability.NewTracerComponent(cfg.Tracing)); err != nil {
		return configFailure(err)
	}
	if err := app.RegisterComponent(transport); err != nil {
		return configFailure(err)
	}

	var rep *report.Report
	taskErr := app.RunTask(cmd.Context(), func(ctx context.Context) error {
		prober, err := probe.NewProber(transport.Adapter(),
			probe.WithDialect(dialect),
			probe.WithMaxTokens(cfg.Probe.MaxTokens),
			probe.WithLogger(app.Logger.WithComponent("probe")),
		)
		if err != nil {
			return err
		}
		r := runner.New(prober, endpoint.String(), runner.Config{
			Timeout:     cfg.Probe.Timeout,
			Retries:     cfg.Probe.Retries,
			Backoff:     cfg.Probe.Backoff,
			Concurrency: cfg.Probe.Concurrency,
			RateLimit:   cfg.Probe.RateLimit,
		}, runner.WithLogger(app.Logger.WithComponent("runner")))

		var runErr error
		rep, runErr = r.Run(ctx, runner.Plan{Models: cfg.Probe.Models, Modes: modes})
		if rep != nil {
			if err := report.WriteFile(rep, format, cfg.Report.Output, cmd.OutOrStdout()); err != nil {
				return err
			}
			if cfg.Report.Output != "" {
				app.Logger.Info("report written", logger.Fields("path", cfg.Report.Output, "format", string(format)))
			}
		}
		return runErr
	})

	if rep == nil {
		if taskErr == nil {
			taskErr = fmt.Errorf("run produced no report")
		}
		return &exitError{code: report.ExitFail, err: taskErr}
	}
	if taskErr != nil {
		return &exitError{code: report.ExitFail, err: taskErr}
	}
	if code := report.ExitCode(rep); code != report.ExitPass {
		return &exitError{code: code}
	}
	return nil
}
