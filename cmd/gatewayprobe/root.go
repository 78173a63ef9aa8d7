package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kbukum/gatewayprobe/config"
	"github.com/kbukum/gatewayprobe/errors"
	"github.com/kbukum/gatewayprobe/report"
	"github.com/kbukum/gatewayprobe/version"
)

// exitError carries a process exit code out of a command. A nil err means
// the command already reported its result.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	envFile    string
	logLevel   string
}

// gatewayFlags select the gateway under test.
type gatewayFlags struct {
	endpoint string
	token    string
	timeout  time.Duration
	dialect  string
}

func (g *gatewayFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.endpoint, "endpoint", "", "gateway base URL (env GATEWAY_BASE_URL)")
	fs.StringVar(&g.token, "token", "", "gateway bearer token (env GATEWAY_TOKEN)")
	fs.DurationVar(&g.timeout, "timeout", 0, "per-probe timeout (default 30s)")
	fs.StringVar(&g.dialect, "dialect", "", "gateway wire dialect (default openai)")
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	gf := &globalFlags{}
	root := &cobra.Command{
		Use:   "gatewayprobe",
		Short: "Probe an OpenAI-compatible LLM gateway for model compatibility",
		Long: `gatewayprobe checks that a gateway is live, lists the models it exposes
and invokes each one in completion, structured-output and streaming modes.

Examples:
  gatewayprobe run --endpoint http://localhost:4000 --token sk-local
  gatewayprobe run --models gpt-4o,claude-sonnet --modes completion --format json
  gatewayprobe models --endpoint http://localhost:4000 --token sk-local`,
		Version:       version.Get().Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&gf.configFile, "config", "", "config file (default: ./config.yml or ./gatewayprobe.yml)")
	root.PersistentFlags().StringVar(&gf.envFile, "env-file", "", ".env file (default: ./.env)")
	root.PersistentFlags().StringVar(&gf.logLevel, "log-level", "", "log level: trace, debug, info, warn, error, disabled")

	root.AddCommand(newRunCmd(gf))
	root.AddCommand(newModelsCmd(gf))
	root.AddCommand(newVersionCmd())
	return root
}

// execute runs the CLI and maps the outcome to an exit code: 0 pass,
// 1 fail, 2 configuration or usage error.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return report.ExitPass
	}

	var ee *exitError
	if stderrors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", ee.err)
		}
		return ee.code
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return report.ExitConfigError
}

// loadConfig reads file and environment configuration. Flag overrides are
// applied by the caller before bootstrap validates the result.
func loadConfig(gf *globalFlags) (*config.Config, error) {
	var opts []config.LoaderOption
	if gf.configFile != "" {
		opts = append(opts, config.WithConfigFile(gf.configFile))
	}
	if gf.envFile != "" {
		opts = append(opts, config.WithEnvFile(gf.envFile))
	}
	cfg := &config.Config{}
	if err := config.LoadConfig(config.DefaultServiceName, cfg, opts...); err != nil {
		return nil, err
	}
	if gf.logLevel != "" {
		cfg.Logging.Level = gf.logLevel
	}
	return cfg, nil
}

// applyGatewayFlags overrides gateway settings with flags the user set.
func applyGatewayFlags(fs *pflag.FlagSet, g *gatewayFlags, cfg *config.Config) {
	if fs.Changed("endpoint") {
		cfg.Gateway.BaseURL = g.endpoint
	}
	if fs.Changed("token") {
		cfg.Gateway.Token = g.token
	}
	if fs.Changed("timeout") {
		cfg.Probe.Timeout = g.timeout
	}
	if fs.Changed("dialect") {
		cfg.Gateway.Dialect = g.dialect
	}
}

// configFailure wraps err with the exit code its kind deserves.
func configFailure(err error) error {
	if errors.IsConfiguration(err) {
		return &exitError{code: report.ExitConfigError, err: err}
	}
	return &exitError{code: report.ExitFail, err: err}
}
