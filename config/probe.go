package config

import (
	"strings"
	"time"

	"github.com/kbukum/gatewayprobe/observability"
	"github.com/kbukum/gatewayprobe/validation"
)

// DefaultServiceName is used when config.yml does not set a name.
const DefaultServiceName = "gatewayprobe"

// Default probe settings.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultBackoff     = 250 * time.Millisecond
	DefaultConcurrency = 4
	DefaultMaxTokens   = 64
	DefaultFormat      = "text"
	DefaultDialect     = "openai"
)

// DefaultModes is the declared invocation mode order.
var DefaultModes = []string{"completion", "structured", "streaming"}

// Config is the root configuration of the gatewayprobe CLI.
type Config struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Gateway GatewayConfig              `yaml:"gateway" mapstructure:"gateway"`
	Probe   ProbeConfig                `yaml:"probe" mapstructure:"probe"`
	Report  ReportConfig               `yaml:"report" mapstructure:"report"`
	Tracing observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
}

// GatewayConfig identifies the gateway under test.
type GatewayConfig struct {
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"required,http_url"`
	Token   string `yaml:"token" mapstructure:"token" validate:"required"`
	// Dialect names the registered wire dialect spoken by the gateway.
	Dialect string `yaml:"dialect" mapstructure:"dialect"`
}

// ProbeConfig controls which probes run and how.
type ProbeConfig struct {
	Models      []string      `yaml:"models" mapstructure:"models"`
	Modes       []string      `yaml:"modes" mapstructure:"modes" validate:"min=1,dive,oneof=completion structured streaming"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Retries     int           `yaml:"retries" mapstructure:"retries" validate:"gte=0,lte=10"`
	Backoff     time.Duration `yaml:"backoff" mapstructure:"backoff"`
	Concurrency int           `yaml:"concurrency" mapstructure:"concurrency" validate:"gte=1,lte=64"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=1"`
	// RateLimit caps gateway requests per second across all probes. Zero
	// disables the limit.
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit" validate:"gte=0"`
}

// ReportConfig selects how the report is rendered.
type ReportConfig struct {
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=text json yaml yml"`
	Output string `yaml:"output" mapstructure:"output"`
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()

	c.Gateway.BaseURL = strings.TrimRight(strings.TrimSpace(c.Gateway.BaseURL), "/")
	c.Gateway.Dialect = strings.ToLower(strings.TrimSpace(c.Gateway.Dialect))
	if c.Gateway.Dialect == "" {
		c.Gateway.Dialect = DefaultDialect
	}
	c.Probe.Models = SplitList(c.Probe.Models)
	c.Probe.Modes = SplitList(c.Probe.Modes)
	for i, m := range c.Probe.Modes {
		c.Probe.Modes[i] = strings.ToLower(m)
	}
	if len(c.Probe.Modes) == 0 {
		c.Probe.Modes = append([]string(nil), DefaultModes...)
	}
	if c.Probe.Timeout == 0 {
		c.Probe.Timeout = DefaultTimeout
	}
	if c.Probe.Backoff == 0 {
		c.Probe.Backoff = DefaultBackoff
	}
	if c.Probe.Concurrency == 0 {
		c.Probe.Concurrency = DefaultConcurrency
	}
	if c.Probe.MaxTokens == 0 {
		c.Probe.MaxTokens = DefaultMaxTokens
	}
	c.Report.Format = strings.ToLower(strings.TrimSpace(c.Report.Format))
	if c.Report.Format == "" {
		c.Report.Format = DefaultFormat
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = c.Name
	}
	if c.Tracing.Environment == "" {
		c.Tracing.Environment = c.Environment
	}
}

// Validate reports every configuration problem at once as a
// CONFIGURATION_ERROR.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	v := validation.Collect(c)
	v.PositiveDuration("probe.timeout", c.Probe.Timeout)
	v.Check(c.Probe.Backoff >= 0, "probe.backoff", "must not be negative")
	v.Check(c.Tracing.SampleRate >= 0 && c.Tracing.SampleRate <= 1, "tracing.sample_rate", "must be between 0 and 1")
	return v.Error()
}

// SplitList flattens comma-separated entries, trims blanks and drops empty
// values. Repeated flags and "a,b" lists are equivalent.
func SplitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
