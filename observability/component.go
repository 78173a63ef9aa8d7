package observability

import (
	"context"
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/gatewayprobe/component"
)

// TracerComponent manages the trace exporter's lifecycle. With tracing
// disabled Start and Stop do nothing.
type TracerComponent struct {
	config   TracerConfig
	provider *sdktrace.TracerProvider
}

var _ component.Component = (*TracerComponent)(nil)
var _ component.Describable = (*TracerComponent)(nil)

// NewTracerComponent creates a tracer component.
func NewTracerComponent(cfg TracerConfig) *TracerComponent {
	return &TracerComponent{config: cfg}
}

// Name implements component.Component.
func (c *TracerComponent) Name() string { return "tracer" }

// Start implements component.Component.
func (c *TracerComponent) Start(ctx context.Context) error {
	if !c.config.Enabled() {
		return nil
	}
	tp, err := InitTracer(ctx, c.config)
	if err != nil {
		return err
	}
	c.provider = tp
	return nil
}

// Stop flushes pending spans and shuts the provider down.
func (c *TracerComponent) Stop(ctx context.Context) error {
	if c.provider == nil {
		return nil
	}
	err := c.provider.Shutdown(ctx)
	c.provider = nil
	if err != nil {
		return fmt.Errorf("shutting down tracer: %w", err)
	}
	return nil
}

// Health implements component.Component.
func (c *TracerComponent) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.config.Enabled() && c.provider == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	}
	return h
}

// Describe implements component.Describable.
func (c *TracerComponent) Describe() component.Description {
	details := "disabled"
	if c.config.Enabled() {
		details = fmt.Sprintf("otlp/http %s sample=%.2f", c.config.Endpoint, c.config.SampleRate)
	}
	return component.Description{Name: "Tracing", Type: "tracing", Details: details}
}
