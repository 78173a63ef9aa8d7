package httpclient

import (
	"context"
	"fmt"

	"github.com/kbukum/gatewayprobe/component"
)

// Component owns the adapter's connection pool for the length of a run.
type Component struct {
	adapter *Adapter
	config  Config
}

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// NewComponent creates a transport component. The adapter is created in Start.
func NewComponent(cfg Config) *Component {
	return &Component{config: cfg}
}

// Name returns the component name.
func (c *Component) Name() string {
	if c.config.Name == "" {
		return "transport"
	}
	return c.config.Name
}

// Start creates the adapter.
func (c *Component) Start(_ context.Context) error {
	a, err := New(c.config)
	if err != nil {
		return err
	}
	c.adapter = a
	return nil
}

// Stop releases pooled connections.
func (c *Component) Stop(ctx context.Context) error {
	if c.adapter == nil {
		return nil
	}
	return c.adapter.Close(ctx)
}

// Health reports whether the adapter has been started.
func (c *Component) Health(_ context.Context) component.Health {
	status := component.StatusHealthy
	if c.adapter == nil {
		status = component.StatusUnhealthy
	}
	return component.Health{Name: c.Name(), Status: status}
}

// Describe returns the component description for the startup log.
func (c *Component) Describe() component.Description {
	cfg := c.config
	cfg.ApplyDefaults()
	return component.Description{
		Name:    "Gateway transport",
		Type:    "transport",
		Details: fmt.Sprintf("%s timeout=%s pool=%d", cfg.BaseURL, cfg.Timeout, cfg.MaxIdleConnsPerHost),
	}
}

// Adapter returns the underlying adapter. Valid after Start.
func (c *Component) Adapter() *Adapter {
	return c.adapter
}
