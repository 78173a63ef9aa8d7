package component

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/gatewayprobe/logger"
)

// stopTimeout bounds each component's Stop call.
const stopTimeout = 10 * time.Second

// Registry owns the components of one run. Components start in
// registration order and stop in reverse. Since StartAll halts at the first
// failure, the started components are always a prefix of the list.
type Registry struct {
	mu         sync.RWMutex
	components []Component
	byName     map[string]int
	started    int
	log        *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]int),
		log:    logger.WithComponent("registry"),
	}
}

// Register appends c. Register dependencies first.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if _, dup := r.byName[name]; dup {
		return fmt.Errorf("component %s already registered", name)
	}
	r.byName[name] = len(r.components)
	r.components = append(r.components, c)
	r.log.Debug("component registered", logger.Fields("name", name))
	return nil
}

// StartAll starts every component not yet started. It stops at the first
// failure; StopAll then releases the ones that did start.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for ; r.started < len(r.components); r.started++ {
		c := r.components[r.started]
		if err := c.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.Fields("name", c.Name(), "error", err.Error()))
			return fmt.Errorf("failed to start %s: %w", c.Name(), err)
		}
		fields := logger.Fields("name", c.Name())
		if d, ok := c.(Describable); ok {
			desc := d.Describe()
			fields["type"] = desc.Type
			fields["details"] = desc.Details
		}
		r.log.Debug("component started", fields)
	}
	return nil
}

// StopAll stops the started components in reverse order. Each Stop gets its
// own deadline detached from ctx cancellation, so a canceled run still
// releases its connections.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for ; r.started > 0; r.started-- {
		c := r.components[r.started-1]
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), stopTimeout)
		err := c.Stop(stopCtx)
		cancel()
		if err != nil {
			r.log.Error("component stop failed", logger.Fields("name", c.Name(), "error", err.Error()))
			errs = append(errs, fmt.Errorf("failed to stop %s: %w", c.Name(), err))
			continue
		}
		r.log.Debug("component stopped", logger.Fields("name", c.Name()))
	}
	return errors.Join(errs...)
}

// HealthAll returns the health of every registered component.
func (r *Registry) HealthAll(ctx context.Context) []Health {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Health, len(r.components))
	for i, c := range r.components {
		out[i] = c.Health(ctx)
	}
	return out
}

// Get returns the component registered under name, or nil.
func (r *Registry) Get(name string) Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i, ok := r.byName[name]; ok {
		return r.components[i]
	}
	return nil
}

// All returns the components in registration order.
func (r *Registry) All() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Component(nil), r.components...)
}
