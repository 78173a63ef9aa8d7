package resilience

import (
	"context"
	"errors"
	"time"
)

// Bulkhead errors.
var (
	ErrBulkheadFull    = errors.New("bulkhead is full")
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies the bulkhead in callbacks.
	Name string
	// MaxConcurrent is the number of calls allowed in flight. Values below
	// 1 are treated as 1.
	MaxConcurrent int
	// MaxWait bounds the wait for a slot. Zero waits until the context is
	// done; a negative value fails immediately when the bulkhead is full.
	MaxWait time.Duration
	// OnAcquire, when set, receives how long the caller queued for its slot.
	OnAcquire func(name string, waited time.Duration)
}

// Bulkhead caps the number of concurrent calls with a counting semaphore.
type Bulkhead struct {
	name      string
	maxWait   time.Duration
	onAcquire func(string, time.Duration)
	slots     chan struct{}
}

// NewBulkhead creates a bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	n := config.MaxConcurrent
	if n < 1 {
		n = 1
	}
	return &Bulkhead{
		name:      config.Name,
		maxWait:   config.MaxWait,
		onAcquire: config.OnAcquire,
		slots:     make(chan struct{}, n),
	}
}

// Execute runs fn while holding a slot. fn never runs when ctx is already
// done or no slot frees up in time.
func (b *Bulkhead) Execute(ctx context.Context, fn func() error) error {
	start := time.Now()
	if err := b.acquire(ctx); err != nil {
		return err
	}
	defer func() { <-b.slots }()

	if b.onAcquire != nil {
		b.onAcquire(b.name, time.Since(start))
	}
	return fn()
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case b.slots <- struct{}{}:
		return nil
	default:
	}
	if b.maxWait < 0 {
		return ErrBulkheadFull
	}

	var expired <-chan time.Time
	if b.maxWait > 0 {
		t := time.NewTimer(b.maxWait)
		defer t.Stop()
		expired = t.C
	}
	select {
	case b.slots <- struct{}{}:
		return nil
	case <-expired:
		return ErrBulkheadTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// InUse returns the number of occupied slots.
func (b *Bulkhead) InUse() int { return len(b.slots) }

// MaxConcurrent returns the slot count.
func (b *Bulkhead) MaxConcurrent() int { return cap(b.slots) }
