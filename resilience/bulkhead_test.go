package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// holdSlot occupies one slot of b until release is closed.
func holdSlot(b *Bulkhead) (release chan struct{}) {
	started := make(chan struct{})
	release = make(chan struct{})
	go func() {
		_ = b.Execute(context.Background(), func() error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	return release
}

func TestBulkhead_LimitsConcurrency(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{Name: "probes", MaxConcurrent: 2})

	var current, peak int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := b.Execute(context.Background(), func() error {
				n := atomic.AddInt32(&current, 1)
				for {
					p := atomic.LoadInt32(&peak)
					if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&current, -1)
				return nil
			})
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		}()
	}
	wg.Wait()

	if peak > 2 {
		t.Errorf("expected at most 2 concurrent calls, saw %d", peak)
	}
}

func TestBulkhead_FailFastWhenNegativeWait(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: -1})
	release := holdSlot(b)
	defer close(release)

	err := b.Execute(context.Background(), func() error { return nil })
	if !errors.Is(err, ErrBulkheadFull) {
		t.Errorf("expected ErrBulkheadFull, got %v", err)
	}
}

func TestBulkhead_ZeroWaitBlocksUntilSlotFree(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})
	release := holdSlot(b)

	go func() {
		time.Sleep(20 * time.Millisecond)
		close(release)
	}()

	start := time.Now()
	if err := b.Execute(context.Background(), func() error { return nil }); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if time.Since(start) < 10*time.Millisecond {
		t.Error("expected the call to wait for the held slot")
	}
}

func TestBulkhead_TimesOutWaiting(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1, MaxWait: 10 * time.Millisecond})
	release := holdSlot(b)
	defer close(release)

	err := b.Execute(context.Background(), func() error { return nil })
	if !errors.Is(err, ErrBulkheadTimeout) {
		t.Errorf("expected ErrBulkheadTimeout, got %v", err)
	}
}

func TestBulkhead_RespectsContext(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 1})
	release := holdSlot(b)
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := b.Execute(ctx, func() error { return nil })
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestBulkhead_CanceledContextNeverRuns(t *testing.T) {
	b := NewBulkhead(BulkheadConfig{MaxConcurrent: 4})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	err := b.Execute(ctx, func() error { ran = true; return nil })
	if !errors.Is(err, context.Canceled) || ran {
		t.Errorf("expected cancellation before running, got %v (ran=%v)", err, ran)
	}
}

func TestBulkhead_OnAcquireAndCounters(t *testing.T) {
	var acquired int
	var gotName string
	b := NewBulkhead(BulkheadConfig{
		Name:          "probes",
		MaxConcurrent: 1,
		MaxWait:       -1,
		OnAcquire: func(name string, waited time.Duration) {
			acquired++
			gotName = name
			if waited < 0 {
				t.Errorf("negative wait %v", waited)
			}
		},
	})

	_ = b.Execute(context.Background(), func() error {
		if b.InUse() != 1 {
			t.Errorf("in use = %d, want 1", b.InUse())
		}
		if err := b.Execute(context.Background(), func() error { return nil }); !errors.Is(err, ErrBulkheadFull) {
			t.Errorf("nested call = %v, want ErrBulkheadFull", err)
		}
		return nil
	})

	if acquired != 1 || gotName != "probes" {
		t.Errorf("OnAcquire calls = %d name = %q", acquired, gotName)
	}
	if b.InUse() != 0 {
		t.Errorf("slot not released, in use = %d", b.InUse())
	}
}

func TestNewBulkheadClampsConcurrency(t *testing.T) {
	if got := NewBulkhead(BulkheadConfig{}).MaxConcurrent(); got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}
