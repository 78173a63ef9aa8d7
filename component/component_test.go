package component

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type mockComponent struct {
	name       string
	startErr   error
	stopErr    error
	health     Health
	startOrder *[]string
	stopOrder  *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	if m.startOrder != nil {
		*m.startOrder = append(*m.startOrder, m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	if m.stopOrder != nil {
		*m.stopOrder = append(*m.stopOrder, m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) Health { return m.health }

type describedComponent struct{ mockComponent }

func (d *describedComponent) Describe() Description {
	return Description{Type: "transport", Details: "http://localhost:4000"}
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(&mockComponent{name: "transport"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if err := r.Register(&mockComponent{name: "transport"}); err == nil {
		t.Error("expected error for duplicate registration")
	}
}

func TestGet(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "tracer"})

	if got := r.Get("tracer"); got == nil || got.Name() != "tracer" {
		t.Fatalf("expected tracer, got %v", got)
	}
	if r.Get("missing") != nil {
		t.Error("expected nil for missing component")
	}
}

func TestStartStopOrder(t *testing.T) {
	var started, stopped []string
	r := NewRegistry()
	for _, name := range []string{"tracer", "transport"} {
		_ = r.Register(&mockComponent{name: name, startOrder: &started, stopOrder: &stopped})
	}
	_ = r.Register(&describedComponent{mockComponent{name: "described", startOrder: &started, stopOrder: &stopped}})

	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if err := r.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}

	if want := []string{"tracer", "transport", "described"}; !reflect.DeepEqual(started, want) {
		t.Errorf("start order = %v, want %v", started, want)
	}
	if want := []string{"described", "transport", "tracer"}; !reflect.DeepEqual(stopped, want) {
		t.Errorf("stop order = %v, want %v", stopped, want)
	}
}

func TestStartFailureStopsOnlyStarted(t *testing.T) {
	var started, stopped []string
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "a", startOrder: &started, stopOrder: &stopped})
	_ = r.Register(&mockComponent{name: "b", startErr: errors.New("boom"), startOrder: &started, stopOrder: &stopped})
	_ = r.Register(&mockComponent{name: "c", startOrder: &started, stopOrder: &stopped})

	err := r.StartAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to start b") {
		t.Fatalf("expected start failure for b, got %v", err)
	}
	_ = r.StopAll(context.Background())

	if !reflect.DeepEqual(stopped, []string{"a"}) {
		t.Errorf("expected only a to be stopped, got %v", stopped)
	}
}

func TestStopAllCollectsErrors(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "a", stopErr: errors.New("x")})
	_ = r.Register(&mockComponent{name: "b"})
	_ = r.StartAll(context.Background())

	err := r.StopAll(context.Background())
	if err == nil || !strings.Contains(err.Error(), "failed to stop a") {
		t.Errorf("expected stop error, got %v", err)
	}
}

func TestStopAllWithCanceledContext(t *testing.T) {
	var stopped []string
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "transport", stopOrder: &stopped})
	_ = r.StartAll(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := r.StopAll(ctx); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if len(stopped) != 1 {
		t.Error("components must be released even after cancellation")
	}
}

func TestHealthAllAndAll(t *testing.T) {
	r := NewRegistry()
	_ = r.Register(&mockComponent{name: "a", health: Health{Name: "a", Status: StatusHealthy}})
	_ = r.Register(&mockComponent{name: "b", health: Health{Name: "b", Status: StatusDegraded}})

	health := r.HealthAll(context.Background())
	if len(health) != 2 || health[1].Status != StatusDegraded {
		t.Errorf("unexpected health %v", health)
	}
	if all := r.All(); len(all) != 2 || all[0].Name() != "a" {
		t.Errorf("unexpected All() %v", all)
	}
}
