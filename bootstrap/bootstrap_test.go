package bootstrap

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/kbukum/gatewayprobe/component"
	"github.com/kbukum/gatewayprobe/config"
	perrors "github.com/kbukum/gatewayprobe/errors"
	"github.com/kbukum/gatewayprobe/logger"
)

// testConfig is a minimal config for testing that satisfies the Config interface.
type testConfig struct {
	config.ServiceConfig
}

// mockComponent implements component.Component for testing.
type mockComponent struct {
	name     string
	startErr error
	stopErr  error
	health   component.Health
	started  bool
	stopped  bool
	log      *[]string
}

func (m *mockComponent) Name() string { return m.name }
func (m *mockComponent) Start(ctx context.Context) error {
	m.started = true
	if m.log != nil {
		*m.log = append(*m.log, "start "+m.name)
	}
	return m.startErr
}
func (m *mockComponent) Stop(ctx context.Context) error {
	m.stopped = true
	if m.log != nil {
		*m.log = append(*m.log, "stop "+m.name)
	}
	return m.stopErr
}
func (m *mockComponent) Health(ctx context.Context) component.Health {
	if m.health.Status == "" {
		return component.Health{Name: m.name, Status: component.StatusHealthy}
	}
	return m.health
}
func (m *mockComponent) Describe() component.Description {
	return component.Description{Type: "mock", Details: m.name}
}

func newTestConfig(name, version string) *testConfig {
	return &testConfig{
		ServiceConfig: config.ServiceConfig{
			Name:        name,
			Version:     version,
			Environment: "development",
		},
	}
}

func newTestApp(t *testing.T) *App[*testConfig] {
	t.Helper()
	app, err := NewApp(newTestConfig("test", "1.0"), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	return app
}

func TestNewApp(t *testing.T) {
	app, err := NewApp(newTestConfig("test-svc", "1.0.0"), WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Name != "test-svc" {
		t.Errorf("expected name 'test-svc', got %q", app.Name)
	}
	if app.Version != "1.0.0" {
		t.Errorf("expected version '1.0.0', got %q", app.Version)
	}
	if app.Components == nil {
		t.Error("expected non-nil components registry")
	}
	if app.Logger == nil {
		t.Error("expected non-nil logger")
	}
	if app.Cfg.Name != "test-svc" {
		t.Errorf("expected cfg.Name 'test-svc', got %q", app.Cfg.Name)
	}
}

func TestNewAppDefaults(t *testing.T) {
	cfg := &testConfig{}
	app, err := NewApp(cfg, WithLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.Name != config.DefaultServiceName {
		t.Errorf("expected default name, got %q", app.Name)
	}
}

func TestNewAppValidation(t *testing.T) {
	cfg := newTestConfig("test", "1.0")
	cfg.Logging.Level = "loud"

	_, err := NewApp(cfg)
	if !perrors.IsConfiguration(err) {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestNewAppWithOptions(t *testing.T) {
	app, err := NewApp(newTestConfig("test", "1.0"),
		WithLogger(logger.Nop()),
		WithGracefulTimeout(30*time.Second),
		WithSignals(syscall.SIGUSR1),
	)
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}
	if app.gracefulTimeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", app.gracefulTimeout)
	}
	if len(app.signals) != 1 || app.signals[0] != syscall.SIGUSR1 {
		t.Errorf("signals = %v", app.signals)
	}
}

func TestRegisterComponentDuplicate(t *testing.T) {
	app := newTestApp(t)
	if err := app.RegisterComponent(&mockComponent{name: "transport"}); err != nil {
		t.Fatalf("RegisterComponent failed: %v", err)
	}
	if app.Components.Get("transport") == nil {
		t.Error("expected component to be registered")
	}
	if err := app.RegisterComponent(&mockComponent{name: "transport"}); err == nil {
		t.Error("expected error for duplicate component registration")
	}
}

func TestRunTask_Lifecycle(t *testing.T) {
	app := newTestApp(t)
	var events []string
	a := &mockComponent{name: "tracer", log: &events}
	b := &mockComponent{name: "transport", log: &events}
	_ = app.RegisterComponent(a)
	_ = app.RegisterComponent(b)
	app.OnStart(func(ctx context.Context) error {
		events = append(events, "onStart")
		return nil
	})
	app.OnStop(func(ctx context.Context) error {
		events = append(events, "onStop")
		return nil
	})

	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		events = append(events, "task")
		return nil
	})
	if err != nil {
		t.Fatalf("RunTask failed: %v", err)
	}

	want := []string{"start tracer", "start transport", "onStart", "task", "onStop", "stop transport", "stop tracer"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestRunTask_StopsAfterTaskError(t *testing.T) {
	app := newTestApp(t)
	c := &mockComponent{name: "transport", stopErr: errors.New("close failed")}
	_ = app.RegisterComponent(c)

	taskErr := errors.New("task failed")
	err := app.RunTask(context.Background(), func(ctx context.Context) error { return taskErr })
	if !errors.Is(err, taskErr) {
		t.Errorf("expected task error to take precedence, got %v", err)
	}
	if !c.stopped {
		t.Error("component should be stopped after a failed task")
	}
}

func TestRunTask_StopError(t *testing.T) {
	app := newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "transport", stopErr: errors.New("close failed")})

	err := app.RunTask(context.Background(), func(ctx context.Context) error { return nil })
	if err == nil {
		t.Error("expected stop error to surface when the task succeeded")
	}
}

func TestRunTask_StartFailureReleasesStarted(t *testing.T) {
	app := newTestApp(t)
	first := &mockComponent{name: "tracer"}
	second := &mockComponent{name: "transport", startErr: errors.New("boom")}
	_ = app.RegisterComponent(first)
	_ = app.RegisterComponent(second)

	ran := false
	err := app.RunTask(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	if err == nil {
		t.Fatal("expected start error")
	}
	if ran {
		t.Error("task must not run when startup fails")
	}
	if !first.stopped {
		t.Error("started components must be stopped after a failed startup")
	}
}

func TestRunTask_CanceledContext(t *testing.T) {
	app := newTestApp(t)
	c := &mockComponent{name: "transport"}
	_ = app.RegisterComponent(c)

	ctx, cancel := context.WithCancel(context.Background())
	err := app.RunTask(ctx, func(ctx context.Context) error {
		cancel()
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if !c.stopped {
		t.Error("component should be stopped after cancellation")
	}
}

func TestRunTask_SignalCancelsTask(t *testing.T) {
	app, err := NewApp(newTestConfig("test", "1.0"), WithLogger(logger.Nop()), WithSignals(syscall.SIGUSR1))
	if err != nil {
		t.Fatalf("NewApp failed: %v", err)
	}

	err = app.RunTask(context.Background(), func(ctx context.Context) error {
		if err := syscall.Kill(syscall.Getpid(), syscall.SIGUSR1); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
			return errors.New("signal did not cancel the task")
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestReadyCheck(t *testing.T) {
	app := newTestApp(t)
	_ = app.RegisterComponent(&mockComponent{name: "ok"})
	if err := app.ReadyCheck(context.Background()); err != nil {
		t.Errorf("expected healthy, got %v", err)
	}

	_ = app.RegisterComponent(&mockComponent{
		name:   "bad",
		health: component.Health{Name: "bad", Status: component.StatusUnhealthy, Message: "not started"},
	})
	if err := app.ReadyCheck(context.Background()); err == nil {
		t.Error("expected unhealthy component to fail the ready check")
	}
}

func TestRunHooksStopsAtFirstError(t *testing.T) {
	calls := 0
	hooks := []Hook{
		func(ctx context.Context) error { calls++; return errors.New("first") },
		func(ctx context.Context) error { calls++; return nil },
	}
	if err := runHooks(context.Background(), hooks); err == nil {
		t.Error("expected error")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}
