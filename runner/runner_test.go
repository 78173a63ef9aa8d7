package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/kbukum/gatewayprobe/logger"
	"github.com/kbukum/gatewayprobe/probe"
	"github.com/kbukum/gatewayprobe/report"
)

type fakeChecker struct {
	liveness probe.Outcome
	models   []string
	enum     probe.Outcome
	invoke   func(ctx context.Context, model string, mode probe.Mode, attempt int) probe.Outcome

	mu          sync.Mutex
	attempts    map[string]int
	order       []string
	inFlight    int
	maxInFlight int
	enumCalls   int
}

func newFakeChecker() *fakeChecker {
	return &fakeChecker{
		liveness: probe.Success(200, "HTTP 200"),
		models:   []string{"model-a", "model-b"},
		enum:     probe.Success(200, "2 models"),
		attempts: map[string]int{},
	}
}

func (f *fakeChecker) Liveness(ctx context.Context) probe.Outcome { return f.liveness }

func (f *fakeChecker) Enumerate(ctx context.Context) ([]string, probe.Outcome) {
	f.mu.Lock()
	f.enumCalls++
	f.mu.Unlock()
	if !f.enum.OK() {
		return nil, f.enum
	}
	return f.models, f.enum
}

func (f *fakeChecker) Invoke(ctx context.Context, model string, mode probe.Mode) probe.Outcome {
	key := model + "/" + string(mode)
	f.mu.Lock()
	f.attempts[key]++
	attempt := f.attempts[key]
	f.order = append(f.order, key)
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.invoke != nil {
		return f.invoke(ctx, model, mode, attempt)
	}
	return probe.Success(200, model+": ok")
}

func (f *fakeChecker) attemptsFor(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempts[key]
}

func newRunner(c probe.Checker, cfg Config) *Runner {
	return New(c, "http://gw", cfg, WithLogger(logger.Nop()))
}

func TestRun_LivenessFailureShortCircuits(t *testing.T) {
	f := newFakeChecker()
	f.liveness = probe.Unreachable("connection refused")

	rep, err := newRunner(f, Config{}).Run(context.Background(), Plan{Models: []string{"model-a"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Records) != 0 || rep.Pass {
		t.Errorf("records=%d pass=%v, want 0 and false", len(rep.Records), rep.Pass)
	}
	if rep.Liveness.Kind != probe.KindUnreachable {
		t.Errorf("Liveness = %v", rep.Liveness)
	}
	if len(f.order) != 0 || f.enumCalls != 0 {
		t.Error("no model should be probed against a dead gateway")
	}
	if report.ExitCode(rep) != report.ExitFail {
		t.Error("exit code should be 1")
	}
}

func TestRun_EnumeratesWhenNoModels(t *testing.T) {
	f := newFakeChecker()
	rep, err := newRunner(f, Config{Concurrency: 4}).Run(context.Background(), Plan{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Enumeration == nil || !rep.Enumeration.OK() {
		t.Fatalf("Enumeration = %v", rep.Enumeration)
	}
	if got := models(rep); got != "model-a,model-b" {
		t.Errorf("models = %s", got)
	}
	for _, rec := range rep.Records {
		if len(rec.Results) != 3 {
			t.Errorf("%s has %d results, want 3", rec.Model, len(rec.Results))
		}
	}
	if !rep.Pass {
		t.Error("run should pass")
	}
}

func TestRun_EmptyEnumeration(t *testing.T) {
	f := newFakeChecker()
	f.models = []string{}
	f.enum = probe.Success(200, "0 models")

	rep, err := newRunner(f, Config{}).Run(context.Background(), Plan{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Records) != 0 || rep.Pass || rep.Interrupted {
		t.Errorf("report = %+v", rep)
	}
}

func TestRun_EnumerationFailure(t *testing.T) {
	f := newFakeChecker()
	f.enum = probe.Malformed(200, "missing field data")

	rep, err := newRunner(f, Config{}).Run(context.Background(), Plan{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Enumeration == nil || rep.Enumeration.Kind != probe.KindMalformed {
		t.Errorf("Enumeration = %v", rep.Enumeration)
	}
	if len(rep.Records) != 0 || rep.Pass {
		t.Errorf("records=%d pass=%v", len(rep.Records), rep.Pass)
	}
}

func TestRun_ExplicitModelsSkipEnumeration(t *testing.T) {
	f := newFakeChecker()
	plan := Plan{
		Models: []string{"x", "y", "x", "", "z", "y"},
		Modes:  []probe.Mode{probe.ModeCompletion, probe.ModeStreaming},
	}
	rep, err := newRunner(f, Config{Concurrency: 3}).Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.enumCalls != 0 || rep.Enumeration != nil {
		t.Error("enumeration should not run when models are given")
	}
	if got := models(rep); got != "x,y,z" {
		t.Errorf("models = %s, want x,y,z", got)
	}
	for _, rec := range rep.Records {
		if len(rec.Results) != 2 || rec.Results[0].Mode != probe.ModeCompletion || rec.Results[1].Mode != probe.ModeStreaming {
			t.Errorf("%s results = %+v", rec.Model, rec.Results)
		}
	}
	if f.attemptsFor("x/completion") != 1 {
		t.Errorf("duplicate identifier probed %d times", f.attemptsFor("x/completion"))
	}
}

func TestRun_OrderIndependentOfCompletion(t *testing.T) {
	f := newFakeChecker()
	names := []string{"m0", "m1", "m2", "m3", "m4", "m5"}
	f.invoke = func(ctx context.Context, model string, mode probe.Mode, _ int) probe.Outcome {
		// Earlier models finish last.
		idx := int(model[1] - '0')
		time.Sleep(time.Duration(len(names)-idx) * 5 * time.Millisecond)
		return probe.Success(200, model+" "+string(mode))
	}

	rep, err := newRunner(f, Config{Concurrency: 8}).Run(context.Background(), Plan{Models: names})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := models(rep); got != strings.Join(names, ",") {
		t.Fatalf("models = %s", got)
	}
	for _, rec := range rep.Records {
		for j, res := range rec.Results {
			if res.Mode != probe.AllModes()[j] {
				t.Errorf("%s result %d mode = %s", rec.Model, j, res.Mode)
			}
			if want := rec.Model + " " + string(res.Mode); res.Detail != want {
				t.Errorf("detail = %q, want %q", res.Detail, want)
			}
		}
	}
}

func TestRun_ConcurrencyBound(t *testing.T) {
	f := newFakeChecker()
	f.invoke = func(ctx context.Context, model string, mode probe.Mode, _ int) probe.Outcome {
		time.Sleep(10 * time.Millisecond)
		return probe.Success(200, "ok")
	}
	plan := Plan{Models: []string{"a", "b", "c", "d", "e"}}
	if _, err := newRunner(f, Config{Concurrency: 2}).Run(context.Background(), plan); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if f.maxInFlight > 2 {
		t.Errorf("max in flight = %d, want <= 2", f.maxInFlight)
	}
}

func TestRun_SequentialKeepsDeclaredOrder(t *testing.T) {
	f := newFakeChecker()
	plan := Plan{Models: []string{"b", "a"}}
	if _, err := newRunner(f, Config{Concurrency: 1}).Run(context.Background(), plan); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := "b/completion,b/structured,b/streaming,a/completion,a/structured,a/streaming"
	if got := strings.Join(f.order, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
	if f.maxInFlight != 1 {
		t.Errorf("max in flight = %d, want 1", f.maxInFlight)
	}
}

func TestRun_PartialFailureDoesNotAbort(t *testing.T) {
	f := newFakeChecker()
	f.invoke = func(ctx context.Context, model string, mode probe.Mode, _ int) probe.Outcome {
		if model == "bad" {
			return probe.Unsupported(400, probe.ReasonNotSupported)
		}
		return probe.Success(200, "ok")
	}
	rep, err := newRunner(f, Config{Concurrency: 2}).Run(context.Background(), Plan{Models: []string{"bad", "good"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Records) != 2 || len(rep.Records[0].Results) != 3 {
		t.Fatalf("records = %+v", rep.Records)
	}
	if !rep.Pass || strings.Join(rep.Compatible, ",") != "good" {
		t.Errorf("pass=%v compatible=%v", rep.Pass, rep.Compatible)
	}
}

func TestRun_RetriesTimeoutsOnly(t *testing.T) {
	tests := []struct {
		name         string
		retries      int
		first        probe.Outcome
		wantKind     probe.Kind
		wantAttempts int
	}{
		{name: "timeout then success", retries: 2, first: probe.Timeout("slow"), wantKind: probe.KindSuccess, wantAttempts: 2},
		{name: "timeout without retries", retries: 0, first: probe.Timeout("slow"), wantKind: probe.KindTimeout, wantAttempts: 1},
		{name: "unsupported never retried", retries: 3, first: probe.Unsupported(400, "no"), wantKind: probe.KindUnsupported, wantAttempts: 1},
		{name: "unauthorized never retried", retries: 3, first: probe.Unauthorized(401, "no"), wantKind: probe.KindUnauthorized, wantAttempts: 1},
		{name: "malformed never retried", retries: 3, first: probe.Malformed(200, "missing field choices"), wantKind: probe.KindMalformed, wantAttempts: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFakeChecker()
			f.invoke = func(ctx context.Context, model string, mode probe.Mode, attempt int) probe.Outcome {
				if attempt == 1 {
					return tt.first
				}
				return probe.Success(200, "ok")
			}
			cfg := Config{Retries: tt.retries, Backoff: time.Millisecond}
			plan := Plan{Models: []string{"m"}, Modes: []probe.Mode{probe.ModeCompletion}}
			rep, err := newRunner(f, cfg).Run(context.Background(), plan)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			got, _ := rep.Records[0].Outcome(probe.ModeCompletion)
			if got.Kind != tt.wantKind {
				t.Errorf("outcome = %v, want %s", got, tt.wantKind)
			}
			if n := f.attemptsFor("m/completion"); n != tt.wantAttempts {
				t.Errorf("attempts = %d, want %d", n, tt.wantAttempts)
			}
		})
	}
}

func TestRun_RetriesExhausted(t *testing.T) {
	f := newFakeChecker()
	f.invoke = func(ctx context.Context, model string, mode probe.Mode, attempt int) probe.Outcome {
		return probe.Timeout(fmt.Sprintf("attempt %d", attempt))
	}
	plan := Plan{Models: []string{"m"}, Modes: []probe.Mode{probe.ModeStreaming}}
	rep, err := newRunner(f, Config{Retries: 2, Backoff: time.Millisecond}).Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	got, _ := rep.Records[0].Outcome(probe.ModeStreaming)
	if got.Kind != probe.KindTimeout || got.Detail != "attempt 3" {
		t.Errorf("outcome = %v, want the last timeout", got)
	}
}

func TestRun_PerProbeTimeout(t *testing.T) {
	f := newFakeChecker()
	f.invoke = func(ctx context.Context, model string, mode probe.Mode, _ int) probe.Outcome {
		<-ctx.Done()
		return probe.Timeout("no chunk before deadline")
	}
	plan := Plan{Models: []string{"m"}, Modes: []probe.Mode{probe.ModeStreaming}}

	start := time.Now()
	rep, err := newRunner(f, Config{Timeout: 50 * time.Millisecond}).Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("run took %v", elapsed)
	}
	if got, _ := rep.Records[0].Outcome(probe.ModeStreaming); got.Kind != probe.KindTimeout {
		t.Errorf("outcome = %v", got)
	}
}

func TestRun_CancellationKeepsCompletedOutcomes(t *testing.T) {
	for _, concurrency := range []int{1, 3} {
		t.Run(fmt.Sprintf("concurrency %d", concurrency), func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			f := newFakeChecker()
			f.invoke = func(pctx context.Context, model string, mode probe.Mode, _ int) probe.Outcome {
				if model == "slow" {
					cancel()
					<-pctx.Done()
					return probe.Unreachable("canceled")
				}
				return probe.Success(200, "ok")
			}
			plan := Plan{Models: []string{"fast", "slow", "later"}, Modes: []probe.Mode{probe.ModeCompletion}}

			rep, err := newRunner(f, Config{Concurrency: concurrency}).Run(ctx, plan)
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("err = %v, want context.Canceled", err)
			}
			if rep == nil || !rep.Interrupted || rep.Pass {
				t.Fatalf("report = %+v", rep)
			}
			if got := models(rep); got != "fast,slow,later" {
				t.Errorf("models = %s", got)
			}
			slow := rep.Records[1]
			if len(slow.Results) != 0 {
				t.Errorf("abandoned probe was recorded: %+v", slow.Results)
			}
			if concurrency == 1 {
				if o, found := rep.Records[0].Outcome(probe.ModeCompletion); !found || !o.OK() {
					t.Errorf("completed outcome lost: %v", o)
				}
				if f.attemptsFor("later/completion") != 0 {
					t.Error("probes after cancellation should not start")
				}
			}
		})
	}
}

func TestRun_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rep, err := newRunner(newFakeChecker(), Config{}).Run(ctx, Plan{Models: []string{"m"}})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if !rep.Interrupted || rep.Pass || len(rep.Records) != 0 {
		t.Errorf("report = %+v", rep)
	}
}

func TestRun_RateLimited(t *testing.T) {
	f := newFakeChecker()
	plan := Plan{Models: []string{"a", "b"}, Modes: []probe.Mode{probe.ModeCompletion}}
	rep, err := newRunner(f, Config{Concurrency: 2, RateLimit: 1000}).Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rep.Pass || len(rep.Records) != 2 {
		t.Errorf("report = %+v", rep)
	}
}

func TestRun_ReportMetadata(t *testing.T) {
	at := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	r := New(newFakeChecker(), "http://gw", Config{}, WithLogger(logger.Nop()), WithClock(func() time.Time { return at }))
	rep, err := r.Run(context.Background(), Plan{Models: []string{"m"}})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Endpoint != "http://gw" || !rep.GeneratedAt.Equal(at) || rep.RunID == "" {
		t.Errorf("report = %+v", rep)
	}
	if len(rep.Modes) != 3 {
		t.Errorf("Modes = %v, want all", rep.Modes)
	}
}

func TestDedupe(t *testing.T) {
	got := Dedupe([]string{"a", "b", "a", "", "c", "b"})
	if strings.Join(got, ",") != "a,b,c" {
		t.Errorf("Dedupe = %v", got)
	}
	if got := Dedupe(nil); got == nil || len(got) != 0 {
		t.Errorf("Dedupe(nil) = %#v", got)
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := Config{Retries: -1}
	cfg.ApplyDefaults()
	if cfg.Timeout != defaultTimeout || cfg.Backoff != defaultBackoff || cfg.Concurrency != 1 || cfg.Retries != 0 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func models(rep *report.Report) string {
	names := make([]string, len(rep.Records))
	for i, rec := range rep.Records {
		names[i] = rec.Model
	}
	return strings.Join(names, ",")
}
