package runner

import (
	"context"
	stderrors "errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kbukum/gatewayprobe/errors"
	"github.com/kbukum/gatewayprobe/logger"
	"github.com/kbukum/gatewayprobe/observability"
	"github.com/kbukum/gatewayprobe/probe"
	"github.com/kbukum/gatewayprobe/report"
	"github.com/kbukum/gatewayprobe/resilience"
)

const (
	defaultTimeout = 30 * time.Second
	defaultBackoff = 250 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// errTimedOut marks a completed attempt whose outcome may be retried.
var errTimedOut = stderrors.New("probe timed out")

// Config controls how probes are dispatched.
type Config struct {
	// Timeout bounds every probe attempt.
	Timeout time.Duration
	// Retries is the number of extra attempts after a timeout outcome.
	Retries int
	// Backoff is the delay before the first retry; later delays double.
	Backoff time.Duration
	// Concurrency is the number of invocations in flight. 1 is sequential.
	Concurrency int
	// RateLimit caps attempts per second. Zero disables the limit.
	RateLimit float64
}

// ApplyDefaults fills unset values.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Backoff <= 0 {
		c.Backoff = defaultBackoff
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
}

// Plan lists what to probe. Empty Models triggers enumeration; empty Modes
// selects every mode.
type Plan struct {
	Models []string
	Modes  []probe.Mode
}

// Runner runs plans against one gateway.
type Runner struct {
	checker  probe.Checker
	endpoint string
	cfg      Config
	limiter  *resilience.RateLimiter
	log      *logger.Logger
	now      func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(r *Runner) { r.log = l }
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a Runner. endpoint is the gateway URL recorded in reports.
func New(checker probe.Checker, endpoint string, cfg Config, opts ...Option) *Runner {
	cfg.ApplyDefaults()
	r := &Runner{
		checker:  checker,
		endpoint: endpoint,
		cfg:      cfg,
		log:      logger.WithComponent("runner"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	if cfg.RateLimit > 0 {
		r.limiter = resilience.NewRateLimiter(resilience.RateLimiterConfig{
			Name:  "gateway",
			Rate:  cfg.RateLimit,
			Burst: cfg.Concurrency,
			OnLimit: func(name string, wait time.Duration) {
				r.log.Debug("rate limited", logger.Fields("limiter", name, logger.FieldDuration, wait.Milliseconds()))
			},
		})
	}
	return r
}

// Run executes plan. It returns an error only when ctx ends before the run
// completes; the partial report is returned with it.
func (r *Runner) Run(ctx context.Context, plan Plan) (*report.Report, error) {
	runID := report.NewRunID()
	ctx, span := observability.StartSpan(ctx, observability.SpanRun)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRunID, runID)
	observability.SetSpanAttribute(ctx, observability.AttrEndpoint, r.endpoint)

	modes := plan.Modes
	if len(modes) == 0 {
		modes = probe.AllModes()
	}
	log := r.log.WithFields(logger.Fields(logger.FieldRunID, runID, logger.FieldEndpoint, r.endpoint))
	log.Info("run started", logger.Fields(
		"models", len(plan.Models),
		"modes", probe.Strings(modes),
		"concurrency", r.cfg.Concurrency,
	))

	in := report.Input{
		RunID:    runID,
		Endpoint: r.endpoint,
		Modes:    modes,
	}
	finish := func(runErr error) (*report.Report, error) {
		in.GeneratedAt = r.now()
		in.Interrupted = runErr != nil
		rep := report.Finalize(in)
		observability.SetSpanAttribute(ctx, observability.AttrPass, rep.Pass)
		if runErr != nil {
			observability.SetSpanError(ctx, runErr)
			log.Warn("run interrupted", logger.Fields("summary", report.Summary(rep)))
			return rep, errors.Canceled(runErr)
		}
		log.Info("run finished", logger.Fields("summary", report.Summary(rep), "pass", rep.Pass))
		return rep, nil
	}

	liveness, err := r.attempt(ctx, log, func(ctx context.Context) probe.Outcome {
		return r.checker.Liveness(ctx)
	})
	if err != nil {
		in.Liveness = probe.Unreachable("run canceled before liveness completed")
		return finish(err)
	}
	in.Liveness = liveness
	if !liveness.OK() {
		log.Warn("gateway not live", logger.Fields(logger.FieldOutcome, string(liveness.Kind), logger.FieldDetail, liveness.Detail))
		return finish(nil)
	}

	candidates := plan.Models
	if len(candidates) == 0 {
		var ids []string
		enum, err := r.attempt(ctx, log, func(ctx context.Context) probe.Outcome {
			var o probe.Outcome
			ids, o = r.checker.Enumerate(ctx)
			return o
		})
		if err != nil {
			return finish(err)
		}
		in.Enumeration = &enum
		candidates = ids
		log.Debug("models enumerated", logger.Fields("count", len(ids), logger.FieldOutcome, string(enum.Kind)))
	}

	records, err := r.invokeAll(ctx, log, Dedupe(candidates), modes)
	in.Records = records
	return finish(err)
}

// invokeAll runs every (model, mode) pair and assembles records in input
// order. Each result lands at index model*len(modes)+mode.
func (r *Runner) invokeAll(ctx context.Context, log *logger.Logger, models []string, modes []probe.Mode) ([]report.Record, error) {
	type slot struct {
		outcome probe.Outcome
		done    bool
	}
	slots := make([]slot, len(models)*len(modes))

	invoke := func(idx int) {
		model, mode := models[idx/len(modes)], modes[idx%len(modes)]
		mlog := log.WithFields(logger.Fields(logger.FieldModel, model, logger.FieldMode, string(mode)))
		outcome, err := r.attempt(ctx, mlog, func(ctx context.Context) probe.Outcome {
			return r.checker.Invoke(ctx, model, mode)
		})
		if err != nil {
			return
		}
		slots[idx] = slot{outcome: outcome, done: true}
		mlog.Debug("mode tested", logger.Fields(logger.FieldOutcome, string(outcome.Kind), logger.FieldDetail, outcome.Detail))
	}

	var runErr error
	if r.cfg.Concurrency <= 1 {
		for idx := range slots {
			if err := ctx.Err(); err != nil {
				runErr = err
				break
			}
			invoke(idx)
		}
	} else {
		bulkhead := resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          "invocations",
			MaxConcurrent: r.cfg.Concurrency,
			OnAcquire: func(_ string, waited time.Duration) {
				if waited > time.Second {
					log.Debug("invocation queued", logger.Fields("waited_ms", waited.Milliseconds()))
				}
			},
		})
		var g errgroup.Group
		for idx := range slots {
			g.Go(func() error {
				return bulkhead.Execute(ctx, func() error {
					invoke(idx)
					return nil
				})
			})
		}
		runErr = g.Wait()
	}
	if runErr == nil {
		runErr = ctx.Err()
	}

	records := make([]report.Record, len(models))
	for i, model := range models {
		rec := report.Record{Model: model, Results: make([]report.ModeResult, 0, len(modes))}
		for j, mode := range modes {
			if s := slots[i*len(modes)+j]; s.done {
				rec.Results = append(rec.Results, report.ModeResult{Mode: mode, Outcome: s.outcome})
			}
		}
		records[i] = rec
	}
	return records, runErr
}

// attempt runs fn under its own timeout, retrying timeout outcomes. It
// returns an error only when ctx ended, in which case the outcome was
// abandoned.
func (r *Runner) attempt(ctx context.Context, log *logger.Logger, fn func(context.Context) probe.Outcome) (probe.Outcome, error) {
	cfg := resilience.RetryConfig{
		MaxAttempts:    r.cfg.Retries + 1,
		InitialBackoff: r.cfg.Backoff,
		MaxBackoff:     maxBackoff,
		BackoffFactor:  2,
		Jitter:         0.1,
		RetryIf: func(err error) bool {
			return stderrors.Is(err, errTimedOut)
		},
		OnRetry: func(attempt int, _ error, backoff time.Duration) {
			log.Warn("probe timed out, retrying", logger.Fields(
				logger.FieldAttempt, attempt,
				"backoff_ms", backoff.Milliseconds(),
			))
		},
	}

	outcome, err := resilience.Retry(ctx, cfg, func() (probe.Outcome, error) {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return probe.Outcome{}, err
			}
		}
		pctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()

		o := fn(pctx)
		if err := ctx.Err(); err != nil {
			return o, err
		}
		if o.Retryable() {
			return o, errTimedOut
		}
		return o, nil
	})
	if err != nil && !stderrors.Is(err, errTimedOut) {
		return outcome, err
	}
	return outcome, nil
}

// Dedupe drops repeated and blank identifiers, keeping first occurrences.
func Dedupe(models []string) []string {
	seen := make(map[string]struct{}, len(models))
	out := make([]string, 0, len(models))
	for _, m := range models {
		if m == "" {
			continue
		}
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return out
}
