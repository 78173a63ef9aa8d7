// Package resilience provides the retry, concurrency and pacing
// primitives used by the probe runner.
//
//   - Retry: re-runs an attempt with exponential backoff while RetryIf holds
//   - Bulkhead: bounds how many probes are in flight at once
//   - RateLimiter: paces requests towards a rate-limited gateway
//
// The runner combines them per probe:
//
//	err := bh.Execute(ctx, func() error {
//	    out, err := resilience.Retry(ctx, cfg, func() (probe.Outcome, error) {
//	        if err := rl.Wait(ctx); err != nil {
//	            return probe.Outcome{}, err
//	        }
//	        return attempt(ctx)
//	    })
//	    ...
//	})
package resilience
