// Package runner orchestrates a compatibility run: liveness, optional
// enumeration, then every (model, mode) invocation over a bounded pool.
//
// Probe failures never abort a run. Results are stored at pre-assigned
// indexes so the report keeps input order whatever the completion order.
// Only timeout outcomes are retried. When the run context is canceled the
// completed outcomes are returned in a partial report together with the
// context error.
package runner
