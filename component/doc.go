// Package component defines lifecycle-managed resources of a probe run.
//
// The gateway transport and the trace exporter are components: the
// bootstrap package starts them in registration order before the run and
// stops them in reverse order afterwards, whatever the run's outcome.
package component
