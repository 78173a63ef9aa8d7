// Package observability provides OpenTelemetry tracing for probe runs.
//
// When a trace endpoint is configured, TracerComponent installs an OTLP/HTTP
// exporter as the global provider for the duration of the run; otherwise
// spans go to the global no-op provider.
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanProbeInvoke)
//	defer span.End()
//	observability.SetSpanAttribute(ctx, observability.AttrModel, "copilot-gpt-4o")
package observability
