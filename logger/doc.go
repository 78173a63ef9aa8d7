// Package logger provides structured logging for gatewayprobe using zerolog.
//
// Probe runs write their report to stdout, so the CLI logger defaults to
// stderr. Component loggers carry a "component" field:
//
//	log := logger.WithComponent("runner")
//	log.Info("probe finished", logger.Fields("model", id, "outcome", kind))
package logger
