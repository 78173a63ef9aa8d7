// Package errors provides the structured error type shared by gatewayprobe
// packages. Probe failures are reported as outcomes, not errors; AppError is
// reserved for faults that stop a run before a report can be built, such as
// invalid configuration.
package errors
