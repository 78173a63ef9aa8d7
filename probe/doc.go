// Package probe checks what an OpenAI-compatible gateway can do.
//
// A Prober runs three kinds of bounded checks against a gateway: liveness
// (GET /health), enumeration (GET /v1/models) and invocation of a model in
// one of the modes completion, structured or streaming. Every check yields
// exactly one Outcome; failures are data, never errors.
//
// Classify maps a raw HTTP exchange or transport error to an Outcome using a
// fixed priority: transport failures first, then authorization, then body
// shape, then status.
package probe
