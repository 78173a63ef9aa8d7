// Package version reports the gatewayprobe build.
//
// Version, commit and build time are set at link time:
//
//	go build -ldflags "-X github.com/kbukum/gatewayprobe/version.Version=1.2.0" ./cmd/gatewayprobe
//
// Unset values fall back to the VCS stamp recorded by the Go toolchain.
package version
